package emu

import (
	"fmt"

	"github.com/sarchlab/dspsim/insts"
)

// ControlUnit implements condition evaluation and the control-flow state
// machine: branches, delay slots, hardware loops and the stack group.
type ControlUnit struct {
	regFile  *RegFile
	messages *MessageBuffer

	prog       *insts.Program
	delaySlots bool

	// Branch taken with delay slots on; applies after the next record.
	delayPending bool
	delayTarget  int

	// Delay state captured at the start of the current step.
	inDelay       bool
	inDelayTarget int
	jumpPending   bool
	jumpTarget    int
}

// NewControlUnit creates a new ControlUnit connected to the given register
// file and message buffer.
func NewControlUnit(regFile *RegFile, messages *MessageBuffer) *ControlUnit {
	return &ControlUnit{regFile: regFile, messages: messages}
}

// SetProgram attaches the program whose PMAs branch targets refer to.
func (c *ControlUnit) SetProgram(prog *insts.Program, delaySlots bool) {
	c.prog = prog
	c.delaySlots = delaySlots
	c.ResetFlow()
}

// ResetFlow drops any pending branch.
func (c *ControlUnit) ResetFlow() {
	c.delayPending = false
	c.inDelay = false
	c.jumpPending = false
}

// BeginStep latches the delay-slot state for the record about to execute.
func (c *ControlUnit) BeginStep() {
	c.inDelay = c.delayPending
	c.inDelayTarget = c.delayTarget
	c.delayPending = false
	c.jumpPending = false
}

// CheckCondition evaluates a condition code against the status lanes.
// NOT CE decrements the visible loop counter as a side effect.
func (c *ControlUnit) CheckCondition(cond insts.Cond) (bool, error) {
	r := c.regFile

	switch {
	case cond <= insts.CondGE:
		return laneCondition(r.ASTAT[LaneReal], cond-insts.CondEQ), nil
	case cond >= insts.CondIEQ && cond <= insts.CondIGE:
		return laneCondition(r.ASTAT[LaneImag], cond-insts.CondIEQ), nil
	}

	switch cond {
	case insts.CondAV:
		return r.Flag(LaneReal, AV), nil
	case insts.CondNotAV:
		return !r.Flag(LaneReal, AV), nil
	case insts.CondAC:
		return r.Flag(LaneReal, AC), nil
	case insts.CondNotAC:
		return !r.Flag(LaneReal, AC), nil
	case insts.CondSV:
		return r.Flag(LaneReal, SV), nil
	case insts.CondNotSV:
		return !r.Flag(LaneReal, SV), nil
	case insts.CondMV:
		return r.Flag(LaneReal, MV), nil
	case insts.CondNotMV:
		return !r.Flag(LaneReal, MV), nil
	case insts.CondNotCE:
		v := r.Counter() - 1
		r.SetCounter(v)
		return v != 0, nil
	case insts.CondTrue:
		return true, nil
	case insts.CondIAV:
		return r.Flag(LaneImag, AV), nil
	case insts.CondNotIAV:
		return !r.Flag(LaneImag, AV), nil
	case insts.CondIAC:
		return r.Flag(LaneImag, AC), nil
	case insts.CondNotIAC:
		return !r.Flag(LaneImag, AC), nil
	case insts.CondCEQ:
		return r.Flag(LaneComplex, AZ), nil
	case insts.CondCNE:
		return !r.Flag(LaneComplex, AZ), nil
	case insts.CondCAV:
		return r.Flag(LaneComplex, AV), nil
	case insts.CondNotCAV:
		return !r.Flag(LaneComplex, AV), nil
	}

	return false, fmt.Errorf("%w: %d", ErrBadCondition, cond)
}

// laneCondition evaluates EQ, NE, GT, LE, LT or GE (offsets 0-5) on one
// ASTAT lane. LT is AN xor AV.
func laneCondition(astat uint16, offset insts.Cond) bool {
	z := astat&AZ != 0
	lt := (astat&AN != 0) != (astat&AV != 0)

	switch offset {
	case 0:
		return z
	case 1:
		return !z
	case 2:
		return !lt && !z
	case 3:
		return lt || z
	case 4:
		return lt
	default:
		return !lt
	}
}

// TargetIndex maps a branch target PMA to a program store index.
func (c *ControlUnit) TargetIndex(pma uint16) (int, error) {
	idx := c.prog.IndexOf(pma)
	if idx < 0 {
		return 0, fmt.Errorf("%w: 0x%04X", insts.ErrBranchTarget, pma)
	}
	return idx, nil
}

func (c *ControlUnit) take(idx int) {
	if c.delaySlots {
		c.delayPending = true
		c.delayTarget = idx
		return
	}
	c.jumpPending = true
	c.jumpTarget = idx
}

// Jump transfers control to store index idx.
func (c *ControlUnit) Jump(idx int) {
	c.take(idx)
}

// Call pushes the return address and transfers control to idx. The return
// address skips the delay slot when delay slots are on.
func (c *ControlUnit) Call(inst *insts.Instruction, idx int) {
	ret := inst.PMA + 1
	if c.delaySlots {
		ret++
	}
	if !c.regFile.Stacks.PC.Push(ret) {
		c.messages.Warn("PC stack overflow at 0x%04X", inst.PMA)
	}
	c.take(idx)
}

// Return pops the PC stack and transfers control there. RTI also restores
// the status group. An empty PC stack is reported and execution continues
// linearly.
func (c *ControlUnit) Return(inst *insts.Instruction, rti bool) error {
	pma, ok := c.regFile.Stacks.PC.Pop()
	if !ok {
		c.messages.Warn("PC stack underflow at 0x%04X", inst.PMA)
		return nil
	}

	if rti {
		c.popStatus(inst)
	}

	idx, err := c.TargetIndex(pma)
	if err != nil {
		return err
	}
	c.take(idx)
	return nil
}

// Do pushes a loop frame for the body from the next record to end.
func (c *ControlUnit) Do(inst *insts.Instruction, end, count uint16, forever bool) {
	frame := LoopFrame{Begin: inst.PMA + 1, End: end, Count: count, Forever: forever}
	if !c.regFile.Stacks.PushLoop(frame) {
		c.messages.Warn("loop stack overflow at 0x%04X", inst.PMA)
	}
}

// Stack control codes.
const (
	StackNone = iota
	StackPush
	StackPop
)

// ValidateStackControl rejects the reserved control code.
func ValidateStackControl(ctl ...uint64) error {
	for _, v := range ctl {
		if v > StackPop {
			return fmt.Errorf("%w: stack control %d", ErrBadControl, v)
		}
	}
	return nil
}

// PushPop applies the loop, PC and status stack controls in that order.
func (c *ControlUnit) PushPop(inst *insts.Instruction, loopCtl, pcCtl, stsCtl uint64) {
	r := c.regFile
	s := r.Stacks

	switch loopCtl {
	case StackPush:
		frame := LoopFrame{Begin: r.LPBEGIN, End: r.LPEND, Count: r.CNTR, Forever: r.LPFOREVER}
		if !s.PushLoop(frame) {
			c.messages.Warn("loop stack overflow at 0x%04X", inst.PMA)
		}
	case StackPop:
		frame, ok := s.PopLoop()
		if !ok {
			c.messages.Warn("loop stack underflow at 0x%04X", inst.PMA)
			break
		}
		r.LPBEGIN, r.LPEND, r.CNTR = frame.Begin, frame.End, frame.Count
		r.LPFOREVER = frame.Forever
	}

	switch pcCtl {
	case StackPush:
		if !s.PC.Push(inst.PMA + 1) {
			c.messages.Warn("PC stack overflow at 0x%04X", inst.PMA)
		}
	case StackPop:
		if _, ok := s.PC.Pop(); !ok {
			c.messages.Warn("PC stack underflow at 0x%04X", inst.PMA)
		}
	}

	switch stsCtl {
	case StackPush:
		c.pushStatus(inst)
	case StackPop:
		c.popStatus(inst)
	}
}

func (c *ControlUnit) pushStatus(inst *insts.Instruction) {
	r := c.regFile
	vals := [numStatusStacks]uint16{
		r.ASTAT[LaneReal], r.ASTAT[LaneImag], r.ASTAT[LaneComplex], r.MSTAT(),
	}
	for i, h := range r.Stacks.Status {
		if !h.Push(vals[i]) {
			c.messages.Warn("%s stack overflow at 0x%04X", h.Name(), inst.PMA)
		}
	}
}

func (c *ControlUnit) popStatus(inst *insts.Instruction) {
	r := c.regFile
	var vals [numStatusStacks]uint16
	for i, h := range r.Stacks.Status {
		v, ok := h.Pop()
		if !ok {
			c.messages.Warn("%s stack underflow at 0x%04X", h.Name(), inst.PMA)
			return
		}
		vals[i] = v
	}

	r.ASTAT[LaneReal] = vals[StatusASTATR]
	r.ASTAT[LaneImag] = vals[StatusASTATI]
	r.ASTAT[LaneComplex] = vals[StatusASTATC]
	r.WriteMSTAT(vals[StatusMSTAT])
}

// Next computes the store index of the record after inst, which sits at
// index idx: the cached target after a delay slot, a taken branch, the
// loop begin at a loop end, or the linear successor.
func (c *ControlUnit) Next(inst *insts.Instruction, idx int) (int, error) {
	if c.inDelay {
		c.inDelay = false
		return c.inDelayTarget, nil
	}
	if c.jumpPending {
		c.jumpPending = false
		return c.jumpTarget, nil
	}
	if c.delayPending {
		return idx + 1, nil
	}

	s := c.regFile.Stacks
	for {
		frame, ok := s.TopLoop()
		if !ok || frame.End != inst.PMA {
			return idx + 1, nil
		}

		switch {
		case frame.Forever:
			s.LoopCount.SetTop(frame.Count - 1)
			return c.TargetIndex(frame.Begin)
		case frame.Count > 1:
			s.LoopCount.SetTop(frame.Count - 1)
			return c.TargetIndex(frame.Begin)
		}
		s.PopLoop()
	}
}
