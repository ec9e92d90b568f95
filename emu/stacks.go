package emu

import "github.com/emirpasic/gods/stacks/arraystack"

// StackDepth is the depth of every hardware stack.
const StackDepth = 8

// HWStack is a bounded hardware stack. A push onto a full stack is dropped
// and counted as an overflow; a pop from an empty stack returns zero and is
// counted as an underflow.
type HWStack struct {
	name  string
	depth int
	s     *arraystack.Stack

	Overflows  int
	Underflows int
}

// NewHWStack creates an empty stack of the given depth.
func NewHWStack(name string, depth int) *HWStack {
	return &HWStack{
		name:  name,
		depth: depth,
		s:     arraystack.New(),
	}
}

// Name returns the stack name used in messages.
func (h *HWStack) Name() string {
	return h.name
}

// Push pushes v and reports whether it fit.
func (h *HWStack) Push(v uint16) bool {
	if h.s.Size() >= h.depth {
		h.Overflows++
		return false
	}
	h.s.Push(v)
	return true
}

// Pop pops the top value. ok is false on underflow.
func (h *HWStack) Pop() (v uint16, ok bool) {
	top, ok := h.s.Pop()
	if !ok {
		h.Underflows++
		return 0, false
	}
	return top.(uint16), true
}

// Peek returns the top value without removing it.
func (h *HWStack) Peek() (uint16, bool) {
	top, ok := h.s.Peek()
	if !ok {
		return 0, false
	}
	return top.(uint16), true
}

// SetTop replaces the top value. It is a no-op on an empty stack.
func (h *HWStack) SetTop(v uint16) {
	if _, ok := h.s.Pop(); ok {
		h.s.Push(v)
	}
}

// Len returns the number of entries.
func (h *HWStack) Len() int {
	return h.s.Size()
}

// Empty reports whether the stack holds no entries.
func (h *HWStack) Empty() bool {
	return h.s.Empty()
}

// Full reports whether the next push would overflow.
func (h *HWStack) Full() bool {
	return h.s.Size() >= h.depth
}

// Values returns the entries from top to bottom.
func (h *HWStack) Values() []uint16 {
	raw := h.s.Values()
	out := make([]uint16, len(raw))
	for i, v := range raw {
		out[i] = v.(uint16)
	}
	return out
}

// Clear empties the stack and resets its counters.
func (h *HWStack) Clear() {
	h.s.Clear()
	h.Overflows = 0
	h.Underflows = 0
}

// Status save stack slots.
const (
	StatusASTATR = iota
	StatusASTATI
	StatusASTATC
	StatusMSTAT
	numStatusStacks
)

// LoopFrame is one entry of the loop stack group.
type LoopFrame struct {
	Begin   uint16
	End     uint16
	Count   uint16
	Forever bool
}

// Stacks holds all hardware stacks.
type Stacks struct {
	PC          *HWStack
	LoopBegin   *HWStack
	LoopEnd     *HWStack
	LoopCount   *HWStack
	LoopForever *HWStack
	Status      [numStatusStacks]*HWStack
}

// NewStacks creates the hardware stack set.
func NewStacks() *Stacks {
	s := &Stacks{
		PC:          NewHWStack("PC", StackDepth),
		LoopBegin:   NewHWStack("LOOP BEGIN", StackDepth),
		LoopEnd:     NewHWStack("LOOP END", StackDepth),
		LoopCount:   NewHWStack("LOOP COUNT", StackDepth),
		LoopForever: NewHWStack("LOOP FOREVER", StackDepth),
	}
	for i, name := range []string{"ASTAT_R", "ASTAT_I", "ASTAT_C", "MSTAT"} {
		s.Status[i] = NewHWStack(name, StackDepth)
	}
	return s
}

// PushLoop pushes a frame onto the four loop stacks. It reports false when
// the loop stacks are full; the frame is then dropped as a whole.
func (s *Stacks) PushLoop(f LoopFrame) bool {
	if s.LoopEnd.Full() {
		s.LoopBegin.Overflows++
		s.LoopEnd.Overflows++
		s.LoopCount.Overflows++
		s.LoopForever.Overflows++
		return false
	}

	forever := uint16(0)
	if f.Forever {
		forever = 1
	}
	s.LoopBegin.Push(f.Begin)
	s.LoopEnd.Push(f.End)
	s.LoopCount.Push(f.Count)
	s.LoopForever.Push(forever)
	return true
}

// PopLoop pops the top frame from the four loop stacks.
func (s *Stacks) PopLoop() (LoopFrame, bool) {
	f, ok := s.TopLoop()
	s.LoopBegin.Pop()
	s.LoopEnd.Pop()
	s.LoopCount.Pop()
	s.LoopForever.Pop()
	return f, ok
}

// TopLoop returns the innermost loop frame.
func (s *Stacks) TopLoop() (LoopFrame, bool) {
	end, ok := s.LoopEnd.Peek()
	if !ok {
		return LoopFrame{}, false
	}
	begin, _ := s.LoopBegin.Peek()
	count, _ := s.LoopCount.Peek()
	forever, _ := s.LoopForever.Peek()
	return LoopFrame{Begin: begin, End: end, Count: count, Forever: forever != 0}, true
}

// Clear empties every stack.
func (s *Stacks) Clear() {
	for _, h := range s.all() {
		h.Clear()
	}
}

// Overflows sums the overflow counts of all stacks.
func (s *Stacks) Overflows() int {
	n := 0
	for _, h := range s.all() {
		n += h.Overflows
	}
	return n
}

// Underflows sums the underflow counts of all stacks.
func (s *Stacks) Underflows() int {
	n := 0
	for _, h := range s.all() {
		n += h.Underflows
	}
	return n
}

func (s *Stacks) all() []*HWStack {
	return []*HWStack{
		s.PC, s.LoopBegin, s.LoopEnd, s.LoopCount, s.LoopForever,
		s.Status[0], s.Status[1], s.Status[2], s.Status[3],
	}
}

// SSTAT bits.
const (
	SStatPCEmpty      uint16 = 1 << 0
	SStatPCOverflow   uint16 = 1 << 1
	SStatCntEmpty     uint16 = 1 << 2
	SStatCntOverflow  uint16 = 1 << 3
	SStatStsEmpty     uint16 = 1 << 4
	SStatStsOverflow  uint16 = 1 << 5
	SStatLoopEmpty    uint16 = 1 << 6
	SStatLoopOverflow uint16 = 1 << 7

	sstatPCLevelShift = 8
)

// SSTAT computes the stack status word. Bits 8-11 hold the PC stack level.
func (s *Stacks) SSTAT() uint16 {
	var v uint16
	set := func(bit uint16, cond bool) {
		if cond {
			v |= bit
		}
	}

	set(SStatPCEmpty, s.PC.Empty())
	set(SStatPCOverflow, s.PC.Overflows > 0)
	set(SStatCntEmpty, s.LoopCount.Empty())
	set(SStatCntOverflow, s.LoopCount.Overflows > 0)
	set(SStatStsEmpty, s.Status[StatusMSTAT].Empty())
	set(SStatStsOverflow, s.Status[StatusMSTAT].Overflows > 0)
	set(SStatLoopEmpty, s.LoopEnd.Empty())
	set(SStatLoopOverflow, s.LoopEnd.Overflows > 0)

	v |= uint16(s.PC.Len()) << sstatPCLevelShift
	return v
}
