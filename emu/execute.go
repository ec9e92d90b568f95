package emu

import (
	"fmt"

	"github.com/sarchlab/dspsim/insts"
)

// commitFn applies the writes of one prepared slot.
type commitFn func() error

// fieldReader reads instruction fields and keeps the first error.
type fieldReader struct {
	inst *insts.Instruction
	err  error
}

func (f *fieldReader) get(field insts.Field) uint64 {
	if f.err != nil {
		return 0
	}
	v, err := f.inst.Field(field)
	if err != nil {
		f.err = err
	}
	return v
}

func (f *fieldReader) reg(field insts.Field) uint8 {
	return uint8(f.get(field))
}

// optional reads a field that only some formats of a family carry.
func (f *fieldReader) optional(field insts.Field) uint8 {
	if !f.inst.Has(field) {
		return 0
	}
	return f.reg(field)
}

func (f *fieldReader) imm() insts.Imm {
	if f.err != nil {
		return insts.Imm{}
	}
	v, err := f.inst.Immediate()
	if err != nil {
		f.err = err
	}
	return v
}

func one(fn commitFn) ([]commitFn, error) {
	return []commitFn{fn}, nil
}

// execute evaluates the condition and, when it holds, prepares every slot
// of the record and then commits them in slot order. Slots read machine
// state only while preparing, so no slot sees another slot's writes.
func (e *Emulator) execute(inst *insts.Instruction) (idle bool, err error) {
	ok, err := e.control.CheckCondition(inst.Cond)
	if err != nil || !ok {
		return false, err
	}

	if inst.Op == insts.OpInvalid {
		return false, fmt.Errorf("%w: selector out of range", insts.ErrInvalidOpcode)
	}
	for _, op := range inst.SubOps[:inst.NumSubOps] {
		if op == insts.OpInvalid {
			return false, fmt.Errorf("%w: slot selector out of range", insts.ErrInvalidOpcode)
		}
	}

	commits, err := e.prepare(inst)
	if err != nil {
		return false, err
	}
	for _, commit := range commits {
		if err := commit(); err != nil {
			return false, err
		}
	}

	return inst.Op == insts.OpIDLE, nil
}

// prepare dispatches on the instruction type.
//
//nolint:gocyclo // one case per instruction type
func (e *Emulator) prepare(inst *insts.Instruction) ([]commitFn, error) {
	switch inst.Type {
	case insts.TypeNOP, insts.TypeIdle:
		return nil, nil
	case insts.TypeBranchAbs, insts.TypeBranchInd, insts.TypeBranchRel:
		return e.prepBranch(inst)
	case insts.TypeReturn:
		return e.prepReturn(inst)
	case insts.TypeDo, insts.TypeDoCount:
		return e.prepDo(inst)
	case insts.TypeStack:
		return e.prepStack(inst)
	case insts.TypeMode:
		return e.prepMode(inst)
	case insts.TypeInt:
		return e.prepInt(inst)
	case insts.TypeClrStat:
		return e.prepClrStat(inst)
	case insts.TypeModify, insts.TypeModifyImm:
		return e.prepModify(inst)
	case insts.TypeLDImm, insts.TypeLDImmC:
		return e.prepLoadImm(inst)
	case insts.TypeLDImmU:
		return e.prepLoadImmUReg(inst)
	case insts.TypeLDImmAcc, insts.TypeLDImmAccC:
		return e.prepLoadImmAcc(inst)
	case insts.TypeMove:
		return e.prepMove(inst)
	case insts.TypeCopy, insts.TypeCopyC:
		return e.prepCopy(inst)
	case insts.TypeMem, insts.TypeMemC, insts.TypeMemDir, insts.TypeMemDirC, insts.TypeMemOff:
		return e.prepMem(inst)
	case insts.TypeALU, insts.TypeALUC, insts.TypeALUImm, insts.TypeALUImmC,
		insts.TypeALUBit, insts.TypeALUBitC:
		return e.prepALU(inst)
	case insts.TypeALUAcc, insts.TypeALUAccC:
		return e.prepALUAcc(inst)
	case insts.TypeMAC, insts.TypeMACC, insts.TypeMACRC, insts.TypeMACImm:
		return e.prepMAC(inst)
	case insts.TypeAccOp:
		return e.prepAccOp(inst)
	case insts.TypeShift, insts.TypeShiftImm, insts.TypeShiftC, insts.TypeShiftImmC:
		return e.prepShift(inst)
	case insts.TypeExp:
		return e.prepExp(inst)
	case insts.TypeCordic:
		return e.prepCordic(inst)
	case insts.TypeMFALUMem, insts.TypeMFALUMemC, insts.TypeMFALUCopy,
		insts.TypeMFMACMem, insts.TypeMFMACMemC, insts.TypeMFShiftMem,
		insts.TypeMFMACLdLd:
		return e.prepMulti(inst)
	}

	return nil, fmt.Errorf("%w: %s", insts.ErrUnknownType, inst.Type)
}

func (e *Emulator) prepBranch(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}

	var target uint16
	switch inst.Type {
	case insts.TypeBranchAbs:
		target = uint16(f.get(insts.FieldAddr))
	case insts.TypeBranchRel:
		target = inst.PMA + uint16(f.imm().Re)
	default:
		target = e.regFile.ReadDAGLatencyAware(DAGI, f.reg(insts.FieldIReg))
	}
	if f.err != nil {
		return nil, f.err
	}

	idx := inst.BranchTarget
	if idx < 0 || inst.DelaySlot {
		var err error
		if idx, err = e.control.TargetIndex(target); err != nil {
			return nil, err
		}
	}

	if inst.Op == insts.OpCALL {
		return one(func() error {
			e.control.Call(inst, idx)
			return nil
		})
	}
	return one(func() error {
		e.control.Jump(idx)
		return nil
	})
}

func (e *Emulator) prepReturn(inst *insts.Instruction) ([]commitFn, error) {
	rti := inst.Op == insts.OpRTI
	return one(func() error {
		return e.control.Return(inst, rti)
	})
}

func (e *Emulator) prepDo(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	end := uint16(f.get(insts.FieldAddr))

	var (
		count   uint16
		forever bool
	)
	if inst.Type == insts.TypeDoCount {
		count = uint16(f.imm().Re)
	} else {
		forever = f.get(insts.FieldTerm) == 1
		count = e.regFile.CNTR
	}
	if f.err != nil {
		return nil, f.err
	}

	return one(func() error {
		e.control.Do(inst, end, count, forever)
		return nil
	})
}

func (e *Emulator) prepStack(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	loopCtl := f.get(insts.FieldLoopCtl)
	pcCtl := f.get(insts.FieldPCCtl)
	stsCtl := f.get(insts.FieldStsCtl)
	if f.err != nil {
		return nil, f.err
	}
	if err := ValidateStackControl(loopCtl, pcCtl, stsCtl); err != nil {
		return nil, err
	}

	return one(func() error {
		e.control.PushPop(inst, loopCtl, pcCtl, stsCtl)
		return nil
	})
}

var modeFields = []struct {
	field insts.Field
	bit   uint16
}{
	{insts.FieldModeSat, ModeSat},
	{insts.FieldModeAVL, ModeAVLatch},
	{insts.FieldModeFrac, ModeFrac},
	{insts.FieldModeBias, ModeBias},
	{insts.FieldModeCirc, ModeCirc},
	{insts.FieldModeBrev, ModeBrev},
	{insts.FieldModeTimer, ModeTimer},
	{insts.FieldModeSec, ModeSec},
}

func (e *Emulator) prepMode(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	v := e.regFile.MSTAT()

	for _, m := range modeFields {
		switch ctl := f.get(m.field); ctl {
		case 0:
		case 1:
			v |= m.bit
		case 2:
			v &^= m.bit
		default:
			return nil, fmt.Errorf("%w: mode control %d for %s", ErrBadControl, ctl, m.field)
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	return one(func() error {
		e.regFile.WriteMSTAT(v)
		return nil
	})
}

func (e *Emulator) prepInt(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	n := f.imm().Re
	if f.err != nil {
		return nil, f.err
	}
	if n >= 10 {
		return nil, fmt.Errorf("%w: interrupt %d", ErrBadRegister, n)
	}

	bit := uint16(1) << n
	set := inst.Op == insts.OpSETINT
	return one(func() error {
		if set {
			e.regFile.IRPTL |= bit
		} else {
			e.regFile.IRPTL &^= bit
		}
		return nil
	})
}

func (e *Emulator) prepClrStat(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	lane := Lane(f.get(insts.FieldLane))
	bits := uint16(f.get(insts.FieldFlags))
	if f.err != nil {
		return nil, f.err
	}

	return one(func() error {
		if lane >= numLanes {
			for l := LaneReal; l < numLanes; l++ {
				e.regFile.ClearFlags(l, bits)
			}
			return nil
		}
		e.regFile.ClearFlags(lane, bits)
		return nil
	})
}

func (e *Emulator) prepModify(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	ireg := f.reg(insts.FieldIReg)

	var mod int32
	if inst.Type == insts.TypeModifyImm {
		mod = f.imm().Re
	} else {
		mod = int32(int16(e.regFile.ReadDAGLatencyAware(DAGM, f.reg(insts.FieldMReg))))
	}
	if f.err != nil {
		return nil, f.err
	}

	access := e.dag.Modify(ireg, mod)
	return one(func() error {
		access.Commit(e.regFile)
		return nil
	})
}

func (e *Emulator) prepLoadImm(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)
	imm := f.imm()
	if f.err != nil {
		return nil, f.err
	}

	if inst.Type == insts.TypeLDImmC {
		if d%2 != 0 {
			return nil, fmt.Errorf("%w: R%d", ErrOddComplex, d)
		}
		return one(func() error {
			return e.regFile.WriteComplex(d, uint16(imm.Re), uint16(imm.Im))
		})
	}

	return one(func() error {
		e.regFile.WriteData(d, uint16(imm.Re))
		return nil
	})
}

func (e *Emulator) prepLoadImmUReg(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	u := UReg(f.get(insts.FieldUReg))
	imm := f.imm()
	if f.err != nil {
		return nil, f.err
	}
	if e.regFile.IsReadOnly(u) {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, u)
	}

	return one(func() error {
		return e.regFile.WriteUReg(u, uint16(imm.Re))
	})
}

func (e *Emulator) prepLoadImmAcc(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	a := f.reg(insts.FieldAcc)
	imm := f.imm()
	if f.err != nil {
		return nil, f.err
	}

	if inst.Type == insts.TypeLDImmAccC {
		re, im, err := e.regFile.AccPair(a)
		if err != nil {
			return nil, err
		}
		return one(func() error {
			re.Set(imm.Re)
			im.Set(imm.Im)
			return nil
		})
	}

	acc := &e.regFile.Acc[a%NumAccs]
	return one(func() error {
		acc.Set(imm.Re)
		return nil
	})
}

func (e *Emulator) prepMove(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	u := UReg(f.get(insts.FieldUReg))
	d := f.reg(insts.FieldDReg)
	if f.err != nil {
		return nil, f.err
	}

	if inst.Op == insts.OpRDUREG {
		v, err := e.regFile.ReadUReg(u)
		if err != nil {
			return nil, err
		}
		if u.Group() == GroupAcc && u.Index()%3 == AccViewL &&
			!e.regFile.Acc[u.Index()/3].LValid() {
			e.messages.Warn("read of invalidated %s", u)
		}
		return one(func() error {
			e.regFile.WriteData(d, v)
			return nil
		})
	}

	v := uint16(SignExt12(e.regFile.ReadData(d)))
	return one(func() error {
		if e.regFile.IsReadOnly(u) {
			e.messages.Warn("write to read-only %s ignored", u)
			return nil
		}
		return e.regFile.WriteUReg(u, v)
	})
}

func (e *Emulator) prepCopy(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)
	s := f.reg(insts.FieldSReg0)
	if f.err != nil {
		return nil, f.err
	}

	if inst.Type == insts.TypeCopyC {
		return e.copyComplex(d, s, inst.Conj)
	}
	return e.copyReal(d, s)
}

func (e *Emulator) copyReal(d, s uint8) ([]commitFn, error) {
	v := e.regFile.ReadData(s)
	return one(func() error {
		e.regFile.WriteData(d, v)
		return nil
	})
}

func (e *Emulator) copyComplex(d, s uint8, conj bool) ([]commitFn, error) {
	re, im, err := e.regFile.ReadComplex(s)
	if err != nil {
		return nil, err
	}
	if d%2 != 0 {
		return nil, fmt.Errorf("%w: R%d", ErrOddComplex, d)
	}
	if conj {
		im = neg12(im)
	}
	return one(func() error {
		return e.regFile.WriteComplex(d, re, im)
	})
}

func (e *Emulator) prepMem(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)

	var access Access
	switch inst.Type {
	case insts.TypeMem, insts.TypeMemC:
		access = e.dag.Indirect(
			f.reg(insts.FieldIReg), f.reg(insts.FieldMReg), f.get(insts.FieldPreMod) == 1)
	case insts.TypeMemOff:
		access = e.dag.Offset(f.reg(insts.FieldIReg), f.imm().Re)
	default:
		access = Access{Addr: uint16(f.get(insts.FieldAddr))}
	}
	if f.err != nil {
		return nil, f.err
	}

	var (
		fn  commitFn
		err error
	)
	if inst.Type == insts.TypeMemC || inst.Type == insts.TypeMemDirC {
		fn, err = e.memComplex(inst.Op, d, access)
	} else {
		fn, err = e.memReal(inst.Op, d, access)
	}
	if err != nil {
		return nil, err
	}
	return one(fn)
}

func (e *Emulator) memReal(op insts.Op, d uint8, access Access) (commitFn, error) {
	switch op {
	case insts.OpLOAD:
		v := e.memory.Read(access.Addr)
		return func() error {
			e.regFile.WriteData(d, v)
			access.Commit(e.regFile)
			return nil
		}, nil
	case insts.OpSTORE:
		v := e.regFile.ReadData(d)
		return func() error {
			e.memory.Write(access.Addr, v)
			access.Commit(e.regFile)
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %s in memory slot", insts.ErrInvalidOpcode, op)
}

// memComplex transfers a register pair to or from two consecutive cells.
// Both the register and the address must be even.
func (e *Emulator) memComplex(op insts.Op, d uint8, access Access) (commitFn, error) {
	if d%2 != 0 {
		return nil, fmt.Errorf("%w: R%d", ErrOddComplex, d)
	}
	if access.Addr%2 != 0 {
		return nil, fmt.Errorf("%w: address 0x%04X", ErrOddComplex, access.Addr)
	}

	switch op {
	case insts.OpLOAD:
		re := e.memory.Read(access.Addr)
		im := e.memory.Read(access.Addr + 1)
		return func() error {
			access.Commit(e.regFile)
			return e.regFile.WriteComplex(d, re, im)
		}, nil
	case insts.OpSTORE:
		re, im, _ := e.regFile.ReadComplex(d)
		return func() error {
			e.memory.Write(access.Addr, re)
			e.memory.Write(access.Addr+1, im)
			access.Commit(e.regFile)
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %s in memory slot", insts.ErrInvalidOpcode, op)
}
