package emu

import (
	"fmt"

	"github.com/sarchlab/dspsim/insts"
)

func (e *Emulator) readPair(idx uint8) (re, im uint16, err error) {
	return e.regFile.ReadComplex(idx)
}

func (e *Emulator) prepALU(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)
	s0 := f.reg(insts.FieldSReg0)

	var (
		s1  uint8
		imm insts.Imm
	)
	switch inst.Type {
	case insts.TypeALU, insts.TypeALUC:
		s1 = f.reg(insts.FieldSReg1)
	default:
		imm = f.imm()
	}
	if f.err != nil {
		return nil, f.err
	}

	var (
		fn  commitFn
		err error
	)
	switch inst.Type {
	case insts.TypeALU:
		fn, err = e.aluReal(inst.Op, d, e.regFile.ReadData(s0), e.regFile.ReadData(s1))
	case insts.TypeALUImm, insts.TypeALUBit:
		fn, err = e.aluReal(inst.Op, d, e.regFile.ReadData(s0), uint16(imm.Re))
	case insts.TypeALUC:
		fn, err = e.aluPairs(inst.Op, d, s0, s1, inst.Conj)
	case insts.TypeALUImmC:
		fn, err = e.aluPairImm(inst.Op, d, s0, uint16(imm.Re), uint16(imm.Im), inst.Conj)
	default:
		n := uint16(imm.Re)
		fn, err = e.aluPairImm(inst.Op, d, s0, n, n, false)
	}
	if err != nil {
		return nil, err
	}
	return one(fn)
}

func (e *Emulator) aluReal(op insts.Op, d uint8, x, y uint16) (commitFn, error) {
	res, err := e.alu.Compute(op, x, y, e.regFile.Flag(LaneReal, AC))
	if err != nil {
		return nil, err
	}

	return func() error {
		if res.Write {
			e.regFile.WriteData(d, res.Value)
		}
		e.regFile.UpdateFlags(res.Kind, res.Flags)
		return nil
	}, nil
}

func (e *Emulator) aluPairs(op insts.Op, d, s0, s1 uint8, conj bool) (commitFn, error) {
	yr, yi, err := e.readPair(s1)
	if err != nil {
		return nil, err
	}
	return e.aluPairImm(op, d, s0, yr, yi, conj)
}

func (e *Emulator) aluPairImm(op insts.Op, d, s0 uint8, yr, yi uint16, conj bool) (commitFn, error) {
	if d%2 != 0 {
		return nil, fmt.Errorf("%w: R%d", ErrOddComplex, d)
	}
	xr, xi, err := e.readPair(s0)
	if err != nil {
		return nil, err
	}

	re, im, err := e.alu.ComputeComplex(op, xr, xi, yr, yi,
		e.regFile.Flag(LaneReal, AC), e.regFile.Flag(LaneImag, AC), conj)
	if err != nil {
		return nil, err
	}

	return func() error {
		if re.Write {
			if err := e.regFile.WriteComplex(d, re.Value, im.Value); err != nil {
				return err
			}
		}
		e.regFile.UpdateComplexFlags(re.Kind, re.Flags, im.Flags)
		return nil
	}, nil
}

func (e *Emulator) prepALUAcc(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	a := f.reg(insts.FieldAcc)
	s0 := f.reg(insts.FieldSAcc0)
	s1 := f.reg(insts.FieldSAcc1)
	if f.err != nil {
		return nil, f.err
	}

	if inst.Type == insts.TypeALUAcc {
		acc := &e.regFile.Acc[a]
		v, flags, err := e.alu.AccArith(inst.Op, e.regFile.Acc[s0].Value(), e.regFile.Acc[s1].Value())
		if err != nil {
			return nil, err
		}
		return one(func() error {
			acc.Set(v)
			e.regFile.UpdateFlags(KindAccArith, flags)
			return nil
		})
	}

	dr, di, err := e.regFile.AccPair(a)
	if err != nil {
		return nil, err
	}
	xr, xi, err := e.regFile.AccPair(s0)
	if err != nil {
		return nil, err
	}
	yr, yi, err := e.regFile.AccPair(s1)
	if err != nil {
		return nil, err
	}

	vr, fr, err := e.alu.AccArith(inst.Op, xr.Value(), yr.Value())
	if err != nil {
		return nil, err
	}
	vi, fi, err := e.alu.AccArith(inst.Op, xi.Value(), yi.Value())
	if err != nil {
		return nil, err
	}

	return one(func() error {
		dr.Set(vr)
		di.Set(vi)
		e.regFile.UpdateComplexFlags(KindAccArith, fr, fi)
		return nil
	})
}

func (e *Emulator) prepMAC(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	opt := f.reg(insts.FieldOpt)
	a := f.reg(insts.FieldAcc)
	s0 := f.reg(insts.FieldSReg0)

	var (
		s1  uint8
		imm insts.Imm
	)
	if inst.Type == insts.TypeMACImm {
		imm = f.imm()
	} else {
		s1 = f.reg(insts.FieldSReg1)
	}
	if f.err != nil {
		return nil, f.err
	}

	var (
		fn  commitFn
		err error
	)
	switch inst.Type {
	case insts.TypeMAC:
		fn, err = e.macReal(inst.Op, opt, a, e.regFile.ReadData(s0), e.regFile.ReadData(s1))
	case insts.TypeMACImm:
		fn, err = e.macReal(inst.Op, opt, a, e.regFile.ReadData(s0), uint16(imm.Re))
	case insts.TypeMACC:
		fn, err = e.macComplex(inst.Op, opt, a, s0, s1, inst.Conj)
	default:
		fn, err = e.macRealComplex(inst.Op, opt, a, s0, s1)
	}
	if err != nil {
		return nil, err
	}
	return one(fn)
}

func setAcc(acc *Accumulator, res MACResult) {
	if res.Rounded {
		acc.SetRounded(res.Value)
		return
	}
	acc.Set(res.Value)
}

func (e *Emulator) macReal(op insts.Op, opt, a uint8, x, y uint16) (commitFn, error) {
	acc := &e.regFile.Acc[a%NumAccs]
	res, err := e.mac.Compute(op, opt, acc.Value(), x, y)
	if err != nil {
		return nil, err
	}

	return func() error {
		setAcc(acc, res)
		e.regFile.UpdateFlags(KindMAC, res.Flags)
		return nil
	}, nil
}

func (e *Emulator) macComplex(op insts.Op, opt, a, s0, s1 uint8, conj bool) (commitFn, error) {
	accR, accI, err := e.regFile.AccPair(a)
	if err != nil {
		return nil, err
	}
	xr, xi, err := e.readPair(s0)
	if err != nil {
		return nil, err
	}
	yr, yi, err := e.readPair(s1)
	if err != nil {
		return nil, err
	}

	re, im, err := e.mac.ComputeComplex(op, opt, accR.Value(), accI.Value(), xr, xi, yr, yi, conj)
	if err != nil {
		return nil, err
	}
	return e.macPairCommit(accR, accI, re, im), nil
}

func (e *Emulator) macRealComplex(op insts.Op, opt, a, s0, s1 uint8) (commitFn, error) {
	accR, accI, err := e.regFile.AccPair(a)
	if err != nil {
		return nil, err
	}
	yr, yi, err := e.readPair(s1)
	if err != nil {
		return nil, err
	}

	re, im, err := e.mac.ComputeRealComplex(
		op, opt, accR.Value(), accI.Value(), e.regFile.ReadData(s0), yr, yi)
	if err != nil {
		return nil, err
	}
	return e.macPairCommit(accR, accI, re, im), nil
}

func (e *Emulator) macPairCommit(accR, accI *Accumulator, re, im MACResult) commitFn {
	return func() error {
		setAcc(accR, re)
		setAcc(accI, im)
		e.regFile.UpdateComplexFlags(KindMAC, re.Flags, im.Flags)
		return nil
	}
}

func (e *Emulator) prepAccOp(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	a := f.reg(insts.FieldAcc)
	if f.err != nil {
		return nil, f.err
	}
	acc := &e.regFile.Acc[a]

	switch inst.Op {
	case insts.OpRND:
		v, ovf := e.mac.Round(acc.Value())
		return one(func() error {
			acc.SetRounded(v)
			e.regFile.UpdateFlags(KindMAC, Flags{MV: ovf})
			return nil
		})
	case insts.OpSAT:
		v, _ := e.mac.Saturate24(acc.Value())
		return one(func() error {
			acc.Set(v)
			return nil
		})
	case insts.OpCLRACC:
		return one(func() error {
			acc.Set(0)
			return nil
		})
	}
	return nil, fmt.Errorf("%w: %s", insts.ErrInvalidOpcode, inst.Op)
}

func (e *Emulator) prepShift(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	opt := f.reg(insts.FieldOpt)
	a := f.reg(insts.FieldAcc)
	s0 := f.reg(insts.FieldSReg0)

	var n int
	switch inst.Type {
	case insts.TypeShift, insts.TypeShiftC:
		n = int(SignExt12(e.regFile.ReadData(f.reg(insts.FieldSReg1))))
	default:
		n = int(f.imm().Re)
	}
	if f.err != nil {
		return nil, f.err
	}

	var (
		fn  commitFn
		err error
	)
	if inst.Type == insts.TypeShiftC || inst.Type == insts.TypeShiftImmC {
		fn, err = e.shiftComplex(inst.Op, opt, a, s0, n)
	} else {
		fn, err = e.shiftReal(inst.Op, opt, a, e.regFile.ReadData(s0), n)
	}
	if err != nil {
		return nil, err
	}
	return one(fn)
}

func (e *Emulator) shiftReal(op insts.Op, opt, a uint8, x uint16, n int) (commitFn, error) {
	acc := &e.regFile.Acc[a%NumAccs]
	res, err := e.shifter.Compute(op, opt, x, ClampShift(n), acc.Value())
	if err != nil {
		return nil, err
	}

	return func() error {
		acc.Set(res.Value)
		e.regFile.UpdateFlags(KindShift, res.Flags)
		return nil
	}, nil
}

func (e *Emulator) shiftComplex(op insts.Op, opt, a, s0 uint8, n int) (commitFn, error) {
	accR, accI, err := e.regFile.AccPair(a)
	if err != nil {
		return nil, err
	}
	xr, xi, err := e.readPair(s0)
	if err != nil {
		return nil, err
	}

	re, im, err := e.shifter.ComputeComplex(op, opt, xr, xi, ClampShift(n), accR.Value(), accI.Value())
	if err != nil {
		return nil, err
	}

	return func() error {
		accR.Set(re.Value)
		accI.Set(im.Value)
		e.regFile.UpdateComplexFlags(KindShift, re.Flags, im.Flags)
		return nil
	}, nil
}

func (e *Emulator) prepExp(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)
	a := f.reg(insts.FieldSAcc0)
	if f.err != nil {
		return nil, f.err
	}

	v := Exp(e.regFile.Acc[a].Value())
	return one(func() error {
		e.regFile.WriteData(d, v)
		return nil
	})
}

// prepCordic reads (magnitude, angle) for RECT or (x, y) for POLAR from a
// register pair and writes the converted pair to the destination pair.
func (e *Emulator) prepCordic(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.reg(insts.FieldDReg)
	s := f.reg(insts.FieldSReg0)
	n := f.imm().Re
	if f.err != nil {
		return nil, f.err
	}
	if d%2 != 0 {
		return nil, fmt.Errorf("%w: R%d", ErrOddComplex, d)
	}

	p, q, err := e.readPair(s)
	if err != nil {
		return nil, err
	}

	iters := Iterations(uint8(n))
	var a, b int32
	switch inst.Op {
	case insts.OpRECT:
		a, b = e.cordic.Rect(SignExt12(p), SignExt12(q), iters)
	case insts.OpPOLAR:
		a, b = e.cordic.Polar(SignExt12(p), SignExt12(q), iters)
	default:
		return nil, fmt.Errorf("%w: %s", insts.ErrInvalidOpcode, inst.Op)
	}

	return one(func() error {
		return e.regFile.WriteComplex(d, uint16(a)&DataMask, uint16(b)&DataMask)
	})
}

// prepMulti prepares every slot of a multi-function record before any slot
// commits.
func (e *Emulator) prepMulti(inst *insts.Instruction) ([]commitFn, error) {
	f := &fieldReader{inst: inst}
	d := f.optional(insts.FieldDReg)
	a := f.optional(insts.FieldAcc)
	opt := f.optional(insts.FieldOpt)
	s0 := f.reg(insts.FieldSReg0)
	s1 := f.reg(insts.FieldSReg1)
	d2 := f.reg(insts.FieldDReg2)
	if f.err != nil {
		return nil, f.err
	}

	primary, err := e.prepPrimary(inst, d, a, s0, s1, opt)
	if err != nil {
		return nil, err
	}

	secondary, err := e.prepSlots(inst, f, d2)
	if err != nil {
		return nil, err
	}

	return append([]commitFn{primary}, secondary...), nil
}

func (e *Emulator) prepPrimary(inst *insts.Instruction, d, a, s0, s1, opt uint8) (commitFn, error) {
	x := e.regFile.ReadData(s0)
	y := e.regFile.ReadData(s1)

	switch inst.Type {
	case insts.TypeMFALUMem, insts.TypeMFALUCopy:
		return e.aluReal(inst.Op, d, x, y)
	case insts.TypeMFALUMemC:
		return e.aluPairs(inst.Op, d, s0, s1, false)
	case insts.TypeMFMACMem:
		return e.macReal(inst.Op, opt, a, x, y)
	case insts.TypeMFMACLdLd:
		return e.macReal(inst.Op, OptSS, a, x, y)
	case insts.TypeMFMACMemC:
		return e.macComplex(inst.Op, opt, a, s0, s1, inst.Conj)
	case insts.TypeMFShiftMem:
		return e.shiftReal(inst.Op, opt, a, x, int(SignExt12(y)))
	}
	return nil, fmt.Errorf("%w: %s", insts.ErrUnknownType, inst.Type)
}

// prepSlots prepares the secondary slots. The dual-load form addresses its
// first load through I0-I3/M0-M3 and its second through I4-I7/M4-M7.
func (e *Emulator) prepSlots(inst *insts.Instruction, f *fieldReader, d2 uint8) ([]commitFn, error) {
	switch inst.Type {
	case insts.TypeMFALUCopy:
		s2 := f.reg(insts.FieldSReg2)
		if f.err != nil {
			return nil, f.err
		}
		return e.copyReal(d2, s2)

	case insts.TypeMFMACLdLd:
		i2, m2 := f.reg(insts.FieldIReg2), f.reg(insts.FieldMReg2)
		d3 := f.reg(insts.FieldDReg3)
		i3, m3 := f.reg(insts.FieldIReg3), f.reg(insts.FieldMReg3)
		if f.err != nil {
			return nil, f.err
		}

		first, err := e.memReal(inst.SubOps[0], d2, e.dag.Indirect(i2, m2, false))
		if err != nil {
			return nil, err
		}
		second, err := e.memReal(inst.SubOps[1], d3, e.dag.Indirect(i3+4, m3+4, false))
		if err != nil {
			return nil, err
		}
		return []commitFn{first, second}, nil
	}

	i2, m2 := f.reg(insts.FieldIReg2), f.reg(insts.FieldMReg2)
	if f.err != nil {
		return nil, f.err
	}
	access := e.dag.Indirect(i2, m2, false)

	var (
		fn  commitFn
		err error
	)
	if inst.Type == insts.TypeMFALUMemC || inst.Type == insts.TypeMFMACMemC {
		fn, err = e.memComplex(inst.SubOps[0], d2, access)
	} else {
		fn, err = e.memReal(inst.SubOps[0], d2, access)
	}
	if err != nil {
		return nil, err
	}
	return []commitFn{fn}, nil
}
