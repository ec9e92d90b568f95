package emu

import (
	"fmt"

	"github.com/sarchlab/dspsim/insts"
)

// MAC option codes.
const (
	OptSS uint8 = iota // signed x signed
	OptSU              // signed x unsigned
	OptUS              // unsigned x signed
	OptUU              // unsigned x unsigned
	OptRND             // signed x signed, rounded
)

// MAC implements the multiplier and multiply-accumulate operations.
type MAC struct {
	regFile *RegFile
}

// NewMAC creates a new MAC connected to the given register file.
func NewMAC(regFile *RegFile) *MAC {
	return &MAC{regFile: regFile}
}

// MACResult is the outcome of one lane of a multiplier operation.
type MACResult struct {
	Value   int32
	Flags   Flags
	Rounded bool
}

type signedness struct {
	xSigned, ySigned, round bool
}

func decodeOpt(opt uint8) (signedness, error) {
	switch opt {
	case OptSS:
		return signedness{true, true, false}, nil
	case OptSU:
		return signedness{true, false, false}, nil
	case OptUS:
		return signedness{false, true, false}, nil
	case OptUU:
		return signedness{false, false, false}, nil
	case OptRND:
		return signedness{true, true, true}, nil
	}
	return signedness{}, fmt.Errorf("%w: multiplier option %d", ErrBadOption, opt)
}

func operand(v uint16, signed bool) int64 {
	if signed {
		return int64(SignExt12(v))
	}
	return int64(v & DataMask)
}

// product multiplies two 12-bit operands, doubling in fractional mode.
func (m *MAC) product(x, y uint16, s signedness) int64 {
	p := operand(x, s.xSigned) * operand(y, s.ySigned)
	if m.regFile.Mode(ModeFrac) {
		p <<= 1
	}
	return p
}

// accumulate folds p into acc and produces the committed result. MV is set
// when the 36-bit result does not fit a sign-extended 32-bit value.
func (m *MAC) accumulate(op insts.Op, acc int32, p int64, round bool) (MACResult, error) {
	var r int64
	switch op {
	case insts.OpMPY:
		r = p
	case insts.OpMAC:
		r = int64(acc) + p
	case insts.OpMAS:
		r = int64(acc) - p
	default:
		return MACResult{}, fmt.Errorf("%w: %s in multiplier", insts.ErrInvalidOpcode, op)
	}

	r36 := r << 28 >> 28
	res := MACResult{
		Value: int32(r36),
		Flags: Flags{MV: r36 != int64(int32(r36))},
	}
	if round {
		v, ovf := m.Round(res.Value)
		res.Value = v
		res.Flags.MV = res.Flags.MV || ovf
		res.Rounded = true
	}
	return res, nil
}

// Compute performs a real multiply on x and y.
func (m *MAC) Compute(op insts.Op, opt uint8, acc int32, x, y uint16) (MACResult, error) {
	s, err := decodeOpt(opt)
	if err != nil {
		return MACResult{}, err
	}
	return m.accumulate(op, acc, m.product(x, y, s), s.round)
}

// ComputeComplex multiplies complex x by complex y, conjugating y first
// when conj is set.
func (m *MAC) ComputeComplex(
	op insts.Op, opt uint8,
	accR, accI int32,
	xr, xi, yr, yi uint16,
	conj bool,
) (re, im MACResult, err error) {
	s, err := decodeOpt(opt)
	if err != nil {
		return re, im, err
	}

	rr := m.product(xr, yr, s)
	ii := m.product(xi, yi, s)
	ri := m.product(xr, yi, s)
	ir := m.product(xi, yr, s)
	if conj {
		ii, ri = -ii, -ri
	}

	re, err = m.accumulate(op, accR, rr-ii, s.round)
	if err != nil {
		return re, im, err
	}
	im, err = m.accumulate(op, accI, ri+ir, s.round)
	return re, im, err
}

// ComputeRealComplex multiplies real x by complex y.
func (m *MAC) ComputeRealComplex(
	op insts.Op, opt uint8,
	accR, accI int32,
	x, yr, yi uint16,
) (re, im MACResult, err error) {
	s, err := decodeOpt(opt)
	if err != nil {
		return re, im, err
	}

	re, err = m.accumulate(op, accR, m.product(x, yr, s), s.round)
	if err != nil {
		return re, im, err
	}
	im, err = m.accumulate(op, accI, m.product(x, yi, s), s.round)
	return re, im, err
}

// MaxRounded is the largest accumulator value with a clear low view.
const MaxRounded int32 = 0x7FFFF000

// Round rounds at the 0x800 boundary of the low view. Biased rounding
// always adds half; unbiased rounding breaks exact ties to an even M. A
// rounding carry out of 32 bits saturates to MaxRounded and reports true.
func (m *MAC) Round(v int32) (int32, bool) {
	low := v & 0xFFF
	r := int64(v) + 0x800
	if !m.regFile.Mode(ModeBias) && low == 0x800 {
		r &^= 0x1000
	}
	r &^= 0xFFF
	if r > int64(MaxRounded) {
		return MaxRounded, true
	}
	return int32(r), false
}

// Saturate24 clamps v to the range where H is the sign extension of M.
func (m *MAC) Saturate24(v int32) (int32, bool) {
	const hi, lo = 1<<23 - 1, -1 << 23
	switch {
	case v > hi:
		return hi, true
	case v < lo:
		return lo, true
	}
	return v, false
}
