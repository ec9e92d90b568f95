package emu

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/dspsim/insts"
)

// Shifter option codes. HI and LO place the input at bits 12-23 or 0-11 of
// the 32-bit result; the RND variants round right shifts. NORND and RND are
// the complex options, which always place lanes high.
const (
	ShiftHI uint8 = iota
	ShiftLO
	ShiftHIRND
	ShiftLORND
	ShiftNORND
	ShiftRND
)

// MaxShift is the largest shift amount in either direction.
const MaxShift = 32

// Shifter implements the barrel shifter.
type Shifter struct {
	regFile *RegFile
}

// NewShifter creates a new Shifter connected to the given register file.
func NewShifter(regFile *RegFile) *Shifter {
	return &Shifter{regFile: regFile}
}

// ShiftResult is the outcome of one lane of a shift.
type ShiftResult struct {
	Value int32
	Flags Flags
}

// ClampShift limits a shift amount to [-MaxShift, MaxShift].
func ClampShift(n int) int {
	return max(-MaxShift, min(MaxShift, n))
}

// ShiftValue shifts v left by n, or right by -n. Right shifts fill with the
// sign when arith is set. A rounded right shift by k shifts by k-1, adds
// one and shifts the last bit out.
func ShiftValue(v int32, n int, arith, round bool) int32 {
	n = ClampShift(n)
	if n >= 0 {
		if n >= 32 {
			return 0
		}
		return int32(uint32(v) << n)
	}

	k := uint(-n)
	if arith {
		w := int64(v)
		if round {
			return int32((w>>(k-1) + 1) >> 1)
		}
		return int32(w >> k)
	}

	w := uint64(uint32(v))
	if round {
		return int32(uint32((w>>(k-1) + 1) >> 1))
	}
	return int32(uint32(w >> k))
}

// position places a 12-bit input in the 32-bit shifter frame.
func position(x uint16, arith, high bool) int32 {
	var v int32
	if arith {
		v = SignExt12(x)
	} else {
		v = int32(x & DataMask)
	}
	if high {
		v = int32(uint32(v) << 12)
	}
	return v
}

func shiftMode(op insts.Op) (arith, or bool, err error) {
	switch op {
	case insts.OpASHIFT:
		return true, false, nil
	case insts.OpASHIFTOR:
		return true, true, nil
	case insts.OpLSHIFT:
		return false, false, nil
	case insts.OpLSHIFTOR:
		return false, true, nil
	}
	return false, false, fmt.Errorf("%w: %s in shifter", insts.ErrInvalidOpcode, op)
}

// Compute shifts real input x by n. The OR variants combine the result with
// old, the current destination value.
func (s *Shifter) Compute(op insts.Op, opt uint8, x uint16, n int, old int32) (ShiftResult, error) {
	arith, or, err := shiftMode(op)
	if err != nil {
		return ShiftResult{}, err
	}

	var high, round bool
	switch opt {
	case ShiftHI:
		high = true
	case ShiftLO:
	case ShiftHIRND:
		high, round = true, true
	case ShiftLORND:
		round = true
	default:
		return ShiftResult{}, fmt.Errorf("%w: shifter option %d", ErrBadOption, opt)
	}

	return s.lane(x, n, arith, high, round, or, old), nil
}

// ComputeComplex shifts both lanes of a complex input.
func (s *Shifter) ComputeComplex(
	op insts.Op, opt uint8,
	xr, xi uint16, n int,
	oldR, oldI int32,
) (re, im ShiftResult, err error) {
	arith, or, err := shiftMode(op)
	if err != nil {
		return re, im, err
	}

	var round bool
	switch opt {
	case ShiftNORND:
	case ShiftRND:
		round = true
	default:
		return re, im, fmt.Errorf("%w: complex shifter option %d", ErrBadOption, opt)
	}

	re = s.lane(xr, n, arith, true, round, or, oldR)
	im = s.lane(xi, n, arith, true, round, or, oldI)
	return re, im, nil
}

func (s *Shifter) lane(x uint16, n int, arith, high, round, or bool, old int32) ShiftResult {
	v := ShiftValue(position(x, arith, high), n, arith, round)
	if or {
		v |= old
	}
	return ShiftResult{Value: v, Flags: Flags{SS: x&0x800 != 0}}
}

// Exp returns the number of redundant sign bits of v.
func Exp(v int32) uint16 {
	if v < 0 {
		v = ^v
	}
	return uint16(bits.LeadingZeros32(uint32(v)) - 1)
}
