package emu

import (
	"fmt"

	"github.com/sarchlab/dspsim/insts"
)

// ALU implements the 12-bit arithmetic and logic operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ALUResult is the outcome of one lane of an ALU operation.
type ALUResult struct {
	Value uint16
	Flags Flags
	Kind  FlagKind
	// Write is false for operations that only set flags.
	Write bool
}

// add12 computes a+b+c on 12 bits. Carry is the carry out of bit 11 and
// overflow follows the two's-complement sign rule.
func add12(a, b, c uint16) (res uint16, carry, ovf bool) {
	a &= DataMask
	b &= DataMask
	sum := uint32(a) + uint32(b) + uint32(c&1)
	res = uint16(sum) & DataMask

	sa, sb, sr := a&0x800 != 0, b&0x800 != 0, res&0x800 != 0
	return res, sum>>12 != 0, sa == sb && sr != sa
}

func neg12(x uint16) uint16 {
	return (^x + 1) & DataMask
}

// subtrahend returns the addend that subtracts y, plus a borrow of one when
// c is clear. The most negative value negates to itself, so subtracting it
// goes through the sign rule with a negative addend.
func subtrahend(y, c uint16) uint16 {
	return neg12(y + 1 - c&1)
}

func b2u(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func zn(v uint16) Flags {
	return Flags{Z: v&DataMask == 0, N: v&0x800 != 0}
}

// Compute performs a real ALU operation. y is the second operand or the
// bit number for bit operations; carry is the current AC flag.
func (a *ALU) Compute(op insts.Op, x, y uint16, carry bool) (ALUResult, error) {
	c := b2u(carry)

	switch op {
	case insts.OpADD:
		return a.arith(x, y, 0), nil
	case insts.OpADDC:
		return a.arith(x, y, c), nil
	case insts.OpSUB:
		return a.arith(x, subtrahend(y, 1), 0), nil
	case insts.OpSUBC:
		return a.arith(x, subtrahend(y, c), 0), nil
	case insts.OpSUBB:
		return a.arith(y, subtrahend(x, 1), 0), nil
	case insts.OpSUBBC:
		return a.arith(y, subtrahend(x, c), 0), nil
	case insts.OpINC:
		return a.arith(x, 1, 0), nil
	case insts.OpDEC:
		return a.arith(x, DataMask, 0), nil
	case insts.OpAND:
		return logic(x & y), nil
	case insts.OpOR:
		return logic(x | y), nil
	case insts.OpXOR:
		return logic(x ^ y), nil
	case insts.OpNOT:
		return logic(^x), nil
	case insts.OpABS:
		return abs12(x), nil
	case insts.OpSCR:
		if y&1 != 0 {
			return negResult(x), nil
		}
		return ALUResult{Value: x & DataMask, Flags: zn(x), Kind: KindArith, Write: true}, nil
	case insts.OpTSTBIT, insts.OpSETBIT, insts.OpCLRBIT, insts.OpTGLBIT:
		return bitOp(op, x, y), nil
	}

	return ALUResult{}, fmt.Errorf("%w: %s in ALU", insts.ErrInvalidOpcode, op)
}

// arith adds with optional saturation. The saturated value takes the sign
// of the first addend, which is the sign of the true result on overflow.
func (a *ALU) arith(x, y, c uint16) ALUResult {
	res, carry, ovf := add12(x, y, c)
	f := Flags{V: ovf, C: carry}

	if ovf && a.regFile.Mode(ModeSat) {
		res = 0x7FF
		if x&0x800 != 0 {
			res = 0x800
		}
		f.S = true
	}

	zf := zn(res)
	f.Z, f.N = zf.Z, zf.N
	return ALUResult{Value: res, Flags: f, Kind: KindArith, Write: true}
}

func logic(v uint16) ALUResult {
	v &= DataMask
	return ALUResult{Value: v, Flags: zn(v), Kind: KindLogic, Write: true}
}

func abs12(x uint16) ALUResult {
	x &= DataMask
	if x&0x800 == 0 {
		return ALUResult{Value: x, Flags: zn(x), Kind: KindArith, Write: true}
	}
	return negResult(x)
}

// negResult negates x; the most negative value stays and overflows.
func negResult(x uint16) ALUResult {
	x &= DataMask
	v := neg12(x)
	f := zn(v)
	f.V = x == 0x800
	return ALUResult{Value: v, Flags: f, Kind: KindArith, Write: true}
}

func bitOp(op insts.Op, x, n uint16) ALUResult {
	x &= DataMask
	mask := uint16(1) << (n & 0xF) & DataMask

	var v uint16
	switch op {
	case insts.OpTSTBIT:
		return ALUResult{Value: x, Flags: Flags{Z: x&mask == 0}, Kind: KindTest}
	case insts.OpSETBIT:
		v = x | mask
	case insts.OpCLRBIT:
		v = x &^ mask
	default:
		v = x ^ mask
	}
	return logic(v)
}

// ComputeComplex performs a complex ALU operation lane by lane. With conj
// the imaginary lane of the second operand is negated first. SCR rotates x
// by j^k where k is the low two bits of the real lane of y.
func (a *ALU) ComputeComplex(
	op insts.Op,
	xr, xi, yr, yi uint16,
	carryR, carryI, conj bool,
) (re, im ALUResult, err error) {
	if conj {
		yi = neg12(yi)
	}

	if op == insts.OpSCR {
		return scrComplex(xr, xi, yr&3)
	}

	re, err = a.Compute(op, xr, yr, carryR)
	if err != nil {
		return re, im, err
	}
	im, err = a.Compute(op, xi, yi, carryI)
	return re, im, err
}

func scrComplex(xr, xi, k uint16) (re, im ALUResult, err error) {
	keep := func(v uint16) ALUResult {
		v &= DataMask
		return ALUResult{Value: v, Flags: zn(v), Kind: KindArith, Write: true}
	}

	switch k {
	case 0:
		return keep(xr), keep(xi), nil
	case 1:
		return negResult(xi), keep(xr), nil
	case 2:
		return negResult(xr), negResult(xi), nil
	default:
		return keep(xi), negResult(xr), nil
	}
}

// AccArith adds or subtracts 32-bit accumulator values. It never saturates.
func (a *ALU) AccArith(op insts.Op, x, y int32) (int32, Flags, error) {
	var yy, c uint64
	switch op {
	case insts.OpADD:
		yy = uint64(uint32(y))
	case insts.OpSUB:
		yy, c = uint64(^uint32(y)), 1
	default:
		return 0, Flags{}, fmt.Errorf("%w: %s on accumulators", insts.ErrInvalidOpcode, op)
	}

	sum := uint64(uint32(x)) + yy + c
	res := int32(uint32(sum))

	sx, sy, sr := x < 0, int32(uint32(yy)) < 0, res < 0
	return res, Flags{
		Z: res == 0,
		N: sr,
		V: sx == sy && sr != sx,
		C: sum>>32 != 0,
	}, nil
}
