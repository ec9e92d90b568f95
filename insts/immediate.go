package insts

import "fmt"

// ImmClass is the numeric class of an immediate field.
type ImmClass uint8

// Immediate classes. Complex classes split the field into two equal halves,
// the real part in the upper half.
const (
	ImmNone ImmClass = iota
	ImmS4
	ImmS5
	ImmS6
	ImmS8
	ImmS12
	ImmS13
	ImmS16
	ImmS24
	ImmU4
	ImmU12
	ImmU16
	ImmC8
	ImmC24
	ImmC32
)

type immInfo struct {
	name    string
	width   uint8
	signed  bool
	complex bool
}

var immClasses = map[ImmClass]immInfo{
	ImmS4:  {"S4", 4, true, false},
	ImmS5:  {"S5", 5, true, false},
	ImmS6:  {"S6", 6, true, false},
	ImmS8:  {"S8", 8, true, false},
	ImmS12: {"S12", 12, true, false},
	ImmS13: {"S13", 13, true, false},
	ImmS16: {"S16", 16, true, false},
	ImmS24: {"S24", 24, true, false},
	ImmU4:  {"U4", 4, false, false},
	ImmU12: {"U12", 12, false, false},
	ImmU16: {"U16", 16, false, false},
	ImmC8:  {"C8", 8, true, true},
	ImmC24: {"C24", 24, true, true},
	ImmC32: {"C32", 32, true, true},
}

func (c ImmClass) String() string {
	if info, ok := immClasses[c]; ok {
		return info.name
	}
	return "NONE"
}

// Width returns the field width of the class in bits.
func (c ImmClass) Width() uint8 {
	return immClasses[c].width
}

// IsComplex reports whether the class splits into real and imaginary parts.
func (c ImmClass) IsComplex() bool {
	return immClasses[c].complex
}

// Imm is a decoded immediate value.
type Imm struct {
	Re      int32
	Im      int32
	Complex bool
}

func (i Imm) String() string {
	if i.Complex {
		return fmt.Sprintf("(%d,%d)", i.Re, i.Im)
	}
	return fmt.Sprintf("%d", i.Re)
}

// SignExtend sign-extends the low width bits of v.
func SignExtend(v uint64, width uint8) int64 {
	shift := 64 - width
	return int64(v<<shift) >> shift
}

// DecodeImmediate converts a raw field value into an immediate of the given
// class. Bits above the class width are ignored.
func DecodeImmediate(raw uint64, class ImmClass) Imm {
	info, ok := immClasses[class]
	if !ok {
		return Imm{Re: int32(raw)}
	}
	raw &= (1 << info.width) - 1

	if info.complex {
		half := info.width / 2
		return Imm{
			Re:      int32(SignExtend(raw>>half, half)),
			Im:      int32(SignExtend(raw, half)),
			Complex: true,
		}
	}
	if info.signed {
		return Imm{Re: int32(SignExtend(raw, info.width))}
	}
	return Imm{Re: int32(raw)}
}

// EncodeImmediate is the inverse of DecodeImmediate. Values are truncated to
// the class width.
func EncodeImmediate(imm Imm, class ImmClass) uint64 {
	info, ok := immClasses[class]
	if !ok {
		return uint64(uint32(imm.Re))
	}
	if info.complex {
		half := info.width / 2
		mask := uint64(1)<<half - 1
		return (uint64(uint32(imm.Re))&mask)<<half | uint64(uint32(imm.Im))&mask
	}
	return uint64(uint32(imm.Re)) & (1<<info.width - 1)
}
