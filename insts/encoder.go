package insts

import "fmt"

// Fields maps field roles to raw field values for Encode.
type Fields map[Field]uint64

// Encode packs raw field values into an instruction word of type t. Fields
// not given are zero, except COND which defaults to TRUE.
func Encode(t Type, fields Fields) (Word, error) {
	f := FormatOf(t)
	if f == nil {
		return 0, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	for field := range fields {
		if !f.Has(field) {
			return 0, fmt.Errorf("%w: %s in %s", ErrFieldAbsent, field, f.Name)
		}
	}

	w := Word(f.prefixVal) << (InstLen - len(f.Prefix))
	for _, fs := range f.Fields {
		v, ok := fields[fs.Field]
		if !ok && fs.Field == FieldCond {
			v = uint64(CondTrue)
		}
		if v >= 1<<fs.Width {
			return 0, fmt.Errorf("%w: %s=%d exceeds %d bits in %s",
				ErrFieldRange, fs.Field, v, fs.Width, f.Name)
		}
		w |= Word(v) << f.layout[fs.Field].shift
	}

	return w, nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(t Type, fields Fields) Word {
	w, err := Encode(t, fields)
	if err != nil {
		panic(err)
	}
	return w
}

// EncodeImm returns the raw IMM field for a real immediate of type t.
func EncodeImm(t Type, v int32) uint64 {
	return EncodeImmediate(Imm{Re: v}, FormatOf(t).Imm)
}

// EncodeComplexImm returns the raw IMM field for a complex immediate of type t.
func EncodeComplexImm(t Type, re, im int32) uint64 {
	return EncodeImmediate(Imm{Re: re, Im: im, Complex: true}, FormatOf(t).Imm)
}
