package insts

import (
	"fmt"
	"strings"
)

// FieldValue is one decoded field of a listing.
type FieldValue struct {
	Field Field
	Value uint64
}

// Listing is the diagnostic view of a decoded instruction.
type Listing struct {
	PMA    uint16
	Bits   string
	Type   Type
	Fields []FieldValue
	Ops    []Op
}

// Disassemble renders the diagnostic view of inst. Ops holds the primary
// opcode followed by any slot opcodes.
func Disassemble(inst *Instruction) Listing {
	l := Listing{
		PMA:  inst.PMA,
		Bits: inst.Word.Bits(),
		Type: inst.Type,
		Ops:  []Op{inst.Op},
	}

	for _, spec := range inst.format.Fields {
		v, _ := inst.Field(spec.Field)
		l.Fields = append(l.Fields, FieldValue{Field: spec.Field, Value: v})
	}
	l.Ops = append(l.Ops, inst.SubOps[:inst.NumSubOps]...)

	return l
}

// FieldText renders the fields as NAME=0xVAL pairs.
func (l Listing) FieldText() string {
	parts := make([]string, len(l.Fields))
	for i, fv := range l.Fields {
		parts[i] = fmt.Sprintf("%s=0x%X", fv.Field, fv.Value)
	}
	return strings.Join(parts, " ")
}

// OpText renders the opcodes joined by " || ".
func (l Listing) OpText() string {
	parts := make([]string, len(l.Ops))
	for i, op := range l.Ops {
		parts[i] = op.String()
	}
	return strings.Join(parts, " || ")
}

func (l Listing) String() string {
	return fmt.Sprintf("%04X %s %-12s %d %s ; %s",
		l.PMA, l.Bits, l.Type, len(l.Fields), l.FieldText(), l.OpText())
}
