package insts

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrUnknownType     = errors.New("unknown instruction type")
	ErrFieldAbsent     = errors.New("field not present in instruction type")
	ErrFieldRange      = errors.New("field value out of range")
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrBranchTarget    = errors.New("branch target outside code segment")
	ErrAlreadyResolved = errors.New("program already resolved")
)

// Instruction is one decoded record of the program store. Decode fills the
// layout-derived fields; Resolve fills Op, SubOps, DelaySlot, BranchTarget
// and Latency exactly once.
type Instruction struct {
	Word  Word
	PMA   uint16
	Index int // position in the program store
	Type  Type

	Op        Op
	SubOps    [2]Op // parallel slot opcodes of multi-function types
	NumSubOps int

	Cond Cond
	Conj bool

	// DelaySlot marks the record after a branch when delay slots are on.
	// It feeds the listing and the static summary; whether the branch is
	// taken is only known at run time.
	DelaySlot bool
	// BranchTarget is the program store index of a static branch target,
	// -1 when the target is dynamic. On a delay-slot record it carries the
	// target of the preceding branch.
	BranchTarget int
	Latency      uint64

	format *Format
}

// Format returns the format table entry of the instruction.
func (i *Instruction) Format() *Format {
	return i.format
}

// Has reports whether the field exists in the instruction's layout.
func (i *Instruction) Has(f Field) bool {
	return i.format.Has(f)
}

// Field extracts the raw value of a field. COND and CONJ default to TRUE and
// 0 when the type does not carry them.
func (i *Instruction) Field(f Field) (uint64, error) {
	pos, ok := i.format.layout[f]
	if !ok {
		switch f {
		case FieldCond:
			return uint64(CondTrue), nil
		case FieldConj:
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s in %s", ErrFieldAbsent, f, i.format.Name)
	}
	return uint64(i.Word>>pos.shift) & (1<<pos.width - 1), nil
}

// Immediate decodes the IMM field according to the type's immediate class.
func (i *Instruction) Immediate() (Imm, error) {
	raw, err := i.Field(FieldImm)
	if err != nil {
		return Imm{}, err
	}
	return DecodeImmediate(raw, i.format.Imm), nil
}

// IsMultiFunction reports whether the instruction issues parallel slots.
func (i *Instruction) IsMultiFunction() bool {
	return len(i.format.Slots) > 0
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%04X %s %s", i.PMA, i.Type, i.Op)
}

// Decoder decodes instruction words into instruction records.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one instruction word. The returned record is unresolved.
func (d *Decoder) Decode(w Word) (*Instruction, error) {
	w &= WordMask

	t := TypeOf(w)
	if t == TypeUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, w.Bits())
	}

	inst := &Instruction{
		Word:         w,
		Type:         t,
		Op:           OpInvalid,
		BranchTarget: -1,
		format:       formatsByType[t],
	}

	cond, _ := inst.Field(FieldCond)
	inst.Cond = Cond(cond)
	conj, _ := inst.Field(FieldConj)
	inst.Conj = conj != 0

	return inst, nil
}
