package insts

import "fmt"

// Program is the ordered code list. Records are addressed by their store
// index; the PMA of index i is the code base plus i.
type Program struct {
	codeBase uint16
	insts    []*Instruction
	decoder  *Decoder
	resolved bool
	opts     ResolveOptions
}

// NewProgram creates an empty program whose first word sits at codeBase.
func NewProgram(codeBase uint16) *Program {
	return &Program{
		codeBase: codeBase,
		decoder:  NewDecoder(),
	}
}

// CodeBase returns the PMA of the first record.
func (p *Program) CodeBase() uint16 {
	return p.codeBase
}

// Append decodes w and appends it as the next record.
func (p *Program) Append(w Word) (*Instruction, error) {
	if p.resolved {
		return nil, ErrAlreadyResolved
	}

	inst, err := p.decoder.Decode(w)
	if err != nil {
		return nil, fmt.Errorf("word %d: %w", len(p.insts), err)
	}

	inst.Index = len(p.insts)
	inst.PMA = p.codeBase + uint16(inst.Index)
	p.insts = append(p.insts, inst)

	return inst, nil
}

// Len returns the number of records.
func (p *Program) Len() int {
	return len(p.insts)
}

// At returns the record at store index i, or nil when out of range.
func (p *Program) At(i int) *Instruction {
	if i < 0 || i >= len(p.insts) {
		return nil
	}
	return p.insts[i]
}

// Instructions returns the records in order.
func (p *Program) Instructions() []*Instruction {
	return p.insts
}

// IndexOf maps a PMA to a store index. The PMA one past the last record maps
// to Len, which ends the program. Any other PMA outside the code maps to -1.
func (p *Program) IndexOf(pma uint16) int {
	idx := int(pma) - int(p.codeBase)
	if idx < 0 || idx > len(p.insts) {
		return -1
	}
	return idx
}

// PMAOf maps a store index back to its PMA.
func (p *Program) PMAOf(idx int) uint16 {
	return p.codeBase + uint16(idx)
}

// Resolved reports whether Resolve has run.
func (p *Program) Resolved() bool {
	return p.resolved
}

// DelaySlots reports whether the program was resolved with delay slots.
func (p *Program) DelaySlots() bool {
	return p.opts.DelaySlots
}
