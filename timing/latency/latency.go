// Package latency provides the static timing model of resolved programs.
//
// Latencies are configured via TimingConfig and applied once, when a
// program is resolved. Table reports how those costs break down.
package latency

import (
	"github.com/sarchlab/dspsim/insts"
)

// Class groups instruction types by the unit that executes them.
type Class uint8

// Instruction classes.
const (
	ClassControl Class = iota
	ClassALU
	ClassMAC
	ClassShift
	ClassMove
	ClassMemory
	ClassBranch
	ClassMulti
	numClasses
)

var classNames = [numClasses]string{
	"control", "alu", "mac", "shift", "move", "memory", "branch", "multi",
}

func (c Class) String() string {
	if c < numClasses {
		return classNames[c]
	}
	return "unknown"
}

// Classes returns all classes in display order.
func Classes() []Class {
	out := make([]Class, numClasses)
	for i := range out {
		out[i] = Class(i)
	}
	return out
}

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

// GetLatency returns the cycles the resolver charges inst when next follows
// it. next may be nil.
func (t *Table) GetLatency(inst, next *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	lat := t.config.DefaultLatency
	if t.IsBranchOp(inst) && !t.config.DelaySlots {
		lat = t.config.BranchStallLatency
	}
	if inst.Type == insts.TypeMemC && t.IsMemoryOp(next) {
		lat = max(lat, t.config.MemHazardLatency)
	}
	return lat
}

// IsMemoryOp returns true if the instruction references data memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Format().MemRef
}

// IsBranchOp returns true if the instruction redirects control flow.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op.IsBranch()
}

// Classify returns the class of inst.
func (t *Table) Classify(inst *insts.Instruction) Class {
	switch {
	case inst.IsMultiFunction():
		return ClassMulti
	case t.IsBranchOp(inst):
		return ClassBranch
	case t.IsMemoryOp(inst):
		return ClassMemory
	}

	switch inst.Type {
	case insts.TypeALU, insts.TypeALUImm, insts.TypeALUC, insts.TypeALUImmC,
		insts.TypeALUBit, insts.TypeALUBitC, insts.TypeALUAcc, insts.TypeALUAccC:
		return ClassALU
	case insts.TypeMAC, insts.TypeMACC, insts.TypeMACRC, insts.TypeMACImm, insts.TypeAccOp:
		return ClassMAC
	case insts.TypeShift, insts.TypeShiftImm, insts.TypeShiftC, insts.TypeShiftImmC,
		insts.TypeExp, insts.TypeCordic:
		return ClassShift
	case insts.TypeLDImm, insts.TypeLDImmC, insts.TypeLDImmU, insts.TypeLDImmAcc,
		insts.TypeLDImmAccC, insts.TypeMove, insts.TypeCopy, insts.TypeCopyC:
		return ClassMove
	}
	return ClassControl
}

// ClassSummary counts records and static cycles of one class.
type ClassSummary struct {
	Records int
	Cycles  uint64
}

// Summary describes the static cost of a resolved program.
type Summary struct {
	Records      int
	StaticCycles uint64
	BranchStalls int
	MemHazards   int
	DelaySlots   int
	ByClass      map[Class]ClassSummary
}

// Summarize walks a resolved program and totals its static costs.
func (t *Table) Summarize(prog *insts.Program) Summary {
	s := Summary{ByClass: make(map[Class]ClassSummary)}

	for _, inst := range prog.Instructions() {
		s.Records++
		s.StaticCycles += inst.Latency

		c := t.Classify(inst)
		cs := s.ByClass[c]
		cs.Records++
		cs.Cycles += inst.Latency
		s.ByClass[c] = cs

		if inst.DelaySlot {
			s.DelaySlots++
		}
		if t.IsBranchOp(inst) && inst.Latency > t.config.DefaultLatency {
			s.BranchStalls++
		}
		if inst.Type == insts.TypeMemC && inst.Latency > t.config.DefaultLatency {
			s.MemHazards++
		}
	}

	return s
}
