package insts

// ResolveOptions control the second pass over the program.
type ResolveOptions struct {
	// DelaySlots marks the record after each branch as a delay slot instead
	// of charging the branch a stall.
	DelaySlots bool

	DefaultLatency     uint64
	BranchStallLatency uint64
	MemHazardLatency   uint64
}

// DefaultResolveOptions returns options with delay slots disabled and the
// standard one and two cycle latencies.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{
		DelaySlots:         false,
		DefaultLatency:     1,
		BranchStallLatency: 2,
		MemHazardLatency:   2,
	}
}

// Resolve runs the opcode resolver over the whole program. It may run only
// once; the records are immutable afterwards.
func (p *Program) Resolve(opts ResolveOptions) error {
	if p.resolved {
		return ErrAlreadyResolved
	}
	if opts.DefaultLatency == 0 {
		opts.DefaultLatency = 1
	}

	for _, inst := range p.insts {
		p.resolveOps(inst)
		inst.Latency = opts.DefaultLatency
		inst.BranchTarget = p.staticTarget(inst)
	}

	for i, inst := range p.insts {
		var next *Instruction
		if i+1 < len(p.insts) {
			next = p.insts[i+1]
		}

		if inst.Op.IsBranch() {
			if !opts.DelaySlots {
				inst.Latency = opts.BranchStallLatency
			} else if next != nil {
				next.DelaySlot = true
				next.BranchTarget = inst.BranchTarget
			}
		}

		if inst.Type == TypeMemC && next != nil && next.format.MemRef {
			inst.Latency = max(inst.Latency, opts.MemHazardLatency)
		}
	}

	p.opts = opts
	p.resolved = true
	return nil
}

func (p *Program) resolveOps(inst *Instruction) {
	f := inst.format

	inst.Op = selectOp(inst, FieldSel, f.Ops)
	inst.NumSubOps = len(f.Slots)
	for i, slot := range f.Slots {
		inst.SubOps[i] = selectOp(inst, slot.Sel, slot.Ops)
	}
}

func selectOp(inst *Instruction, sel Field, ops []Op) Op {
	if sel == FieldNone || !inst.Has(sel) {
		return ops[0]
	}

	v, _ := inst.Field(sel)
	if v >= uint64(len(ops)) {
		return OpInvalid
	}
	return ops[v]
}

// staticTarget returns the store index of an absolute or relative branch
// target, or -1.
func (p *Program) staticTarget(inst *Instruction) int {
	if inst.Op != OpJUMP && inst.Op != OpCALL {
		return -1
	}

	switch inst.Type {
	case TypeBranchAbs:
		addr, _ := inst.Field(FieldAddr)
		return p.IndexOf(uint16(addr))
	case TypeBranchRel:
		imm, _ := inst.Immediate()
		return p.IndexOf(uint16(int32(inst.PMA) + imm.Re))
	}
	return -1
}
