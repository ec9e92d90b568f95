package emu

import "math/bits"

// DAG is the data address generator. It reads I/M/L/B and MSTAT with the
// one-cycle latency rule and computes addresses and index updates without
// committing them.
type DAG struct {
	regFile *RegFile
}

// NewDAG creates a new DAG connected to the given register file.
func NewDAG(regFile *RegFile) *DAG {
	return &DAG{regFile: regFile}
}

// Access is a generated address and the index register update it implies.
type Access struct {
	Addr    uint16
	IReg    uint8
	NextI   uint16
	UpdateI bool
}

// Commit writes the index register update, if any.
func (a Access) Commit(regFile *RegFile) {
	if a.UpdateI {
		regFile.WriteDAG(DAGI, a.IReg, a.NextI)
	}
}

// Indirect generates an address from I[ireg] modified by M[mreg]. With
// post-modify the address is I and I is updated; with pre-modify the
// address is I+M and I is left unchanged.
func (d *DAG) Indirect(ireg, mreg uint8, preModify bool) Access {
	mod := int32(int16(d.regFile.ReadDAGLatencyAware(DAGM, mreg)))
	return d.modified(ireg, mod, preModify)
}

// Offset generates I[ireg]+offset without updating I.
func (d *DAG) Offset(ireg uint8, offset int32) Access {
	return d.modified(ireg, offset, true)
}

// Modify returns the access that only updates I[ireg] by mod.
func (d *DAG) Modify(ireg uint8, mod int32) Access {
	return d.modified(ireg, mod, false)
}

func (d *DAG) modified(ireg uint8, mod int32, preModify bool) Access {
	i := d.regFile.ReadDAGLatencyAware(DAGI, ireg)
	next := d.step(ireg, i, mod)

	a := Access{IReg: ireg}
	if preModify {
		a.Addr = next
	} else {
		a.Addr = i
		a.NextI = next
		a.UpdateI = true
	}
	a.Addr = d.output(ireg, a.Addr)
	return a
}

// step adds mod to i, wrapping inside [B, B+L) when circular buffering is
// on and L is non-zero.
func (d *DAG) step(ireg uint8, i uint16, mod int32) uint16 {
	next := int32(i) + mod

	length := int32(d.regFile.ReadDAGLatencyAware(DAGL, ireg))
	if length != 0 && d.regFile.Mode(ModeCirc) {
		base := int32(d.regFile.ReadDAGLatencyAware(DAGB, ireg))
		for next >= base+length {
			next -= length
		}
		for next < base {
			next += length
		}
	}

	return uint16(next)
}

// output applies bit-reversed addressing to I0-I3.
func (d *DAG) output(ireg uint8, addr uint16) uint16 {
	if ireg < 4 && d.regFile.Mode(ModeBrev) {
		return bits.Reverse16(addr)
	}
	return addr
}
