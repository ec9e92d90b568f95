package benchmarks

import (
	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

// Helper functions for building DSP programs. Unless noted otherwise the
// records are unconditional.

// LoadImm encodes LD_IMM: R[d] = v.
func LoadImm(d uint8, v int32) insts.Word {
	return insts.MustEncode(insts.TypeLDImm, insts.Fields{
		insts.FieldDReg: uint64(d),
		insts.FieldImm:  insts.EncodeImm(insts.TypeLDImm, v),
	})
}

// LoadUReg encodes LD_IMM_U: u = v.
func LoadUReg(u emu.UReg, v int32) insts.Word {
	return insts.MustEncode(insts.TypeLDImmU, insts.Fields{
		insts.FieldUReg: uint64(u),
		insts.FieldImm:  insts.EncodeImm(insts.TypeLDImmU, v),
	})
}

// DAGReg returns the universal address of a DAG register.
func DAGReg(class emu.DAGClass, idx uint8) emu.UReg {
	return emu.NewUReg(emu.GroupDAG, uint8(class)*emu.NumDAGRegs+idx)
}

// ALU encodes d = s0 op s1 for the ALU selector sel.
func ALU(sel, d, s0, s1 uint8) insts.Word {
	return insts.MustEncode(insts.TypeALU, insts.Fields{
		insts.FieldSel:   uint64(sel),
		insts.FieldDReg:  uint64(d),
		insts.FieldSReg0: uint64(s0),
		insts.FieldSReg1: uint64(s1),
	})
}

// AddImm encodes d = s0 + v.
func AddImm(d, s0 uint8, v int32) insts.Word {
	return insts.MustEncode(insts.TypeALUImm, insts.Fields{
		insts.FieldDReg:  uint64(d),
		insts.FieldSReg0: uint64(s0),
		insts.FieldImm:   insts.EncodeImm(insts.TypeALUImm, v),
	})
}

// Load encodes a post-modified load R[d] = DM(I[i] += M[m]).
func Load(d, i, m uint8) insts.Word {
	return insts.MustEncode(insts.TypeMem, insts.Fields{
		insts.FieldDReg: uint64(d),
		insts.FieldIReg: uint64(i),
		insts.FieldMReg: uint64(m),
	})
}

// Store encodes a post-modified store DM(I[i] += M[m]) = R[d].
func Store(d, i, m uint8) insts.Word {
	return insts.MustEncode(insts.TypeMem, insts.Fields{
		insts.FieldSel:  1,
		insts.FieldDReg: uint64(d),
		insts.FieldIReg: uint64(i),
		insts.FieldMReg: uint64(m),
	})
}

// MAC encodes ACC[acc] += R[s0] * R[s1], signed.
func MAC(acc, s0, s1 uint8) insts.Word {
	return insts.MustEncode(insts.TypeMAC, insts.Fields{
		insts.FieldSel:   1,
		insts.FieldAcc:   uint64(acc),
		insts.FieldSReg0: uint64(s0),
		insts.FieldSReg1: uint64(s1),
	})
}

// ClearAcc encodes CLRACC ACC[acc].
func ClearAcc(acc uint8) insts.Word {
	return insts.MustEncode(insts.TypeAccOp, insts.Fields{
		insts.FieldSel: 2,
		insts.FieldAcc: uint64(acc),
	})
}

// MACLoadLoad encodes ACC[acc] += R[s0] * R[s1] in parallel with
// R[d2] = DM(I[i2] += M[i2]) and R[d3] = DM(I[i3+4] += M[i3+4]).
func MACLoadLoad(acc, s0, s1, d2, i2, d3, i3 uint8) insts.Word {
	return insts.MustEncode(insts.TypeMFMACLdLd, insts.Fields{
		insts.FieldSel:   1,
		insts.FieldAcc:   uint64(acc),
		insts.FieldSReg0: uint64(s0),
		insts.FieldSReg1: uint64(s1),
		insts.FieldDReg2: uint64(d2),
		insts.FieldIReg2: uint64(i2),
		insts.FieldMReg2: uint64(i2),
		insts.FieldDReg3: uint64(d3),
		insts.FieldIReg3: uint64(i3),
		insts.FieldMReg3: uint64(i3),
	})
}

// Cordic encodes a CORDIC rotation of the pair at s0 into the pair at d.
// sel 0 converts to rectangular, 1 to polar.
func Cordic(sel, d, s0 uint8) insts.Word {
	return insts.MustEncode(insts.TypeCordic, insts.Fields{
		insts.FieldSel:   uint64(sel),
		insts.FieldDReg:  uint64(d),
		insts.FieldSReg0: uint64(s0),
	})
}

// EnableModes encodes a MODE record that turns the given mode fields on.
func EnableModes(fields ...insts.Field) insts.Word {
	f := insts.Fields{}
	for _, field := range fields {
		f[field] = 1
	}
	return insts.MustEncode(insts.TypeMode, f)
}

// DoCount encodes DO end UNTIL count.
func DoCount(count int32, end uint16) insts.Word {
	return insts.MustEncode(insts.TypeDoCount, insts.Fields{
		insts.FieldImm:  insts.EncodeImm(insts.TypeDoCount, count),
		insts.FieldAddr: uint64(end),
	})
}

// Call encodes CALL addr.
func Call(addr uint16) insts.Word {
	return insts.MustEncode(insts.TypeBranchAbs, insts.Fields{
		insts.FieldSel:  1,
		insts.FieldAddr: uint64(addr),
	})
}

// Return encodes RTS.
func Return() insts.Word {
	return insts.MustEncode(insts.TypeReturn, insts.Fields{})
}

// Nop encodes NOP.
func Nop() insts.Word {
	return insts.MustEncode(insts.TypeNOP, insts.Fields{})
}

// Idle encodes IDLE.
func Idle() insts.Word {
	return insts.MustEncode(insts.TypeIdle, insts.Fields{})
}
