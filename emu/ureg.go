package emu

import "fmt"

// UReg is a universal register address: group(3) : index(5).
type UReg uint8

// Universal register groups.
const (
	GroupData   = 0
	GroupAcc    = 1
	GroupDAG    = 2
	GroupSystem = 3
)

// Accumulator views within GroupAcc; the index is acc*3 + view.
const (
	AccViewH = iota
	AccViewM
	AccViewL
)

// System registers within GroupSystem.
const (
	SysASTATR = iota
	SysASTATI
	SysASTATC
	SysMSTAT
	SysSSTAT
	SysICNTL
	SysIMASK
	SysIRPTL
	SysCNTR
	SysTCOUNT
	SysTPERIOD
	SysLPBEGIN
	SysLPEND
	numSysRegs
)

var sysNames = [numSysRegs]string{
	"ASTAT_R", "ASTAT_I", "ASTAT_C", "MSTAT", "SSTAT", "ICNTL", "IMASK",
	"IRPTL", "CNTR", "TCOUNT", "TPERIOD", "LPBEGIN", "LPEND",
}

// NewUReg builds a universal register address.
func NewUReg(group, idx uint8) UReg {
	return UReg(group<<5 | idx&0x1F)
}

// Group returns the register group.
func (u UReg) Group() uint8 { return uint8(u) >> 5 }

// Index returns the index within the group.
func (u UReg) Index() uint8 { return uint8(u) & 0x1F }

func (u UReg) String() string {
	idx := u.Index()
	switch u.Group() {
	case GroupData:
		return fmt.Sprintf("R%d", idx)
	case GroupAcc:
		if idx < NumAccs*3 {
			return fmt.Sprintf("ACC%d.%c", idx/3, "HML"[idx%3])
		}
	case GroupDAG:
		return fmt.Sprintf("%c%d", "IMLB"[idx/NumDAGRegs], idx%NumDAGRegs)
	case GroupSystem:
		if idx < numSysRegs {
			return sysNames[idx]
		}
	}
	return fmt.Sprintf("UREG(0x%02X)", uint8(u))
}

// IsReadOnly reports whether writes to the register are rejected.
func (r *RegFile) IsReadOnly(u UReg) bool {
	return u.Group() == GroupSystem && (u.Index() == SysASTATC || u.Index() == SysSSTAT)
}

// ReadUReg reads a universal register. DAG and mode registers are read
// directly, without the one-cycle latency rule.
func (r *RegFile) ReadUReg(u UReg) (uint16, error) {
	idx := u.Index()

	switch u.Group() {
	case GroupData:
		return r.ReadData(idx), nil
	case GroupAcc:
		if idx >= NumAccs*3 {
			break
		}
		acc := &r.Acc[idx/3]
		switch idx % 3 {
		case AccViewH:
			return acc.H(), nil
		case AccViewM:
			return acc.M(), nil
		default:
			return acc.L(), nil
		}
	case GroupDAG:
		return r.ReadDAG(DAGClass(idx/NumDAGRegs), idx%NumDAGRegs), nil
	case GroupSystem:
		return r.readSystem(idx)
	}

	return 0, fmt.Errorf("%w: %s", ErrBadRegister, u)
}

func (r *RegFile) readSystem(idx uint8) (uint16, error) {
	switch idx {
	case SysASTATR:
		return r.ASTAT[LaneReal], nil
	case SysASTATI:
		return r.ASTAT[LaneImag], nil
	case SysASTATC:
		return r.ASTAT[LaneComplex], nil
	case SysMSTAT:
		return r.MSTAT(), nil
	case SysSSTAT:
		return r.SSTAT(), nil
	case SysICNTL:
		return r.ICNTL, nil
	case SysIMASK:
		return r.IMASK, nil
	case SysIRPTL:
		return r.IRPTL, nil
	case SysCNTR:
		return r.Counter(), nil
	case SysTCOUNT:
		return r.TCOUNT, nil
	case SysTPERIOD:
		return r.TPERIOD, nil
	case SysLPBEGIN:
		return r.LPBEGIN, nil
	case SysLPEND:
		return r.LPEND, nil
	}
	return 0, fmt.Errorf("%w: system register %d", ErrBadRegister, idx)
}

// WriteUReg writes a universal register, masking to the register's width.
// Read-only registers return ErrReadOnly and are left unchanged.
func (r *RegFile) WriteUReg(u UReg, v uint16) error {
	idx := u.Index()

	if r.IsReadOnly(u) {
		return fmt.Errorf("%w: %s", ErrReadOnly, u)
	}

	switch u.Group() {
	case GroupData:
		r.WriteData(idx, v)
		return nil
	case GroupAcc:
		if idx >= NumAccs*3 {
			break
		}
		acc := &r.Acc[idx/3]
		switch idx % 3 {
		case AccViewH:
			acc.SetH(v)
		case AccViewM:
			acc.SetM(v)
		default:
			acc.SetL(v)
		}
		return nil
	case GroupDAG:
		r.WriteDAG(DAGClass(idx/NumDAGRegs), idx%NumDAGRegs, v)
		return nil
	case GroupSystem:
		return r.writeSystem(idx, v)
	}

	return fmt.Errorf("%w: %s", ErrBadRegister, u)
}

func (r *RegFile) writeSystem(idx uint8, v uint16) error {
	switch idx {
	case SysASTATR:
		r.ASTAT[LaneReal] = v & astatMask
	case SysASTATI:
		r.ASTAT[LaneImag] = v & astatMask
	case SysMSTAT:
		r.WriteMSTAT(v & 0xFF)
	case SysICNTL:
		r.ICNTL = v
	case SysIMASK:
		r.IMASK = v & irptlMask
	case SysIRPTL:
		r.IRPTL = v & irptlMask
	case SysCNTR:
		r.SetCounter(v)
	case SysTCOUNT:
		r.TCOUNT = v
	case SysTPERIOD:
		r.TPERIOD = v
	case SysLPBEGIN:
		r.LPBEGIN = v
	case SysLPEND:
		r.LPEND = v
	default:
		return fmt.Errorf("%w: system register %d", ErrBadRegister, idx)
	}
	return nil
}

// ReadLatencyAware applies the one-cycle stale read rule. Only DAG
// registers and MSTAT support it.
func (r *RegFile) ReadLatencyAware(u UReg) (uint16, error) {
	idx := u.Index()

	switch {
	case u.Group() == GroupDAG:
		return r.ReadDAGLatencyAware(DAGClass(idx/NumDAGRegs), idx%NumDAGRegs), nil
	case u.Group() == GroupSystem && idx == SysMSTAT:
		return r.MSTATLatencyAware(), nil
	}
	return 0, fmt.Errorf("%w: %s has no latency-aware read", ErrBadRegister, u)
}
