// Package emu provides functional emulation of the DSP core.
package emu

import "fmt"

// Register file dimensions.
const (
	NumDataRegs = 32
	NumAccs     = 8
	NumDAGRegs  = 8

	DataMask uint16 = 0xFFF
)

// ASTAT bits.
const (
	AZ uint16 = 1 << iota // zero
	AN                    // negative
	AV                    // overflow
	AC                    // carry
	AS                    // saturated
	AQ                    // quotient
	MV                    // multiplier overflow
	SS                    // shifter input sign
	SV                    // sticky overflow

	astatMask uint16 = 1<<9 - 1
)

// MSTAT mode bits.
const (
	ModeSec     uint16 = 1 << iota // secondary data register bank
	ModeBrev                       // bit-reversed addressing on I0-I3
	ModeAVLatch                    // AV stays set until cleared
	ModeSat                        // ALU saturation
	ModeFrac                       // fractional multiply
	ModeTimer                      // timer enable
	ModeBias                       // biased rounding
	ModeCirc                       // circular buffering
)

// IrptTimer is the IRPTL bit latched when the timer expires.
const IrptTimer uint16 = 1 << 9

const irptlMask uint16 = 1<<10 - 1

// Lane selects an ASTAT register.
type Lane int

// ASTAT lanes.
const (
	LaneReal Lane = iota
	LaneImag
	LaneComplex
	numLanes
)

// SignExt12 sign-extends a 12-bit value.
func SignExt12(v uint16) int32 {
	return int32(int16(v<<4)) >> 4
}

// latchedReg is a register with a shadow copy and a write stamp.
type latchedReg struct {
	value   uint16
	shadow  uint16
	stamp   uint64
	written bool
}

func (l *latchedReg) write(v uint16, cycle uint64) {
	l.shadow = l.value
	l.value = v
	l.stamp = cycle
	l.written = true
}

// read returns the shadow when the last write happened within one cycle.
func (l *latchedReg) read(cycle uint64) uint16 {
	if l.written && cycle >= l.stamp && cycle-l.stamp <= 1 {
		return l.shadow
	}
	return l.value
}

// RegFile represents the DSP register file.
type RegFile struct {
	// R holds the two banks of 12-bit data registers. MSTAT.SEC selects the
	// active bank.
	R [2][NumDataRegs]uint16

	Acc [NumAccs]Accumulator

	i, m, l, b [NumDAGRegs]latchedReg
	mstat      latchedReg

	ASTAT [numLanes]uint16

	ICNTL   uint16
	IMASK   uint16
	IRPTL   uint16
	CNTR    uint16
	TCOUNT  uint16
	TPERIOD uint16
	LPBEGIN uint16
	LPEND   uint16

	// LPFOREVER is the forever flag of the loop frame last moved by a
	// stack instruction. POP LOOP sets it and PUSH LOOP reads it.
	LPFOREVER bool

	Stacks *Stacks

	cycle         uint64
	overflowCount uint64
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{Stacks: NewStacks()}
}

// Cycle returns the cycle used to stamp latched writes.
func (r *RegFile) Cycle() uint64 {
	return r.cycle
}

// SetCycle sets the current cycle.
func (r *RegFile) SetCycle(c uint64) {
	r.cycle = c
}

// OverflowCount returns the number of overflow events seen so far.
func (r *RegFile) OverflowCount() uint64 {
	return r.overflowCount
}

func (r *RegFile) bank() int {
	if r.mstat.value&ModeSec != 0 {
		return 1
	}
	return 0
}

// ReadData reads a 12-bit data register of the active bank.
func (r *RegFile) ReadData(idx uint8) uint16 {
	return r.R[r.bank()][idx%NumDataRegs]
}

// WriteData writes a 12-bit data register of the active bank.
func (r *RegFile) WriteData(idx uint8, v uint16) {
	r.R[r.bank()][idx%NumDataRegs] = v & DataMask
}

// ReadComplex reads the pair (idx, idx+1). idx must be even.
func (r *RegFile) ReadComplex(idx uint8) (re, im uint16, err error) {
	if idx%2 != 0 {
		return 0, 0, fmt.Errorf("%w: R%d", ErrOddComplex, idx)
	}
	return r.ReadData(idx), r.ReadData(idx + 1), nil
}

// WriteComplex writes the pair (idx, idx+1). idx must be even.
func (r *RegFile) WriteComplex(idx uint8, re, im uint16) error {
	if idx%2 != 0 {
		return fmt.Errorf("%w: R%d", ErrOddComplex, idx)
	}
	r.WriteData(idx, re)
	r.WriteData(idx+1, im)
	return nil
}

// AccPair returns the accumulators (idx, idx+1). idx must be even.
func (r *RegFile) AccPair(idx uint8) (re, im *Accumulator, err error) {
	if idx%2 != 0 || idx >= NumAccs {
		return nil, nil, fmt.Errorf("%w: ACC%d", ErrOddComplex, idx)
	}
	return &r.Acc[idx], &r.Acc[idx+1], nil
}

// DAG register classes.
type DAGClass int

// DAG register classes.
const (
	DAGI DAGClass = iota
	DAGM
	DAGL
	DAGB
)

func (r *RegFile) dag(class DAGClass) *[NumDAGRegs]latchedReg {
	switch class {
	case DAGI:
		return &r.i
	case DAGM:
		return &r.m
	case DAGL:
		return &r.l
	default:
		return &r.b
	}
}

// ReadDAG returns the current value of a DAG register.
func (r *RegFile) ReadDAG(class DAGClass, idx uint8) uint16 {
	return r.dag(class)[idx%NumDAGRegs].value
}

// ReadDAGLatencyAware returns the value a functional unit sees: the
// pre-write value when the register was written within the last cycle.
func (r *RegFile) ReadDAGLatencyAware(class DAGClass, idx uint8) uint16 {
	return r.dag(class)[idx%NumDAGRegs].read(r.cycle)
}

// WriteDAG writes a DAG register, saving the shadow copy and write stamp.
func (r *RegFile) WriteDAG(class DAGClass, idx uint8, v uint16) {
	r.dag(class)[idx%NumDAGRegs].write(v, r.cycle)
}

// MSTAT returns the current mode register value.
func (r *RegFile) MSTAT() uint16 {
	return r.mstat.value
}

// MSTATLatencyAware returns MSTAT as functional units see it.
func (r *RegFile) MSTATLatencyAware() uint16 {
	return r.mstat.read(r.cycle)
}

// WriteMSTAT writes the mode register, saving the shadow copy.
func (r *RegFile) WriteMSTAT(v uint16) {
	r.mstat.write(v, r.cycle)
}

// Mode reports whether a mode bit is on, honoring the one-cycle latency.
func (r *RegFile) Mode(bit uint16) bool {
	return r.MSTATLatencyAware()&bit != 0
}

// Flag reports whether an ASTAT bit is set in a lane.
func (r *RegFile) Flag(lane Lane, bit uint16) bool {
	return r.ASTAT[lane]&bit != 0
}

// ClearFlags clears ASTAT bits in a lane.
func (r *RegFile) ClearFlags(lane Lane, bits uint16) {
	r.ASTAT[lane] &^= bits
}

// FlagKind selects which ASTAT bits an instruction updates.
type FlagKind int

// Flag update kinds.
const (
	KindArith FlagKind = iota // add/sub family
	KindLogic                 // logic and bit ops, clears AV and AC
	KindTest                  // TSTBIT, updates AZ only
	KindAccArith              // accumulator pair add/sub
	KindMAC                   // MV
	KindShift                 // SS
)

var kindMasks = map[FlagKind]uint16{
	KindArith:    AZ | AN | AV | AC | AS,
	KindLogic:    AZ | AN | AV | AC,
	KindTest:     AZ,
	KindAccArith: AZ | AN | AV | AC,
	KindMAC:      MV,
	KindShift:    SS,
}

// Flags is the flag outcome of one lane of an operation.
type Flags struct {
	Z, N, V, C bool
	S          bool // saturated
	MV         bool
	SS         bool
}

func bitIf(cond bool, bit uint16) uint16 {
	if cond {
		return bit
	}
	return 0
}

func (f Flags) bits() uint16 {
	return bitIf(f.Z, AZ) | bitIf(f.N, AN) | bitIf(f.V, AV) | bitIf(f.C, AC) |
		bitIf(f.S, AS) | bitIf(f.MV, MV) | bitIf(f.SS, SS)
}

// UpdateFlags applies the flags of a real operation to the real lane.
func (r *RegFile) UpdateFlags(kind FlagKind, f Flags) {
	if r.updateLane(LaneReal, kind, f) {
		r.overflowCount++
	}
}

// UpdateComplexFlags applies per-lane flags and derives the combined lane:
// zero when both lanes are zero, sign from the real lane, overflow and carry
// when either lane has them.
func (r *RegFile) UpdateComplexFlags(kind FlagKind, re, im Flags) {
	c := Flags{
		Z:  re.Z && im.Z,
		N:  re.N,
		V:  re.V || im.V,
		C:  re.C || im.C,
		S:  re.S || im.S,
		MV: re.MV || im.MV,
		SS: re.SS,
	}

	ovf := r.updateLane(LaneReal, kind, re)
	ovf = r.updateLane(LaneImag, kind, im) || ovf
	r.updateLane(LaneComplex, kind, c)

	if ovf {
		r.overflowCount++
	}
}

// updateLane reports whether the update raised an overflow.
func (r *RegFile) updateLane(lane Lane, kind FlagKind, f Flags) bool {
	mask := kindMasks[kind]
	old := r.ASTAT[lane]
	next := old&^mask | f.bits()&mask

	if mask&AV != 0 && old&AV != 0 && r.Mode(ModeAVLatch) {
		next |= AV
	}

	ovf := (mask&AV != 0 && f.V) || (mask&MV != 0 && f.MV)
	if ovf {
		next |= SV
	}

	r.ASTAT[lane] = next & astatMask
	return ovf
}

// SSTAT returns the computed stack status register.
func (r *RegFile) SSTAT() uint16 {
	return r.Stacks.SSTAT()
}

// Counter returns the visible loop counter: the top of the counter stack
// inside a loop, CNTR otherwise.
func (r *RegFile) Counter() uint16 {
	if c, ok := r.Stacks.LoopCount.Peek(); ok {
		return c
	}
	return r.CNTR
}

// SetCounter writes the visible loop counter.
func (r *RegFile) SetCounter(v uint16) {
	if !r.Stacks.LoopCount.Empty() {
		r.Stacks.LoopCount.SetTop(v)
		return
	}
	r.CNTR = v
}

// TickTimer advances the timer by n cycles when MSTAT.TIMER is on.
func (r *RegFile) TickTimer(n uint64) {
	if r.mstat.value&ModeTimer == 0 {
		return
	}
	for ; n > 0; n-- {
		if r.TCOUNT > 0 {
			r.TCOUNT--
		}
		if r.TCOUNT == 0 {
			r.TCOUNT = r.TPERIOD
			r.IRPTL |= IrptTimer
		}
	}
}

// Reset clears every register and stack.
func (r *RegFile) Reset() {
	stacks := r.Stacks
	*r = RegFile{Stacks: stacks}
	r.Stacks.Clear()
}
