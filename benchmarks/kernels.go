package benchmarks

import (
	"fmt"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

// GetKernels returns the standard set of DSP kernels. Each kernel targets
// one unit of the core and checks its own result.
func GetKernels() []Benchmark {
	return []Benchmark{
		dotProduct(),
		vectorAdd(),
		circularSum(),
		saturatingAccumulate(),
		cordicRoundTrip(),
		subroutineLoop(),
	}
}

var (
	i0 = DAGReg(emu.DAGI, 0)
	i1 = DAGReg(emu.DAGI, 1)
	i4 = DAGReg(emu.DAGI, 4)
	m0 = DAGReg(emu.DAGM, 0)
	m4 = DAGReg(emu.DAGM, 4)
	l0 = DAGReg(emu.DAGL, 0)
	b0 = DAGReg(emu.DAGB, 0)
)

func fill(mem *emu.Memory, base uint16, values ...int32) {
	for i, v := range values {
		mem.Write(base+uint16(i), uint16(v)&emu.DataMask)
	}
}

func expectReg(e *emu.Emulator, r uint8, want int32) error {
	if got := emu.SignExt12(e.RegFile().ReadData(r)); got != want {
		return fmt.Errorf("R%d = %d, want %d", r, got, want)
	}
	return nil
}

func expectNear(e *emu.Emulator, r uint8, want, tol int32) error {
	got := emu.SignExt12(e.RegFile().ReadData(r))
	if got < want-tol || got > want+tol {
		return fmt.Errorf("R%d = %d, want %d±%d", r, got, want, tol)
	}
	return nil
}

// 1. Dot product - multiply-accumulate with two parallel loads per record
func dotProduct() Benchmark {
	return Benchmark{
		Name:        "dot_product",
		Description: "8-tap dot product with MAC and dual loads in one record",
		Setup: func(e *emu.Emulator) {
			fill(e.Memory(), 0x100, 1, 2, 3, 4, 5, 6, 7, 8)
			fill(e.Memory(), 0x200, 8, 7, 6, 5, 4, 3, 2, 1)
		},
		Program: []insts.Word{
			LoadUReg(i0, 0x100),
			LoadUReg(i4, 0x200),
			LoadUReg(m0, 1),
			LoadUReg(m4, 1),
			ClearAcc(0),
			MACLoadLoad(0, 0, 1, 0, 0, 1, 0),
			DoCount(7, 7),
			MACLoadLoad(0, 0, 1, 0, 0, 1, 0),
			MAC(0, 0, 1),
			Idle(),
		},
		Check: func(e *emu.Emulator) error {
			if got := e.RegFile().Acc[0].Value(); got != 120 {
				return fmt.Errorf("ACC0 = %d, want 120", got)
			}
			return nil
		},
	}
}

// 2. Vector add - load, add, store through post-modified pointers
func vectorAdd() Benchmark {
	const n = 8
	return Benchmark{
		Name:        "vector_add",
		Description: "z[i] = x[i] + y[i] over 8 elements",
		Setup: func(e *emu.Emulator) {
			for i := int32(0); i < n; i++ {
				fill(e.Memory(), 0x100+uint16(i), 3*i)
				fill(e.Memory(), 0x200+uint16(i), 100-i)
			}
		},
		Program: []insts.Word{
			LoadUReg(i0, 0x100),
			LoadUReg(i4, 0x200),
			LoadUReg(i1, 0x300),
			LoadUReg(m0, 1),
			Nop(),
			DoCount(n, 9),
			Load(0, 0, 0),
			Load(1, 4, 0),
			ALU(0, 2, 0, 1),
			Store(2, 1, 0),
			Idle(),
		},
		Check: func(e *emu.Emulator) error {
			for i := int32(0); i < n; i++ {
				v, _ := e.Memory().Peek(0x300 + uint16(i))
				if got := emu.SignExt12(v); got != 100+2*i {
					return fmt.Errorf("z[%d] = %d, want %d", i, got, 100+2*i)
				}
			}
			return nil
		},
	}
}

// 3. Circular sum - circular buffer addressing wraps the pointer
func circularSum() Benchmark {
	return Benchmark{
		Name:        "circular_sum",
		Description: "12 reads from a 4-entry circular buffer",
		Setup: func(e *emu.Emulator) {
			fill(e.Memory(), 0x300, 1, 2, 3, 4)
		},
		Program: []insts.Word{
			LoadUReg(i0, 0x300),
			LoadUReg(b0, 0x300),
			LoadUReg(l0, 4),
			LoadUReg(m0, 1),
			EnableModes(insts.FieldModeCirc),
			LoadImm(1, 0),
			DoCount(12, 8),
			Load(0, 0, 0),
			ALU(0, 1, 1, 0),
			Idle(),
		},
		Check: func(e *emu.Emulator) error {
			if err := expectReg(e, 1, 30); err != nil {
				return err
			}
			if i := e.RegFile().ReadDAG(emu.DAGI, 0); i != 0x300 {
				return fmt.Errorf("I0 = 0x%X, want 0x300", i)
			}
			return nil
		},
	}
}

// 4. Saturating accumulate - repeated overflow under saturation mode
func saturatingAccumulate() Benchmark {
	return Benchmark{
		Name:        "saturating_accumulate",
		Description: "16 additions of 0x100 clamp at the largest positive value",
		Program: []insts.Word{
			EnableModes(insts.FieldModeSat),
			LoadImm(0, 0x100),
			LoadImm(1, 0),
			DoCount(16, 4),
			ALU(0, 1, 1, 0),
			Idle(),
		},
		Check: func(e *emu.Emulator) error {
			if err := expectReg(e, 1, 0x7FF); err != nil {
				return err
			}
			if e.Stats().OverflowCount == 0 {
				return fmt.Errorf("no overflow counted")
			}
			return nil
		},
	}
}

// 5. CORDIC round trip - rectangular to polar and back
func cordicRoundTrip() Benchmark {
	return Benchmark{
		Name:        "cordic_round_trip",
		Description: "(600, 800) to polar and back with default iterations",
		Program: []insts.Word{
			LoadImm(0, 600),
			LoadImm(1, 800),
			Cordic(1, 2, 0),
			Cordic(0, 4, 2),
			Idle(),
		},
		Check: func(e *emu.Emulator) error {
			if err := expectNear(e, 2, 1000, 8); err != nil {
				return err
			}
			if err := expectNear(e, 4, 600, 8); err != nil {
				return err
			}
			return expectNear(e, 5, 800, 8)
		},
	}
}

// 6. Subroutine loop - call and return inside a counted loop
func subroutineLoop() Benchmark {
	return Benchmark{
		Name:        "subroutine_loop",
		Description: "4 calls to an increment subroutine from a loop body",
		Program: []insts.Word{
			LoadImm(0, 0),
			DoCount(4, 3),
			Call(5),
			Nop(),
			Idle(),
			AddImm(0, 0, 1),
			Return(),
		},
		Check: func(e *emu.Emulator) error {
			return expectReg(e, 0, 4)
		},
	}
}
