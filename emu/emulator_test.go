package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

func enc(t insts.Type, f insts.Fields) insts.Word {
	return insts.MustEncode(t, f)
}

func nop() insts.Word {
	return enc(insts.TypeNOP, insts.Fields{})
}

func idle() insts.Word {
	return enc(insts.TypeIdle, insts.Fields{})
}

func ld(reg uint64, v int32) insts.Word {
	return enc(insts.TypeLDImm, insts.Fields{
		insts.FieldDReg: reg,
		insts.FieldImm:  insts.EncodeImm(insts.TypeLDImm, v),
	})
}

func ldUReg(u emu.UReg, v int32) insts.Word {
	return enc(insts.TypeLDImmU, insts.Fields{
		insts.FieldUReg: uint64(u),
		insts.FieldImm:  insts.EncodeImm(insts.TypeLDImmU, v),
	})
}

// aluRRR encodes d = s0 op s1 with the selector of op.
func aluRRR(sel, d, s0, s1 uint64) insts.Word {
	return enc(insts.TypeALU, insts.Fields{
		insts.FieldSel: sel, insts.FieldDReg: d, insts.FieldSReg0: s0, insts.FieldSReg1: s1,
	})
}

func addImm(d, s0 uint64, v int32) insts.Word {
	return enc(insts.TypeALUImm, insts.Fields{
		insts.FieldDReg: d, insts.FieldSReg0: s0,
		insts.FieldImm: insts.EncodeImm(insts.TypeALUImm, v),
	})
}

func jumpIf(cond insts.Cond, addr uint64) insts.Word {
	return enc(insts.TypeBranchAbs, insts.Fields{
		insts.FieldCond: uint64(cond), insts.FieldAddr: addr,
	})
}

func call(addr uint64) insts.Word {
	return enc(insts.TypeBranchAbs, insts.Fields{insts.FieldSel: 1, insts.FieldAddr: addr})
}

func rts() insts.Word {
	return enc(insts.TypeReturn, insts.Fields{})
}

func doCount(count int32, end uint64) insts.Word {
	return enc(insts.TypeDoCount, insts.Fields{
		insts.FieldImm:  insts.EncodeImm(insts.TypeDoCount, count),
		insts.FieldAddr: end,
	})
}

func stack(loopCtl, pcCtl, stsCtl uint64) insts.Word {
	return enc(insts.TypeStack, insts.Fields{
		insts.FieldLoopCtl: loopCtl, insts.FieldPCCtl: pcCtl, insts.FieldStsCtl: stsCtl,
	})
}

func program(opts insts.ResolveOptions, words ...insts.Word) *insts.Program {
	prog := insts.NewProgram(0)
	for _, w := range words {
		_, err := prog.Append(w)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(prog.Resolve(opts)).To(Succeed())
	return prog
}

func load(e *emu.Emulator, words ...insts.Word) {
	Expect(e.LoadProgram(program(insts.DefaultResolveOptions(), words...))).To(Succeed())
}

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).NotTo(BeNil())
			Expect(e.Messages()).NotTo(BeNil())
			Expect(e.Program()).To(BeNil())
		})

		It("should refuse to step without a program", func() {
			Expect(e.Step().Err).To(MatchError(emu.ErrNoProgram))
		})

		It("should refuse unresolved programs", func() {
			prog := insts.NewProgram(0)
			_, err := prog.Append(nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(e.LoadProgram(prog)).To(MatchError(emu.ErrUnresolved))
		})
	})

	It("should add two loaded values", func() {
		load(e, ld(0, 5), ld(1, 3), aluRRR(0, 2, 0, 1), nop())

		Expect(e.Run()).To(Succeed())
		Expect(e.RegFile().ReadData(2)).To(Equal(uint16(8)))
		Expect(e.Cycles()).To(Equal(uint64(4)))
		Expect(e.Stats().OverflowCount).To(Equal(uint64(0)))
		Expect(e.Stats().Instructions).To(Equal(uint64(4)))
		Expect(e.Halted()).To(BeTrue())
	})

	It("should step one record at a time", func() {
		load(e, ld(0, 5), ld(1, 3))

		result := e.Step()
		Expect(result.Err).NotTo(HaveOccurred())
		Expect(result.Halted).To(BeFalse())
		Expect(e.PMA()).To(Equal(uint16(1)))

		result = e.Step()
		Expect(result.Halted).To(BeTrue())
		Expect(e.Step().Halted).To(BeTrue())
	})

	It("should stop at IDLE", func() {
		load(e, ld(0, 1), idle(), ld(0, 2))

		Expect(e.Run()).To(Succeed())
		Expect(e.RegFile().ReadData(0)).To(Equal(uint16(1)))
	})

	Describe("conditions", func() {
		It("should take a branch when the condition holds", func() {
			load(e,
				ld(0, 1),
				addImm(1, 0, -1),
				jumpIf(insts.CondEQ, 4),
				ld(2, 5),
				nop(),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(2)).To(Equal(uint16(0)))
		})

		It("should skip a branch when the condition fails", func() {
			load(e,
				ld(0, 1),
				addImm(1, 0, -1),
				jumpIf(insts.CondNE, 4),
				ld(2, 5),
				nop(),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(2)).To(Equal(uint16(5)))
		})

		It("should decrement the counter for NOT CE", func() {
			rf := e.RegFile()
			rf.CNTR = 2
			cu := emu.NewControlUnit(rf, e.Messages())

			ok, err := cu.CheckCondition(insts.CondNotCE)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			ok, _ = cu.CheckCondition(insts.CondNotCE)
			Expect(ok).To(BeFalse())
			Expect(rf.CNTR).To(Equal(uint16(0)))
		})

		It("should evaluate LT as AN xor AV", func() {
			rf := e.RegFile()
			cu := emu.NewControlUnit(rf, e.Messages())

			rf.ASTAT[emu.LaneReal] = emu.AN | emu.AV
			ok, _ := cu.CheckCondition(insts.CondLT)
			Expect(ok).To(BeFalse())
			ok, _ = cu.CheckCondition(insts.CondGT)
			Expect(ok).To(BeTrue())

			rf.ASTAT[emu.LaneImag] = emu.AN
			ok, _ = cu.CheckCondition(insts.CondILT)
			Expect(ok).To(BeTrue())
		})

		It("should reject reserved condition codes", func() {
			cu := emu.NewControlUnit(e.RegFile(), e.Messages())
			_, err := cu.CheckCondition(insts.Cond(31))
			Expect(err).To(MatchError(emu.ErrBadCondition))
		})
	})

	Describe("branches", func() {
		It("should charge the branch stall without delay slots", func() {
			load(e, jumpIf(insts.CondTrue, 2), ld(0, 1), nop())

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(0)))
			Expect(e.Cycles()).To(Equal(uint64(3)))
		})

		It("should jump to the resolved target index", func() {
			prog := program(insts.DefaultResolveOptions(),
				jumpIf(insts.CondTrue, 2), ld(0, 1), ld(1, 2), ld(2, 3))
			Expect(prog.At(0).BranchTarget).To(Equal(2))

			prog.At(0).BranchTarget = 3
			Expect(e.LoadProgram(prog)).To(Succeed())

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(1)).To(Equal(uint16(0)))
			Expect(e.RegFile().ReadData(2)).To(Equal(uint16(3)))
		})

		It("should execute the delay slot before the target", func() {
			opts := insts.DefaultResolveOptions()
			opts.DelaySlots = true
			Expect(e.LoadProgram(program(opts,
				jumpIf(insts.CondTrue, 3),
				ld(0, 1),
				ld(1, 7),
				nop(),
			))).To(Succeed())

			e.Step()
			Expect(e.PMA()).To(Equal(uint16(1)))
			e.Step()
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(1)))
			Expect(e.PMA()).To(Equal(uint16(3)))

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(1)).To(Equal(uint16(0)))
			Expect(e.Cycles()).To(Equal(uint64(3)))
		})

		It("should call and return", func() {
			load(e, call(3), ld(1, 2), idle(), ld(0, 9), rts())

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(9)))
			Expect(e.RegFile().ReadData(1)).To(Equal(uint16(2)))
			Expect(e.RegFile().Stacks.PC.Empty()).To(BeTrue())
			Expect(e.Cycles()).To(Equal(uint64(7)))
		})

		It("should continue after a return with an empty stack", func() {
			load(e, rts(), ld(0, 4))

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(4)))
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
		})

		It("should fail on targets outside the program", func() {
			load(e, jumpIf(insts.CondTrue, 0x100))

			err := e.Run()
			Expect(err).To(MatchError(insts.ErrBranchTarget))
			Expect(err.Error()).To(ContainSubstring("PMA 0x0000"))
			Expect(e.Halted()).To(BeTrue())
		})
	})

	Describe("loops", func() {
		It("should run a counted body exactly count times", func() {
			load(e,
				ld(0, 0),
				doCount(3, 3),
				nop(),
				addImm(0, 0, 1),
				nop(),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(3)))

			s := e.RegFile().Stacks
			Expect(s.LoopBegin.Empty()).To(BeTrue())
			Expect(s.LoopEnd.Empty()).To(BeTrue())
			Expect(s.LoopCount.Empty()).To(BeTrue())
			Expect(s.LoopForever.Empty()).To(BeTrue())
		})

		It("should nest loops sharing an end", func() {
			load(e,
				ld(0, 0),
				doCount(2, 3),
				doCount(3, 3),
				addImm(0, 0, 1),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(6)))
		})

		It("should use CNTR for counter-terminated loops", func() {
			load(e,
				ldUReg(emu.NewUReg(emu.GroupSystem, emu.SysCNTR), 4),
				ld(0, 0),
				enc(insts.TypeDo, insts.Fields{insts.FieldAddr: 3}),
				addImm(0, 0, 2),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(8)))
		})

		It("should stop a forever loop at the cycle limit", func() {
			e = emu.NewEmulator(emu.WithMaxCycles(50))
			load(e,
				enc(insts.TypeDo, insts.Fields{insts.FieldTerm: 1, insts.FieldAddr: 1}),
				addImm(0, 0, 1),
			)

			Expect(e.Run()).To(MatchError(emu.ErrMaxCycles))
			Expect(e.Cycles()).To(Equal(uint64(50)))
		})
	})

	Describe("stack instructions", func() {
		It("should keep a counted loop across POP LOOP and PUSH LOOP", func() {
			load(e,
				ld(0, 0),
				doCount(3, 4),
				stack(emu.StackPop, emu.StackNone, emu.StackNone),
				stack(emu.StackPush, emu.StackNone, emu.StackNone),
				addImm(0, 0, 1),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(3)))
			Expect(e.RegFile().LPBEGIN).To(Equal(uint16(2)))
			Expect(e.RegFile().LPEND).To(Equal(uint16(4)))
			Expect(e.RegFile().Stacks.LoopBegin.Empty()).To(BeTrue())
			Expect(e.Stats().Warnings).To(BeZero())
		})

		It("should keep a forever loop across POP LOOP and PUSH LOOP", func() {
			e = emu.NewEmulator(emu.WithMaxCycles(200))
			load(e,
				ldUReg(emu.NewUReg(emu.GroupSystem, emu.SysCNTR), 2),
				enc(insts.TypeDo, insts.Fields{insts.FieldTerm: 1, insts.FieldAddr: 5}),
				stack(emu.StackPop, emu.StackNone, emu.StackNone),
				stack(emu.StackPush, emu.StackNone, emu.StackNone),
				nop(),
				addImm(0, 0, 1),
			)

			Expect(e.Run()).To(MatchError(emu.ErrMaxCycles))
			Expect(e.RegFile().ReadData(0)).To(BeNumerically(">", 2))
			Expect(e.RegFile().LPFOREVER).To(BeTrue())
		})

		It("should warn on POP LOOP with an empty loop stack", func() {
			load(e, stack(emu.StackPop, emu.StackNone, emu.StackNone), addImm(0, 0, 1))

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(1)))
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
		})

		It("should return to the record after PUSH PC", func() {
			load(e,
				stack(emu.StackNone, emu.StackPush, emu.StackNone),
				addImm(0, 0, 1),
				rts(),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(2)))
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
			Expect(e.RegFile().Stacks.PC.Empty()).To(BeTrue())
		})

		It("should discard the PC stack top on POP PC", func() {
			load(e,
				stack(emu.StackNone, emu.StackPush, emu.StackNone),
				stack(emu.StackNone, emu.StackPop, emu.StackNone),
				addImm(0, 0, 1),
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().Stacks.PC.Empty()).To(BeTrue())
			Expect(e.Stats().Warnings).To(BeZero())
		})

		It("should warn on POP PC with an empty PC stack", func() {
			load(e, stack(emu.StackNone, emu.StackPop, emu.StackNone), addImm(0, 0, 1))

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadData(0)).To(Equal(uint16(1)))
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
		})

		It("should reject the reserved control code", func() {
			load(e, stack(3, emu.StackNone, emu.StackNone))

			Expect(e.Run()).To(MatchError(emu.ErrBadControl))
		})
	})

	It("should run several iterations keeping state", func() {
		e = emu.NewEmulator(emu.WithIterations(3))
		load(e, addImm(0, 0, 1))

		Expect(e.Run()).To(Succeed())
		Expect(e.RegFile().ReadData(0)).To(Equal(uint16(3)))
		Expect(e.Stats().Iterations).To(Equal(3))
	})

	It("should count saturating overflows", func() {
		load(e,
			enc(insts.TypeMode, insts.Fields{insts.FieldModeSat: 1}),
			ld(0, 0x7FF),
			ld(1, 1),
			aluRRR(0, 2, 0, 1),
		)

		Expect(e.Run()).To(Succeed())
		rf := e.RegFile()
		Expect(rf.ReadData(2)).To(Equal(uint16(0x7FF)))
		Expect(rf.Flag(emu.LaneReal, emu.AV)).To(BeTrue())
		Expect(rf.Flag(emu.LaneReal, emu.AS)).To(BeTrue())
		Expect(e.Stats().OverflowCount).To(Equal(uint64(1)))
	})

	It("should see stale index registers right after a write", func() {
		e.Memory().Write(0x00, 0x11)
		e.Memory().Write(0x40, 0x22)

		memOff := func(d uint64) insts.Word {
			return enc(insts.TypeMemOff, insts.Fields{insts.FieldDReg: d})
		}
		load(e, ldUReg(emu.NewUReg(emu.GroupDAG, 0), 0x40), memOff(0), nop(), memOff(1))

		Expect(e.Run()).To(Succeed())
		Expect(e.RegFile().ReadData(0)).To(Equal(uint16(0x11)))
		Expect(e.RegFile().ReadData(1)).To(Equal(uint16(0x22)))
	})

	It("should warn on undefined data memory and continue", func() {
		load(e, enc(insts.TypeMemDir, insts.Fields{insts.FieldAddr: 0x123}), ld(1, 1))

		Expect(e.Run()).To(Succeed())
		Expect(e.RegFile().ReadData(0)).To(Equal(emu.UndefinedCell))
		Expect(e.RegFile().ReadData(1)).To(Equal(uint16(1)))
		Expect(e.Stats().Warnings).To(Equal(uint64(1)))
	})

	It("should drop stores outside the data window", func() {
		e = emu.NewEmulator(emu.WithDataWindow(0x100, 0x100))
		load(e,
			ld(0, 9),
			enc(insts.TypeMemDir, insts.Fields{insts.FieldSel: 1, insts.FieldAddr: 0x300}),
			enc(insts.TypeMemDir, insts.Fields{insts.FieldSel: 1, insts.FieldAddr: 0x100}),
		)

		Expect(e.Run()).To(Succeed())
		Expect(e.Memory().Len()).To(Equal(1))
		v, _ := e.Memory().Peek(0x100)
		Expect(v).To(Equal(uint16(9)))
	})

	It("should restart after Reset", func() {
		load(e, addImm(0, 0, 1))
		Expect(e.Run()).To(Succeed())

		e.Reset()
		Expect(e.Halted()).To(BeFalse())
		Expect(e.Cycles()).To(Equal(uint64(0)))
		Expect(e.RegFile().ReadData(0)).To(Equal(uint16(0)))
	})
})
