package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

var _ = Describe("Execute", func() {
	var (
		e  *emu.Emulator
		rf *emu.RegFile
	)

	BeforeEach(func() {
		e = emu.NewEmulator()
		rf = e.RegFile()
	})

	It("should dispatch every instruction type", func() {
		for _, f := range insts.Formats() {
			e = emu.NewEmulator()
			load(e, enc(f.Type, insts.Fields{}))

			result := e.Step()
			if result.Err != nil {
				Expect(result.Err).NotTo(MatchError(insts.ErrUnknownType), f.Name)
				Expect(result.Err).NotTo(MatchError(insts.ErrFieldAbsent), f.Name)
			}
		}
	})

	It("should fail on out-of-range selectors", func() {
		load(e, aluRRR(20, 0, 0, 0))

		result := e.Step()
		Expect(result.Err).To(MatchError(insts.ErrInvalidOpcode))
		Expect(result.Halted).To(BeTrue())
	})

	It("should skip side effects when the condition fails", func() {
		load(e, enc(insts.TypeALUImm, insts.Fields{
			insts.FieldCond: uint64(insts.CondEQ),
			insts.FieldDReg: 1,
			insts.FieldImm:  insts.EncodeImm(insts.TypeALUImm, 5),
		}))

		Expect(e.Run()).To(Succeed())
		Expect(rf.ReadData(1)).To(Equal(uint16(0)))
	})

	Describe("multi-function records", func() {
		It("should read every operand before any slot writes", func() {
			rf.WriteData(0, 1)
			rf.WriteData(1, 2)
			rf.WriteData(2, 7)
			load(e, enc(insts.TypeMFALUCopy, insts.Fields{
				insts.FieldDReg: 2, insts.FieldSReg0: 0, insts.FieldSReg1: 1,
				insts.FieldDReg2: 0, insts.FieldSReg2: 2,
			}))

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadData(2)).To(Equal(uint16(3)))
			Expect(rf.ReadData(0)).To(Equal(uint16(7)))
		})

		It("should multiply and load twice", func() {
			e.Memory().Write(0x10, 5)
			e.Memory().Write(0x20, 6)
			load(e,
				ldUReg(emu.NewUReg(emu.GroupDAG, 0), 0x10),
				ldUReg(emu.NewUReg(emu.GroupDAG, 4), 0x20),
				ldUReg(emu.NewUReg(emu.GroupDAG, 8+4), 1),
				ld(0, 3),
				ld(1, 4),
				enc(insts.TypeMFMACLdLd, insts.Fields{
					insts.FieldAcc: 1, insts.FieldSReg0: 0, insts.FieldSReg1: 1,
					insts.FieldDReg2: 4, insts.FieldDReg3: 5,
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.Acc[1].Value()).To(Equal(int32(12)))
			Expect(rf.ReadData(4)).To(Equal(uint16(5)))
			Expect(rf.ReadData(5)).To(Equal(uint16(6)))
			Expect(rf.ReadDAG(emu.DAGI, 0)).To(Equal(uint16(0x10)))
			Expect(rf.ReadDAG(emu.DAGI, 4)).To(Equal(uint16(0x21)))
		})

		It("should store the value a register held before the ALU slot", func() {
			rf.WriteData(0, 4)
			load(e, enc(insts.TypeMFALUMem, insts.Fields{
				insts.FieldSel: 11, insts.FieldDReg: 0, insts.FieldSReg0: 0,
				insts.FieldDir2: 1, insts.FieldDReg2: 0,
			}))

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadData(0)).To(Equal(uint16(5)))
			v, _ := e.Memory().Peek(0)
			Expect(v).To(Equal(uint16(4)))
		})
	})

	Describe("complex operations", func() {
		It("should load and add complex immediates", func() {
			load(e,
				enc(insts.TypeLDImmC, insts.Fields{
					insts.FieldDReg: 2,
					insts.FieldImm:  insts.EncodeComplexImm(insts.TypeLDImmC, 3, -4),
				}),
				enc(insts.TypeALUImmC, insts.Fields{
					insts.FieldDReg: 4, insts.FieldSReg0: 2,
					insts.FieldImm: insts.EncodeComplexImm(insts.TypeALUImmC, 1, 1),
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadData(2)).To(Equal(uint16(3)))
			Expect(emu.SignExt12(rf.ReadData(3))).To(Equal(int32(-4)))
			Expect(rf.ReadData(4)).To(Equal(uint16(4)))
			Expect(emu.SignExt12(rf.ReadData(5))).To(Equal(int32(-3)))
		})

		It("should fail on odd complex registers", func() {
			load(e, enc(insts.TypeMemC, insts.Fields{insts.FieldDReg: 3}))

			Expect(e.Run()).To(MatchError(emu.ErrOddComplex))
		})

		It("should fail on odd complex addresses", func() {
			load(e, enc(insts.TypeMemDirC, insts.Fields{insts.FieldAddr: 0x11}))

			Expect(e.Run()).To(MatchError(emu.ErrOddComplex))
		})

		It("should move pairs through memory", func() {
			rf.WriteData(2, 0x123)
			rf.WriteData(3, 0x456)
			load(e,
				enc(insts.TypeMemDirC, insts.Fields{insts.FieldSel: 1, insts.FieldDReg: 2, insts.FieldAddr: 0x20}),
				enc(insts.TypeMemDirC, insts.Fields{insts.FieldDReg: 6, insts.FieldAddr: 0x20}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadData(6)).To(Equal(uint16(0x123)))
			Expect(rf.ReadData(7)).To(Equal(uint16(0x456)))
		})

		It("should copy with conjugation", func() {
			rf.WriteData(0, 5)
			rf.WriteData(1, 6)
			load(e, enc(insts.TypeCopyC, insts.Fields{
				insts.FieldDReg: 8, insts.FieldSReg0: 0, insts.FieldConj: 1,
			}))

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadData(8)).To(Equal(uint16(5)))
			Expect(emu.SignExt12(rf.ReadData(9))).To(Equal(int32(-6)))
		})

		It("should convert between polar and rectangular", func() {
			rf.WriteData(0, 1000)
			rf.WriteData(1, 0)
			load(e,
				enc(insts.TypeCordic, insts.Fields{insts.FieldDReg: 2, insts.FieldSReg0: 0}),
				enc(insts.TypeCordic, insts.Fields{
					insts.FieldSel: 1, insts.FieldDReg: 4, insts.FieldSReg0: 2,
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(emu.SignExt12(rf.ReadData(2))).To(BeNumerically("~", 1000, 2))
			Expect(emu.SignExt12(rf.ReadData(4))).To(BeNumerically("~", 1000, 4))
			Expect(emu.SignExt12(rf.ReadData(5))).To(BeNumerically("~", 0, 4))
		})
	})

	Describe("accumulators", func() {
		It("should saturate and flag MV when rounding leaves 32 bits", func() {
			rf.Acc[1].Set(0x7FFFF900)
			load(e, enc(insts.TypeAccOp, insts.Fields{insts.FieldAcc: 1}))

			Expect(e.Run()).To(Succeed())
			Expect(rf.Acc[1].Value()).To(Equal(emu.MaxRounded))
			Expect(rf.Flag(emu.LaneReal, emu.MV)).To(BeTrue())
		})

		It("should multiply, round and read back the views", func() {
			load(e,
				ld(0, 0x100),
				ld(1, 0x18),
				enc(insts.TypeMAC, insts.Fields{
					insts.FieldAcc: 2, insts.FieldSReg0: 0, insts.FieldSReg1: 1,
				}),
				enc(insts.TypeAccOp, insts.Fields{insts.FieldAcc: 2}),
				enc(insts.TypeMove, insts.Fields{
					insts.FieldUReg: uint64(emu.NewUReg(emu.GroupAcc, 2*3+emu.AccViewM)),
					insts.FieldDReg: 3,
				}),
				enc(insts.TypeMove, insts.Fields{
					insts.FieldUReg: uint64(emu.NewUReg(emu.GroupAcc, 2*3+emu.AccViewL)),
					insts.FieldDReg: 4,
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.Acc[2].Value()).To(Equal(int32(0x2000)))
			Expect(rf.ReadData(3)).To(Equal(uint16(2)))
			Expect(rf.ReadData(4)).To(Equal(uint16(0)))
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
		})

		It("should shift into an accumulator and count sign bits", func() {
			load(e,
				ld(0, 1),
				enc(insts.TypeShiftImm, insts.Fields{
					insts.FieldOpt: uint64(emu.ShiftLO), insts.FieldAcc: 1, insts.FieldSReg0: 0,
					insts.FieldImm: insts.EncodeImm(insts.TypeShiftImm, 4),
				}),
				enc(insts.TypeExp, insts.Fields{insts.FieldDReg: 5, insts.FieldSAcc0: 1}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.Acc[1].Value()).To(Equal(int32(16)))
			Expect(rf.ReadData(5)).To(Equal(uint16(26)))
		})

		It("should add accumulators", func() {
			load(e,
				enc(insts.TypeLDImmAcc, insts.Fields{
					insts.FieldAcc: 0, insts.FieldImm: insts.EncodeImm(insts.TypeLDImmAcc, -7),
				}),
				enc(insts.TypeLDImmAcc, insts.Fields{
					insts.FieldAcc: 1, insts.FieldImm: insts.EncodeImm(insts.TypeLDImmAcc, 100),
				}),
				enc(insts.TypeALUAcc, insts.Fields{
					insts.FieldAcc: 3, insts.FieldSAcc0: 0, insts.FieldSAcc1: 1,
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.Acc[3].Value()).To(Equal(int32(93)))
		})
	})

	Describe("registers and modes", func() {
		It("should warn and ignore moves into read-only registers", func() {
			load(e, enc(insts.TypeMove, insts.Fields{
				insts.FieldSel:  1,
				insts.FieldUReg: uint64(emu.NewUReg(emu.GroupSystem, emu.SysASTATC)),
			}))

			Expect(e.Run()).To(Succeed())
			Expect(e.Stats().Warnings).To(Equal(uint64(1)))
		})

		It("should fail on immediate loads into read-only registers", func() {
			load(e, ldUReg(emu.NewUReg(emu.GroupSystem, emu.SysSSTAT), 1))

			Expect(e.Run()).To(MatchError(emu.ErrReadOnly))
		})

		It("should sign-extend moves into wide registers", func() {
			load(e,
				ld(0, -1),
				enc(insts.TypeMove, insts.Fields{
					insts.FieldSel:  1,
					insts.FieldUReg: uint64(emu.NewUReg(emu.GroupDAG, 8)),
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadDAG(emu.DAGM, 0)).To(Equal(uint16(0xFFFF)))
		})

		It("should enable and disable modes", func() {
			load(e,
				enc(insts.TypeMode, insts.Fields{insts.FieldModeFrac: 1, insts.FieldModeCirc: 1}),
				enc(insts.TypeMode, insts.Fields{insts.FieldModeCirc: 2}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.MSTAT()).To(Equal(emu.ModeFrac))
		})

		It("should reject the reserved mode control", func() {
			load(e, enc(insts.TypeMode, insts.Fields{insts.FieldModeSat: 3}))

			Expect(e.Run()).To(MatchError(emu.ErrBadControl))
		})

		It("should set and clear interrupt latches", func() {
			load(e,
				enc(insts.TypeInt, insts.Fields{insts.FieldImm: 3}),
				enc(insts.TypeInt, insts.Fields{insts.FieldImm: 5}),
				enc(insts.TypeInt, insts.Fields{insts.FieldSel: 1, insts.FieldImm: 3}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.IRPTL).To(Equal(uint16(1 << 5)))
		})

		It("should clear status bits in every lane", func() {
			rf.ASTAT[emu.LaneReal] = emu.AV | emu.AC
			rf.ASTAT[emu.LaneImag] = emu.AV
			load(e, enc(insts.TypeClrStat, insts.Fields{
				insts.FieldLane: 3, insts.FieldFlags: uint64(emu.AV),
			}))

			Expect(e.Run()).To(Succeed())
			Expect(rf.ASTAT[emu.LaneReal]).To(Equal(emu.AC))
			Expect(rf.ASTAT[emu.LaneImag]).To(BeZero())
		})

		It("should save and restore status", func() {
			rf.ASTAT[emu.LaneReal] = emu.AC
			load(e,
				enc(insts.TypeStack, insts.Fields{insts.FieldStsCtl: emu.StackPush}),
				enc(insts.TypeClrStat, insts.Fields{insts.FieldFlags: uint64(emu.AC)}),
				enc(insts.TypeStack, insts.Fields{insts.FieldStsCtl: emu.StackPop}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.ASTAT[emu.LaneReal]).To(Equal(emu.AC))
		})

		It("should modify index registers", func() {
			load(e,
				ldUReg(emu.NewUReg(emu.GroupDAG, 2), 0x30),
				nop(),
				enc(insts.TypeModifyImm, insts.Fields{
					insts.FieldIReg: 2, insts.FieldImm: insts.EncodeImm(insts.TypeModifyImm, -2),
				}),
			)

			Expect(e.Run()).To(Succeed())
			Expect(rf.ReadDAG(emu.DAGI, 2)).To(Equal(uint16(0x2E)))
		})
	})
})
