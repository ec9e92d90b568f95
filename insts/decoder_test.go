package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	// LD R3, #-5
	It("should decode LD_IMM", func() {
		w := insts.MustEncode(insts.TypeLDImm, insts.Fields{
			insts.FieldDReg: 3,
			insts.FieldImm:  insts.EncodeImm(insts.TypeLDImm, -5),
		})

		inst, err := decoder.Decode(w)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Type).To(Equal(insts.TypeLDImm))
		Expect(inst.Field(insts.FieldDReg)).To(Equal(uint64(3)))

		imm, err := inst.Immediate()
		Expect(err).NotTo(HaveOccurred())
		Expect(imm.Re).To(Equal(int32(-5)))
	})

	It("should default COND and CONJ when the type lacks them", func() {
		w := insts.MustEncode(insts.TypeLDImm, insts.Fields{insts.FieldDReg: 1})
		inst, err := decoder.Decode(w)
		Expect(err).NotTo(HaveOccurred())

		Expect(inst.Cond).To(Equal(insts.CondTrue))
		Expect(inst.Conj).To(BeFalse())
		Expect(inst.Field(insts.FieldCond)).To(Equal(uint64(insts.CondTrue)))
	})

	It("should fail on a field the type does not have", func() {
		w := insts.MustEncode(insts.TypeNOP, insts.Fields{})
		inst, err := decoder.Decode(w)
		Expect(err).NotTo(HaveOccurred())

		_, err = inst.Field(insts.FieldDReg)
		Expect(err).To(MatchError(insts.ErrFieldAbsent))
		_, err = inst.Immediate()
		Expect(err).To(MatchError(insts.ErrFieldAbsent))
	})

	It("should decode condition and conjugate fields", func() {
		w := insts.MustEncode(insts.TypeALUC, insts.Fields{
			insts.FieldSel:   2,
			insts.FieldCond:  uint64(insts.CondIEQ),
			insts.FieldDReg:  4,
			insts.FieldSReg0: 6,
			insts.FieldSReg1: 8,
			insts.FieldConj:  1,
		})

		inst, err := decoder.Decode(w)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Type).To(Equal(insts.TypeALUC))
		Expect(inst.Cond).To(Equal(insts.CondIEQ))
		Expect(inst.Conj).To(BeTrue())
		Expect(inst.Field(insts.FieldSReg1)).To(Equal(uint64(8)))
	})

	It("should reject words with no matching prefix", func() {
		_, err := decoder.Decode(insts.Word(0b0011) << 36)
		Expect(err).To(MatchError(insts.ErrUnknownType))
	})

	It("should ignore bits above the word width", func() {
		w := insts.MustEncode(insts.TypeIdle, insts.Fields{})
		inst, err := decoder.Decode(w | 1<<45)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Type).To(Equal(insts.TypeIdle))
	})
})

var _ = Describe("Encoder", func() {
	It("should reject out of range values", func() {
		_, err := insts.Encode(insts.TypeLDImm, insts.Fields{insts.FieldDReg: 32})
		Expect(err).To(MatchError(insts.ErrFieldRange))
	})

	It("should reject fields outside the layout", func() {
		_, err := insts.Encode(insts.TypeNOP, insts.Fields{insts.FieldAcc: 1})
		Expect(err).To(MatchError(insts.ErrFieldAbsent))
	})

	It("should reject unknown types", func() {
		_, err := insts.Encode(insts.TypeUnknown, nil)
		Expect(err).To(MatchError(insts.ErrUnknownType))
	})
})
