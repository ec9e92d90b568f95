package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/insts"
)

var _ = Describe("Immediate decoding", func() {
	DescribeTable("real classes",
		func(raw uint64, class insts.ImmClass, want int32) {
			imm := insts.DecodeImmediate(raw, class)
			Expect(imm.Complex).To(BeFalse())
			Expect(imm.Re).To(Equal(want))
		},
		Entry("S4 positive", uint64(0x7), insts.ImmS4, int32(7)),
		Entry("S4 negative", uint64(0x8), insts.ImmS4, int32(-8)),
		Entry("S5 negative", uint64(0x1F), insts.ImmS5, int32(-1)),
		Entry("S6 negative", uint64(0x20), insts.ImmS6, int32(-32)),
		Entry("S8", uint64(0x80), insts.ImmS8, int32(-128)),
		Entry("S12 max", uint64(0x7FF), insts.ImmS12, int32(2047)),
		Entry("S12 min", uint64(0x800), insts.ImmS12, int32(-2048)),
		Entry("S13", uint64(0x1FFE), insts.ImmS13, int32(-2)),
		Entry("S16", uint64(0x8000), insts.ImmS16, int32(-32768)),
		Entry("S24", uint64(0xFFFFFF), insts.ImmS24, int32(-1)),
		Entry("U4", uint64(0xF), insts.ImmU4, int32(15)),
		Entry("U12", uint64(0xFFF), insts.ImmU12, int32(4095)),
		Entry("U16", uint64(0xFFFF), insts.ImmU16, int32(65535)),
		Entry("upper bits ignored", uint64(0x1F05), insts.ImmS8, int32(5)),
	)

	DescribeTable("complex classes",
		func(raw uint64, class insts.ImmClass, re, im int32) {
			imm := insts.DecodeImmediate(raw, class)
			Expect(imm.Complex).To(BeTrue())
			Expect(imm.Re).To(Equal(re))
			Expect(imm.Im).To(Equal(im))
		},
		Entry("C8", uint64(0x7F), insts.ImmC8, int32(7), int32(-1)),
		Entry("C24", uint64(0x800001), insts.ImmC24, int32(-2048), int32(1)),
		Entry("C32", uint64(0x0001FFFF), insts.ImmC32, int32(1), int32(-1)),
	)

	It("should invert with EncodeImmediate", func() {
		for _, v := range []int32{-2048, -1, 0, 1, 2047} {
			raw := insts.EncodeImmediate(insts.Imm{Re: v}, insts.ImmS12)
			Expect(insts.DecodeImmediate(raw, insts.ImmS12).Re).To(Equal(v))
		}

		c := insts.Imm{Re: -3, Im: 5, Complex: true}
		raw := insts.EncodeImmediate(c, insts.ImmC24)
		Expect(insts.DecodeImmediate(raw, insts.ImmC24)).To(Equal(c))
	})
})
