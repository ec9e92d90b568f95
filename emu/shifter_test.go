package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

var _ = Describe("Shifter", func() {
	var sh *emu.Shifter

	BeforeEach(func() {
		sh = emu.NewShifter(emu.NewRegFile())
	})

	It("should undo a left shift with a right shift", func() {
		for _, x := range []uint16{0x001, 0x7FF, 0x800, 0xFFF, 0x5A5, 0xA5A} {
			v := emu.SignExt12(x)
			for n := 0; n <= 20; n++ {
				left := emu.ShiftValue(v, n, true, false)
				Expect(emu.ShiftValue(left, -n, true, false)).To(Equal(v),
					"x=%#x n=%d", x, n)
			}
		}
	})

	It("should clamp shift amounts", func() {
		Expect(emu.ClampShift(40)).To(Equal(emu.MaxShift))
		Expect(emu.ClampShift(-40)).To(Equal(-emu.MaxShift))
		Expect(emu.ShiftValue(1, 32, true, false)).To(Equal(int32(0)))
		Expect(emu.ShiftValue(-1, -32, true, false)).To(Equal(int32(-1)))
		Expect(emu.ShiftValue(-1, -32, false, false)).To(Equal(int32(0)))
	})

	It("should round right shifts", func() {
		Expect(emu.ShiftValue(5, -1, true, true)).To(Equal(int32(3)))
		Expect(emu.ShiftValue(5, -1, true, false)).To(Equal(int32(2)))
		Expect(emu.ShiftValue(-5, -1, true, true)).To(Equal(int32(-2)))
	})

	It("should place inputs high or low", func() {
		res, err := sh.Compute(insts.OpASHIFT, emu.ShiftHI, 0x800, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value).To(Equal(int32(-0x800 << 12)))
		Expect(res.Flags.SS).To(BeTrue())

		res, _ = sh.Compute(insts.OpLSHIFT, emu.ShiftLO, 0x800, 0, 0)
		Expect(res.Value).To(Equal(int32(0x800)))

		res, _ = sh.Compute(insts.OpLSHIFT, emu.ShiftLO, 0x800, -4, 0)
		Expect(res.Value).To(Equal(int32(0x80)))
	})

	It("should OR into the old value", func() {
		res, _ := sh.Compute(insts.OpLSHIFTOR, emu.ShiftLO, 0x001, 4, 0x3)
		Expect(res.Value).To(Equal(int32(0x13)))
	})

	It("should only accept complex options for complex shifts", func() {
		re, im, err := sh.ComputeComplex(insts.OpASHIFT, emu.ShiftNORND, 1, 2, -12, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(re.Value).To(Equal(int32(1)))
		Expect(im.Value).To(Equal(int32(2)))

		_, _, err = sh.ComputeComplex(insts.OpASHIFT, emu.ShiftLO, 1, 2, 0, 0, 0)
		Expect(err).To(MatchError(emu.ErrBadOption))
	})

	It("should count redundant sign bits", func() {
		Expect(emu.Exp(1)).To(Equal(uint16(30)))
		Expect(emu.Exp(-1)).To(Equal(uint16(31)))
		Expect(emu.Exp(1 << 30)).To(Equal(uint16(0)))
		Expect(emu.Exp(-1 << 31)).To(Equal(uint16(0)))
	})
})
