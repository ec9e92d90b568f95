package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
)

var _ = Describe("MAC", func() {
	var (
		rf  *emu.RegFile
		mac *emu.MAC
	)

	BeforeEach(func() {
		rf = emu.NewRegFile()
		mac = emu.NewMAC(rf)
	})

	It("should multiply signed operands", func() {
		res, err := mac.Compute(insts.OpMPY, emu.OptSS, 100, 3, 0xFFE)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value).To(Equal(int32(-6)))
	})

	It("should treat unsigned operands as 12-bit magnitudes", func() {
		res, _ := mac.Compute(insts.OpMPY, emu.OptUU, 0, 0xFFF, 2)
		Expect(res.Value).To(Equal(int32(0x1FFE)))

		res, _ = mac.Compute(insts.OpMPY, emu.OptSU, 0, 0xFFF, 2)
		Expect(res.Value).To(Equal(int32(-2)))
	})

	It("should accumulate and subtract", func() {
		res, _ := mac.Compute(insts.OpMAC, emu.OptSS, 10, 2, 3)
		Expect(res.Value).To(Equal(int32(16)))

		res, _ = mac.Compute(insts.OpMAS, emu.OptSS, 10, 2, 3)
		Expect(res.Value).To(Equal(int32(4)))
	})

	It("should double products in fractional mode", func() {
		enableModes(rf, emu.ModeFrac)
		res, _ := mac.Compute(insts.OpMPY, emu.OptSS, 0, 2, 3)
		Expect(res.Value).To(Equal(int32(12)))
	})

	It("should flag results that leave 32 bits", func() {
		res, _ := mac.Compute(insts.OpMAC, emu.OptSS, 1<<31-1, 0x7FF, 0x7FF)
		Expect(res.Flags.MV).To(BeTrue())
	})

	It("should reject unknown options", func() {
		_, err := mac.Compute(insts.OpMPY, 6, 0, 1, 1)
		Expect(err).To(MatchError(emu.ErrBadOption))
	})

	Describe("Round", func() {
		round := func(v int32) int32 {
			r, ovf := mac.Round(v)
			Expect(ovf).To(BeFalse())
			return r
		}

		It("should break ties to an even M without bias", func() {
			Expect(round(0x0800)).To(Equal(int32(0)))
			Expect(round(0x1800)).To(Equal(int32(0x2000)))
			Expect(round(0x1801)).To(Equal(int32(0x2000)))
			Expect(round(0x17FF)).To(Equal(int32(0x1000)))
			Expect(round(-0x1801)).To(Equal(int32(-0x2000)))
		})

		It("should always round half up with bias", func() {
			enableModes(rf, emu.ModeBias)
			Expect(round(0x0800)).To(Equal(int32(0x1000)))
		})

		It("should saturate when the rounding carry leaves 32 bits", func() {
			v, ovf := mac.Round(0x7FFFF900)
			Expect(ovf).To(BeTrue())
			Expect(v).To(Equal(emu.MaxRounded))

			v, ovf = mac.Round(0x7FFFF100)
			Expect(ovf).To(BeFalse())
			Expect(v).To(Equal(emu.MaxRounded))
		})

		It("should set MV on a rounded multiply that overflows", func() {
			res, err := mac.Compute(insts.OpMAC, emu.OptRND, 0x7FFFF900, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(emu.MaxRounded))
			Expect(res.Flags.MV).To(BeTrue())
		})

		It("should mark rounded multiplies", func() {
			res, _ := mac.Compute(insts.OpMPY, emu.OptRND, 0, 0x100, 0x10)
			Expect(res.Rounded).To(BeTrue())
			Expect(res.Value).To(Equal(int32(0x1000)))
		})
	})

	It("should saturate to 24 bits", func() {
		v, sat := mac.Saturate24(1 << 24)
		Expect(sat).To(BeTrue())
		Expect(v).To(Equal(int32(1<<23 - 1)))

		v, sat = mac.Saturate24(-5)
		Expect(sat).To(BeFalse())
		Expect(v).To(Equal(int32(-5)))
	})

	It("should multiply complex values", func() {
		// (1+2j)(3+4j) = -5+10j
		re, im, err := mac.ComputeComplex(insts.OpMPY, emu.OptSS, 0, 0, 1, 2, 3, 4, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(re.Value).To(Equal(int32(-5)))
		Expect(im.Value).To(Equal(int32(10)))

		// (1+2j)(3-4j) = 11+2j
		re, im, _ = mac.ComputeComplex(insts.OpMPY, emu.OptSS, 0, 0, 1, 2, 3, 4, true)
		Expect(re.Value).To(Equal(int32(11)))
		Expect(im.Value).To(Equal(int32(2)))

		re, im, _ = mac.ComputeRealComplex(insts.OpMAC, emu.OptSS, 1, 1, 2, 3, 4)
		Expect(re.Value).To(Equal(int32(7)))
		Expect(im.Value).To(Equal(int32(9)))
	})
})
