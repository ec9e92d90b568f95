package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
	"github.com/sarchlab/dspsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 8 sets, 2 ways, 4-word lines
		c = cache.New(cache.Config{
			Size:          64,
			Associativity: 2,
			BlockSize:     4,
			HitLatency:    1,
			MissLatency:   10,
		})
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.StallCycles).To(Equal(uint64(10)))
		})

		It("should hit within the same line", func() {
			c.Read(0x100)

			result := c.Read(0x103)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Read(0x104).Hit).To(BeFalse())
		})
	})

	Describe("Eviction", func() {
		It("should replace the least recently used way", func() {
			c.Read(0)
			c.Read(32)
			c.Read(0)

			result := c.Read(64)
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint16(32)))
			Expect(c.Read(0).Hit).To(BeTrue())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})

		It("should count writebacks of dirty lines", func() {
			c.Write(0)
			c.Read(32)
			c.Read(32)

			result := c.Read(64)
			Expect(result.Writeback).To(BeTrue())
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	It("should flush dirty lines", func() {
		c.Write(0)
		c.Write(4)
		c.Read(8)

		c.Flush()
		Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
		Expect(c.Read(0).Hit).To(BeFalse())
	})

	It("should invalidate single lines", func() {
		c.Read(0)
		c.Invalidate(2)
		Expect(c.Read(0).Hit).To(BeFalse())
	})

	It("should report the hit rate", func() {
		Expect(c.Stats().HitRate()).To(BeZero())
		c.Read(0)
		c.Read(1)
		c.Write(2)
		c.Read(3)
		Expect(c.Stats().HitRate()).To(BeNumerically("~", 0.75))

		c.Reset()
		Expect(c.Stats().Accesses()).To(BeZero())
	})
})

var _ = Describe("Emulator caches", func() {
	It("should observe fetches and data accesses", func() {
		pm := cache.NewFetchCache(cache.DefaultPMConfig())
		dm := cache.NewDataCache(cache.DefaultDMConfig())

		prog := insts.NewProgram(0)
		words := []insts.Word{
			insts.MustEncode(insts.TypeLDImm, insts.Fields{
				insts.FieldDReg: 1,
				insts.FieldImm:  insts.EncodeImm(insts.TypeLDImm, 9),
			}),
			insts.MustEncode(insts.TypeNOP, insts.Fields{}),
			insts.MustEncode(insts.TypeIdle, insts.Fields{}),
		}
		for _, w := range words {
			_, err := prog.Append(w)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(prog.Resolve(insts.DefaultResolveOptions())).To(Succeed())

		e := emu.NewEmulator(emu.WithFetchObserver(pm), emu.WithDataObserver(dm))
		Expect(e.LoadProgram(prog)).To(Succeed())
		Expect(e.Run()).To(Succeed())

		Expect(pm.Stats().Reads).To(Equal(uint64(3)))
		Expect(pm.Stats().Misses).To(Equal(uint64(1)))

		e.Memory().Write(0x40, 1)
		e.Memory().Read(0x40)
		Expect(dm.Stats().Writes).To(Equal(uint64(1)))
		Expect(dm.Stats().Hits).To(Equal(uint64(1)))
	})
})
