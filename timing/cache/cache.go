// Package cache models program and data memory caches over the Akita cache
// directory. The emulator stays functional; caches only count accesses and
// the stall cycles they would cost.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters. Sizes are in words.
type Config struct {
	// Size in words
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in words
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles
	MissLatency uint64
}

// DefaultPMConfig returns the configuration of the program memory cache.
func DefaultPMConfig() Config {
	return Config{
		Size:          512,
		Associativity: 2,
		BlockSize:     8,
		HitLatency:    0,
		MissLatency:   4,
	}
}

// DefaultDMConfig returns the configuration of the data memory cache.
func DefaultDMConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 4,
		BlockSize:     4,
		HitLatency:    0,
		MissLatency:   3,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	Hit     bool
	Latency uint64
	// Evicted is true if a valid block was replaced.
	Evicted     bool
	EvictedAddr uint16
	// Writeback is true if the replaced block was dirty.
	Writeback bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads       uint64
	Writes      uint64
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Writebacks  uint64
	StallCycles uint64
}

// Accesses returns the number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// HitRate returns hits over accesses, or 0 before any access.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses())
}

// Cache is a tag-only set associative cache with LRU replacement.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockAddr(addr uint16) uint64 {
	bs := uint64(c.config.BlockSize)
	return uint64(addr) / bs * bs
}

// Read performs a cache read.
func (c *Cache) Read(addr uint16) AccessResult {
	c.stats.Reads++
	return c.access(addr, false)
}

// Write performs a cache write. Misses allocate.
func (c *Cache) Write(addr uint16) AccessResult {
	c.stats.Writes++
	return c.access(addr, true)
}

func (c *Cache) access(addr uint16, isWrite bool) AccessResult {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if isWrite {
			block.IsDirty = true
		}
		c.stats.StallCycles += c.config.HitLatency
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	c.stats.StallCycles += c.config.MissLatency
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint16(victim.Tag)
		if victim.IsDirty {
			c.stats.Writebacks++
			result.Writeback = true
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}

// Invalidate drops the line holding addr without writeback.
func (c *Cache) Invalidate(addr uint16) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush counts a writeback for every dirty line and invalidates all lines.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
