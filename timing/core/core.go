// Package core provides the timing model of the DSP core.
// It drives the functional emulator and charges cache stalls on top of the
// static latencies fixed at resolve time.
package core

import (
	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
	"github.com/sarchlab/dspsim/timing/cache"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the emulator cycle count plus cache stalls.
	Cycles uint64
	// ExecCycles is the cycle count charged by record latencies.
	ExecCycles uint64
	// Instructions is the number of records executed.
	Instructions uint64
	// FetchStalls is the number of cycles lost to program cache misses.
	FetchStalls uint64
	// MemStalls is the number of cycles lost to data cache misses.
	MemStalls uint64

	PMCache cache.Statistics
	DMCache cache.Statistics
}

// CPI returns cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Config selects the caches of the core.
type Config struct {
	PMCache cache.Config
	DMCache cache.Config
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		PMCache: cache.DefaultPMConfig(),
		DMCache: cache.DefaultDMConfig(),
	}
}

// Core represents the DSP core with its program and data caches.
type Core struct {
	// Emulator is the underlying functional model.
	Emulator *emu.Emulator

	pmCache *cache.FetchCache
	dmCache *cache.DataCache
}

// NewCore creates a new Core. Extra options are passed to the emulator.
func NewCore(config Config, opts ...emu.EmulatorOption) *Core {
	c := &Core{
		pmCache: cache.NewFetchCache(config.PMCache),
		dmCache: cache.NewDataCache(config.DMCache),
	}

	opts = append(opts,
		emu.WithFetchObserver(c.pmCache),
		emu.WithDataObserver(c.dmCache))
	c.Emulator = emu.NewEmulator(opts...)

	return c
}

// LoadProgram attaches a resolved program.
func (c *Core) LoadProgram(prog *insts.Program) error {
	return c.Emulator.LoadProgram(prog)
}

// Tick executes one record.
func (c *Core) Tick() emu.StepResult {
	return c.Emulator.Step()
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Emulator.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	es := c.Emulator.Stats()
	pm := c.pmCache.Stats()
	dm := c.dmCache.Stats()

	return Stats{
		Cycles:       es.Cycles + pm.StallCycles + dm.StallCycles,
		ExecCycles:   es.Cycles,
		Instructions: es.Instructions,
		FetchStalls:  pm.StallCycles,
		MemStalls:    dm.StallCycles,
		PMCache:      pm,
		DMCache:      dm,
	}
}

// ResetCacheStats clears cache counters, e.g. after preloading memory.
func (c *Core) ResetCacheStats() {
	c.pmCache.ResetStats()
	c.dmCache.ResetStats()
}

// Run executes the core until it halts.
func (c *Core) Run() error {
	return c.Emulator.Run()
}

// RunCycles executes records until at least the given number of emulator
// cycles elapsed. Returns true if still running.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	end := c.Emulator.Cycles() + cycles
	for c.Emulator.Cycles() < end {
		result := c.Tick()
		if result.Err != nil {
			return false, result.Err
		}
		if result.Halted {
			return false, nil
		}
	}
	return true, nil
}

// Reset clears machine state and cache contents.
func (c *Core) Reset() {
	c.Emulator.Reset()
	c.pmCache.Reset()
	c.dmCache.Reset()
}
