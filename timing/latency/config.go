package latency

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/dspsim/insts"
)

// TimingConfig holds the cycle costs the resolver assigns to records.
type TimingConfig struct {
	// DefaultLatency is the cost of every record not otherwise charged.
	// Default: 1 cycle.
	DefaultLatency uint64 `json:"default_latency"`

	// BranchStallLatency is the cost of a branch when delay slots are
	// disabled. Default: 2 cycles.
	BranchStallLatency uint64 `json:"branch_stall_latency"`

	// MemHazardLatency is the minimum cost of a complex memory move that is
	// followed by another data memory reference. Default: 2 cycles.
	MemHazardLatency uint64 `json:"mem_hazard_latency"`

	// DelaySlots makes the record after each branch a delay slot instead of
	// charging the branch a stall.
	DelaySlots bool `json:"delay_slots"`
}

// DefaultTimingConfig returns a TimingConfig with the standard latencies.
func DefaultTimingConfig() *TimingConfig {
	opts := insts.DefaultResolveOptions()
	return &TimingConfig{
		DefaultLatency:     opts.DefaultLatency,
		BranchStallLatency: opts.BranchStallLatency,
		MemHazardLatency:   opts.MemHazardLatency,
		DelaySlots:         opts.DelaySlots,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.DefaultLatency == 0 {
		return fmt.Errorf("default_latency must be > 0")
	}
	if c.BranchStallLatency == 0 {
		return fmt.Errorf("branch_stall_latency must be > 0")
	}
	if c.MemHazardLatency == 0 {
		return fmt.Errorf("mem_hazard_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

// ResolveOptions converts the configuration into resolver options.
func (c *TimingConfig) ResolveOptions() insts.ResolveOptions {
	return insts.ResolveOptions{
		DelaySlots:         c.DelaySlots,
		DefaultLatency:     c.DefaultLatency,
		BranchStallLatency: c.BranchStallLatency,
		MemHazardLatency:   c.MemHazardLatency,
	}
}
