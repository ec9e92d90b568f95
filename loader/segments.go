// Package loader reads program images, segment descriptors and data memory
// snapshots for the emulator.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/dspsim/emu"
)

// Segments describes where code and data live in their address spaces.
type Segments struct {
	// DataBase is the first valid data memory address.
	DataBase uint16 `json:"data_base"`

	// DataSize is the number of valid data memory cells. Zero means the
	// rest of the address space from DataBase.
	DataSize uint32 `json:"data_size"`

	// CodeBase is the PMA of the first program word.
	CodeBase uint16 `json:"code_base"`

	// CodeSize bounds the number of program words. Zero means the rest of
	// the address space from CodeBase.
	CodeSize uint32 `json:"code_size"`
}

// DefaultSegments returns segments covering both address spaces from 0.
func DefaultSegments() Segments {
	return Segments{}.WithDefaults()
}

// WithDefaults returns s with every zero size replaced by the rest of its
// address space.
func (s Segments) WithDefaults() Segments {
	if s.DataSize == 0 {
		s.DataSize = emu.AddressSpace - uint32(s.DataBase)
	}
	if s.CodeSize == 0 {
		s.CodeSize = emu.AddressSpace - uint32(s.CodeBase)
	}
	return s
}

// LoadSegments reads a segment descriptor from a JSON file. Missing sizes
// extend to the end of their address space.
func LoadSegments(path string) (Segments, error) {
	var seg Segments

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSegments(), fmt.Errorf("failed to read segment file: %w", err)
	}
	if err := json.Unmarshal(data, &seg); err != nil {
		return DefaultSegments(), fmt.Errorf("failed to parse segment file: %w", err)
	}

	seg = seg.WithDefaults()
	return seg, seg.Validate()
}

// Save writes the descriptor to a JSON file.
func (s Segments) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize segments: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write segment file: %w", err)
	}

	return nil
}

// Validate checks that both segments fit their 16-bit address spaces.
func (s Segments) Validate() error {
	if uint32(s.DataBase)+s.DataSize > emu.AddressSpace {
		return fmt.Errorf("data segment 0x%04X+%d exceeds the address space", s.DataBase, s.DataSize)
	}
	if uint32(s.CodeBase)+s.CodeSize > emu.AddressSpace {
		return fmt.Errorf("code segment 0x%04X+%d exceeds the address space", s.CodeBase, s.CodeSize)
	}
	return nil
}

// EmulatorOption returns the option that applies the data window.
func (s Segments) EmulatorOption() emu.EmulatorOption {
	s = s.WithDefaults()
	return emu.WithDataWindow(s.DataBase, s.DataSize)
}
