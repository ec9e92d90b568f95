package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/dspsim/emu"
)

// PreloadMemory writes one decimal value per line into consecutive cells
// from base. Values may be negative; they are stored as 12-bit two's
// complement. It returns the number of cells written.
func PreloadMemory(r io.Reader, mem *emu.Memory, base uint16) (int, error) {
	scanner := bufio.NewScanner(r)
	addr := uint32(base)
	n := 0
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if v < -2048 || v > 4095 {
			return n, fmt.Errorf("line %d: value %d does not fit 12 bits", line, v)
		}
		if addr >= emu.AddressSpace {
			return n, fmt.Errorf("line %d: snapshot runs past the address space", line)
		}

		mem.Write(uint16(addr), uint16(v)&emu.DataMask)
		addr++
		n++
	}

	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to read memory snapshot: %w", err)
	}
	return n, nil
}

// DumpMemory writes size cells from base, one signed decimal per line.
// Never-written cells are dumped as the undefined sentinel.
func DumpMemory(w io.Writer, mem *emu.Memory, base uint16, size int) error {
	bw := bufio.NewWriter(w)

	for i := 0; i < size; i++ {
		addr := uint32(base) + uint32(i)
		if addr >= emu.AddressSpace {
			break
		}
		v, _ := mem.Peek(uint16(addr))
		if _, err := fmt.Fprintln(bw, emu.SignExt12(v)); err != nil {
			return err
		}
	}

	return bw.Flush()
}
