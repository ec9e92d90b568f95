package emu

// UndefinedCell is the value of a data memory cell never written.
const UndefinedCell uint16 = 0x800

// AddressSpace is the number of data memory addresses.
const AddressSpace = 1 << 16

// AccessObserver is notified of every in-window data memory access.
type AccessObserver interface {
	Access(addr uint16, write bool)
}

// Memory is the sparse data memory of 12-bit cells.
type Memory struct {
	cells map[uint16]uint16

	base uint16
	size uint32

	reporter    Reporter
	observer    AccessObserver
	warnedUndef map[uint16]bool
	warnedRange map[uint16]bool
}

// NewMemory creates an empty data memory covering the full address space.
func NewMemory() *Memory {
	return &Memory{
		cells:       make(map[uint16]uint16),
		size:        AddressSpace,
		warnedUndef: make(map[uint16]bool),
		warnedRange: make(map[uint16]bool),
	}
}

// SetWindow restricts valid addresses to [base, base+size). A size of zero
// selects the full address space.
func (m *Memory) SetWindow(base uint16, size uint32) {
	if size == 0 {
		base, size = 0, AddressSpace
	}
	m.base = base
	m.size = size
}

// Window returns the valid address window.
func (m *Memory) Window() (base uint16, size uint32) {
	return m.base, m.size
}

// SetReporter sets where warnings go. A nil reporter drops them.
func (m *Memory) SetReporter(r Reporter) {
	m.reporter = r
}

// SetObserver registers an access observer. A nil observer disables it.
func (m *Memory) SetObserver(o AccessObserver) {
	m.observer = o
}

// InRange reports whether addr lies inside the window.
func (m *Memory) InRange(addr uint16) bool {
	return addr >= m.base && uint32(addr-m.base) < m.size
}

func (m *Memory) warnOnce(seen map[uint16]bool, addr uint16, format string) {
	if seen[addr] {
		return
	}
	seen[addr] = true
	if m.reporter != nil {
		m.reporter.Warn(format, addr)
	}
}

// Read returns the cell at addr. Out-of-window reads and reads of
// never-written cells return UndefinedCell and warn once per address.
func (m *Memory) Read(addr uint16) uint16 {
	if !m.InRange(addr) {
		m.warnOnce(m.warnedRange, addr, "data memory read outside segment at 0x%04X")
		return UndefinedCell
	}
	if m.observer != nil {
		m.observer.Access(addr, false)
	}

	v, ok := m.cells[addr]
	if !ok {
		m.warnOnce(m.warnedUndef, addr, "read of undefined data memory at 0x%04X")
		m.cells[addr] = UndefinedCell
		return UndefinedCell
	}
	return v
}

// Write stores v at addr. Out-of-window writes are dropped with a warning.
func (m *Memory) Write(addr uint16, v uint16) {
	if !m.InRange(addr) {
		m.warnOnce(m.warnedRange, addr, "data memory write outside segment at 0x%04X")
		return
	}
	if m.observer != nil {
		m.observer.Access(addr, true)
	}
	m.cells[addr] = v & DataMask
}

// Peek returns the cell at addr without side effects. ok is false for
// cells never accessed.
func (m *Memory) Peek(addr uint16) (v uint16, ok bool) {
	v, ok = m.cells[addr]
	if !ok {
		return UndefinedCell, false
	}
	return v, true
}

// Len returns the number of materialized cells.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Reset clears all cells and warning history.
func (m *Memory) Reset() {
	m.cells = make(map[uint16]uint16)
	m.warnedUndef = make(map[uint16]bool)
	m.warnedRange = make(map[uint16]bool)
}
