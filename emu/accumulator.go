package emu

// Accumulator is a 32-bit accumulator with High(8)/Mid(12)/Low(12) views.
// The combined value is the single source of truth; the views are slices
// of it, so they always agree.
type Accumulator struct {
	v        int32
	lInvalid bool
}

// Compose builds the combined value from its views.
func Compose(h, m, l uint16) int32 {
	return int32(uint32(h&0xFF)<<24 | uint32(m&0xFFF)<<12 | uint32(l&0xFFF))
}

// Decompose splits a combined value into its views.
func Decompose(v int32) (h, m, l uint16) {
	u := uint32(v)
	return uint16(u >> 24), uint16(u>>12) & 0xFFF, uint16(u) & 0xFFF
}

// Value returns the combined value.
func (a *Accumulator) Value() int32 {
	return a.v
}

// Set writes the combined value.
func (a *Accumulator) Set(v int32) {
	a.v = v
	a.lInvalid = false
}

// H returns the high byte.
func (a *Accumulator) H() uint16 {
	h, _, _ := Decompose(a.v)
	return h
}

// M returns the middle 12 bits.
func (a *Accumulator) M() uint16 {
	_, m, _ := Decompose(a.v)
	return m
}

// L returns the low 12 bits.
func (a *Accumulator) L() uint16 {
	_, _, l := Decompose(a.v)
	return l
}

// SetH writes the high byte.
func (a *Accumulator) SetH(h uint16) {
	_, m, l := Decompose(a.v)
	a.v = Compose(h, m, l)
}

// SetM writes the middle view and sign-extends it into H.
func (a *Accumulator) SetM(m uint16) {
	_, _, l := Decompose(a.v)
	h := uint16(0)
	if m&0x800 != 0 {
		h = 0xFF
	}
	a.v = Compose(h, m, l)
}

// SetL writes the low view.
func (a *Accumulator) SetL(l uint16) {
	h, m, _ := Decompose(a.v)
	a.v = Compose(h, m, l)
	a.lInvalid = false
}

// LValid reports whether the low view holds a defined value. Rounding
// clears L and marks it invalid until the next write.
func (a *Accumulator) LValid() bool {
	return !a.lInvalid
}

// SetRounded writes a rounded value: L is cleared and marked invalid.
func (a *Accumulator) SetRounded(v int32) {
	a.v = v &^ 0xFFF
	a.lInvalid = true
}
