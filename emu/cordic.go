package emu

import "math"

// CORDIC fixed-point parameters. Inputs are 12-bit values scaled up by two
// bits into the 14-bit working format, where an angle of pi is 8192.
const (
	cordicFracShift = 2
	cordicPi        = 8192
	cordicHalfPi    = cordicPi / 2

	// cordicGain is 1/K for the iteration gain K, in Q13.
	cordicGain      = 4975
	cordicGainShift = 13

	// MaxCordicIterations is the length of the arctangent table.
	MaxCordicIterations = 16

	// DefaultCordicIterations is used when the instruction asks for zero.
	DefaultCordicIterations = 12
)

var cordicAtan [MaxCordicIterations]int32

func init() {
	for i := range cordicAtan {
		a := math.Atan(math.Ldexp(1, -i)) * cordicPi / math.Pi
		cordicAtan[i] = int32(math.Round(a))
	}
}

// CORDIC converts between polar and rectangular coordinates.
type CORDIC struct{}

// NewCORDIC creates a new CORDIC unit.
func NewCORDIC() *CORDIC {
	return &CORDIC{}
}

// Iterations maps the instruction's N field to an iteration count of N+1.
// N = 0 selects the default.
func Iterations(n uint8) int {
	if n == 0 {
		return DefaultCordicIterations
	}
	return min(int(n)+1, MaxCordicIterations)
}

// Rect rotates (mag, 0) by angle. Angles use the 12-bit scale where 2048
// is pi.
func (c *CORDIC) Rect(mag, angle int32, iterations int) (x, y int32) {
	x = mag << cordicFracShift
	z := angle << cordicFracShift

	post := 0
	switch {
	case z > cordicHalfPi:
		z -= cordicHalfPi
		post = 1
	case z < -cordicHalfPi:
		z += cordicHalfPi
		post = -1
	}

	for i := 0; i < iterations; i++ {
		dx, dy := y>>i, x>>i
		if z >= 0 {
			x, y = x-dx, y+dy
			z -= cordicAtan[i]
		} else {
			x, y = x+dx, y-dy
			z += cordicAtan[i]
		}
	}

	x, y = compensate(x), compensate(y)

	switch post {
	case 1:
		x, y = -y, x
	case -1:
		x, y = y, -x
	}

	return cordicOut(x), cordicOut(y)
}

// Polar drives (x, y) onto the positive x axis and returns the magnitude
// and the angle it rotated through.
func (c *CORDIC) Polar(x, y int32, iterations int) (mag, angle int32) {
	x <<= cordicFracShift
	y <<= cordicFracShift

	var z int32
	if x < 0 {
		if y >= 0 {
			x, y = y, -x
			z = cordicHalfPi
		} else {
			x, y = -y, x
			z = -cordicHalfPi
		}
	}

	for i := 0; i < iterations; i++ {
		dx, dy := y>>i, x>>i
		if y < 0 {
			x, y = x-dx, y+dy
			z -= cordicAtan[i]
		} else {
			x, y = x+dx, y-dy
			z += cordicAtan[i]
		}
	}

	return cordicOut(compensate(x)), cordicOut(z)
}

func compensate(v int32) int32 {
	return int32((int64(v)*cordicGain + 1<<(cordicGainShift-1)) >> cordicGainShift)
}

// cordicOut scales back to 12 bits with rounding and saturation.
func cordicOut(v int32) int32 {
	v = (v + 1<<(cordicFracShift-1)) >> cordicFracShift
	return max(-2048, min(2047, v))
}
