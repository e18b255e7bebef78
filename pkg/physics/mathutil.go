package physics

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// Clamp limits value to the closed interval [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ApproxEqual reports whether a and b differ by at most tol.
func ApproxEqual(a, b, tol float64) bool {
	return scalar.EqualWithinAbs(a, b, tol)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
