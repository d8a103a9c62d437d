package utils

import "math"

// Float64AlmostEqual compares two float64s and returns if the difference between them is less
// than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// Clamp returns value bounded to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Signum returns -1, 0 or 1 according to the sign of x. NaN maps to 0.
func Signum(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// SignOf returns 1 for non-negative numbers (including +0) and -1 otherwise. Unlike Signum it
// never returns 0, which makes it usable as a direction multiplier.
func SignOf(x float64) float64 {
	if math.Signbit(x) {
		return -1
	}
	return 1
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Desaturate scales every element of values down by the same factor so that none exceeds max in
// magnitude. Slices already within bounds are returned unchanged.
func Desaturate(values []float64, max float64) []float64 {
	largest := 0.0
	for _, v := range values {
		largest = math.Max(largest, math.Abs(v))
	}
	out := make([]float64, len(values))
	copy(out, values)
	if largest <= max || largest == 0 {
		return out
	}
	for i := range out {
		out[i] = out[i] / largest * max
	}
	return out
}
