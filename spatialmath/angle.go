// Package spatialmath defines the planar geometry used for odometry and motion: angles, vectors
// and parametric curves.
package spatialmath

import (
	"fmt"
	"math"
)

// Angle is a planar angle stored in radians. Every constructor converts into radians, so two
// Angles always compare in the same unit.
type Angle float64

const (
	// FullTurn is 2π radians.
	FullTurn = Angle(2 * math.Pi)
	// HalfTurn is π radians.
	HalfTurn = Angle(math.Pi)
	// QuarterTurn is π/2 radians.
	QuarterTurn = Angle(math.Pi / 2)
)

// FromRadians creates an Angle from radians.
func FromRadians(radians float64) Angle {
	return Angle(radians)
}

// FromDegrees creates an Angle from degrees.
func FromDegrees(degrees float64) Angle {
	return Angle(degrees * math.Pi / 180)
}

// FromGradians creates an Angle from gradians (400 per turn).
func FromGradians(gradians float64) Angle {
	return Angle(gradians * math.Pi / 200)
}

// FromTurns creates an Angle from full revolutions.
func FromTurns(turns float64) Angle {
	return Angle(turns * 2 * math.Pi)
}

// Atan2 is the four quadrant arctangent of y/x.
func Atan2(y, x float64) Angle {
	return Angle(math.Atan2(y, x))
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Gradians returns the angle in gradians.
func (a Angle) Gradians() float64 {
	return float64(a) * 200 / math.Pi
}

// Turns returns the angle in full revolutions.
func (a Angle) Turns() float64 {
	return float64(a) / (2 * math.Pi)
}

// Wrapped normalizes the angle into [-π, π].
func (a Angle) Wrapped() Angle {
	return Angle(remEuclid(float64(a)+math.Pi, 2*math.Pi) - math.Pi)
}

// WrappedPositive normalizes the angle into [0, 2π).
func (a Angle) WrappedPositive() Angle {
	return Angle(remEuclid(float64(a), 2*math.Pi))
}

// Add returns a+b.
func (a Angle) Add(b Angle) Angle { return a + b }

// Sub returns a-b.
func (a Angle) Sub(b Angle) Angle { return a - b }

// Mul scales the angle.
func (a Angle) Mul(scalar float64) Angle { return Angle(float64(a) * scalar) }

// Div divides the angle by a scalar.
func (a Angle) Div(scalar float64) Angle { return Angle(float64(a) / scalar) }

// Neg returns -a.
func (a Angle) Neg() Angle { return -a }

// Abs returns |a|.
func (a Angle) Abs() Angle { return Angle(math.Abs(float64(a))) }

// Sin returns sin(a).
func (a Angle) Sin() float64 { return math.Sin(float64(a)) }

// Cos returns cos(a).
func (a Angle) Cos() float64 { return math.Cos(float64(a)) }

// Tan returns tan(a).
func (a Angle) Tan() float64 { return math.Tan(float64(a)) }

func (a Angle) String() string {
	return fmt.Sprintf("%.3f°", a.Degrees())
}

// remEuclid is the least non-negative remainder of x / m.
func remEuclid(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	// math.Mod of a tiny negative value can round up to exactly m.
	if r >= m {
		r -= m
	}
	return r
}
