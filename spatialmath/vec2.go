package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Vec2 is a point or displacement in the field plane, in the same length unit as the tracking
// wheels (inches by convention).
type Vec2 r2.Point

// NewVec2 creates a vector from its components.
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromPolar creates a vector of the given length pointing at angle, measured counter-clockwise
// from +X.
func FromPolar(length float64, angle Angle) Vec2 {
	return Vec2{X: length * angle.Cos(), Y: length * angle.Sin()}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2(r2.Point(v).Add(r2.Point(o)))
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2(r2.Point(v).Sub(r2.Point(o)))
}

// Mul scales the vector.
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2(r2.Point(v).Mul(scalar))
}

// Div divides both components by scalar.
func (v Vec2) Div(scalar float64) Vec2 {
	return Vec2{X: v.X / scalar, Y: v.Y / scalar}
}

// Neg returns -v.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product.
func (v Vec2) Dot(o Vec2) float64 {
	return r2.Point(v).Dot(r2.Point(o))
}

// Cross returns the z component of the 3D cross product of v and o.
func (v Vec2) Cross(o Vec2) float64 {
	return r2.Point(v).Cross(r2.Point(o))
}

// Length returns the euclidean norm.
func (v Vec2) Length() float64 {
	return r2.Point(v).Norm()
}

// Distance returns the euclidean distance to o.
func (v Vec2) Distance(o Vec2) float64 {
	return v.Sub(o).Length()
}

// Angle returns the direction of the vector, counter-clockwise from +X.
func (v Vec2) Angle() Angle {
	return Atan2(v.Y, v.X)
}

// Unit returns the vector scaled to length 1. The zero vector stays zero.
func (v Vec2) Unit() Vec2 {
	return Vec2(r2.Point(v).Normalize())
}

// Lerp linearly interpolates from v (t=0) to o (t=1).
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return v.Add(o.Sub(v).Mul(t))
}

// Rotated rotates the vector counter-clockwise about the origin.
func (v Vec2) Rotated(angle Angle) Vec2 {
	sin, cos := math.Sincos(angle.Radians())
	return Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Projected returns the projection of v onto o. Projecting onto the zero vector yields zero.
func (v Vec2) Projected(o Vec2) Vec2 {
	lengthSquared := o.Dot(o)
	if lengthSquared == 0 {
		return Vec2{}
	}
	return o.Mul(v.Dot(o) / lengthSquared)
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}
