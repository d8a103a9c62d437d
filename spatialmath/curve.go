package spatialmath

// Curve is a parametric planar curve defined for t in [0, MaxT()].
type Curve interface {
	Point(t float64) Vec2
	Derivative(t float64) Vec2
	SecondDerivative(t float64) Vec2
	MaxT() float64
}

// CubicBezier is a cubic Bézier curve through P0 and P3 with control points P1 and P2.
type CubicBezier struct {
	P0, P1, P2, P3 Vec2
}

// NewCubicBezier creates a CubicBezier.
func NewCubicBezier(p0, p1, p2, p3 Vec2) CubicBezier {
	return CubicBezier{P0: p0, P1: p1, P2: p2, P3: p3}
}

// Point evaluates the curve at t.
func (b CubicBezier) Point(t float64) Vec2 {
	u := 1 - t
	return b.P0.Mul(u * u * u).
		Add(b.P1.Mul(3 * u * u * t)).
		Add(b.P2.Mul(3 * u * t * t)).
		Add(b.P3.Mul(t * t * t))
}

// Derivative evaluates dP/dt at t.
func (b CubicBezier) Derivative(t float64) Vec2 {
	u := 1 - t
	return b.P1.Sub(b.P0).Mul(3 * u * u).
		Add(b.P2.Sub(b.P1).Mul(6 * u * t)).
		Add(b.P3.Sub(b.P2).Mul(3 * t * t))
}

// SecondDerivative evaluates d²P/dt² at t.
func (b CubicBezier) SecondDerivative(t float64) Vec2 {
	u := 1 - t
	return b.P2.Sub(b.P1.Mul(2)).Add(b.P0).Mul(6 * u).
		Add(b.P3.Sub(b.P2.Mul(2)).Add(b.P1).Mul(6 * t))
}

// MaxT is 1 for a Bézier curve.
func (b CubicBezier) MaxT() float64 {
	return 1
}

// Line is the straight segment from Start to End.
type Line struct {
	Start, End Vec2
}

// Point evaluates the segment at t.
func (l Line) Point(t float64) Vec2 {
	return l.Start.Lerp(l.End, t)
}

// Derivative is constant along a line.
func (l Line) Derivative(float64) Vec2 {
	return l.End.Sub(l.Start)
}

// SecondDerivative of a line is zero.
func (l Line) SecondDerivative(float64) Vec2 {
	return Vec2{}
}

// MaxT is 1 for a line.
func (l Line) MaxT() float64 {
	return 1
}
