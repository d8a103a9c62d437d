package drivetrain

import (
	"fmt"
	"math"
)

// MaxVoltage is the largest voltage a drive motor accepts.
const MaxVoltage = 12.0

// Voltages is a left/right pair of motor voltages for a differential drivetrain.
type Voltages struct {
	Left  float64
	Right float64
}

// FromArcade mixes a throttle and a clockwise-positive steer into tank voltages.
func FromArcade(throttle, steer float64) Voltages {
	return Voltages{Left: throttle + steer, Right: throttle - steer}
}

// FromCurvature converts a linear command and a signed path curvature (1/radius, counter-clockwise
// positive) into tank voltages: `v·(2 ∓ c·trackWidth)/2`.
func FromCurvature(velocity, curvature, trackWidth float64) Voltages {
	return Voltages{
		Left:  velocity * (2 - curvature*trackWidth) / 2,
		Right: velocity * (2 + curvature*trackWidth) / 2,
	}
}

// Normalized scales both sides by the same factor so that the larger magnitude is at most max.
// The left/right ratio is preserved. Voltages already within bounds are returned unchanged.
func (v Voltages) Normalized(max float64) Voltages {
	largest := math.Max(math.Abs(v.Left), math.Abs(v.Right))
	ratio := largest / max
	if ratio > 1 {
		return Voltages{Left: v.Left / ratio, Right: v.Right / ratio}
	}
	return v
}

// Neg reverses both sides.
func (v Voltages) Neg() Voltages {
	return Voltages{Left: -v.Left, Right: -v.Right}
}

func (v Voltages) String() string {
	return fmt.Sprintf("[%.2fV, %.2fV]", v.Left, v.Right)
}
