// Package trajectory generates distance-indexed velocity profiles over parametric curves for a
// differential drivetrain.
package trajectory

import (
	"math"
	"slices"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/drivecontrol/spatialmath"
)

// gravity in inches per second squared.
const gravity = 9.81 * 39.3701

// Constraints bound the generated profile. Lengths are in the curve's unit, times in seconds.
type Constraints struct {
	MaxVelocity         float64 `json:"max_velocity"`
	MaxAcceleration     float64 `json:"max_acceleration"`
	MaxDeceleration     float64 `json:"max_deceleration"`
	FrictionCoefficient float64 `json:"friction_coefficient"`
	TrackWidth          float64 `json:"track_width"`
}

// Validate ensures all parts of the config are valid.
func (c *Constraints) Validate(path string) error {
	switch {
	case c.MaxVelocity <= 0:
		return errors.Errorf("%s: max_velocity must be positive", path)
	case c.MaxAcceleration <= 0:
		return errors.Errorf("%s: max_acceleration must be positive", path)
	case c.MaxDeceleration <= 0:
		return errors.Errorf("%s: max_deceleration must be positive", path)
	case c.FrictionCoefficient <= 0:
		return errors.Errorf("%s: friction_coefficient must be positive", path)
	case c.TrackWidth <= 0:
		return errors.Errorf("%s: track_width must be positive", path)
	}
	return nil
}

// MaxSpeed is the fastest the robot may travel along an arc of the given curvature. The outer
// wheel may not exceed MaxVelocity, and the robot may not slide off the arc.
func (c *Constraints) MaxSpeed(curvature float64) float64 {
	turnRate := 2 * c.MaxVelocity / c.TrackWidth
	maxTurnSpeed := turnRate * c.MaxVelocity / (math.Abs(curvature)*c.MaxVelocity + turnRate)
	if curvature == 0 {
		return maxTurnSpeed
	}
	maxSlipSpeed := math.Sqrt(c.FrictionCoefficient / math.Abs(curvature) * gravity)
	return math.Min(maxSlipSpeed, maxTurnSpeed)
}

// Point is one sample of a profile.
type Point struct {
	Position spatialmath.Vec2
	Heading  spatialmath.Angle
	// Distance along the curve from its start.
	Distance float64
	// Curvature is signed, counter-clockwise positive.
	Curvature       float64
	LinearVelocity  float64
	AngularVelocity float64
}

// Trajectory is an immutable velocity profile sampled every spacing units of arc length.
type Trajectory struct {
	spacing float64
	profile []Point
}

// Generate samples curve every spacing units of arc length and assigns each sample the fastest
// velocity that can both be reached from rest at the start and brought to rest at the end.
func Generate(curve spatialmath.Curve, spacing float64, constraints Constraints) (*Trajectory, error) {
	if spacing <= 0 {
		return nil, errors.New("spacing must be positive")
	}
	if err := constraints.Validate("constraints"); err != nil {
		return nil, err
	}

	var profile []Point
	distance := 0.0
	for t := 0.0; t <= curve.MaxT(); {
		derivative := curve.Derivative(t)
		speed := derivative.Length()
		if speed == 0 {
			return nil, errors.Errorf("curve has a zero derivative at t=%v", t)
		}
		profile = append(profile, Point{
			Position:  curve.Point(t),
			Heading:   derivative.Angle(),
			Distance:  distance,
			Curvature: derivative.Cross(curve.SecondDerivative(t)) / (speed * speed * speed),
		})
		t += spacing / speed
		distance += spacing
	}

	forward := accelerationPass(profile, spacing, constraints, constraints.MaxAcceleration)
	slices.Reverse(profile)
	backward := accelerationPass(profile, spacing, constraints, constraints.MaxDeceleration)
	slices.Reverse(profile)
	slices.Reverse(backward)

	for i := range profile {
		profile[i].LinearVelocity = math.Min(forward[i], backward[i])
		profile[i].AngularVelocity = profile[i].LinearVelocity * profile[i].Curvature
	}
	return &Trajectory{spacing: spacing, profile: profile}, nil
}

// accelerationPass walks the profile from rest, returning the fastest velocity at each point
// reachable under acceleration. The acceleration budget shrinks by what the outer wheel spends
// on angular acceleration.
func accelerationPass(profile []Point, spacing float64, c Constraints, acceleration float64) []float64 {
	velocities := make([]float64, len(profile))
	velocity := 0.0
	prevAngularVelocity := 0.0
	for i, p := range profile {
		angularVelocity := velocity * p.Curvature
		angularAcceleration := (angularVelocity - prevAngularVelocity) * (velocity / spacing)
		prevAngularVelocity = angularVelocity

		budget := math.Max(0, acceleration-math.Abs(angularAcceleration*c.TrackWidth/2))
		velocity = math.Min(c.MaxSpeed(p.Curvature), math.Sqrt(velocity*velocity+2*budget*spacing))
		velocities[i] = velocity
	}
	return velocities
}

// Spacing returns the arc length between consecutive points.
func (t *Trajectory) Spacing() float64 {
	return t.spacing
}

// Len returns the number of points.
func (t *Trajectory) Len() int {
	return len(t.profile)
}

// At returns the point nearest distance along the curve, clamped to the ends of the profile.
func (t *Trajectory) At(distance float64) Point {
	i := int(distance / t.spacing)
	switch {
	case i < 0:
		i = 0
	case i >= len(t.profile):
		i = len(t.profile) - 1
	}
	return t.profile[i]
}

// Last returns the final point.
func (t *Trajectory) Last() Point {
	return t.profile[len(t.profile)-1]
}

// Points returns a copy of the profile.
func (t *Trajectory) Points() []Point {
	out := make([]Point, len(t.profile))
	copy(out, t.profile)
	return out
}

// Length returns the arc length covered by the profile.
func (t *Trajectory) Length() float64 {
	return t.Last().Distance
}

// Velocities returns the linear velocity of every point.
func (t *Trajectory) Velocities() []float64 {
	out := make([]float64, len(t.profile))
	for i, p := range t.profile {
		out[i] = p.LinearVelocity
	}
	return out
}

// PeakVelocity returns the largest linear velocity in the profile.
func (t *Trajectory) PeakVelocity() float64 {
	return floats.Max(t.Velocities())
}

// Duration estimates how long following the profile takes, assuming constant acceleration
// between points.
func (t *Trajectory) Duration() time.Duration {
	if len(t.profile) < 2 {
		return 0
	}
	velocities := t.Velocities()
	segments := make([]float64, len(velocities)-1)
	floats.AddTo(segments, velocities[:len(velocities)-1], velocities[1:])
	for i, sum := range segments {
		if sum <= 0 {
			segments[i] = 0
			continue
		}
		segments[i] = 2 * t.spacing / sum
	}
	return time.Duration(floats.Sum(segments) * float64(time.Second))
}
