// Package tracking estimates a robot's planar pose from tracking wheels and an optional gyro.
package tracking

import (
	"time"

	"go.viam.com/drivecontrol/spatialmath"
)

// Pose is an immutable snapshot of the tracking state, published once per fusion tick.
type Pose struct {
	// Position on the field.
	Position spatialmath.Vec2
	// Heading is the reported heading in [0, 2π), counter-clockwise positive.
	Heading spatialmath.Angle
	// RawHeading is the unwrapped heading source reading before the heading offset is applied.
	RawHeading spatialmath.Angle
	// HeadingOffset is added to RawHeading to produce Heading.
	HeadingOffset spatialmath.Angle
	// ForwardTravel is the average travel of all forward wheels.
	ForwardTravel float64
	// LinearVelocity is the rate of change of ForwardTravel per second.
	LinearVelocity float64
	// AngularVelocity is in radians per second, counter-clockwise positive.
	AngularVelocity float64
	// Time is when the snapshot was produced.
	Time time.Time
	// Halted is set once every heading source is lost. The pose no longer updates.
	Halted bool
}

// Source publishes pose snapshots. Motion tasks read exactly one snapshot per step.
type Source interface {
	Pose() Pose
}

// TracksPosition reports a field position.
type TracksPosition interface {
	Position() spatialmath.Vec2
}

// TracksHeading reports a heading in [0, 2π).
type TracksHeading interface {
	Heading() spatialmath.Angle
}

// TracksForwardTravel reports how far the robot has driven forward.
type TracksForwardTravel interface {
	ForwardTravel() float64
}

// TracksVelocity reports linear and angular velocity.
type TracksVelocity interface {
	LinearVelocity() float64
	AngularVelocity() float64
}
