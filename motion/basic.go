package motion

import (
	"time"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/control"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
)

// Basic holds the controllers and tolerances for driving straight and turning in place. The
// tolerances are copied into each task; the controllers are shared and reset when a task starts.
type Basic struct {
	Linear            control.Controller
	Angular           control.Controller
	LinearTolerances  control.Tolerances
	AngularTolerances control.Tolerances
	// Timeout bounds each motion. Zero means no timeout.
	Timeout time.Duration
}

// DriveDistanceAtHeading drives distance forward (negative for backward) while holding heading.
func (b Basic) DriveDistanceAtHeading(distance float64, heading spatialmath.Angle) *DriveDistanceAtHeading {
	return &DriveDistanceAtHeading{
		linear:            b.Linear,
		angular:           b.Angular,
		linearTolerances:  b.LinearTolerances,
		angularTolerances: b.AngularTolerances,
		timing:            timing{timeout: b.Timeout},
		distance:          distance,
		heading:           heading,
	}
}

// DriveDistance drives distance while holding the heading the robot has when the task starts.
func (b Basic) DriveDistance(distance float64) *DriveDistanceAtHeading {
	d := b.DriveDistanceAtHeading(distance, 0)
	d.captureHeading = true
	return d
}

// TurnToHeading turns in place to heading.
func (b Basic) TurnToHeading(heading spatialmath.Angle) *DriveDistanceAtHeading {
	return b.DriveDistanceAtHeading(0, heading)
}

// TurnToPoint turns in place to face point.
func (b Basic) TurnToPoint(point spatialmath.Vec2) *TurnToPoint {
	return &TurnToPoint{
		linear:            b.Linear,
		angular:           b.Angular,
		linearTolerances:  b.LinearTolerances,
		angularTolerances: b.AngularTolerances,
		timing:            timing{timeout: b.Timeout},
		point:             point,
	}
}

// DriveDistanceAtHeading is a Task that drives a distance measured by forward travel while
// holding a heading.
type DriveDistanceAtHeading struct {
	linear, angular                     control.Controller
	linearTolerances, angularTolerances control.Tolerances
	timing

	distance       float64
	heading        spatialmath.Angle
	captureHeading bool

	initialForwardTravel float64
}

// Step implements Task.
func (d *DriveDistanceAtHeading) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	dt, first := d.tick(now)
	if first {
		d.initialForwardTravel = pose.ForwardTravel
		if d.captureHeading {
			d.heading = pose.Heading
		}
		resetControllers(d.linear, d.angular)
	}

	linearError := d.distance + d.initialForwardTravel - pose.ForwardTravel
	angularError := d.heading.Sub(pose.Heading).Wrapped().Radians()

	linearSettled := d.linearTolerances.CheckAt(now, linearError, pose.LinearVelocity)
	angularSettled := d.angularTolerances.CheckAt(now, angularError, pose.AngularVelocity)
	if (linearSettled && angularSettled) || d.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}

	return arcade(d.linear.Update(-linearError, 0, dt), d.angular.Update(-angularError, 0, dt)), Continue
}

// TurnToPoint is a Task that turns in place until the robot faces a point.
type TurnToPoint struct {
	linear, angular                     control.Controller
	linearTolerances, angularTolerances control.Tolerances
	timing

	point spatialmath.Vec2

	initialForwardTravel float64
}

// Step implements Task.
func (t *TurnToPoint) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	dt, first := t.tick(now)
	if first {
		t.initialForwardTravel = pose.ForwardTravel
		resetControllers(t.linear, t.angular)
	}

	linearError := t.initialForwardTravel - pose.ForwardTravel
	angularError := t.point.Sub(pose.Position).Angle().Sub(pose.Heading).Wrapped().Radians()

	linearSettled := t.linearTolerances.CheckAt(now, linearError, pose.LinearVelocity)
	angularSettled := t.angularTolerances.CheckAt(now, angularError, pose.AngularVelocity)
	if (linearSettled && angularSettled) || t.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}

	return arcade(t.linear.Update(-linearError, 0, dt), t.angular.Update(-angularError, 0, dt)), Continue
}

var (
	_ Task = (*DriveDistanceAtHeading)(nil)
	_ Task = (*TurnToPoint)(nil)
)
