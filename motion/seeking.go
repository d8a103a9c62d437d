package motion

import (
	"math"
	"time"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/control"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
)

// DefaultCloseRadius is the distance from the target inside which seeking motions stop steering
// toward it. Very close to a point its bearing swings wildly with small position changes.
const DefaultCloseRadius = 7.5

// Seeking holds the controllers and tolerances for driving to points and poses.
type Seeking struct {
	Linear     control.Controller
	Angular    control.Controller
	Tolerances control.Tolerances
	// Timeout bounds each motion. Zero means no timeout.
	Timeout time.Duration
	// CloseRadius overrides DefaultCloseRadius when positive.
	CloseRadius float64
}

func (s Seeking) closeRadius() float64 {
	if s.CloseRadius > 0 {
		return s.CloseRadius
	}
	return DefaultCloseRadius
}

// MoveToPoint drives to point. The robot drives backward whenever the point is more than 90°
// off its nose, or always when reverse is set.
func (s Seeking) MoveToPoint(point spatialmath.Vec2, reverse bool) *MoveToPoint {
	return &MoveToPoint{
		linear:      s.Linear,
		angular:     s.Angular,
		tolerances:  s.Tolerances,
		timing:      timing{timeout: s.Timeout},
		closeRadius: s.closeRadius(),
		point:       point,
		reverse:     reverse,
	}
}

// Boomerang drives to point and arrives facing heading. lead in (0, 1) sets how wide the
// approach curve is. Like MoveToPoint, it backs up to a carrot more than 90° off its nose.
func (s Seeking) Boomerang(point spatialmath.Vec2, heading spatialmath.Angle, lead float64) *Boomerang {
	return &Boomerang{
		linear:      s.Linear,
		angular:     s.Angular,
		tolerances:  s.Tolerances,
		timing:      timing{timeout: s.Timeout},
		closeRadius: s.closeRadius(),
		point:       point,
		heading:     heading,
		lead:        lead,
	}
}

// MoveToPoint is a Task that seeks a point.
type MoveToPoint struct {
	linear, angular control.Controller
	tolerances      control.Tolerances
	timing
	closeRadius float64

	point   spatialmath.Vec2
	reverse bool

	close bool
}

// Step implements Task.
func (m *MoveToPoint) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	dt, first := m.tick(now)
	if first {
		resetControllers(m.linear, m.angular)
	}

	local := m.point.Sub(pose.Position)
	distanceError := local.Length()
	if distanceError < m.closeRadius {
		m.close = true
	}
	angularError := local.Angle().Sub(pose.Heading).Wrapped()
	if m.reverse || math.Abs(angularError.Radians()) > math.Pi/2 {
		// Face the point with the back of the robot.
		distanceError = -distanceError
		angularError = angularError.Sub(spatialmath.HalfTurn).Wrapped()
	}

	if m.tolerances.CheckAt(now, distanceError, pose.LinearVelocity) || m.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}

	angularOutput := 0.0
	if !m.close {
		angularOutput = m.angular.Update(-angularError.Radians(), 0, dt)
	}
	// Suppress driving until roughly facing the point.
	linearOutput := m.linear.Update(-distanceError, 0, dt) * math.Max(0, angularError.Cos())
	return arcade(linearOutput, angularOutput), Continue
}

// Boomerang is a Task that seeks a pose by chasing a carrot point. The carrot sits behind the
// goal along the goal heading, at a distance proportional to how far away the robot is, so the
// robot curves in and arrives along the goal heading.
type Boomerang struct {
	linear, angular control.Controller
	tolerances      control.Tolerances
	timing
	closeRadius float64

	point   spatialmath.Vec2
	heading spatialmath.Angle
	lead    float64

	close bool
}

// Carrot returns the intermediate target for a robot at position.
func (b *Boomerang) Carrot(position spatialmath.Vec2) spatialmath.Vec2 {
	return b.point.Sub(spatialmath.FromPolar(position.Distance(b.point)*b.lead, b.heading))
}

// Step implements Task.
func (b *Boomerang) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	dt, first := b.tick(now)
	if first {
		resetControllers(b.linear, b.angular)
	}

	goal := b.point.Sub(pose.Position)
	goalDistance := goal.Length()
	if goalDistance < b.closeRadius {
		b.close = true
	}

	if b.tolerances.CheckAt(now, goalDistance, pose.LinearVelocity) || b.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}

	var linearError, scale float64
	var angularError spatialmath.Angle
	if b.close {
		// Settle onto the goal heading, closing the remaining distance along the current heading.
		angularError = b.heading.Sub(pose.Heading).Wrapped()
		linearError = goal.Dot(spatialmath.FromPolar(1, pose.Heading))
		scale = 1
	} else {
		local := b.Carrot(pose.Position).Sub(pose.Position)
		angularError = local.Angle().Sub(pose.Heading).Wrapped()
		linearError = local.Length()
		if math.Abs(angularError.Radians()) > math.Pi/2 {
			// Back toward a carrot behind the robot.
			linearError = -linearError
			angularError = angularError.Sub(spatialmath.HalfTurn).Wrapped()
		}
		scale = math.Max(0, angularError.Cos())
	}

	linearOutput := b.linear.Update(-linearError, 0, dt) * scale
	angularOutput := b.angular.Update(-angularError.Radians(), 0, dt)
	return arcade(linearOutput, angularOutput), Continue
}

var (
	_ Task = (*MoveToPoint)(nil)
	_ Task = (*Boomerang)(nil)
)
