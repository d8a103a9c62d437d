package motion

import (
	"math"
	"time"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
	"go.viam.com/drivecontrol/utils"
)

// Waypoint is a point on a path with the drive voltage to use near it.
type Waypoint struct {
	Position spatialmath.Vec2
	Velocity float64
}

// PurePursuit follows a path by steering along arcs toward a point a fixed distance ahead on it.
type PurePursuit struct {
	LookaheadDistance float64
	TrackWidth        float64
	// Timeout bounds each motion. Zero means no timeout.
	Timeout time.Duration
}

// Follow returns a Task that follows waypoints in order.
func (p PurePursuit) Follow(waypoints []Waypoint) *Pursuit {
	return &Pursuit{
		lookaheadDistance: p.LookaheadDistance,
		trackWidth:        p.TrackWidth,
		timing:            timing{timeout: p.Timeout},
		waypoints:         waypoints,
	}
}

// Pursuit is a Task following a path. It finishes when the lookahead circle has swallowed the
// last waypoint.
type Pursuit struct {
	lookaheadDistance float64
	trackWidth        float64
	timing

	waypoints []Waypoint
	nextIndex int

	current, next  Waypoint
	lookaheadPoint spatialmath.Vec2
}

// LookaheadPoint returns the point the robot is currently steering toward.
func (p *Pursuit) LookaheadPoint() spatialmath.Vec2 {
	return p.lookaheadPoint
}

// advance moves to the next segment while the lookahead circle encloses the current segment's
// end. It returns false when the path is exhausted.
func (p *Pursuit) advance(position spatialmath.Vec2) bool {
	for position.Distance(p.next.Position) < p.lookaheadDistance {
		if p.nextIndex >= len(p.waypoints) {
			return false
		}
		p.current = p.next
		p.next = p.waypoints[p.nextIndex]
		p.nextIndex++
	}
	return true
}

// Step implements Task.
func (p *Pursuit) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	_, first := p.tick(now)
	if first {
		if len(p.waypoints) == 0 {
			return drivetrain.Voltages{}, Done
		}
		// Start from a synthetic waypoint at the robot so there is an initial intersection even
		// when the robot starts off the path.
		p.next = p.waypoints[0]
		p.nextIndex = 1
		p.current = Waypoint{Position: pose.Position, Velocity: p.next.Velocity}
		p.lookaheadPoint = p.next.Position
	} else if p.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}

	if !p.advance(pose.Position) {
		return drivetrain.Voltages{}, Done
	}

	if point, ok := chooseLookahead(
		lineCircleIntersections(pose.Position, p.lookaheadDistance, p.current.Position, p.next.Position),
		p.next.Position,
	); ok {
		p.lookaheadPoint = point
	}

	velocity := p.next.Velocity
	if p.current.Position.Distance(pose.Position) < p.next.Position.Distance(pose.Position) {
		velocity = p.current.Velocity
	}

	curvature := signedArcCurvature(pose.Position, pose.Heading, p.lookaheadPoint)
	return drivetrain.FromCurvature(velocity, curvature, p.trackWidth).Normalized(drivetrain.MaxVoltage), Continue
}

// lineCircleIntersections returns the points where the segment from start to end crosses the
// circle. Points on the infinite line but outside the segment are discarded.
func lineCircleIntersections(center spatialmath.Vec2, radius float64, start, end spatialmath.Vec2) []spatialmath.Vec2 {
	p1 := start.Sub(center)
	p2 := end.Sub(center)
	d := p2.Sub(p1)
	dr2 := d.Dot(d)
	if dr2 == 0 {
		return nil
	}
	det := p1.Cross(p2)
	discriminant := radius*radius*dr2 - det*det
	if discriminant < 0 {
		return nil
	}

	root := math.Sqrt(discriminant)
	sgn := utils.SignOf(d.Y)
	candidates := []spatialmath.Vec2{
		spatialmath.NewVec2((det*d.Y+sgn*d.X*root)/dr2, (-det*d.X+math.Abs(d.Y)*root)/dr2),
	}
	if discriminant > 0 {
		candidates = append(candidates,
			spatialmath.NewVec2((det*d.Y-sgn*d.X*root)/dr2, (-det*d.X-math.Abs(d.Y)*root)/dr2))
	}

	var out []spatialmath.Vec2
	for _, c := range candidates {
		t := c.Sub(p1).Dot(d) / dr2
		if t >= 0 && t <= 1 {
			out = append(out, c.Add(center))
		}
	}
	return out
}

// chooseLookahead picks the intersection closest to the segment end.
func chooseLookahead(intersections []spatialmath.Vec2, end spatialmath.Vec2) (spatialmath.Vec2, bool) {
	switch len(intersections) {
	case 0:
		return spatialmath.Vec2{}, false
	case 1:
		return intersections[0], true
	default:
		best := intersections[0]
		for _, p := range intersections[1:] {
			if p.Distance(end) < best.Distance(end) {
				best = p
			}
		}
		return best, true
	}
}

// signedArcCurvature is the curvature of the arc leaving start along heading and passing through
// end. Positive curvature turns counter-clockwise.
func signedArcCurvature(start spatialmath.Vec2, heading spatialmath.Angle, end spatialmath.Vec2) float64 {
	delta := end.Sub(start)
	d2 := delta.Dot(delta)
	if d2 == 0 {
		return 0
	}
	// Signed perpendicular distance from the heading line, left positive.
	lateral := spatialmath.FromPolar(1, heading).Cross(delta)
	return 2 * lateral / d2
}

var _ Task = (*Pursuit)(nil)
