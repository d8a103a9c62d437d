package motion

import (
	"math"
	"time"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/control"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
	"go.viam.com/drivecontrol/trajectory"
)

// Ramsete follows generated trajectories with a RAMSETE unicycle controller.
type Ramsete struct {
	// B is the convergence gain, larger is more aggressive. Must be positive.
	B float64
	// Zeta is the damping ratio in (0, 1).
	Zeta       float64
	TrackWidth float64
	// Feedforward converts each wheel's velocity into a voltage.
	Feedforward control.Feedforward
	// Timeout bounds each motion. Zero means no timeout.
	Timeout time.Duration
}

// Follow returns a Task that follows traj, indexing it by distance travelled.
func (r Ramsete) Follow(traj *trajectory.Trajectory) *RamseteFollow {
	return &RamseteFollow{
		b:           r.B,
		zeta:        r.Zeta,
		trackWidth:  r.TrackWidth,
		feedforward: r.Feedforward,
		timing:      timing{timeout: r.Timeout},
		trajectory:  traj,
	}
}

// RamseteFollow is a Task following a trajectory. It finishes when the distance travelled
// reaches the end of the profile.
type RamseteFollow struct {
	b, zeta     float64
	trackWidth  float64
	feedforward control.Feedforward
	timing

	trajectory   *trajectory.Trajectory
	distance     float64
	prevPosition spatialmath.Vec2
	prevLeft     float64
	prevRight    float64
}

// Step implements Task.
func (r *RamseteFollow) Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status) {
	dt, first := r.tick(now)
	if first {
		r.prevPosition = pose.Position
	}
	r.distance += pose.Position.Distance(r.prevPosition)
	r.prevPosition = pose.Position

	if r.distance >= r.trajectory.Length() || r.timedOut(now) {
		return drivetrain.Voltages{}, Done
	}
	target := r.trajectory.At(r.distance)

	vd, wd := target.LinearVelocity, target.AngularVelocity
	k := 2 * r.zeta * math.Sqrt(wd*wd+r.b*vd*vd)

	// error in the robot frame, +X forward
	local := target.Position.Sub(pose.Position).Rotated(-pose.Heading)
	headingError := target.Heading.Sub(pose.Heading).Wrapped().Radians()

	linear := vd*math.Cos(headingError) + k*local.X
	angular := wd + k*headingError + r.b*vd*sinc(headingError)*local.Y

	left := linear - angular*r.trackWidth/2
	right := linear + angular*r.trackWidth/2
	voltages := drivetrain.Voltages{
		Left:  r.wheelVoltage(left, r.prevLeft, dt),
		Right: r.wheelVoltage(right, r.prevRight, dt),
	}
	r.prevLeft, r.prevRight = left, right
	return voltages.Normalized(drivetrain.MaxVoltage), Continue
}

func (r *RamseteFollow) wheelVoltage(velocity, prevVelocity float64, dt time.Duration) float64 {
	setpoint := control.FeedforwardSetpoint{Velocity: velocity}
	if dt > 0 {
		setpoint.Acceleration = (velocity - prevVelocity) / dt.Seconds()
	}
	return r.feedforward.Update(setpoint, dt)
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-9 {
		return 1
	}
	return math.Sin(x) / x
}

var _ Task = (*RamseteFollow)(nil)
