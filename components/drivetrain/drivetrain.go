// Package drivetrain defines the voltage sinks motion tasks command, and the motor-backed
// drivetrains that implement them.
package drivetrain

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/drivecontrol/components/motor"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/utils"
)

// Tank is a drivetrain commanded by independent left and right voltages.
type Tank interface {
	SetVoltages(ctx context.Context, voltages Voltages) error
}

// Arcade is a drivetrain commanded by a throttle and a clockwise-positive steer, both in [-1, 1].
type Arcade interface {
	SetArcade(ctx context.Context, throttle, steer float64) error
}

// Holonomic is a drivetrain that can translate in any direction. vector is in the robot frame
// (+X forward, +Y left) with components in [-1, 1]; turn is clockwise-positive.
type Holonomic interface {
	SetHolonomic(ctx context.Context, vector spatialmath.Vec2, turn float64) error
}

type arcadeFromTank struct {
	tank       Tank
	maxVoltage float64
}

// ArcadeFromTank drives a tank drivetrain with arcade commands. The mix is desaturated to 1 before
// scaling by maxVoltage so full steer at full throttle keeps its ratio.
func ArcadeFromTank(tank Tank, maxVoltage float64) Arcade {
	return &arcadeFromTank{tank: tank, maxVoltage: maxVoltage}
}

func (a *arcadeFromTank) SetArcade(ctx context.Context, throttle, steer float64) error {
	mixed := utils.Desaturate([]float64{throttle + steer, throttle - steer}, 1.0)
	return a.tank.SetVoltages(ctx, Voltages{Left: mixed[0] * a.maxVoltage, Right: mixed[1] * a.maxVoltage})
}

// Differential is a left/right drivetrain built from two motor groups.
type Differential struct {
	Left  motor.Group
	Right motor.Group
}

// NewDifferential creates a differential drivetrain.
func NewDifferential(left, right motor.Group) *Differential {
	return &Differential{Left: left, Right: right}
}

// SetVoltages writes both sides. Every motor is written even if some fail.
func (d *Differential) SetVoltages(ctx context.Context, voltages Voltages) error {
	return multierr.Combine(
		d.Left.SetVoltage(ctx, voltages.Left),
		d.Right.SetVoltage(ctx, voltages.Right),
	)
}

// SetArcade implements Arcade with the default tank mix at MaxVoltage.
func (d *Differential) SetArcade(ctx context.Context, throttle, steer float64) error {
	return ArcadeFromTank(d, MaxVoltage).SetArcade(ctx, throttle, steer)
}

// Stop zeroes both sides.
func (d *Differential) Stop(ctx context.Context) error {
	return d.SetVoltages(ctx, Voltages{})
}

// Mecanum is a four wheel holonomic drivetrain.
type Mecanum struct {
	FrontLeft  motor.Group
	FrontRight motor.Group
	BackLeft   motor.Group
	BackRight  motor.Group
}

// SetHolonomic mixes a robot-frame translation and a clockwise-positive turn into the four wheel
// groups, desaturated to 1 and scaled to MaxVoltage.
func (m *Mecanum) SetHolonomic(ctx context.Context, vector spatialmath.Vec2, turn float64) error {
	mixed := utils.Desaturate([]float64{
		vector.X - vector.Y + turn,
		vector.X + vector.Y - turn,
		vector.X + vector.Y + turn,
		vector.X - vector.Y - turn,
	}, 1.0)
	return multierr.Combine(
		m.FrontLeft.SetVoltage(ctx, mixed[0]*MaxVoltage),
		m.FrontRight.SetVoltage(ctx, mixed[1]*MaxVoltage),
		m.BackLeft.SetVoltage(ctx, mixed[2]*MaxVoltage),
		m.BackRight.SetVoltage(ctx, mixed[3]*MaxVoltage),
	)
}

// SetVoltages drives the mecanum base like a tank.
func (m *Mecanum) SetVoltages(ctx context.Context, voltages Voltages) error {
	return multierr.Combine(
		m.FrontLeft.SetVoltage(ctx, voltages.Left),
		m.BackLeft.SetVoltage(ctx, voltages.Left),
		m.FrontRight.SetVoltage(ctx, voltages.Right),
		m.BackRight.SetVoltage(ctx, voltages.Right),
	)
}
