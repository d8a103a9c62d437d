package control

import (
	"math"
	"time"

	"go.viam.com/drivecontrol/utils"
)

// MotorFeedforward models a DC motor: ks·sign(v) + kv·v + ka·a.
type MotorFeedforward struct {
	Ks, Kv, Ka float64
}

// Update returns the voltage needed to hold the setpoint velocity and acceleration.
func (f MotorFeedforward) Update(setpoint FeedforwardSetpoint, _ time.Duration) float64 {
	return f.Ks*utils.Signum(setpoint.Velocity) + f.Kv*setpoint.Velocity + f.Ka*setpoint.Acceleration
}

// ArmFeedforward is a MotorFeedforward with gravity acting on a rotating arm. Position is the arm
// angle in radians from horizontal.
type ArmFeedforward struct {
	Ks, Kg, Kv, Ka float64
}

// Update returns the motor model output plus kg·cos(position).
func (f ArmFeedforward) Update(setpoint FeedforwardSetpoint, dt time.Duration) float64 {
	motor := MotorFeedforward{Ks: f.Ks, Kv: f.Kv, Ka: f.Ka}
	return f.Kg*math.Cos(setpoint.Position) + motor.Update(setpoint, dt)
}

// ElevatorFeedforward is a MotorFeedforward with constant gravity.
type ElevatorFeedforward struct {
	Ks, Kg, Kv, Ka float64
}

// Update returns the motor model output plus kg.
func (f ElevatorFeedforward) Update(setpoint FeedforwardSetpoint, dt time.Duration) float64 {
	motor := MotorFeedforward{Ks: f.Ks, Kv: f.Kv, Ka: f.Ka}
	return f.Kg + motor.Update(setpoint, dt)
}

var (
	_ Feedforward = MotorFeedforward{}
	_ Feedforward = ArmFeedforward{}
	_ Feedforward = ElevatorFeedforward{}
)
