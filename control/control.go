// Package control implements feedback and feedforward control loops, composites of them and a
// settling detector.
package control

import (
	"time"
)

// A Controller maps a measurement and a setpoint to an output. Implementations are stateful and
// expect to be called once per control tick with the time elapsed since the previous call.
type Controller interface {
	Update(measurement, setpoint float64, dt time.Duration) float64
}

// FeedforwardSetpoint is the kinematic state a feedforward model is asked to produce.
type FeedforwardSetpoint struct {
	Position     float64
	Velocity     float64
	Acceleration float64
}

// A Feedforward computes an output from the desired kinematic state alone.
type Feedforward interface {
	Update(setpoint FeedforwardSetpoint, dt time.Duration) float64
}
