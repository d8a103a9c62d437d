package control

import (
	"time"
)

// Cascade feeds the output of a primary controller to a secondary controller as its setpoint, for
// example an outer position loop driving an inner velocity loop.
type Cascade struct {
	Primary   Controller
	Secondary Controller
}

// UpdateCascade runs both loops, each on its own measurement.
func (c *Cascade) UpdateCascade(primaryMeasurement, secondaryMeasurement, setpoint float64, dt time.Duration) float64 {
	return c.Secondary.Update(secondaryMeasurement, c.Primary.Update(primaryMeasurement, setpoint, dt), dt)
}

// Update implements Controller for the case where both loops observe the same measurement.
func (c *Cascade) Update(measurement, setpoint float64, dt time.Duration) float64 {
	return c.UpdateCascade(measurement, measurement, setpoint, dt)
}

// SetpointMapper turns a primary controller's measurement and output into a feedforward setpoint.
type SetpointMapper func(measurement, output float64) FeedforwardSetpoint

// VelocitySetpoint treats the primary output as a velocity.
func VelocitySetpoint(_, output float64) FeedforwardSetpoint {
	return FeedforwardSetpoint{Velocity: output}
}

// PositionVelocitySetpoint treats the measurement as a position and the primary output as a
// velocity, as arm and elevator models need.
func PositionVelocitySetpoint(measurement, output float64) FeedforwardSetpoint {
	return FeedforwardSetpoint{Position: measurement, Velocity: output}
}

// CascadeFeedforward feeds a feedback controller's output to a feedforward model.
type CascadeFeedforward struct {
	Primary     Controller
	Feedforward Feedforward
	// Map builds the feedforward setpoint. Nil means VelocitySetpoint.
	Map SetpointMapper
}

// Update implements Controller.
func (c *CascadeFeedforward) Update(measurement, setpoint float64, dt time.Duration) float64 {
	mapper := c.Map
	if mapper == nil {
		mapper = VelocitySetpoint
	}
	output := c.Primary.Update(measurement, setpoint, dt)
	return c.Feedforward.Update(mapper(measurement, output), dt)
}

var (
	_ Controller = (*Cascade)(nil)
	_ Controller = (*CascadeFeedforward)(nil)
)
