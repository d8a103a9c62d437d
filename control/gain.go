package control

import (
	"time"
)

// Gain is a proportional-only controller.
type Gain struct {
	Gain float64
}

// Update returns Gain·(setpoint - measurement).
func (g *Gain) Update(measurement, setpoint float64, _ time.Duration) float64 {
	return g.Gain * (setpoint - measurement)
}

// Constant outputs the same value regardless of its inputs. Summed with other controllers it
// acts as a bias.
type Constant struct {
	Value float64
}

// Update implements Controller.
func (c *Constant) Update(float64, float64, time.Duration) float64 {
	return c.Value
}

var (
	_ Controller = (*Gain)(nil)
	_ Controller = (*Constant)(nil)
)
