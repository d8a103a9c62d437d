package control

import (
	"time"
)

// BangBang outputs Magnitude while the measurement is below the setpoint, and zero otherwise.
type BangBang struct {
	Magnitude float64
}

// Update implements Controller.
func (b *BangBang) Update(measurement, setpoint float64, _ time.Duration) float64 {
	if measurement < setpoint {
		return b.Magnitude
	}
	return 0
}

var _ Controller = (*BangBang)(nil)
