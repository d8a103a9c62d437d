package control

import (
	"sync"
	"time"
)

// TakeBackHalf is a velocity controller for flywheels. It integrates kh·error into its output
// and, each time the error crosses zero, replaces the output with the average of the output and
// the output at the previous crossing.
type TakeBackHalf struct {
	mu        sync.Mutex
	kh        float64
	output    float64
	tbh       float64
	prevError float64
	started   bool
}

// NewTakeBackHalf creates a TakeBackHalf with gain kh.
func NewTakeBackHalf(kh float64) *TakeBackHalf {
	return &TakeBackHalf{kh: kh}
}

// Update implements Controller.
func (c *TakeBackHalf) Update(measurement, setpoint float64, _ time.Duration) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := setpoint - measurement
	c.output += c.kh * err
	if c.started && err*c.prevError <= 0 {
		c.output = 0.5 * (c.output + c.tbh)
		c.tbh = c.output
	}
	c.prevError = err
	c.started = true
	return c.output
}

// Kh returns the integration gain.
func (c *TakeBackHalf) Kh() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kh
}

// SetKh sets the integration gain.
func (c *TakeBackHalf) SetKh(kh float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kh = kh
}

// Reset forgets all accumulated state.
func (c *TakeBackHalf) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output, c.tbh, c.prevError, c.started = 0, 0, 0, false
}

var _ Controller = (*TakeBackHalf)(nil)
