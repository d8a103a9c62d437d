// Package fake implements a fake motor.
package fake

import (
	"context"
	"sync"

	"go.viam.com/drivecontrol/components/motor"
)

// A Motor records the last voltage written to it.
type Motor struct {
	mu      sync.Mutex
	voltage float64
	writes  int
	err     error
}

var _ motor.Motor = &Motor{}

// NewMotor returns a stopped motor.
func NewMotor() *Motor {
	return &Motor{}
}

// SetVoltage stores volts, or fails with the injected error without storing.
func (m *Motor) SetVoltage(ctx context.Context, volts float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.err != nil {
		return m.err
	}
	m.voltage = volts
	return nil
}

// Voltage returns the last successfully written voltage.
func (m *Motor) Voltage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voltage
}

// Writes returns how many times SetVoltage was called.
func (m *Motor) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SetError makes every following write fail with err.
func (m *Motor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
