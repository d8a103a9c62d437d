// Package fake implements a fake rotary sensor.
package fake

import (
	"context"
	"sync"

	"go.viam.com/drivecontrol/components/encoder"
	"go.viam.com/drivecontrol/spatialmath"
)

// Encoder keeps track of a fake shaft position.
type Encoder struct {
	mu       sync.Mutex
	position spatialmath.Angle
	err      error
	reads    int
}

// NewEncoder returns an encoder at position zero.
func NewEncoder() *Encoder {
	return &Encoder{}
}

var _ encoder.RotarySensor = &Encoder{}

// Position returns the current position, or the injected error.
func (e *Encoder) Position(ctx context.Context) (spatialmath.Angle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reads++
	if e.err != nil {
		return 0, e.err
	}
	return e.position, nil
}

// SetPosition sets the position of the encoder.
func (e *Encoder) SetPosition(position spatialmath.Angle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
}

// AddPosition advances the position of the encoder by delta.
func (e *Encoder) AddPosition(delta spatialmath.Angle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position += delta
}

// SetError makes every following read fail with err. Pass nil to reconnect.
func (e *Encoder) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Reads returns how many times Position was called.
func (e *Encoder) Reads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reads
}
