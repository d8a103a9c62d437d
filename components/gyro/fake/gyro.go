// Package fake implements a fake gyro.
package fake

import (
	"context"
	"sync"

	"go.viam.com/drivecontrol/components/gyro"
	"go.viam.com/drivecontrol/spatialmath"
)

// Gyro is a settable, failure-injectable heading sensor.
type Gyro struct {
	mu              sync.Mutex
	heading         spatialmath.Angle
	angularVelocity float64
	err             error
}

var _ gyro.Gyro = &Gyro{}

// NewGyro returns a gyro reading a heading of zero.
func NewGyro() *Gyro {
	return &Gyro{}
}

// Heading returns the clockwise-positive heading, or the injected error.
func (g *Gyro) Heading(ctx context.Context) (spatialmath.Angle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, g.err
	}
	return g.heading, nil
}

// AngularVelocity returns the counter-clockwise angular velocity, or the injected error.
func (g *Gyro) AngularVelocity(ctx context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, g.err
	}
	return g.angularVelocity, nil
}

// SetHeading sets the clockwise-positive heading.
func (g *Gyro) SetHeading(heading spatialmath.Angle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.heading = heading
}

// SetAngularVelocity sets the reported angular velocity.
func (g *Gyro) SetAngularVelocity(radPerSec float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.angularVelocity = radPerSec
}

// SetError makes every following read fail with err. Pass nil to reconnect.
func (g *Gyro) SetError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}
