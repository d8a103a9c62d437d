// Package encoder defines rotary position sensors as consumed by the tracking engine.
package encoder

import (
	"context"
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/drivecontrol/spatialmath"
)

// ErrDisconnected is returned by sensors that lost their connection to the hardware.
var ErrDisconnected = errors.New("rotary sensor disconnected")

// A RotarySensor reports the angular position of a shaft. Position may fail at any time, for
// example when a smart port is unplugged.
type RotarySensor interface {
	Position(ctx context.Context) (spatialmath.Angle, error)
}

// Group reads several rotary sensors as one, e.g. all encoders on one side of a drivetrain.
// The first successful read starts the group at the mean member position. After that the group
// advances by the mean change of the members that read successfully on both this read and the
// last, so a member dropping out or reconnecting at a different position does not move it.
type Group struct {
	sensors []RotarySensor

	mu       sync.Mutex
	started  bool
	position spatialmath.Angle
	prev     []reading
}

// NewGroup creates a group from the given sensors.
func NewGroup(sensors ...RotarySensor) *Group {
	return &Group{sensors: sensors}
}

type reading struct {
	position spatialmath.Angle
	err      error
}

// Position returns the group position. It fails only when every member fails, returning the last
// member's error. An empty group reads 0.
func (g *Group) Position(ctx context.Context) (spatialmath.Angle, error) {
	if len(g.sensors) == 0 {
		return 0, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	readings := lo.Map(g.sensors, func(sensor RotarySensor, _ int) reading {
		position, err := sensor.Position(ctx)
		return reading{position, err}
	})
	prev := g.prev
	g.prev = readings

	ok := lo.Filter(readings, func(r reading, _ int) bool { return r.err == nil })
	if len(ok) == 0 {
		return 0, readings[len(readings)-1].err
	}

	if !g.started {
		mean, err := stats.Mean(lo.Map(ok, func(r reading, _ int) float64 { return r.position.Radians() }))
		if err != nil {
			return 0, err
		}
		g.started = true
		g.position = spatialmath.FromRadians(mean)
		return g.position, nil
	}

	var deltas []float64
	for i, r := range readings {
		if r.err == nil && prev[i].err == nil {
			deltas = append(deltas, r.position.Sub(prev[i].position).Radians())
		}
	}
	if len(deltas) > 0 {
		mean, err := stats.Mean(deltas)
		if err != nil {
			return 0, err
		}
		g.position = g.position.Add(spatialmath.FromRadians(mean))
	}
	return g.position, nil
}

var _ RotarySensor = (*Group)(nil)
