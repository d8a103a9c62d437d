package tracking

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/drivecontrol/components/encoder"
)

// TrackingWheel is a wheel whose rotation is measured by a rotary sensor.
type TrackingWheel struct {
	Sensor encoder.RotarySensor
	// Diameter of the wheel, in the tracking length unit.
	Diameter float64
	// Offset is the signed distance from the center of rotation. Negative offsets are to the left
	// (forward wheels) or behind (sideways wheels).
	Offset float64
	// Gearing is the ratio between sensor and wheel revolutions. Zero means 1.
	Gearing float64
}

// NewTrackingWheel creates a TrackingWheel.
func NewTrackingWheel(sensor encoder.RotarySensor, diameter, offset, gearing float64) TrackingWheel {
	return TrackingWheel{Sensor: sensor, Diameter: diameter, Offset: offset, Gearing: gearing}
}

// Travel returns the linear distance the wheel has rolled.
func (w TrackingWheel) Travel(ctx context.Context) (float64, error) {
	position, err := w.Sensor.Position(ctx)
	if err != nil {
		return 0, err
	}
	gearing := w.Gearing
	if gearing == 0 {
		gearing = 1
	}
	return position.Turns() * gearing * math.Pi * w.Diameter, nil
}

// WheelConfig is the JSON description of a tracking wheel's geometry.
type WheelConfig struct {
	Diameter float64 `json:"diameter"`
	Offset   float64 `json:"offset"`
	Gearing  float64 `json:"gearing,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *WheelConfig) Validate(path string) error {
	if cfg.Diameter <= 0 {
		return errors.Errorf("%s: wheel diameter must be positive, got %v", path, cfg.Diameter)
	}
	if cfg.Gearing < 0 {
		return errors.Errorf("%s: gearing cannot be negative, got %v", path, cfg.Gearing)
	}
	return nil
}

// Wheel binds the configured geometry to a sensor.
func (cfg *WheelConfig) Wheel(sensor encoder.RotarySensor) TrackingWheel {
	return NewTrackingWheel(sensor, cfg.Diameter, cfg.Offset, cfg.Gearing)
}
