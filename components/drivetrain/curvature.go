package drivetrain

import (
	"math"
)

// CurvatureDriveConfig tunes CurvatureDrive.
type CurvatureDriveConfig struct {
	// TurnNonlinearity in (0, 1] bends the steer input so small stick motions turn gently.
	TurnNonlinearity float64 `json:"turn_nonlinearity"`
	// Deadzone below which throttle is treated as zero and the robot turns in place.
	Deadzone float64 `json:"deadzone"`
	// Slew is the largest per-update throttle increase. Decreases may be twice as fast.
	Slew float64 `json:"slew"`
	// NegativeInertiaScalar adds a kick opposing sudden steer changes.
	NegativeInertiaScalar float64 `json:"negative_inertia_scalar"`
	// TurnSensitivity scales steering while driving.
	TurnSensitivity float64 `json:"turn_sensitivity"`
}

// CurvatureDrive ("cheesy drive") maps joystick throttle/steer to tank outputs. While moving, the
// steer input sets a path curvature rather than a rotation rate, so the turning radius stays the
// same at any speed. Outputs are in [-1, 1]-ish units; scale by the max voltage.
type CurvatureDrive struct {
	cfg CurvatureDriveConfig

	prevTurn                   float64
	prevThrottle               float64
	negativeInertiaAccumulator float64
}

// NewCurvatureDrive creates a CurvatureDrive.
func NewCurvatureDrive(cfg CurvatureDriveConfig) *CurvatureDrive {
	return &CurvatureDrive{cfg: cfg}
}

func (c *CurvatureDrive) remapTurn(turn float64) float64 {
	if c.cfg.TurnNonlinearity == 0 {
		return turn
	}
	k := math.Pi / 2 * c.cfg.TurnNonlinearity
	denominator := math.Sin(k)
	firstRemap := math.Sin(k*turn) / denominator
	return math.Sin(k*firstRemap) / denominator
}

// decay pulls an accumulator toward zero by 1 per update, zeroing it once inside [-1, 1].
func decay(accumulator float64) float64 {
	switch {
	case accumulator > 1:
		return accumulator - 1
	case accumulator < -1:
		return accumulator + 1
	default:
		return 0
	}
}

// Update consumes one joystick sample (throttle forward-positive, steer clockwise-positive).
func (c *CurvatureDrive) Update(throttle, steer float64) Voltages {
	turnInPlace := false
	linear := throttle

	switch {
	case math.Abs(throttle) < c.cfg.Deadzone && math.Abs(steer) > c.cfg.Deadzone:
		linear = 0
		turnInPlace = true
	case c.cfg.Slew > 0 && throttle-c.prevThrottle > c.cfg.Slew:
		linear = c.prevThrottle + c.cfg.Slew
	case c.cfg.Slew > 0 && throttle-c.prevThrottle < -2*c.cfg.Slew:
		linear = c.prevThrottle - 2*c.cfg.Slew
	}

	remapped := c.remapTurn(steer)
	var out Voltages
	if turnInPlace {
		// squared for finer control
		out = Voltages{Left: remapped * math.Abs(remapped), Right: -remapped * math.Abs(remapped)}
	} else {
		c.negativeInertiaAccumulator += (steer - c.prevTurn) * c.cfg.NegativeInertiaScalar
		angular := math.Abs(linear) * (remapped + c.negativeInertiaAccumulator) * c.cfg.TurnSensitivity
		out = FromArcade(linear, angular)
		c.negativeInertiaAccumulator = decay(c.negativeInertiaAccumulator)
	}

	c.prevTurn = steer
	c.prevThrottle = linear
	return out
}
