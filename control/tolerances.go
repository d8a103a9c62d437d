package control

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Tolerances decides when a system has settled at its target. It is settled once error and
// velocity have stayed inside their bounds for Duration, or once Timeout has elapsed since the
// first check. Unset bounds always pass.
//
// The With* builders return modified copies, so a configured Tolerances can be shared as a
// template and copied into each motion.
type Tolerances struct {
	clock clock.Clock

	errorTolerance    float64
	hasError          bool
	velocityTolerance float64
	hasVelocity       bool
	duration          time.Duration
	timeout           time.Duration

	startTimestamp     time.Time
	toleranceTimestamp time.Time
}

// NewTolerances returns Tolerances with no bounds, which settle on the first check.
func NewTolerances() Tolerances {
	return Tolerances{}
}

// WithClock sets the clock used for timestamps.
func (t Tolerances) WithClock(clk clock.Clock) Tolerances {
	t.clock = clk
	return t
}

// WithErrorTolerance requires |error| < tolerance.
func (t Tolerances) WithErrorTolerance(tolerance float64) Tolerances {
	t.errorTolerance = tolerance
	t.hasError = true
	return t
}

// WithVelocityTolerance requires |velocity| < tolerance.
func (t Tolerances) WithVelocityTolerance(tolerance float64) Tolerances {
	t.velocityTolerance = tolerance
	t.hasVelocity = true
	return t
}

// WithDuration requires the bounds to hold continuously for longer than d.
func (t Tolerances) WithDuration(d time.Duration) Tolerances {
	t.duration = d
	return t
}

// WithTimeout settles unconditionally once d has elapsed since Start or the first Check.
func (t Tolerances) WithTimeout(d time.Duration) Tolerances {
	t.timeout = d
	return t
}

// Timeout returns the configured timeout, zero when unset.
func (t *Tolerances) Timeout() time.Duration {
	return t.timeout
}

func (t *Tolerances) now() time.Time {
	if t.clock == nil {
		t.clock = clock.New()
	}
	return t.clock.Now()
}

// Start begins the timeout window now. Calling it is only needed when the window should begin
// before the first Check.
func (t *Tolerances) Start() {
	t.startTimestamp = t.now()
}

// Check records one sample and returns whether the system has settled. Leaving the bounds resets
// the debounce timer; staying inside them keeps reporting settled.
func (t *Tolerances) Check(err, velocity float64) bool {
	return t.CheckAt(t.now(), err, velocity)
}

// CheckAt is Check with the sample time supplied by the caller.
func (t *Tolerances) CheckAt(now time.Time, err, velocity float64) bool {
	if t.startTimestamp.IsZero() {
		t.startTimestamp = now
	}
	if t.timeout > 0 && now.Sub(t.startTimestamp) >= t.timeout {
		return true
	}

	inTolerance := (!t.hasError || math.Abs(err) < t.errorTolerance) &&
		(!t.hasVelocity || math.Abs(velocity) < t.velocityTolerance)
	if !inTolerance {
		t.toleranceTimestamp = time.Time{}
		return false
	}

	if t.toleranceTimestamp.IsZero() {
		t.toleranceTimestamp = now
	}
	return t.duration == 0 || now.Sub(t.toleranceTimestamp) > t.duration
}

// Reset forgets the timeout window and debounce timer.
func (t *Tolerances) Reset() {
	t.startTimestamp = time.Time{}
	t.toleranceTimestamp = time.Time{}
}

// TolerancesConfig is the JSON form of Tolerances. Omitted fields leave the bound unset.
type TolerancesConfig struct {
	Error    *float64      `json:"error,omitempty"`
	Velocity *float64      `json:"velocity,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *TolerancesConfig) Validate(path string) error {
	if cfg.Error != nil && *cfg.Error <= 0 {
		return errors.Errorf("%s: error tolerance must be positive", path)
	}
	if cfg.Velocity != nil && *cfg.Velocity <= 0 {
		return errors.Errorf("%s: velocity tolerance must be positive", path)
	}
	if cfg.Duration < 0 || cfg.Timeout < 0 {
		return errors.Errorf("%s: durations cannot be negative", path)
	}
	return nil
}

// Tolerances builds the configured Tolerances.
func (cfg *TolerancesConfig) Tolerances(clk clock.Clock) Tolerances {
	t := NewTolerances().WithClock(clk).WithDuration(cfg.Duration).WithTimeout(cfg.Timeout)
	if cfg.Error != nil {
		t = t.WithErrorTolerance(*cfg.Error)
	}
	if cfg.Velocity != nil {
		t = t.WithVelocityTolerance(*cfg.Velocity)
	}
	return t
}
