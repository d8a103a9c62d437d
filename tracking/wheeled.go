package tracking

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"

	"go.viam.com/drivecontrol/components/gyro"
	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/utils"
)

const (
	// DefaultPeriod is the fusion loop period. It matches the motor write interval.
	DefaultPeriod = 5 * time.Millisecond

	// Two forward wheels whose offsets sum to at most this are treated as a parallel pair.
	parallelOffsetTolerance = 0.5
)

var (
	// ErrNoForwardWheels is returned when a Config has no forward tracking wheels.
	ErrNoForwardWheels = errors.New("wheeled tracking requires at least one forward tracking wheel")
	// ErrNoHeadingSource is returned when a Config has neither a gyro nor a parallel wheel pair.
	ErrNoHeadingSource = errors.New(
		"wheeled tracking requires either a gyro or two parallel forward tracking wheels to determine heading")
)

// Config describes the sensors and initial state of a Wheeled tracker.
type Config struct {
	Origin  spatialmath.Vec2
	Heading spatialmath.Angle

	Forward  []TrackingWheel
	Sideways []TrackingWheel
	// Gyro is optional when Forward contains a parallel pair.
	Gyro gyro.Gyro

	// Period of the fusion loop. Zero means DefaultPeriod.
	Period time.Duration
	// Clock drives the fusion loop. Nil means the wall clock.
	Clock clock.Clock
}

// Validate checks that the sensors can determine both travel and heading.
func (cfg *Config) Validate() error {
	_, _, err := cfg.parallelPair()
	return err
}

// parallelPair returns the indices of the left and right wheels of the last parallel pair in
// Forward, or -1s when there is none.
func (cfg *Config) parallelPair() (int, int, error) {
	if len(cfg.Forward) == 0 {
		return -1, -1, ErrNoForwardWheels
	}
	for i, wheel := range append(append([]TrackingWheel{}, cfg.Forward...), cfg.Sideways...) {
		if wheel.Sensor == nil {
			return -1, -1, errors.Errorf("tracking wheel %d has no sensor", i)
		}
		if wheel.Diameter <= 0 {
			return -1, -1, errors.Errorf("tracking wheel %d: diameter must be positive, got %v", i, wheel.Diameter)
		}
	}

	left, right := -1, -1
	for i := range cfg.Forward {
		for j := i + 1; j < len(cfg.Forward); j++ {
			if math.Abs(cfg.Forward[i].Offset+cfg.Forward[j].Offset) <= parallelOffsetTolerance {
				if cfg.Forward[i].Offset < cfg.Forward[j].Offset {
					left, right = i, j
				} else {
					left, right = j, i
				}
			}
		}
	}
	// A pair of wheels both on the center line cannot measure rotation.
	if left >= 0 && math.Abs(cfg.Forward[left].Offset)+cfg.Forward[right].Offset == 0 {
		left, right = -1, -1
	}
	if cfg.Gyro == nil && left < 0 {
		return -1, -1, ErrNoHeadingSource
	}
	return left, right, nil
}

type wheelSample struct {
	travel float64
	err    error
}

func readWheels(ctx context.Context, wheels []TrackingWheel) []wheelSample {
	return lo.Map(wheels, func(wheel TrackingWheel, _ int) wheelSample {
		travel, err := wheel.Travel(ctx)
		return wheelSample{travel, err}
	})
}

type headingStatus int

const (
	headingOK headingStatus = iota
	// The heading source changed; the reported heading must be kept continuous.
	headingRebase
	// No heading this tick; try again next tick.
	headingSkip
	// No heading source is left.
	headingHalt
)

// Wheeled fuses tracking wheels and an optional gyro into a pose estimate. A background worker
// owns the estimate and publishes an immutable Pose each period; readers never block it.
type Wheeled struct {
	logger logging.Logger
	clock  clock.Clock
	period time.Duration

	forward  []TrackingWheel
	sideways []TrackingWheel
	// indices into forward, -1 when there is no parallel pair
	left, right int

	mu            sync.Mutex
	gyro          gyro.Gyro
	rebaseHeading bool
	halted        bool

	position        spatialmath.Vec2
	rawHeading      spatialmath.Angle
	headingOffset   spatialmath.Angle
	forwardTravel   float64
	linearVelocity  float64
	angularVelocity float64

	prevForward       []wheelSample
	prevSideways      []wheelSample
	prevRawHeading    spatialmath.Angle
	prevForwardTravel float64
	prevTime          time.Time

	pose    atomic.Pointer[Pose]
	workers utils.StoppableWorkers
}

// NewWheeled validates cfg, takes an initial reading of every sensor and starts the fusion loop.
func NewWheeled(ctx context.Context, cfg Config, logger logging.Logger) (*Wheeled, error) {
	w, err := newWheeled(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	w.workers = utils.NewStoppableWorkers(w.fusionLoop)
	return w, nil
}

func newWheeled(ctx context.Context, cfg Config, logger logging.Logger) (*Wheeled, error) {
	left, right, err := cfg.parallelPair()
	if err != nil {
		return nil, err
	}

	w := &Wheeled{
		logger:   logger,
		clock:    cfg.Clock,
		period:   cfg.Period,
		forward:  cfg.Forward,
		sideways: cfg.Sideways,
		left:     left,
		right:    right,
		gyro:     cfg.Gyro,
		position: cfg.Origin,
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	if w.period <= 0 {
		w.period = DefaultPeriod
	}

	forward := readWheels(ctx, w.forward)
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, status := w.rawHeadingLocked(ctx, forward)
	switch status {
	case headingHalt:
		w.halted = true
	case headingSkip:
		// Anchor the heading to the first successful reading instead.
		w.rebaseHeading = true
	case headingOK, headingRebase:
	}
	w.rawHeading = raw
	w.prevRawHeading = raw
	w.headingOffset = cfg.Heading.Sub(raw)

	w.prevForward = forward
	w.prevSideways = readWheels(ctx, w.sideways)
	w.forwardTravel = averageTravel(forward, 0)
	w.prevForwardTravel = w.forwardTravel
	w.prevTime = w.clock.Now()
	w.publishLocked(w.prevTime)

	w.logger.Infow("wheeled tracking started",
		"forward_wheels", len(w.forward),
		"sideways_wheels", len(w.sideways),
		"gyro", w.gyro != nil,
		"parallel_pair", w.left >= 0,
	)
	return w, nil
}

func (w *Wheeled) fusionLoop(ctx context.Context) {
	ticker := w.clock.Ticker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !w.update(ctx) {
			return
		}
	}
}

// trackWidth is the distance between the parallel pair.
func (w *Wheeled) trackWidth() float64 {
	return math.Abs(w.forward[w.left].Offset) + w.forward[w.right].Offset
}

// wheelHeading is the counter-clockwise rotation implied by the parallel pair's travel difference.
func (w *Wheeled) wheelHeading(forward []wheelSample) (spatialmath.Angle, bool) {
	left, right := forward[w.left], forward[w.right]
	if left.err != nil || right.err != nil {
		return 0, false
	}
	return spatialmath.FromRadians((right.travel - left.travel) / w.trackWidth()), true
}

// rawHeadingLocked prefers the gyro and permanently abandons it on its first failure: a gyro that
// reconnects recalibrates to an unrelated zero.
func (w *Wheeled) rawHeadingLocked(ctx context.Context, forward []wheelSample) (spatialmath.Angle, headingStatus) {
	if w.gyro != nil {
		gyroHeading, err := w.gyro.Heading(ctx)
		if err == nil {
			// IMUs report clockwise-positive headings.
			return spatialmath.FullTurn.Sub(gyroHeading), headingOK
		}
		w.gyro = nil
		if w.left < 0 {
			w.logger.Errorw("gyro failed and no parallel tracking wheels are available, pose will no longer update",
				"error", err)
			return 0, headingHalt
		}
		w.logger.Warnw("gyro failed, using tracking wheels for heading from now on", "error", err)
		w.rebaseHeading = true
	}
	if w.left < 0 {
		return 0, headingHalt
	}

	raw, ok := w.wheelHeading(forward)
	if !ok {
		return 0, headingSkip
	}
	if w.rebaseHeading {
		w.rebaseHeading = false
		return raw, headingRebase
	}
	return raw, headingOK
}

// update runs one fusion tick. It returns false once the tracker has halted.
func (w *Wheeled) update(ctx context.Context) bool {
	forward := readWheels(ctx, w.forward)
	sideways := readWheels(ctx, w.sideways)
	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.halted {
		return false
	}

	raw, status := w.rawHeadingLocked(ctx, forward)
	switch status {
	case headingHalt:
		w.halted = true
		w.publishLocked(now)
		return false
	case headingSkip:
		return true
	case headingRebase:
		w.headingOffset = w.rawHeading.Add(w.headingOffset).Sub(raw)
		w.prevRawHeading = raw
	case headingOK:
	}
	w.rawHeading = raw

	deltaHeading := raw.Sub(w.prevRawHeading).Wrapped()
	// Only used inside trig functions, so no wrapping needed.
	avgHeading := raw.Add(w.prevRawHeading).Div(2).Add(w.headingOffset)
	w.prevRawHeading = raw

	local := spatialmath.NewVec2(
		localDisplacement(w.forward, forward, w.prevForward, deltaHeading),
		localDisplacement(w.sideways, sideways, w.prevSideways, deltaHeading),
	)
	w.prevForward = forward
	w.prevSideways = sideways
	w.forwardTravel = averageTravel(forward, w.forwardTravel)

	dt := now.Sub(w.prevTime).Seconds()
	w.prevTime = now
	if dt > 0 {
		w.linearVelocity = (w.forwardTravel - w.prevForwardTravel) / dt
		w.angularVelocity = deltaHeading.Radians() / dt
	}
	w.prevForwardTravel = w.forwardTravel
	if w.gyro != nil {
		if rate, err := w.gyro.AngularVelocity(ctx); err == nil {
			w.angularVelocity = rate
		}
	}

	w.position = w.position.Add(local.Rotated(avgHeading))
	w.publishLocked(now)
	return true
}

// localDisplacement averages the robot-frame displacement along one axis implied by every wheel
// that read successfully this tick and last tick. A wheel off the center of rotation sweeps an
// arc of radius Δtravel/Δθ - offset about the tracking center; the chord of that arc is the
// displacement. Turning left in place rolls a wheel by offset·Δθ, so rotation alone contributes
// nothing.
func localDisplacement(
	wheels []TrackingWheel, current, prev []wheelSample, deltaHeading spatialmath.Angle,
) float64 {
	unitChord := 2 * deltaHeading.Div(2).Sin()
	sum, count := 0.0, 0
	for i, wheel := range wheels {
		if current[i].err != nil || prev[i].err != nil {
			continue
		}
		deltaTravel := current[i].travel - prev[i].travel
		if deltaHeading == 0 {
			sum += deltaTravel
		} else {
			sum += unitChord * (deltaTravel/deltaHeading.Radians() - wheel.Offset)
		}
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// averageTravel is the mean travel of the wheels that read successfully, or fallback if none did.
func averageTravel(samples []wheelSample, fallback float64) float64 {
	ok := lo.Filter(samples, func(s wheelSample, _ int) bool { return s.err == nil })
	if len(ok) == 0 {
		return fallback
	}
	return lo.SumBy(ok, func(s wheelSample) float64 { return s.travel }) / float64(len(ok))
}

func (w *Wheeled) publishLocked(now time.Time) {
	w.pose.Store(&Pose{
		Position:        w.position,
		Heading:         w.rawHeading.Add(w.headingOffset).WrappedPositive(),
		RawHeading:      w.rawHeading,
		HeadingOffset:   w.headingOffset,
		ForwardTravel:   w.forwardTravel,
		LinearVelocity:  w.linearVelocity,
		AngularVelocity: w.angularVelocity,
		Time:            now,
		Halted:          w.halted,
	})
}

// Pose returns the latest snapshot.
func (w *Wheeled) Pose() Pose {
	return *w.pose.Load()
}

// Position returns the latest field position.
func (w *Wheeled) Position() spatialmath.Vec2 {
	return w.Pose().Position
}

// Heading returns the latest heading in [0, 2π).
func (w *Wheeled) Heading() spatialmath.Angle {
	return w.Pose().Heading
}

// ForwardTravel returns the latest average forward wheel travel.
func (w *Wheeled) ForwardTravel() float64 {
	return w.Pose().ForwardTravel
}

// LinearVelocity returns the latest forward velocity.
func (w *Wheeled) LinearVelocity() float64 {
	return w.Pose().LinearVelocity
}

// AngularVelocity returns the latest angular velocity in radians per second.
func (w *Wheeled) AngularVelocity() float64 {
	return w.Pose().AngularVelocity
}

// Halted returns whether every heading source has been lost. A halted tracker never updates
// again.
func (w *Wheeled) Halted() bool {
	return w.Pose().Halted
}

// SetHeading makes the reported heading equal heading without touching the underlying sensors.
func (w *Wheeled) SetHeading(heading spatialmath.Angle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.headingOffset = heading.Sub(w.rawHeading)
	w.publishLocked(w.clock.Now())
}

// SetPosition overwrites the field position.
func (w *Wheeled) SetPosition(position spatialmath.Vec2) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = position
	w.publishLocked(w.clock.Now())
}

// Close stops the fusion loop.
func (w *Wheeled) Close() {
	if w.workers != nil {
		w.workers.Stop()
	}
}

var (
	_ Source              = (*Wheeled)(nil)
	_ TracksPosition      = (*Wheeled)(nil)
	_ TracksHeading       = (*Wheeled)(nil)
	_ TracksForwardTravel = (*Wheeled)(nil)
	_ TracksVelocity      = (*Wheeled)(nil)
)
