// Package sim simulates a differential drive robot: its motors, wheel encoders and gyro. The
// simulated sensors are the package fakes, so tracking and motion code run against it unchanged.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/drivecontrol/components/drivetrain"
	encoderfake "go.viam.com/drivecontrol/components/encoder/fake"
	gyrofake "go.viam.com/drivecontrol/components/gyro/fake"
	"go.viam.com/drivecontrol/components/motor"
	motorfake "go.viam.com/drivecontrol/components/motor/fake"
	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
	"go.viam.com/drivecontrol/utils"
)

// DefaultPeriod is the physics step.
const DefaultPeriod = 2 * time.Millisecond

// Config describes the simulated robot. Lengths are in inches.
type Config struct {
	TrackWidth    float64 `json:"track_width"`
	WheelDiameter float64 `json:"wheel_diameter"`
	// MaxSpeed is the free wheel surface speed at drivetrain.MaxVoltage, in inches per second.
	MaxSpeed float64 `json:"max_speed"`
	// TimeConstant of the first-order wheel speed response. Zero makes the wheels respond
	// instantly.
	TimeConstant time.Duration `json:"time_constant,omitempty"`

	Origin  spatialmath.Vec2  `json:"-"`
	Heading spatialmath.Angle `json:"-"`

	// Period of the physics loop. Zero means DefaultPeriod.
	Period time.Duration `json:"-"`
	// Clock drives the physics loop. Nil means the wall clock.
	Clock clock.Clock `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.TrackWidth <= 0 {
		return errors.Errorf("%s: track_width must be positive", path)
	}
	if cfg.WheelDiameter <= 0 {
		return errors.Errorf("%s: wheel_diameter must be positive", path)
	}
	if cfg.MaxSpeed <= 0 {
		return errors.Errorf("%s: max_speed must be positive", path)
	}
	if cfg.TimeConstant < 0 {
		return errors.Errorf("%s: time_constant cannot be negative", path)
	}
	return nil
}

// State is the true state of the simulated robot.
type State struct {
	Position        spatialmath.Vec2
	Heading         spatialmath.Angle
	LinearVelocity  float64
	AngularVelocity float64
	Time            time.Time
}

// Robot is a simulated differential drive robot.
type Robot struct {
	LeftMotor, RightMotor     *motorfake.Motor
	LeftEncoder, RightEncoder *encoderfake.Encoder
	Gyro                      *gyrofake.Gyro

	cfg    Config
	clock  clock.Clock
	logger logging.Logger

	mu                    sync.Mutex
	leftSpeed, rightSpeed float64
	position              spatialmath.Vec2
	heading               spatialmath.Angle
	prevTime              time.Time

	state   atomic.Pointer[State]
	workers utils.StoppableWorkers
}

// NewRobot creates a robot at rest at cfg.Origin and starts its physics loop.
func NewRobot(cfg Config, logger logging.Logger) (*Robot, error) {
	r, err := newRobot(cfg, logger)
	if err != nil {
		return nil, err
	}
	r.workers = utils.NewStoppableWorkers(r.physicsLoop)
	return r, nil
}

func newRobot(cfg Config, logger logging.Logger) (*Robot, error) {
	if err := cfg.Validate("sim"); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	r := &Robot{
		LeftMotor:    motorfake.NewMotor(),
		RightMotor:   motorfake.NewMotor(),
		LeftEncoder:  encoderfake.NewEncoder(),
		RightEncoder: encoderfake.NewEncoder(),
		Gyro:         gyrofake.NewGyro(),
		cfg:          cfg,
		clock:        cfg.Clock,
		logger:       logger,
		position:     cfg.Origin,
		heading:      cfg.Heading,
		prevTime:     cfg.Clock.Now(),
	}
	r.Gyro.SetHeading(cfg.Heading.Neg().WrappedPositive())
	r.publishLocked(0, 0)
	r.logger.Debugw("simulated robot created",
		"track_width", cfg.TrackWidth,
		"wheel_diameter", cfg.WheelDiameter,
		"max_speed", cfg.MaxSpeed,
	)
	return r, nil
}

func (r *Robot) physicsLoop(ctx context.Context) {
	ticker := r.clock.Ticker(r.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		now := r.clock.Now()
		r.mu.Lock()
		dt := now.Sub(r.prevTime)
		r.prevTime = now
		r.mu.Unlock()
		r.Step(dt)
	}
}

// Step advances the simulation by dt using the voltages currently on the motors.
func (r *Robot) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	seconds := dt.Seconds()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.leftSpeed = r.respond(r.leftSpeed, r.LeftMotor.Voltage(), dt)
	r.rightSpeed = r.respond(r.rightSpeed, r.RightMotor.Voltage(), dt)

	linear := (r.leftSpeed + r.rightSpeed) / 2
	angular := (r.rightSpeed - r.leftSpeed) / r.cfg.TrackWidth

	// midpoint integration
	midHeading := r.heading.Add(spatialmath.FromRadians(angular * seconds / 2))
	r.position = r.position.Add(spatialmath.FromPolar(linear*seconds, midHeading))
	r.heading = r.heading.Add(spatialmath.FromRadians(angular * seconds))

	circumference := math.Pi * r.cfg.WheelDiameter
	r.LeftEncoder.AddPosition(spatialmath.FromTurns(r.leftSpeed * seconds / circumference))
	r.RightEncoder.AddPosition(spatialmath.FromTurns(r.rightSpeed * seconds / circumference))
	r.Gyro.SetHeading(r.heading.Neg().WrappedPositive())
	r.Gyro.SetAngularVelocity(angular)

	r.publishLocked(linear, angular)
}

// respond moves speed toward the free speed for volts with the configured time constant.
func (r *Robot) respond(speed, volts float64, dt time.Duration) float64 {
	target := utils.Clamp(volts, -drivetrain.MaxVoltage, drivetrain.MaxVoltage) / drivetrain.MaxVoltage * r.cfg.MaxSpeed
	if r.cfg.TimeConstant == 0 {
		return target
	}
	alpha := 1 - math.Exp(-dt.Seconds()/r.cfg.TimeConstant.Seconds())
	return speed + (target-speed)*alpha
}

func (r *Robot) publishLocked(linear, angular float64) {
	r.state.Store(&State{
		Position:        r.position,
		Heading:         r.heading.WrappedPositive(),
		LinearVelocity:  linear,
		AngularVelocity: angular,
		Time:            r.prevTime,
	})
}

// State returns the true state of the robot.
func (r *Robot) State() State {
	return *r.state.Load()
}

// Drivetrain returns a drivetrain writing to the simulated motors.
func (r *Robot) Drivetrain() *drivetrain.Differential {
	return drivetrain.NewDifferential(motor.NewGroup(r.LeftMotor), motor.NewGroup(r.RightMotor))
}

// TrackingConfig returns a tracking configuration reading the simulated sensors: the drive
// encoders as a parallel pair and, when useGyro is set, the gyro.
func (r *Robot) TrackingConfig(useGyro bool) tracking.Config {
	cfg := tracking.Config{
		Origin:  r.cfg.Origin,
		Heading: r.cfg.Heading,
		Forward: []tracking.TrackingWheel{
			tracking.NewTrackingWheel(r.LeftEncoder, r.cfg.WheelDiameter, -r.cfg.TrackWidth/2, 1),
			tracking.NewTrackingWheel(r.RightEncoder, r.cfg.WheelDiameter, r.cfg.TrackWidth/2, 1),
		},
		Clock: r.clock,
	}
	if useGyro {
		cfg.Gyro = r.Gyro
	}
	return cfg
}

// Close stops the physics loop.
func (r *Robot) Close() {
	if r.workers != nil {
		r.workers.Stop()
	}
}
