package control

import (
	"math"
	"sync"
	"time"

	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/utils"
)

// PIDOption configures a PID.
type PIDOption func(*PID)

// WithIntegrationRange only accumulates the integral while |error| <= r.
func WithIntegrationRange(r float64) PIDOption {
	return func(p *PID) {
		p.integrationRange = r
		p.hasIntegrationRange = true
	}
}

// WithOutputLimit clamps the output to [-limit, limit].
func WithOutputLimit(limit float64) PIDOption {
	return func(p *PID) {
		p.outputLimit = limit
		p.hasOutputLimit = true
	}
}

// WithSignChangeReset zeroes the integral whenever the error changes sign.
func WithSignChangeReset() PIDOption {
	return func(p *PID) {
		p.resetOnSignChange = true
	}
}

// PID is a proportional-integral-derivative controller. All methods are safe to call
// concurrently, so gains may be tuned while a motion is running.
type PID struct {
	mu sync.Mutex

	kp, ki, kd float64

	integrationRange    float64
	hasIntegrationRange bool
	outputLimit         float64
	hasOutputLimit      bool
	resetOnSignChange   bool

	integral  float64
	prevError float64
}

// NewPID creates a PID with the given gains.
func NewPID(kp, ki, kd float64, opts ...PIDOption) *PID {
	p := &PID{kp: kp, ki: ki, kd: kd}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Update returns kp·e + ki·∫e + kd·de/dt with e = setpoint - measurement. A zero dt contributes
// neither integral nor derivative.
func (p *PID) Update(measurement, setpoint float64, dt time.Duration) float64 {
	return p.update(setpoint-measurement, dt)
}

func (p *PID) update(err float64, dt time.Duration) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resetOnSignChange && err*p.prevError < 0 {
		p.integral = 0
	}

	dtS := dt.Seconds()
	derivative := 0.0
	if dtS > 0 {
		if !p.hasIntegrationRange || math.Abs(err) <= p.integrationRange {
			p.integral += err * dtS
		}
		derivative = (err - p.prevError) / dtS
	}
	p.prevError = err

	output := p.kp*err + p.ki*p.integral + p.kd*derivative
	if p.hasOutputLimit {
		output = utils.Clamp(output, -p.outputLimit, p.outputLimit)
	}
	return output
}

// Gains returns kp, ki and kd.
func (p *PID) Gains() (float64, float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kp, p.ki, p.kd
}

// SetGains replaces all three gains.
func (p *PID) SetGains(kp, ki, kd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kp, p.ki, p.kd = kp, ki, kd
}

// Kp returns the proportional gain.
func (p *PID) Kp() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kp
}

// Ki returns the integral gain.
func (p *PID) Ki() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ki
}

// Kd returns the derivative gain.
func (p *PID) Kd() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kd
}

// SetKp sets the proportional gain.
func (p *PID) SetKp(kp float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kp = kp
}

// SetKi sets the integral gain.
func (p *PID) SetKi(ki float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ki = ki
}

// SetKd sets the derivative gain.
func (p *PID) SetKd(kd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kd = kd
}

// IntegrationRange returns the integration range and whether one is set.
func (p *PID) IntegrationRange() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.integrationRange, p.hasIntegrationRange
}

// SetIntegrationRange sets the integration range.
func (p *PID) SetIntegrationRange(r float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.integrationRange = r
	p.hasIntegrationRange = true
}

// ClearIntegrationRange makes the integral accumulate unconditionally.
func (p *PID) ClearIntegrationRange() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasIntegrationRange = false
}

// OutputLimit returns the output limit and whether one is set.
func (p *PID) OutputLimit() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outputLimit, p.hasOutputLimit
}

// SetOutputLimit sets the output limit.
func (p *PID) SetOutputLimit(limit float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputLimit = limit
	p.hasOutputLimit = true
}

// ClearOutputLimit removes the output limit.
func (p *PID) ClearOutputLimit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasOutputLimit = false
}

// Integral returns the accumulated integral of the error.
func (p *PID) Integral() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.integral
}

// Reset clears the integral and previous error.
func (p *PID) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.integral = 0
	p.prevError = 0
}

// AngularPID is a PID over angles in radians. The error is wrapped to [-π, π] so the controller
// always turns the short way around.
type AngularPID struct {
	*PID
}

// NewAngularPID creates an AngularPID with the given gains.
func NewAngularPID(kp, ki, kd float64, opts ...PIDOption) *AngularPID {
	return &AngularPID{PID: NewPID(kp, ki, kd, opts...)}
}

// Update runs the PID on the wrapped difference between setpoint and measurement.
func (p *AngularPID) Update(measurement, setpoint float64, dt time.Duration) float64 {
	return p.update(spatialmath.Angle(setpoint-measurement).Wrapped().Radians(), dt)
}

var (
	_ Controller = (*PID)(nil)
	_ Controller = (*AngularPID)(nil)
)
