package motion

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/operation"
	"go.viam.com/drivecontrol/tracking"
	"go.viam.com/drivecontrol/utils"
)

// DefaultPeriod is how often a Runner steps its task.
const DefaultPeriod = 5 * time.Millisecond

// StopPolicy decides what a Runner does with the drivetrain when a motion is cancelled before it
// finishes.
type StopPolicy int

const (
	// StopOnCancel zeroes the drivetrain, unless another motion has already taken it over.
	StopOnCancel StopPolicy = iota
	// HoldOnCancel leaves the last command applied. The caller owns stopping the drivetrain.
	HoldOnCancel
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock that paces the Runner and timestamps each step.
func WithClock(clk clock.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = clk
	}
}

// WithPeriod sets how often the task is stepped.
func WithPeriod(period time.Duration) RunnerOption {
	return func(r *Runner) {
		r.period = period
	}
}

// WithStopPolicy sets what happens to the drivetrain on cancellation.
func WithStopPolicy(policy StopPolicy) RunnerOption {
	return func(r *Runner) {
		r.stopPolicy = policy
	}
}

// Runner steps one Task at a time against a drivetrain. Starting a motion cancels the one in
// progress.
type Runner struct {
	drivetrain drivetrain.Tank
	source     tracking.Source
	logger     logging.Logger

	clock      clock.Clock
	period     time.Duration
	stopPolicy StopPolicy

	opMgr *operation.SingleOperationManager
	ops   *operation.Manager
}

// NewRunner creates a Runner that reads poses from source and writes to dt.
func NewRunner(dt drivetrain.Tank, source tracking.Source, logger logging.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		drivetrain: dt,
		source:     source,
		logger:     logger,
		clock:      clock.New(),
		period:     DefaultPeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.opMgr = &operation.SingleOperationManager{Clock: r.clock}
	r.ops = operation.NewManager(r.clock, logger)
	return r
}

// Run steps task every period until it is Done or ctx is cancelled. Done zeroes the drivetrain
// and returns nil; cancellation returns the context's error.
func (r *Runner) Run(ctx context.Context, name string, task Task) error {
	ctx, done := r.ops.Create(ctx, name, task)
	defer done()
	opLogger := r.logger.WithFields("id", operation.Get(ctx).ID.String())
	logger := opLogger.WithFields("motion", name)

	stopSlowLogger := utils.SlowLogger(ctx, r.clock, "waiting for motion to finish", "motion", name, opLogger)
	defer stopSlowLogger()

	steps := 0
	start := r.clock.Now()
	err := r.opMgr.WaitForSuccess(ctx, r.period, func(ctx context.Context, now time.Time) (bool, error) {
		steps++
		voltages, status := task.Step(now, r.source.Pose())
		if status == Done {
			r.write(ctx, logger, drivetrain.Voltages{})
			return true, nil
		}
		r.write(ctx, logger, voltages)
		return false, nil
	})
	if err != nil {
		// A motion that preempted this one owns the drivetrain now.
		if r.stopPolicy == StopOnCancel && !r.opMgr.OpRunning() {
			r.write(context.Background(), logger, drivetrain.Voltages{})
		}
		logger.Debugw("motion cancelled", "steps", steps, "error", err)
		return err
	}
	logger.Debugw("motion done", "steps", steps, "duration", r.clock.Since(start))
	return nil
}

// write is best effort. A failing motor should not end an otherwise working motion.
func (r *Runner) write(ctx context.Context, logger logging.Logger, voltages drivetrain.Voltages) {
	if err := r.drivetrain.SetVoltages(ctx, voltages); err != nil {
		logger.Debugw("drivetrain write failed", "voltages", voltages.String(), "error", err)
	}
}

// Stop cancels the running motion, if any, and zeroes the drivetrain.
func (r *Runner) Stop(ctx context.Context) error {
	r.opMgr.CancelRunning(ctx)
	return r.drivetrain.SetVoltages(ctx, drivetrain.Voltages{})
}

// Cancel cancels the motion with operation ID id. It reports whether that motion was running.
func (r *Runner) Cancel(id string) bool {
	op := r.ops.FindString(id)
	if op == nil {
		return false
	}
	op.Cancel()
	return true
}

// Running reports whether a motion is in progress.
func (r *Runner) Running() bool {
	return r.opMgr.OpRunning()
}

// Operations returns the motions in progress, oldest first.
func (r *Runner) Operations() []*operation.Operation {
	return r.ops.All()
}
