// Package motion implements closed-loop motions for a differential drivetrain.
//
// A motion is a Task: an explicit state machine that is stepped once per control tick with the
// current time and a pose snapshot, and answers with the voltages to apply. A Runner owns the
// drivetrain and the tick, so tasks themselves never block or perform I/O.
package motion

import (
	"time"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/control"
	"go.viam.com/drivecontrol/tracking"
)

// Status is the result of one Step.
type Status int

const (
	// Continue means the task wants to be stepped again.
	Continue Status = iota
	// Done means the task has settled or timed out. It is terminal.
	Done
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// A Task is a motion stepped by a Runner. Once a Task returns Done its voltages are ignored and
// the drivetrain is zeroed.
type Task interface {
	Step(now time.Time, pose tracking.Pose) (drivetrain.Voltages, Status)
}

type resetter interface {
	Reset()
}

// resetControllers clears controller state left over from a previous motion.
func resetControllers(controllers ...control.Controller) {
	for _, c := range controllers {
		if r, ok := c.(resetter); ok {
			r.Reset()
		}
	}
}

// timing tracks a task's start, previous step and timeout.
type timing struct {
	timeout time.Duration

	started bool
	start   time.Time
	prev    time.Time
}

// tick returns the time since the previous step, and whether this is the first step.
func (t *timing) tick(now time.Time) (time.Duration, bool) {
	if !t.started {
		t.started = true
		t.start, t.prev = now, now
		return 0, true
	}
	dt := now.Sub(t.prev)
	t.prev = now
	return dt, false
}

func (t *timing) timedOut(now time.Time) bool {
	return t.timeout > 0 && now.Sub(t.start) > t.timeout
}

func arcade(linear, angular float64) drivetrain.Voltages {
	// angular is counter-clockwise positive, steer is clockwise positive
	return drivetrain.FromArcade(linear, -angular).Normalized(drivetrain.MaxVoltage)
}
