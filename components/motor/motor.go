// Package motor defines the voltage sinks a drivetrain writes to.
package motor

import (
	"context"

	"go.uber.org/multierr"
)

// A Motor accepts a signed voltage command.
type Motor interface {
	SetVoltage(ctx context.Context, volts float64) error
}

// Group commands several motors as one, e.g. every motor on one side of a drivetrain.
type Group []Motor

// NewGroup creates a group from the given motors.
func NewGroup(motors ...Motor) Group {
	return Group(motors)
}

// SetVoltage writes volts to every member. A failing member does not stop the others from being
// written; all failures are combined into the returned error.
func (g Group) SetVoltage(ctx context.Context, volts float64) error {
	var errs error
	for _, m := range g {
		errs = multierr.Combine(errs, m.SetVoltage(ctx, volts))
	}
	return errs
}
