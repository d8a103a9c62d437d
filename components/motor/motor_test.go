package motor_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/drivecontrol/components/motor"
	"go.viam.com/drivecontrol/components/motor/fake"
)

func TestGroupWritesEveryMotor(t *testing.T) {
	ctx := context.Background()
	a, b, c := fake.NewMotor(), fake.NewMotor(), fake.NewMotor()
	group := motor.NewGroup(a, b, c)

	test.That(t, group.SetVoltage(ctx, 6), test.ShouldBeNil)
	for _, m := range []*fake.Motor{a, b, c} {
		test.That(t, m.Voltage(), test.ShouldEqual, 6.0)
	}

	a.SetError(errors.New("overheated"))
	c.SetError(errors.New("unplugged"))
	err := group.SetVoltage(ctx, -3)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)
	test.That(t, err.Error(), test.ShouldContainSubstring, "overheated")
	test.That(t, err.Error(), test.ShouldContainSubstring, "unplugged")

	// The healthy motor still got the command.
	test.That(t, b.Voltage(), test.ShouldEqual, -3.0)
	test.That(t, a.Voltage(), test.ShouldEqual, 6.0)
	test.That(t, c.Writes(), test.ShouldEqual, 2)
}
