package encoder_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/drivecontrol/components/encoder"
	"go.viam.com/drivecontrol/components/encoder/fake"
	"go.viam.com/drivecontrol/spatialmath"
)

func TestGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("empty group reads zero", func(t *testing.T) {
		pos, err := encoder.NewGroup().Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos, test.ShouldEqual, spatialmath.Angle(0))
	})

	a, b, c := fake.NewEncoder(), fake.NewEncoder(), fake.NewEncoder()
	a.SetPosition(spatialmath.FromRadians(1))
	b.SetPosition(spatialmath.FromRadians(2))
	c.SetPosition(spatialmath.FromRadians(6))
	group := encoder.NewGroup(a, b, c)
	addAll := func(radians float64) {
		for _, e := range []*fake.Encoder{a, b, c} {
			e.AddPosition(spatialmath.FromRadians(radians))
		}
	}

	t.Run("starts at the mean position", func(t *testing.T) {
		pos, err := group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 3)
	})

	t.Run("advances by the mean change", func(t *testing.T) {
		a.AddPosition(spatialmath.FromRadians(1))
		b.AddPosition(spatialmath.FromRadians(2))
		c.AddPosition(spatialmath.FromRadians(3))
		pos, err := group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 5)
	})

	t.Run("a member dropping out does not move the group", func(t *testing.T) {
		c.SetError(encoder.ErrDisconnected)
		pos, err := group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 5)

		addAll(1)
		pos, err = group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 6)
	})

	t.Run("fails with the last error when every member fails", func(t *testing.T) {
		a.SetError(errors.New("port 1"))
		b.SetError(errors.New("port 2"))
		c.SetError(errors.New("port 3"))
		_, err := group.Position(ctx)
		test.That(t, err, test.ShouldBeError, errors.New("port 3"))
	})

	t.Run("a member reconnecting after drifting does not move the group", func(t *testing.T) {
		a.SetPosition(spatialmath.FromRadians(40))
		a.SetError(nil)
		pos, err := group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 6)

		a.AddPosition(spatialmath.FromRadians(0.5))
		pos, err = group.Position(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, pos.Radians(), test.ShouldAlmostEqual, 6.5)
	})
}

func TestGroupMemberOffset(t *testing.T) {
	ctx := context.Background()
	a, b := fake.NewEncoder(), fake.NewEncoder()
	group := encoder.NewGroup(a, b)
	_, err := group.Position(ctx)
	test.That(t, err, test.ShouldBeNil)

	// once the members disagree, losing one must not snap the group to the other
	b.SetPosition(spatialmath.FromTurns(1))
	pos, err := group.Position(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos.Turns(), test.ShouldAlmostEqual, 0.5)

	b.SetError(encoder.ErrDisconnected)
	pos, err = group.Position(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos.Turns(), test.ShouldAlmostEqual, 0.5)
}
