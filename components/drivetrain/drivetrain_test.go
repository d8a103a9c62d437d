package drivetrain

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/drivecontrol/components/motor"
	"go.viam.com/drivecontrol/components/motor/fake"
	"go.viam.com/drivecontrol/spatialmath"
)

func TestVoltagesNormalized(t *testing.T) {
	scaled := Voltages{Left: 15, Right: 9}.Normalized(12)
	test.That(t, scaled.Left, test.ShouldAlmostEqual, 12)
	test.That(t, scaled.Right, test.ShouldAlmostEqual, 7.2)
	test.That(t, scaled.Left/scaled.Right, test.ShouldAlmostEqual, 15.0/9.0)

	test.That(t, Voltages{Left: 6, Right: 3}.Normalized(12), test.ShouldResemble, Voltages{Left: 6, Right: 3})

	negative := Voltages{Left: -24, Right: 6}.Normalized(12)
	test.That(t, negative.Left, test.ShouldAlmostEqual, -12)
	test.That(t, negative.Right, test.ShouldAlmostEqual, 3)

	test.That(t, Voltages{}.Normalized(12), test.ShouldResemble, Voltages{})
}

func TestMixing(t *testing.T) {
	test.That(t, FromArcade(6, 2), test.ShouldResemble, Voltages{Left: 8, Right: 4})
	test.That(t, FromArcade(6, 2).Neg(), test.ShouldResemble, Voltages{Left: -8, Right: -4})

	// Positive curvature turns left: the right side runs faster.
	curved := FromCurvature(10, 0.1, 10)
	test.That(t, curved.Left, test.ShouldAlmostEqual, 5)
	test.That(t, curved.Right, test.ShouldAlmostEqual, 15)
	test.That(t, FromCurvature(10, 0, 10), test.ShouldResemble, Voltages{Left: 10, Right: 10})
}

func newTestDifferential() (*Differential, *fake.Motor, *fake.Motor, *fake.Motor, *fake.Motor) {
	l1, l2, r1, r2 := fake.NewMotor(), fake.NewMotor(), fake.NewMotor(), fake.NewMotor()
	return NewDifferential(motor.NewGroup(l1, l2), motor.NewGroup(r1, r2)), l1, l2, r1, r2
}

func TestDifferential(t *testing.T) {
	ctx := context.Background()
	dt, l1, l2, r1, r2 := newTestDifferential()

	test.That(t, dt.SetVoltages(ctx, Voltages{Left: 4, Right: -4}), test.ShouldBeNil)
	test.That(t, l1.Voltage(), test.ShouldEqual, 4.0)
	test.That(t, l2.Voltage(), test.ShouldEqual, 4.0)
	test.That(t, r1.Voltage(), test.ShouldEqual, -4.0)
	test.That(t, r2.Voltage(), test.ShouldEqual, -4.0)

	t.Run("arcade desaturates before scaling", func(t *testing.T) {
		test.That(t, dt.SetArcade(ctx, 1, 1), test.ShouldBeNil)
		test.That(t, l1.Voltage(), test.ShouldAlmostEqual, MaxVoltage)
		test.That(t, r1.Voltage(), test.ShouldAlmostEqual, 0)

		test.That(t, dt.SetArcade(ctx, 0.5, 0), test.ShouldBeNil)
		test.That(t, l1.Voltage(), test.ShouldAlmostEqual, 6)
		test.That(t, r1.Voltage(), test.ShouldAlmostEqual, 6)
	})

	t.Run("one failed motor does not stop the rest", func(t *testing.T) {
		l1.SetError(errors.New("port 3 disconnected"))
		err := dt.SetVoltages(ctx, Voltages{Left: 2, Right: 3})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "port 3")
		test.That(t, l2.Voltage(), test.ShouldEqual, 2.0)
		test.That(t, r2.Voltage(), test.ShouldEqual, 3.0)
	})

	t.Run("stop", func(t *testing.T) {
		l1.SetError(nil)
		test.That(t, dt.Stop(ctx), test.ShouldBeNil)
		test.That(t, l1.Voltage(), test.ShouldEqual, 0.0)
		test.That(t, r1.Voltage(), test.ShouldEqual, 0.0)
	})
}

func TestMecanum(t *testing.T) {
	ctx := context.Background()
	fl, fr, bl, br := fake.NewMotor(), fake.NewMotor(), fake.NewMotor(), fake.NewMotor()
	mecanum := &Mecanum{
		FrontLeft:  motor.NewGroup(fl),
		FrontRight: motor.NewGroup(fr),
		BackLeft:   motor.NewGroup(bl),
		BackRight:  motor.NewGroup(br),
	}

	// Pure strafe left: front-left and back-right run backward.
	test.That(t, mecanum.SetHolonomic(ctx, spatialmath.NewVec2(0, 1), 0), test.ShouldBeNil)
	test.That(t, fl.Voltage(), test.ShouldEqual, -MaxVoltage)
	test.That(t, fr.Voltage(), test.ShouldEqual, MaxVoltage)
	test.That(t, bl.Voltage(), test.ShouldEqual, MaxVoltage)
	test.That(t, br.Voltage(), test.ShouldEqual, -MaxVoltage)

	// Forward plus full turn saturates and gets scaled.
	test.That(t, mecanum.SetHolonomic(ctx, spatialmath.NewVec2(1, 0), 1), test.ShouldBeNil)
	test.That(t, fl.Voltage(), test.ShouldAlmostEqual, MaxVoltage)
	test.That(t, fr.Voltage(), test.ShouldAlmostEqual, 0)

	test.That(t, mecanum.SetVoltages(ctx, Voltages{Left: 1, Right: 2}), test.ShouldBeNil)
	test.That(t, bl.Voltage(), test.ShouldEqual, 1.0)
	test.That(t, br.Voltage(), test.ShouldEqual, 2.0)
}

func TestCurvatureDrive(t *testing.T) {
	drive := NewCurvatureDrive(CurvatureDriveConfig{
		TurnNonlinearity: 0.5,
		Deadzone:         0.05,
		TurnSensitivity:  1,
	})

	t.Run("turn in place inside deadzone", func(t *testing.T) {
		out := drive.Update(0, 1)
		test.That(t, out.Left, test.ShouldAlmostEqual, 1)
		test.That(t, out.Right, test.ShouldAlmostEqual, -1)
	})

	t.Run("straight", func(t *testing.T) {
		out := drive.Update(0.8, 0)
		test.That(t, out.Left, test.ShouldAlmostEqual, 0.8)
		test.That(t, out.Right, test.ShouldAlmostEqual, 0.8)
	})

	t.Run("curvature scales with throttle", func(t *testing.T) {
		slow := NewCurvatureDrive(CurvatureDriveConfig{Deadzone: 0.05, TurnSensitivity: 1})
		fast := NewCurvatureDrive(CurvatureDriveConfig{Deadzone: 0.05, TurnSensitivity: 1})
		s := slow.Update(0.25, 0.5)
		f := fast.Update(1, 0.5)
		test.That(t, (s.Left-s.Right)/0.25, test.ShouldAlmostEqual, (f.Left-f.Right)/1)
	})

	t.Run("slew limits throttle increase", func(t *testing.T) {
		slewed := NewCurvatureDrive(CurvatureDriveConfig{Slew: 0.1, TurnSensitivity: 1})
		out := slewed.Update(1, 0)
		test.That(t, out.Left, test.ShouldAlmostEqual, 0.1)
		out = slewed.Update(1, 0)
		test.That(t, out.Left, test.ShouldAlmostEqual, 0.2)
	})
}
