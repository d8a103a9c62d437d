package trajectory

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/drivecontrol/spatialmath"
)

func testConstraints() Constraints {
	return Constraints{
		MaxVelocity:         50,
		MaxAcceleration:     100,
		MaxDeceleration:     100,
		FrictionCoefficient: 1,
		TrackWidth:          12,
	}
}

func TestConstraintsValidate(t *testing.T) {
	c := testConstraints()
	test.That(t, c.Validate("path"), test.ShouldBeNil)

	for _, tc := range []struct {
		name   string
		modify func(*Constraints)
		errStr string
	}{
		{"velocity", func(c *Constraints) { c.MaxVelocity = 0 }, "max_velocity"},
		{"acceleration", func(c *Constraints) { c.MaxAcceleration = -1 }, "max_acceleration"},
		{"deceleration", func(c *Constraints) { c.MaxDeceleration = 0 }, "max_deceleration"},
		{"friction", func(c *Constraints) { c.FrictionCoefficient = 0 }, "friction_coefficient"},
		{"track width", func(c *Constraints) { c.TrackWidth = 0 }, "track_width"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := testConstraints()
			tc.modify(&c)
			err := c.Validate("path")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errStr)
			test.That(t, err.Error(), test.ShouldContainSubstring, "path")
		})
	}
}

func TestMaxSpeed(t *testing.T) {
	c := testConstraints()
	test.That(t, c.MaxSpeed(0), test.ShouldAlmostEqual, 50)
	gentle := c.MaxSpeed(0.01)
	tight := c.MaxSpeed(0.5)
	test.That(t, gentle, test.ShouldBeLessThan, 50)
	test.That(t, tight, test.ShouldBeLessThan, gentle)
	test.That(t, c.MaxSpeed(-0.5), test.ShouldAlmostEqual, tight)

	c.FrictionCoefficient = 0.001
	test.That(t, c.MaxSpeed(0.5), test.ShouldAlmostEqual, math.Sqrt(0.001/0.5*gravity))
}

func TestGenerateErrors(t *testing.T) {
	line := spatialmath.Line{End: spatialmath.NewVec2(10, 0)}

	_, err := Generate(line, 0, testConstraints())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "spacing")

	bad := testConstraints()
	bad.MaxVelocity = 0
	_, err = Generate(line, 1, bad)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Generate(spatialmath.Line{}, 1, testConstraints())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "zero derivative")
}

func TestTrapezoidProfile(t *testing.T) {
	line := spatialmath.Line{End: spatialmath.NewVec2(100, 0)}
	traj, err := Generate(line, 1, testConstraints())
	test.That(t, err, test.ShouldBeNil)

	points := traj.Points()
	n := len(points)
	test.That(t, n, test.ShouldBeBetweenOrEqual, 100, 101)
	test.That(t, traj.PeakVelocity(), test.ShouldAlmostEqual, 50)

	// One spacing of acceleration from rest.
	test.That(t, points[0].LinearVelocity, test.ShouldAlmostEqual, math.Sqrt(200))
	test.That(t, points[n-1].LinearVelocity, test.ShouldAlmostEqual, math.Sqrt(200))

	for i, p := range points {
		test.That(t, p.Curvature, test.ShouldEqual, 0)
		test.That(t, p.AngularVelocity, test.ShouldEqual, 0)
		test.That(t, p.Heading.Radians(), test.ShouldAlmostEqual, 0)
		test.That(t, p.Distance, test.ShouldAlmostEqual, float64(i))
		test.That(t, p.LinearVelocity, test.ShouldBeLessThanOrEqualTo, 50)
		test.That(t, p.LinearVelocity, test.ShouldAlmostEqual, points[n-1-i].LinearVelocity)
		if i > 0 && i < n/2 {
			test.That(t, p.LinearVelocity, test.ShouldBeGreaterThanOrEqualTo, points[i-1].LinearVelocity)
		}
	}

	// cruise in the middle
	test.That(t, points[n/2].LinearVelocity, test.ShouldAlmostEqual, 50)
	// v² = 2·a·d while accelerating
	test.That(t, points[5].LinearVelocity, test.ShouldAlmostEqual, math.Sqrt(2*100*6))

	// 100 in at 50 in/s plus the time lost to ramping
	test.That(t, traj.Duration(), test.ShouldBeBetween, 2*time.Second, 3*time.Second)
}

func TestTriangleProfile(t *testing.T) {
	line := spatialmath.Line{End: spatialmath.NewVec2(10, 0)}
	traj, err := Generate(line, 1, testConstraints())
	test.That(t, err, test.ShouldBeNil)

	peak := traj.PeakVelocity()
	test.That(t, peak, test.ShouldBeLessThan, 50)
	test.That(t, peak, test.ShouldBeGreaterThan, 0)

	points := traj.Points()
	n := len(points)
	for i := 1; i < n/2; i++ {
		test.That(t, points[i].LinearVelocity, test.ShouldBeGreaterThan, points[i-1].LinearVelocity)
	}
	for i := n/2 + 1; i < n; i++ {
		test.That(t, points[i].LinearVelocity, test.ShouldBeLessThanOrEqualTo, points[i-1].LinearVelocity)
	}
}

func TestCurvedProfile(t *testing.T) {
	curve := spatialmath.NewCubicBezier(
		spatialmath.NewVec2(0, 0),
		spatialmath.NewVec2(0, 50),
		spatialmath.NewVec2(50, 0),
		spatialmath.NewVec2(50, 50),
	)
	c := testConstraints()
	traj, err := Generate(curve, 0.5, c)
	test.That(t, err, test.ShouldBeNil)

	first := traj.At(0)
	test.That(t, first.Heading.Radians(), test.ShouldAlmostEqual, math.Pi/2)
	// bends toward +X first, which is clockwise
	test.That(t, first.Curvature, test.ShouldBeLessThan, 0)

	for _, p := range traj.Points() {
		test.That(t, p.LinearVelocity, test.ShouldBeLessThanOrEqualTo, c.MaxSpeed(p.Curvature)+1e-9)
		test.That(t, p.AngularVelocity, test.ShouldAlmostEqual, p.LinearVelocity*p.Curvature)
	}
	test.That(t, traj.Last().Position.Distance(spatialmath.NewVec2(50, 50)), test.ShouldBeLessThan, 1)
}

func TestAt(t *testing.T) {
	line := spatialmath.Line{End: spatialmath.NewVec2(20, 0)}
	traj, err := Generate(line, 2, testConstraints())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, traj.Spacing(), test.ShouldEqual, 2)
	test.That(t, traj.At(-5), test.ShouldResemble, traj.At(0))
	test.That(t, traj.At(1e6), test.ShouldResemble, traj.Last())
	test.That(t, traj.At(4.5).Distance, test.ShouldAlmostEqual, 4)
	test.That(t, traj.At(traj.Length()), test.ShouldResemble, traj.Last())
	test.That(t, traj.Len(), test.ShouldEqual, len(traj.Points()))
}
