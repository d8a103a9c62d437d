package motion

import (
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/tracking"
)

func TestLineCircleIntersections(t *testing.T) {
	origin := spatialmath.Vec2{}

	t.Run("circle encloses the segment", func(t *testing.T) {
		points := lineCircleIntersections(origin, 20, spatialmath.NewVec2(-5, 0), spatialmath.NewVec2(5, 0))
		test.That(t, points, test.ShouldBeEmpty)
	})

	t.Run("segment misses the circle", func(t *testing.T) {
		points := lineCircleIntersections(origin, 5, spatialmath.NewVec2(-10, 8), spatialmath.NewVec2(10, 8))
		test.That(t, points, test.ShouldBeEmpty)
	})

	t.Run("one crossing", func(t *testing.T) {
		points := lineCircleIntersections(origin, 10, spatialmath.NewVec2(0, 0), spatialmath.NewVec2(30, 0))
		test.That(t, len(points), test.ShouldEqual, 1)
		test.That(t, points[0].X, test.ShouldAlmostEqual, 10)
		test.That(t, points[0].Y, test.ShouldAlmostEqual, 0)
	})

	t.Run("two crossings pick the one nearer the end", func(t *testing.T) {
		end := spatialmath.NewVec2(30, 0)
		points := lineCircleIntersections(origin, 10, spatialmath.NewVec2(-30, 0), end)
		test.That(t, len(points), test.ShouldEqual, 2)

		chosen, ok := chooseLookahead(points, end)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, chosen.X, test.ShouldAlmostEqual, 10)
		test.That(t, chosen.Y, test.ShouldAlmostEqual, 0)

		// reversed segment
		chosen, ok = chooseLookahead(lineCircleIntersections(origin, 10, end, spatialmath.NewVec2(-30, 0)), spatialmath.NewVec2(-30, 0))
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, chosen.X, test.ShouldAlmostEqual, -10)
	})

	t.Run("off-center diagonal", func(t *testing.T) {
		center := spatialmath.NewVec2(3, 4)
		start := spatialmath.NewVec2(3, 4)
		end := spatialmath.NewVec2(13, 14)
		points := lineCircleIntersections(center, 5, start, end)
		test.That(t, len(points), test.ShouldEqual, 1)
		test.That(t, points[0].Distance(center), test.ShouldAlmostEqual, 5)
		test.That(t, points[0].X-center.X, test.ShouldAlmostEqual, points[0].Y-center.Y)
		test.That(t, points[0].X, test.ShouldBeGreaterThan, center.X)
	})

	t.Run("tangent", func(t *testing.T) {
		points := lineCircleIntersections(origin, 10, spatialmath.NewVec2(-10, 10), spatialmath.NewVec2(10, 10))
		test.That(t, len(points), test.ShouldEqual, 1)
		test.That(t, points[0].X, test.ShouldAlmostEqual, 0)
		test.That(t, points[0].Y, test.ShouldAlmostEqual, 10)
	})

	t.Run("degenerate segment", func(t *testing.T) {
		p := spatialmath.NewVec2(10, 0)
		test.That(t, lineCircleIntersections(origin, 10, p, p), test.ShouldBeNil)
	})

	t.Run("no intersections keeps nothing", func(t *testing.T) {
		_, ok := chooseLookahead(nil, origin)
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func TestSignedArcCurvature(t *testing.T) {
	origin := spatialmath.Vec2{}
	test.That(t, signedArcCurvature(origin, 0, spatialmath.NewVec2(10, 10)), test.ShouldAlmostEqual, 0.1)
	test.That(t, signedArcCurvature(origin, 0, spatialmath.NewVec2(10, -10)), test.ShouldAlmostEqual, -0.1)
	test.That(t, signedArcCurvature(origin, 0, spatialmath.NewVec2(10, 0)), test.ShouldAlmostEqual, 0)
	test.That(t, signedArcCurvature(origin, 0, origin), test.ShouldEqual, 0)

	// facing +Y, a point to the -X side is to the left
	test.That(t, signedArcCurvature(origin, spatialmath.QuarterTurn, spatialmath.NewVec2(-5, 5)), test.ShouldAlmostEqual, 0.2)
}

func TestPurePursuit(t *testing.T) {
	pp := PurePursuit{LookaheadDistance: 6, TrackWidth: 12}

	t.Run("empty path is done immediately", func(t *testing.T) {
		v, status := pp.Follow(nil).Step(testEpoch, tracking.Pose{})
		test.That(t, status, test.ShouldEqual, Done)
		test.That(t, v, test.ShouldResemble, drivetrain.Voltages{})
	})

	t.Run("straight path", func(t *testing.T) {
		task := pp.Follow([]Waypoint{
			{Position: spatialmath.NewVec2(24, 0), Velocity: 6},
			{Position: spatialmath.NewVec2(48, 0), Velocity: 4},
		})
		v, status := task.Step(testEpoch, tracking.Pose{})
		test.That(t, status, test.ShouldEqual, Continue)
		test.That(t, v.Left, test.ShouldAlmostEqual, 6)
		test.That(t, v.Right, test.ShouldAlmostEqual, 6)
		test.That(t, task.LookaheadPoint().X, test.ShouldAlmostEqual, 6)

		u := &unicycle{trackWidth: 12, scale: 4}
		simulate(t, pp.Follow([]Waypoint{
			{Position: spatialmath.NewVec2(24, 0), Velocity: 6},
			{Position: spatialmath.NewVec2(48, 0), Velocity: 4},
		}), u, 5000)
		test.That(t, u.pose.Position.X, test.ShouldBeGreaterThan, 42)
		test.That(t, u.pose.Position.Y, test.ShouldAlmostEqual, 0, 1e-6)
	})

	t.Run("steers onto a path to the left", func(t *testing.T) {
		task := PurePursuit{LookaheadDistance: 12, TrackWidth: 12}.Follow([]Waypoint{
			{Position: spatialmath.NewVec2(0, 10), Velocity: 6},
			{Position: spatialmath.NewVec2(30, 10), Velocity: 6},
		})
		v, status := task.Step(testEpoch, tracking.Pose{})
		test.That(t, status, test.ShouldEqual, Continue)
		test.That(t, v.Right, test.ShouldBeGreaterThan, v.Left)
		// skipped the first waypoint, which was already inside the lookahead circle
		test.That(t, task.LookaheadPoint().Y, test.ShouldAlmostEqual, 10)
		test.That(t, task.LookaheadPoint().X, test.ShouldAlmostEqual, 6.6332495807, 1e-6)
	})

	t.Run("follows a turn", func(t *testing.T) {
		u := &unicycle{trackWidth: 12, scale: 4}
		path := []Waypoint{
			{Position: spatialmath.NewVec2(30, 0), Velocity: 8},
			{Position: spatialmath.NewVec2(30, 30), Velocity: 8},
			{Position: spatialmath.NewVec2(30, 60), Velocity: 4},
		}
		simulate(t, PurePursuit{LookaheadDistance: 8, TrackWidth: 12}.Follow(path), u, 10000)
		test.That(t, u.pose.Position.Distance(spatialmath.NewVec2(30, 60)), test.ShouldBeLessThan, 8)
		test.That(t, u.pose.Heading.Degrees(), test.ShouldAlmostEqual, 90, 15)
	})

	t.Run("parsed path", func(t *testing.T) {
		waypoints, err := ParseWaypoints(strings.NewReader("24,0,6\n48,0,6\nendData\n"))
		test.That(t, err, test.ShouldBeNil)
		u := &unicycle{trackWidth: 12, scale: 4}
		simulate(t, pp.Follow(waypoints), u, 5000)
		test.That(t, u.pose.Position.X, test.ShouldBeGreaterThan, 42)
	})
}

func TestParseWaypoints(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input := "0,0,6\n\n 12.5, -3 ,8\n24,0,0\nendData\n99,99,99\n"
		waypoints, err := ParseWaypoints(strings.NewReader(input))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, waypoints, test.ShouldResemble, []Waypoint{
			{Position: spatialmath.NewVec2(0, 0), Velocity: 6},
			{Position: spatialmath.NewVec2(12.5, -3), Velocity: 8},
			{Position: spatialmath.NewVec2(24, 0), Velocity: 0},
		})
	})

	t.Run("empty path", func(t *testing.T) {
		waypoints, err := ParseWaypoints(strings.NewReader("endData"))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, waypoints, test.ShouldBeEmpty)
	})

	for _, tc := range []struct {
		name   string
		input  string
		errStr string
	}{
		{"missing sentinel", "0,0,6\n", "endData"},
		{"wrong field count", "0,0\nendData\n", "line 1"},
		{"bad number", "0,0,6\n1,x,6\nendData\n", "line 2"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWaypoints(strings.NewReader(tc.input))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errStr)
		})
	}
}
