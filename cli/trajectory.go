package cli

import (
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/drivecontrol/motion"
	"go.viam.com/drivecontrol/trajectory"
)

// TrajectoryAction is the corresponding action for 'trajectory'.
func TrajectoryAction(c *cli.Context) error {
	curve, err := parseCurve(c.String(flagCurve))
	if err != nil {
		return err
	}
	traj, err := trajectory.Generate(curve, c.Float64(flagSpacing), trajectory.Constraints{
		MaxVelocity:         c.Float64(flagMaxVelocity),
		MaxAcceleration:     c.Float64(flagMaxAcceleration),
		MaxDeceleration:     c.Float64(flagMaxDeceleration),
		FrictionCoefficient: c.Float64(flagFriction),
		TrackWidth:          c.Float64(flagTrackWidth),
	})
	if err != nil {
		return err
	}
	printTrajectorySummary(c.App.Writer, traj)

	if out := c.String(flagPlot); out != "" {
		if err := plotTrajectory(traj, out); err != nil {
			return err
		}
		infof(c.App.Writer, "wrote velocity profile to %s", out)
	}
	return nil
}

func printTrajectorySummary(w io.Writer, traj *trajectory.Trajectory) {
	velocities := traj.Velocities()
	curvatures := make([]float64, 0, traj.Len())
	for _, p := range traj.Points() {
		curvatures = append(curvatures, p.Curvature)
	}
	mean, _ := stats.Mean(velocities)
	median, _ := stats.Median(velocities)

	printf(w, "points:    %d at %.2f in spacing", traj.Len(), traj.Spacing())
	printf(w, "length:    %.2f in", traj.Length())
	printf(w, "duration:  %v", traj.Duration())
	printf(w, "velocity:  peak %.2f mean %.2f median %.2f in/s", traj.PeakVelocity(), mean, median)
	printf(w, "curvature: min %.4f max %.4f 1/in", floats.Min(curvatures), floats.Max(curvatures))
}

// plotTrajectory writes the linear and angular velocity profiles against distance as a png.
func plotTrajectory(traj *trajectory.Trajectory, out string) error {
	points := traj.Points()
	linear := make(plotter.XYs, len(points))
	angular := make(plotter.XYs, len(points))
	for i, p := range points {
		linear[i].X, linear[i].Y = p.Distance, p.LinearVelocity
		angular[i].X, angular[i].Y = p.Distance, p.AngularVelocity
	}

	p := plot.New()
	p.Title.Text = "Velocity profile"
	p.X.Label.Text = "distance (in)"
	p.Y.Label.Text = "velocity (in/s, rad/s)"
	p.Add(plotter.NewGrid())

	linearLine, err := plotter.NewLine(linear)
	if err != nil {
		return err
	}
	linearLine.LineStyle.Width = vg.Points(2)
	angularLine, err := plotter.NewLine(angular)
	if err != nil {
		return err
	}
	angularLine.LineStyle.Width = vg.Points(2)
	angularLine.LineStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(linearLine, angularLine)
	p.Legend.Add("linear", linearLine)
	p.Legend.Add("angular", angularLine)

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return errors.Wrap(err, "cannot create plot directory")
	}
	return errors.Wrap(p.Save(8*vg.Inch, 5*vg.Inch, out), "cannot save plot")
}

// PathAction is the corresponding action for 'path'.
func PathAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one waypoint file")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	waypoints, err := motion.ParseWaypoints(f)
	if err != nil {
		return err
	}
	if len(waypoints) == 0 {
		warningf(c.App.Writer, "%s has no waypoints", c.Args().First())
		return nil
	}

	segments := make([]float64, 0, len(waypoints)-1)
	velocities := make([]float64, 0, len(waypoints))
	for i, w := range waypoints {
		velocities = append(velocities, w.Velocity)
		if i > 0 {
			segments = append(segments, w.Position.Distance(waypoints[i-1].Position))
		}
	}
	printf(c.App.Writer, "waypoints: %d", len(waypoints))
	printf(c.App.Writer, "length:    %.2f", floats.Sum(segments))
	if len(segments) > 0 {
		longest, _ := stats.Max(segments)
		printf(c.App.Writer, "segment:   longest %.2f", longest)
	}
	low, _ := stats.Min(velocities)
	high, _ := stats.Max(velocities)
	mean, _ := stats.Mean(velocities)
	printf(c.App.Writer, "velocity:  min %.2f max %.2f mean %.2f", low, high, mean)
	return nil
}
