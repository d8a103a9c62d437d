package cli

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"go.viam.com/drivecontrol/control"
	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/motion"
	"go.viam.com/drivecontrol/sim"
	"go.viam.com/drivecontrol/spatialmath"
	"go.viam.com/drivecontrol/trajectory"
)

// Config is the drivesim run configuration.
type Config struct {
	Robot    sim.Config     `json:"robot"`
	Tracking TrackingConfig `json:"tracking"`

	Linear            control.ControllerConfig `json:"linear"`
	Angular           control.ControllerConfig `json:"angular"`
	LinearTolerances  control.TolerancesConfig `json:"linear_tolerances"`
	AngularTolerances control.TolerancesConfig `json:"angular_tolerances"`
	// Timeout bounds each motion. Zero means no timeout.
	Timeout time.Duration `json:"timeout,omitempty"`
	// CloseRadius for the point seeking motions. Zero means motion.DefaultCloseRadius.
	CloseRadius float64 `json:"close_radius,omitempty"`

	Pursuit     PursuitConfig          `json:"pursuit"`
	Ramsete     RamseteConfig          `json:"ramsete"`
	Constraints trajectory.Constraints `json:"constraints"`

	Log []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// TrackingConfig selects the sensors the tracker fuses.
type TrackingConfig struct {
	UseGyro bool          `json:"use_gyro"`
	Period  time.Duration `json:"period,omitempty"`
}

// PursuitConfig configures pure pursuit.
type PursuitConfig struct {
	LookaheadDistance float64 `json:"lookahead_distance"`
}

// RamseteConfig configures the ramsete follower.
type RamseteConfig struct {
	B           float64                   `json:"b"`
	Zeta        float64                   `json:"zeta"`
	Spacing     float64                   `json:"spacing"`
	Feedforward control.FeedforwardConfig `json:"feedforward"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	err = multierr.Append(err, cfg.Robot.Validate(path+".robot"))
	err = multierr.Append(err, cfg.LinearTolerances.Validate(path+".linear_tolerances"))
	err = multierr.Append(err, cfg.AngularTolerances.Validate(path+".angular_tolerances"))
	if cfg.Linear.Type == "" {
		err = multierr.Append(err, errors.Errorf("%s.linear: controller type is required", path))
	}
	if cfg.Angular.Type == "" {
		err = multierr.Append(err, errors.Errorf("%s.angular: controller type is required", path))
	}
	if cfg.Timeout < 0 {
		err = multierr.Append(err, errors.Errorf("%s: timeout cannot be negative", path))
	}
	if cfg.Tracking.Period < 0 {
		err = multierr.Append(err, errors.Errorf("%s.tracking: period cannot be negative", path))
	}
	if cfg.Pursuit.LookaheadDistance < 0 {
		err = multierr.Append(err, errors.Errorf("%s.pursuit: lookahead_distance cannot be negative", path))
	}
	if cfg.Ramsete.Spacing < 0 {
		err = multierr.Append(err, errors.Errorf("%s.ramsete: spacing cannot be negative", path))
	}
	return err
}

// ReadConfig reads and validates a Config from a JSON file.
func ReadConfig(path string) (*Config, error) {
	rd, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(rd, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (spatialmath.Vec2, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 2 {
		return spatialmath.Vec2{}, errors.Errorf("expected x,y but got %q", s)
	}
	x, err := cast.ToFloat64E(strings.TrimSpace(fields[0]))
	if err != nil {
		return spatialmath.Vec2{}, errors.Wrapf(err, "point %q", s)
	}
	y, err := cast.ToFloat64E(strings.TrimSpace(fields[1]))
	if err != nil {
		return spatialmath.Vec2{}, errors.Wrapf(err, "point %q", s)
	}
	return spatialmath.NewVec2(x, y), nil
}

// parseCurve parses four control points separated by semicolons into a cubic bezier.
func parseCurve(s string) (spatialmath.CubicBezier, error) {
	fields := strings.Split(s, ";")
	if len(fields) != 4 {
		return spatialmath.CubicBezier{}, errors.Errorf("expected 4 control points but got %d", len(fields))
	}
	var points [4]spatialmath.Vec2
	for i, field := range fields {
		p, err := parsePoint(field)
		if err != nil {
			return spatialmath.CubicBezier{}, err
		}
		points[i] = p
	}
	return spatialmath.NewCubicBezier(points[0], points[1], points[2], points[3]), nil
}

// controllers holds the controllers built from a Config so they can be retuned in place.
type controllers struct {
	linear, angular control.Controller
}

func newControllers(cfg *Config, logger logging.Logger) (*controllers, error) {
	linear, err := control.NewController(cfg.Linear, logger)
	if err != nil {
		return nil, errors.Wrap(err, "linear")
	}
	angular, err := control.NewController(cfg.Angular, logger)
	if err != nil {
		return nil, errors.Wrap(err, "angular")
	}
	return &controllers{linear: linear, angular: angular}, nil
}

func (c *controllers) reconfigure(cfg *Config) error {
	return multierr.Combine(
		control.Reconfigure(c.linear, cfg.Linear),
		control.Reconfigure(c.angular, cfg.Angular),
	)
}

// buildTask builds the motion named by the run flags.
func buildTask(cfg *Config, ctrls *controllers, opts taskOptions) (motion.Task, error) {
	basic := motion.Basic{
		Linear:            ctrls.linear,
		Angular:           ctrls.angular,
		LinearTolerances:  cfg.LinearTolerances.Tolerances(nil),
		AngularTolerances: cfg.AngularTolerances.Tolerances(nil),
		Timeout:           cfg.Timeout,
	}
	seeking := motion.Seeking{
		Linear:      ctrls.linear,
		Angular:     ctrls.angular,
		Tolerances:  basic.LinearTolerances,
		Timeout:     cfg.Timeout,
		CloseRadius: cfg.CloseRadius,
	}
	heading := spatialmath.FromDegrees(opts.heading)

	switch opts.name {
	case "drive":
		return basic.DriveDistanceAtHeading(opts.distance, heading), nil
	case "turn":
		return basic.TurnToHeading(heading), nil
	case "turn-to-point", "move-to-point", "boomerang":
		if opts.target == "" {
			return nil, errors.Errorf("--%s is required for %s", flagTarget, opts.name)
		}
		target, err := parsePoint(opts.target)
		if err != nil {
			return nil, err
		}
		switch opts.name {
		case "turn-to-point":
			return basic.TurnToPoint(target), nil
		case "move-to-point":
			return seeking.MoveToPoint(target, opts.reverse), nil
		default:
			return seeking.Boomerang(target, heading, opts.lead), nil
		}
	case "pursuit":
		if opts.path == "" {
			return nil, errors.Errorf("--%s is required for pursuit", flagPath)
		}
		f, err := os.Open(opts.path) //nolint:gosec
		if err != nil {
			return nil, err
		}
		defer f.Close() //nolint:errcheck
		waypoints, err := motion.ParseWaypoints(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", opts.path)
		}
		return motion.PurePursuit{
			LookaheadDistance: cfg.Pursuit.LookaheadDistance,
			TrackWidth:        cfg.Robot.TrackWidth,
			Timeout:           cfg.Timeout,
		}.Follow(waypoints), nil
	case "ramsete":
		if opts.curve == "" {
			return nil, errors.Errorf("--%s is required for ramsete", flagCurve)
		}
		curve, err := parseCurve(opts.curve)
		if err != nil {
			return nil, err
		}
		spacing := cfg.Ramsete.Spacing
		if spacing == 0 {
			spacing = 0.5
		}
		constraints := cfg.Constraints
		if constraints.TrackWidth == 0 {
			constraints.TrackWidth = cfg.Robot.TrackWidth
		}
		traj, err := trajectory.Generate(curve, spacing, constraints)
		if err != nil {
			return nil, err
		}
		ff, _, err := cfg.Ramsete.Feedforward.Feedforward()
		if err != nil {
			return nil, err
		}
		return motion.Ramsete{
			B:           cfg.Ramsete.B,
			Zeta:        cfg.Ramsete.Zeta,
			TrackWidth:  cfg.Robot.TrackWidth,
			Feedforward: ff,
			Timeout:     cfg.Timeout,
		}.Follow(traj), nil
	default:
		return nil, errors.Errorf("unknown task %q", opts.name)
	}
}

type taskOptions struct {
	name     string
	distance float64
	heading  float64
	target   string
	lead     float64
	reverse  bool
	path     string
	curve    string
}
