// Package cli contains the drivesim command line application.
package cli

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Global flags.
	flagDebug = "debug"

	// Run flags.
	flagConfig   = "config"
	flagTask     = "task"
	flagDistance = "distance"
	flagHeading  = "heading"
	flagTarget   = "target"
	flagLead     = "lead"
	flagReverse  = "reverse"
	flagPath     = "path"
	flagCurve    = "curve"
	flagWatch    = "watch"

	// Trajectory flags.
	flagSpacing         = "spacing"
	flagMaxVelocity     = "max-velocity"
	flagMaxAcceleration = "max-acceleration"
	flagMaxDeceleration = "max-deceleration"
	flagFriction        = "friction"
	flagTrackWidth      = "track-width"
	flagPlot            = "plot"
)

// NewApp returns a new app with the drivesim commands, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "drivesim",
		Usage:           "drive a simulated differential robot and inspect motion profiles",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a motion against the simulated robot",
				UsageText: "drivesim run --config <config.json> --task <task> [task flags]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load robot, tracking and controller configuration from `FILE`",
					},
					&cli.StringFlag{
						Name:     flagTask,
						Required: true,
						Usage:    "motion to run: drive, turn, turn-to-point, move-to-point, boomerang, pursuit or ramsete",
					},
					&cli.Float64Flag{
						Name:  flagDistance,
						Usage: "distance in inches for drive",
					},
					&cli.Float64Flag{
						Name:  flagHeading,
						Usage: "heading in degrees for drive, turn and boomerang",
					},
					&cli.StringFlag{
						Name:  flagTarget,
						Usage: "target point as x,y for the point seeking motions",
					},
					&cli.Float64Flag{
						Name:  flagLead,
						Value: 0.5,
						Usage: "carrot lead for boomerang",
					},
					&cli.BoolFlag{
						Name:  flagReverse,
						Usage: "drive backwards for move-to-point",
					},
					&cli.StringFlag{
						Name:  flagPath,
						Usage: "waypoint `FILE` for pursuit",
					},
					&cli.StringFlag{
						Name:  flagCurve,
						Usage: "bezier control points x0,y0;x1,y1;x2,y2;x3,y3 for ramsete",
					},
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "reload controller gains and log levels when the config file changes",
					},
				},
				Action: RunAction,
			},
			{
				Name:      "trajectory",
				Usage:     "generate a trajectory along a bezier curve and summarize it",
				UsageText: "drivesim trajectory --curve x0,y0;x1,y1;x2,y2;x3,y3 [--plot out.png]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagCurve,
						Required: true,
						Usage:    "bezier control points x0,y0;x1,y1;x2,y2;x3,y3",
					},
					&cli.Float64Flag{
						Name:  flagSpacing,
						Value: 0.5,
						Usage: "distance between trajectory points in inches",
					},
					&cli.Float64Flag{
						Name:  flagMaxVelocity,
						Value: 60,
						Usage: "maximum velocity in in/s",
					},
					&cli.Float64Flag{
						Name:  flagMaxAcceleration,
						Value: 120,
						Usage: "maximum acceleration in in/s^2",
					},
					&cli.Float64Flag{
						Name:  flagMaxDeceleration,
						Value: 120,
						Usage: "maximum deceleration in in/s^2",
					},
					&cli.Float64Flag{
						Name:  flagFriction,
						Value: 1,
						Usage: "coefficient of friction between the wheels and the floor",
					},
					&cli.Float64Flag{
						Name:  flagTrackWidth,
						Value: 12,
						Usage: "track width in inches",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "write a velocity profile plot to `FILE` as png",
					},
				},
				Action: TrajectoryAction,
			},
			{
				Name:      "path",
				Usage:     "parse a pure pursuit waypoint file and summarize it",
				ArgsUsage: "<waypoint file>",
				Action:    PathAction,
			},
		},
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func infof(w io.Writer, format string, a ...interface{}) {
	printf(w, "Info: "+format, a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, "Warning: "+format, a...)
}
