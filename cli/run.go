package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/motion"
	"go.viam.com/drivecontrol/sim"
	"go.viam.com/drivecontrol/tracking"
)

// trackingSampleInterval is how often the tracked pose is compared with the simulated truth.
const trackingSampleInterval = 20 * time.Millisecond

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("drivesim")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(flagDebug) {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

// RunAction is the corresponding action for 'run'.
func RunAction(c *cli.Context) error {
	cfgPath, err := filepath.Abs(c.String(flagConfig))
	if err != nil {
		return err
	}
	cfg, err := ReadConfig(cfgPath)
	if err != nil {
		return err
	}

	logger := newLogger(c)
	registry := logging.NewRegistry()
	sublogger := func(name string) logging.Logger {
		sub := logger.Sublogger(name)
		return registry.GetOrRegister(sub.Name(), sub)
	}
	// register every logger before the patterns apply
	simLogger, trackingLogger := sublogger("sim"), sublogger("tracking")
	controlLogger, motionLogger := sublogger("control"), sublogger("motion")
	if len(cfg.Log) > 0 {
		if err := registry.UpdateConfig(cfg.Log, logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	robot, err := sim.NewRobot(cfg.Robot, simLogger)
	if err != nil {
		return err
	}
	defer robot.Close()

	trackingCfg := robot.TrackingConfig(cfg.Tracking.UseGyro)
	trackingCfg.Period = cfg.Tracking.Period
	tracker, err := tracking.NewWheeled(ctx, trackingCfg, trackingLogger)
	if err != nil {
		return err
	}
	defer tracker.Close()

	ctrls, err := newControllers(cfg, controlLogger)
	if err != nil {
		return err
	}
	name := c.String(flagTask)
	task, err := buildTask(cfg, ctrls, taskOptions{
		name:     name,
		distance: c.Float64(flagDistance),
		heading:  c.Float64(flagHeading),
		target:   c.String(flagTarget),
		lead:     c.Float64(flagLead),
		reverse:  c.Bool(flagReverse),
		path:     c.String(flagPath),
		curve:    c.String(flagCurve),
	})
	if err != nil {
		return err
	}
	runner := motion.NewRunner(robot.Drivetrain(), tracker, motionLogger)

	var trackingErrors []float64
	done := make(chan struct{})
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		return runner.Run(gctx, name, task)
	})
	g.Go(func() error {
		ticker := clock.New().Ticker(trackingSampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
			trackingErrors = append(trackingErrors, tracker.Position().Distance(robot.State().Position))
		}
	})
	if c.Bool(flagWatch) {
		g.Go(func() error {
			return watchConfig(gctx, cfgPath, done, ctrls, registry, logger)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "%s did not finish", name)
	}

	printRunSummary(c.App.Writer, name, time.Since(start), robot.State(), tracker.Pose(), trackingErrors)
	return nil
}

func printRunSummary(
	w io.Writer,
	name string,
	elapsed time.Duration,
	truth sim.State,
	tracked tracking.Pose,
	trackingErrors []float64,
) {
	infof(w, "%s finished in %v", name, elapsed.Round(time.Millisecond))
	printf(w, "simulated: position (%.2f, %.2f) heading %.2f°",
		truth.Position.X, truth.Position.Y, truth.Heading.Degrees())
	printf(w, "tracked:   position (%.2f, %.2f) heading %.2f° travel %.2f",
		tracked.Position.X, tracked.Position.Y, tracked.Heading.Degrees(), tracked.ForwardTravel)
	if tracked.Halted {
		warningf(w, "tracking halted after losing every heading source")
	}
	if len(trackingErrors) == 0 {
		return
	}
	mean, _ := stats.Mean(trackingErrors)
	p95, _ := stats.Percentile(trackingErrors, 95)
	worst, _ := stats.Max(trackingErrors)
	printf(w, "tracking error: mean %.3f p95 %.3f max %.3f over %d samples",
		mean, p95, worst, len(trackingErrors))
}

// watchConfig reloads controller gains and log levels whenever the config file is written,
// until done is closed. The directory is watched so editors that replace the file are seen.
func watchConfig(
	ctx context.Context,
	path string,
	done <-chan struct{},
	ctrls *controllers,
	registry *logging.Registry,
	logger logging.Logger,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close() //nolint:errcheck
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reloadConfig(path, ctrls, registry, logger)
		}
	}
}

func reloadConfig(path string, ctrls *controllers, registry *logging.Registry, logger logging.Logger) {
	cfg, err := ReadConfig(path)
	if err != nil {
		logger.Warnw("ignoring invalid config", "path", path, "error", err)
		return
	}
	if err := ctrls.reconfigure(cfg); err != nil {
		logger.Warnw("failed to retune controllers", "error", err)
	}
	if len(cfg.Log) > 0 {
		if err := registry.UpdateConfig(cfg.Log, logger); err != nil {
			logger.Warnw("failed to apply log levels", "error", err)
		}
	}
	logger.Infow("reloaded config", "path", path)
}
