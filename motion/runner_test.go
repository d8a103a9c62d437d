package motion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/drivecontrol/components/drivetrain"
	"go.viam.com/drivecontrol/logging"
	"go.viam.com/drivecontrol/tracking"
)

type recordingTank struct {
	mu     sync.Mutex
	writes []drivetrain.Voltages
	err    error
}

func (r *recordingTank) SetVoltages(ctx context.Context, v drivetrain.Voltages) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, v)
	return r.err
}

func (r *recordingTank) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *recordingTank) last() drivetrain.Voltages {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return drivetrain.Voltages{}
	}
	return r.writes[len(r.writes)-1]
}

func (r *recordingTank) sawZero() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.writes {
		if w == (drivetrain.Voltages{}) {
			return true
		}
	}
	return false
}

type staticSource struct {
	pose tracking.Pose
}

func (s staticSource) Pose() tracking.Pose {
	return s.pose
}

// fixedTask outputs the same voltages every step, finishing after doneAfter steps when positive.
type fixedTask struct {
	voltages  drivetrain.Voltages
	doneAfter int

	mu    sync.Mutex
	steps int
	times []time.Time
}

func (f *fixedTask) Step(now time.Time, _ tracking.Pose) (drivetrain.Voltages, Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps++
	f.times = append(f.times, now)
	if f.doneAfter > 0 && f.steps >= f.doneAfter {
		return drivetrain.Voltages{Left: 99, Right: 99}, Done
	}
	return f.voltages, Continue
}

func (f *fixedTask) stepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps
}

// runAsync starts r.Run and returns a channel with its result.
func runAsync(ctx context.Context, r *Runner, name string, task Task) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx, name, task)
	}()
	return errCh
}

// tickUntil advances the mock clock one period at a time until cond holds.
func tickUntil(t *testing.T, mock *clock.Mock, cond func() bool) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if cond() {
			return
		}
		mock.Add(DefaultPeriod)
	}
	t.Fatal("condition never held")
}

func waitResult(t *testing.T, mock *clock.Mock, errCh <-chan error) error {
	t.Helper()
	var err error
	done := false
	tickUntil(t, mock, func() bool {
		select {
		case err = <-errCh:
			done = true
		default:
		}
		return done
	})
	return err
}

func TestRunnerRunsToCompletion(t *testing.T) {
	logger := logging.NewTestLogger(t)
	mock := clock.NewMock()
	tank := &recordingTank{}
	r := NewRunner(tank, staticSource{}, logger, WithClock(mock))

	task := &fixedTask{voltages: drivetrain.Voltages{Left: 3, Right: -3}, doneAfter: 4}
	errCh := runAsync(context.Background(), r, "fixed", task)
	test.That(t, waitResult(t, mock, errCh), test.ShouldBeNil)

	test.That(t, task.stepCount(), test.ShouldEqual, 4)
	test.That(t, tank.writes, test.ShouldResemble, []drivetrain.Voltages{
		{Left: 3, Right: -3},
		{Left: 3, Right: -3},
		{Left: 3, Right: -3},
		{},
	})
	for i := 1; i < len(task.times); i++ {
		test.That(t, task.times[i].Sub(task.times[i-1]), test.ShouldBeGreaterThanOrEqualTo, DefaultPeriod)
	}
	test.That(t, r.Running(), test.ShouldBeFalse)
	test.That(t, r.Operations(), test.ShouldBeEmpty)
}

func TestRunnerPeriod(t *testing.T) {
	mock := clock.NewMock()
	tank := &recordingTank{}
	r := NewRunner(tank, staticSource{}, logging.NewTestLogger(t), WithClock(mock), WithPeriod(20*time.Millisecond))

	task := &fixedTask{doneAfter: 2}
	errCh := runAsync(context.Background(), r, "fixed", task)
	test.That(t, waitResult(t, mock, errCh), test.ShouldBeNil)
	test.That(t, task.times[1].Sub(task.times[0]), test.ShouldBeGreaterThanOrEqualTo, 20*time.Millisecond)
}

func TestRunnerCancel(t *testing.T) {
	for _, tc := range []struct {
		name     string
		policy   StopPolicy
		wantLast drivetrain.Voltages
	}{
		{"stop", StopOnCancel, drivetrain.Voltages{}},
		{"hold", HoldOnCancel, drivetrain.Voltages{Left: 5, Right: 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mock := clock.NewMock()
			tank := &recordingTank{}
			r := NewRunner(tank, staticSource{}, logging.NewTestLogger(t), WithClock(mock), WithStopPolicy(tc.policy))

			ctx, cancel := context.WithCancel(context.Background())
			task := &fixedTask{voltages: drivetrain.Voltages{Left: 5, Right: 5}}
			errCh := runAsync(ctx, r, "forever", task)

			tickUntil(t, mock, func() bool { return tank.count() >= 3 })
			test.That(t, r.Running(), test.ShouldBeTrue)
			ops := r.Operations()
			test.That(t, len(ops), test.ShouldEqual, 1)
			test.That(t, ops[0].Method, test.ShouldEqual, "forever")

			cancel()
			err := <-errCh
			test.That(t, err, test.ShouldBeError, context.Canceled)
			test.That(t, tank.last(), test.ShouldResemble, tc.wantLast)
			test.That(t, r.Running(), test.ShouldBeFalse)
		})
	}
}

func TestRunnerCancelByID(t *testing.T) {
	mock := clock.NewMock()
	tank := &recordingTank{}
	r := NewRunner(tank, staticSource{}, logging.NewTestLogger(t), WithClock(mock))

	test.That(t, r.Cancel("not-running"), test.ShouldBeFalse)

	task := &fixedTask{voltages: drivetrain.Voltages{Left: 4, Right: 4}}
	errCh := runAsync(context.Background(), r, "forever", task)
	tickUntil(t, mock, func() bool { return tank.count() >= 2 })

	ops := r.Operations()
	test.That(t, len(ops), test.ShouldEqual, 1)
	test.That(t, r.Cancel(ops[0].ID.String()), test.ShouldBeTrue)
	test.That(t, <-errCh, test.ShouldBeError, context.Canceled)
	test.That(t, tank.last(), test.ShouldResemble, drivetrain.Voltages{})
	test.That(t, r.Operations(), test.ShouldBeEmpty)
	test.That(t, r.Cancel(ops[0].ID.String()), test.ShouldBeFalse)
}

func TestRunnerPreemption(t *testing.T) {
	mock := clock.NewMock()
	tank := &recordingTank{}
	r := NewRunner(tank, staticSource{}, logging.NewTestLogger(t), WithClock(mock))

	first := &fixedTask{voltages: drivetrain.Voltages{Left: 1, Right: 1}}
	firstErr := runAsync(context.Background(), r, "first", first)
	tickUntil(t, mock, func() bool { return first.stepCount() >= 2 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	second := &fixedTask{voltages: drivetrain.Voltages{Left: 2, Right: 2}}
	secondErr := runAsync(ctx, r, "second", second)

	test.That(t, <-firstErr, test.ShouldBeError, context.Canceled)
	tickUntil(t, mock, func() bool { return second.stepCount() >= 2 })

	// the preempted motion must not stop the one that replaced it
	test.That(t, tank.sawZero(), test.ShouldBeFalse)
	test.That(t, tank.last(), test.ShouldResemble, drivetrain.Voltages{Left: 2, Right: 2})
	test.That(t, r.Running(), test.ShouldBeTrue)

	test.That(t, r.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, <-secondErr, test.ShouldBeError, context.Canceled)
	test.That(t, tank.last(), test.ShouldResemble, drivetrain.Voltages{})
	test.That(t, r.Running(), test.ShouldBeFalse)
}

func TestRunnerWriteErrors(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	tank := &recordingTank{err: errors.New("motor unplugged")}
	r := NewRunner(tank, staticSource{}, logger, WithClock(mock))

	task := &fixedTask{voltages: drivetrain.Voltages{Left: 1, Right: 1}, doneAfter: 3}
	errCh := runAsync(context.Background(), r, "unplugged", task)
	test.That(t, waitResult(t, mock, errCh), test.ShouldBeNil)
	test.That(t, task.stepCount(), test.ShouldEqual, 3)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		test.That(tb, logs.FilterMessage("drivetrain write failed").Len(), test.ShouldEqual, 3)
	})
	failed := logs.FilterMessage("drivetrain write failed").All()
	test.That(t, failed[0].ContextMap()["motion"], test.ShouldEqual, "unplugged")
	test.That(t, failed[0].ContextMap()["id"], test.ShouldNotBeEmpty)
}

func TestRunnerEndToEnd(t *testing.T) {
	mock := clock.NewMock()
	robot := &stubRobot{}
	r := NewRunner(robot, robot, logging.NewTestLogger(t), WithClock(mock))

	errCh := runAsync(context.Background(), r, "drive", testBasic().DriveDistanceAtHeading(24, 0))
	test.That(t, waitResult(t, mock, errCh), test.ShouldBeNil)
	test.That(t, robot.Pose().ForwardTravel, test.ShouldAlmostEqual, 24)
	test.That(t, robot.last, test.ShouldResemble, drivetrain.Voltages{})
}

// stubRobot advances its forward travel by a fixed increment for every forward command.
type stubRobot struct {
	mu   sync.Mutex
	pose tracking.Pose
	last drivetrain.Voltages
}

func (s *stubRobot) SetVoltages(ctx context.Context, v drivetrain.Voltages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = v
	if v.Left > 0 && v.Right > 0 {
		s.pose.ForwardTravel += 0.5
		s.pose.LinearVelocity = 0.5 / DefaultPeriod.Seconds()
	} else {
		s.pose.LinearVelocity = 0
	}
	return nil
}

func (s *stubRobot) Pose() tracking.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}
