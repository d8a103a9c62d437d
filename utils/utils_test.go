package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/drivecontrol/logging"
)

func TestStoppableWorkers(t *testing.T) {
	var ran atomic.Int32
	workers := NewStoppableWorkers(func(ctx context.Context) {
		ran.Add(1)
		<-ctx.Done()
	})
	workers.AddWorkers(func(ctx context.Context) {
		ran.Add(1)
		<-ctx.Done()
	})
	for ran.Load() < 2 {
		time.Sleep(time.Millisecond)
	}
	workers.Stop()
	test.That(t, workers.Context().Err(), test.ShouldNotBeNil)

	// Adding after Stop is a no-op.
	workers.AddWorkers(func(ctx context.Context) { ran.Add(1) })
	test.That(t, ran.Load(), test.ShouldEqual, int32(2))
}

func TestStoppableWorkersParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	workers := NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()
	<-done
	workers.Stop()
}

func TestMath(t *testing.T) {
	test.That(t, Clamp(13, -12, 12), test.ShouldEqual, 12.0)
	test.That(t, Clamp(-13, -12, 12), test.ShouldEqual, -12.0)
	test.That(t, Clamp(3, -12, 12), test.ShouldEqual, 3.0)

	test.That(t, Signum(-2), test.ShouldEqual, -1.0)
	test.That(t, Signum(0), test.ShouldEqual, 0.0)
	test.That(t, Signum(5), test.ShouldEqual, 1.0)
	test.That(t, SignOf(0), test.ShouldEqual, 1.0)
	test.That(t, SignOf(-0.1), test.ShouldEqual, -1.0)

	test.That(t, RadToDeg(DegToRad(90)), test.ShouldAlmostEqual, 90.0)
	test.That(t, Float64AlmostEqual(1, 1.0000001, 1e-6), test.ShouldBeTrue)

	test.That(t, Desaturate([]float64{2, -1}, 1), test.ShouldResemble, []float64{1, -0.5})
	test.That(t, Desaturate([]float64{0.5, -1}, 1), test.ShouldResemble, []float64{0.5, -1})
}

func TestAttributeMap(t *testing.T) {
	attrs := AttributeMap{
		"kp":      "1.5",
		"ki":      2,
		"reset":   true,
		"name":    "turn",
		"timeout": "2s",
	}
	kp, err := attrs.Float64("kp", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kp, test.ShouldEqual, 1.5)

	ki, err := attrs.Float64("ki", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ki, test.ShouldEqual, 2.0)

	kd, err := attrs.Float64("kd", 0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kd, test.ShouldEqual, 0.25)

	_, err = attrs.Float64("name", 0)
	test.That(t, err, test.ShouldNotBeNil)

	reset, err := attrs.Bool("reset", false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reset, test.ShouldBeTrue)
	test.That(t, attrs.String("name"), test.ShouldEqual, "turn")
	test.That(t, attrs.Has("kd"), test.ShouldBeFalse)

	var decoded struct {
		Kp      float64       `json:"kp"`
		Ki      float64       `json:"ki"`
		Reset   bool          `json:"reset"`
		Name    string        `json:"name"`
		Timeout time.Duration `json:"timeout"`
	}
	test.That(t, attrs.Decode(&decoded), test.ShouldBeNil)
	test.That(t, decoded.Kp, test.ShouldEqual, 1.5)
	test.That(t, decoded.Ki, test.ShouldEqual, 2.0)
	test.That(t, decoded.Timeout, test.ShouldEqual, 2*time.Second)

	var tooSmall struct {
		Kp float64 `json:"kp"`
	}
	test.That(t, attrs.Decode(&tooSmall), test.ShouldNotBeNil)
}

func TestSlowLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mockClock := clock.NewMock()

	stop := SlowLogger(context.Background(), mockClock, "motion still running", "task", "turn", logger)
	defer stop()

	// Ticker goroutine must be waiting before time moves.
	time.Sleep(10 * time.Millisecond)
	mockClock.Add(2 * time.Second)
	for logs.Len() == 0 {
		time.Sleep(time.Millisecond)
	}
	entry := logs.All()[0]
	test.That(t, entry.Message, test.ShouldEqual, "motion still running")
	test.That(t, entry.ContextMap()["task"], test.ShouldEqual, "turn")
	test.That(t, entry.ContextMap()["time_elapsed"], test.ShouldEqual, "2s")
}
