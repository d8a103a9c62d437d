package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/drivecontrol/logging"
)

// SlowLogger starts a goroutine that warns after 2s and then every 5s as long as the context has
// not been cancelled and the returned function has not been called.
func SlowLogger(
	ctx context.Context, clk clock.Clock, msg, fieldName, fieldVal string, logger logging.Logger,
) func() {
	slowTicker := clk.Ticker(2 * time.Second)
	firstTick := true

	ctxWithCancel, cancel := context.WithCancel(ctx)
	startTime := clk.Now()
	go func() {
		for {
			select {
			case <-slowTicker.C:
				elapsed := clk.Since(startTime).Round(time.Second).String()
				logger.Warnw(msg, fieldName, fieldVal, "time_elapsed", elapsed)
				if firstTick {
					slowTicker.Reset(5 * time.Second)
					firstTick = false
				}
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() { slowTicker.Stop(); cancel() }
}
