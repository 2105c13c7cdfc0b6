package utils

import (
	"context"
	"time"

	"go.viam.com/rigsfm/logging"
)

// ProgressSchedule is the delay before each "still running" message. The last delay repeats.
var ProgressSchedule = []time.Duration{30 * time.Second, time.Minute, 5 * time.Minute}

// ProgressLogger starts a goroutine that logs msg with the elapsed time on ProgressSchedule until
// the returned stop function is called or ctx is done.
func ProgressLogger(ctx context.Context, msg, fieldName string, fieldVal interface{}, logger logging.Logger) func() {
	return progressLogger(ctx, msg, fieldName, fieldVal, ProgressSchedule, logger)
}

func progressLogger(
	ctx context.Context,
	msg, fieldName string,
	fieldVal interface{},
	schedule []time.Duration,
	logger logging.Logger,
) func() {
	ctxWithCancel, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	startTime := time.Now()
	go func() {
		defer close(done)
		timer := time.NewTimer(schedule[0])
		defer timer.Stop()
		for tick := 1; ; tick++ {
			select {
			case <-timer.C:
				elapsed := time.Since(startTime).Round(time.Second).String()
				logger.Infow(msg, fieldName, fieldVal, "time_elapsed", elapsed)
				timer.Reset(schedule[min(tick, len(schedule)-1)])
			case <-ctxWithCancel.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
