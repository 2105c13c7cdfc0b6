package utils

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/rigsfm/logging"
)

func TestProgressLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	schedule := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	stop := progressLogger(context.Background(), "stage still running", "stage", "mapper", schedule, logger)
	for logs.FilterMessage("stage still running").Len() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	stop()
	count := logs.FilterMessage("stage still running").Len()
	time.Sleep(50 * time.Millisecond)
	test.That(t, logs.FilterMessage("stage still running").Len(), test.ShouldEqual, count)

	entry := logs.FilterMessage("stage still running").All()[0]
	test.That(t, entry.ContextMap()["stage"], test.ShouldEqual, "mapper")
	test.That(t, entry.ContextMap()["time_elapsed"], test.ShouldNotBeNil)
}

func TestProgressLoggerStopsWithContext(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	stop := ProgressLogger(ctx, "still running", "stage", "x", logger)
	cancel()
	stop()
	test.That(t, logs.Len(), test.ShouldEqual, 0)
}
