package command

import (
	"context"
	"time"

	"github.com/goliatone/go-gamification/pkg/types"
	"github.com/goliatone/go-gamification/signals"
)

const defaultBatchSize = 500

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safePublisher(pub types.Publisher) types.Publisher {
	if pub != nil {
		return pub
	}
	return types.NopPublisher{}
}

func safeLocation(loc *time.Location) *time.Location {
	if loc != nil {
		return loc
	}
	return time.UTC
}

func safeBatchSize(size int) int {
	if size > 0 {
		return size
	}
	return defaultBatchSize
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

// emitSignal publishes best effort; failures are logged and never returned.
func emitSignal(ctx context.Context, pub types.Publisher, logger types.Logger, signal types.Signal) {
	if err := signals.Publish(ctx, pub, signal); err != nil {
		logger.Error("signal publish failed", err, "topic", signal.SignalTopic())
	}
}
