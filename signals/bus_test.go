package signals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gamification/pkg/types"
)

func TestBus_PublishDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var calls []string
	bus.Subscribe(types.TopicBadgeEarned, func(context.Context, any) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(types.TopicBadgeEarned, func(context.Context, any) error {
		calls = append(calls, "second")
		return nil
	})
	bus.Subscribe(types.TopicStreakBroken, func(context.Context, any) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), types.TopicBadgeEarned, nil))
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestBus_HandlerErrorsDoNotStopDelivery(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	delivered := false
	bus.Subscribe("t", func(context.Context, any) error { return boom })
	bus.Subscribe("t", func(context.Context, any) error { panic("nope") })
	bus.Subscribe("t", func(context.Context, any) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), "t", 1)
	require.ErrorIs(t, err, boom)
	require.True(t, delivered)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe("t", func(context.Context, any) error {
		count++
		return nil
	})
	require.NoError(t, bus.Publish(context.Background(), "t", nil))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), "t", nil))
	require.Equal(t, 1, count)
}

func TestBus_AllTopicsAndTypedPublish(t *testing.T) {
	bus := NewBus()
	var got []any
	bus.Subscribe(AllTopics, func(_ context.Context, payload any) error {
		got = append(got, payload)
		return nil
	})

	signal := types.StreakMilestoneSignal{UserID: uuid.New(), Milestone: 7}
	require.NoError(t, Publish(context.Background(), bus, signal))
	require.Len(t, got, 1)
	require.Equal(t, signal, got[0])
}

func TestBus_SubscribeAsync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus()
	var (
		mu  sync.Mutex
		got []any
	)
	done := make(chan struct{})
	bus.SubscribeAsync(ctx, "t", 4, func(_ context.Context, payload any) error {
		mu.Lock()
		got = append(got, payload)
		n := len(got)
		mu.Unlock()
		if n == 2 {
			close(done)
		}
		return nil
	})

	require.NoError(t, bus.Publish(ctx, "t", "a"))
	require.NoError(t, bus.Publish(ctx, "t", "b"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler did not receive payloads")
	}
	mu.Lock()
	require.Equal(t, []any{"a", "b"}, got)
	mu.Unlock()
}

func TestBus_PublishRespectsCancelledContext(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bus.Publish(ctx, "t", nil), context.Canceled)
}
