// Package signals provides the in-process event channel that carries inbound
// activity events to the engine and outbound signals to collaborators.
package signals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-gamification/pkg/types"
)

// AllTopics subscribes a handler to every published topic.
const AllTopics = "*"

const defaultAsyncBuffer = 128

type subscription struct {
	id      uint64
	handler types.Handler
}

// Bus is a best-effort publish/subscribe channel. Synchronous handlers run in
// registration order on the publishing goroutine; asynchronous handlers
// receive payloads through a buffered channel and miss payloads while full.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string][]subscription
	logger      types.Logger
}

// Option customizes the bus.
type Option func(*Bus)

// WithLogger sets the logger used for handler failures and drops.
func WithLogger(logger types.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus constructs an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[string][]subscription),
		logger:      types.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

var (
	_ types.Publisher  = (*Bus)(nil)
	_ types.Subscriber = (*Bus)(nil)
)

// Subscribe registers a synchronous handler and returns a function that
// removes it.
func (b *Bus) Subscribe(topic string, handler types.Handler) func() {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[topic] = append(b.subscribers[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// SubscribeAsync registers a handler served by its own goroutine until ctx is
// done. Payloads published while the buffer is full are dropped.
func (b *Bus) SubscribeAsync(ctx context.Context, topic string, buffer int, handler types.Handler) {
	if handler == nil {
		return
	}
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}
	type envelope struct {
		topic   string
		payload any
	}
	ch := make(chan envelope, buffer)
	unsubscribe := b.Subscribe(topic, func(_ context.Context, payload any) error {
		select {
		case ch <- envelope{topic: topic, payload: payload}:
		default:
			b.logger.Warn("dropping signal for slow subscriber", "topic", topic)
		}
		return nil
	})

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case env := <-ch:
				if err := handler(ctx, env.payload); err != nil {
					b.logger.Error("async signal handler failed", err, "topic", env.topic)
				}
			}
		}
	}()
}

// Publish delivers payload to the topic subscribers and to AllTopics
// subscribers. Handler failures are logged and joined into the returned
// error; they never stop delivery to the remaining handlers.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[topic]...)
	if topic != AllTopics {
		subs = append(subs, b.subscribers[AllTopics]...)
	}
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := safeInvoke(ctx, sub.handler, payload); err != nil {
			b.logger.Error("signal handler failed", err, "topic", topic)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish emits a typed signal on its own topic.
func Publish(ctx context.Context, pub types.Publisher, signal types.Signal) error {
	if pub == nil || signal == nil {
		return nil
	}
	return pub.Publish(ctx, signal.SignalTopic(), signal)
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.subscribers[topic]
	filtered := make([]subscription, 0, len(items))
	for _, item := range items {
		if item.id != id {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		delete(b.subscribers, topic)
		return
	}
	b.subscribers[topic] = filtered
}

func safeInvoke(ctx context.Context, handler types.Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signals: handler panic: %v", r)
		}
	}()
	return handler(ctx, payload)
}
