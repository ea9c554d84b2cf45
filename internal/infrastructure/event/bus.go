package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InMemoryEventBus implements EventBus with in-memory pub/sub.
// Handlers of one event run concurrently; Publish reports the first failure so
// the outbox can retry the entry.
type InMemoryEventBus struct {
	subs    *subscriptions
	logger  *zap.Logger
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subs:   newSubscriptions(),
		logger: logger,
	}
}

// Publish dispatches each event to its handlers and waits for all of them
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.wg.Add(1)
	defer b.wg.Done()

	for _, event := range events {
		handlers := b.subs.handlersFor(event.EventType())

		var g errgroup.Group
		for _, handler := range handlers {
			g.Go(func() error {
				err := b.dispatchToHandler(ctx, handler, event)
				if err != nil {
					b.logger.Error("handler failed to process event",
						zap.String("event_type", event.EventType()),
						zap.String("event_id", event.EventID().String()),
						zap.Error(err),
					)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types. With none given the
// handler's own EventTypes are used; an empty list there means every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the event bus
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started", zap.Strings("event_types", b.subs.eventTypes()))
	return nil
}

// Stop waits for in-flight publishes to finish
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.wg.Wait()
	b.logger.Info("event bus stopped")
	return nil
}

// dispatchToHandler turns a handler panic into an error
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
