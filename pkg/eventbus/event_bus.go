// Package eventbus provides the in-process publish/subscribe registry connecting event producers
// to rule evaluation and external subscribers.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saviser/automation/pkg/events"
)

// EventHandler receives a published event. The ctx is tied to the dispatch that delivered the
// event: publish nested events with it to have them handled inline, and do not hand it to
// goroutines that outlive the handler.
type EventHandler func(ctx context.Context, event events.Event) error

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler EventHandler)
}

// Bus dispatches synchronously, in registration order. A failing handler is logged and does not
// stop the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[events.EventType][]EventHandler),
		logger:   logger.With("module", "eventbus"),
	}
}

func (b *Bus) Subscribe(eventType events.EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *Bus) Publish(ctx context.Context, event events.Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for i, handler := range handlers {
		if err := b.invoke(ctx, handler, event); err != nil {
			b.logger.ErrorContext(ctx, "Event handler failed",
				"event_type", event.Type,
				"handler", i,
				"error", err)
		}
	}
}

// Subscribers returns the number of handlers registered for eventType.
func (b *Bus) Subscribers(eventType events.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[eventType])
}

// Reset drops every subscription.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = make(map[events.EventType][]EventHandler)
}

func (b *Bus) invoke(ctx context.Context, handler EventHandler, event events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return handler(ctx, event)
}
