package events

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Bus dispatches events to the handlers registered for their type.
type Bus struct {
	handlers map[EventType][]Registration
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewBus creates an empty event bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Registration),
		logger:   logger.Named("event_bus"),
	}
}

// Register adds a handler for eventType. Handlers run in registration order.
func (b *Bus) Register(eventType EventType, name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], Registration{
		Type:    eventType,
		Name:    name,
		Handler: handler,
	})

	b.logger.Debug("Registered event handler",
		zap.String("event", eventType.String()),
		zap.String("handler", name))
}

// RegisterConsumer adds every handler returned by the consumer.
// Returns the number of registered handlers.
func (b *Bus) RegisterConsumer(consumer Consumer) int {
	registrations := consumer.RegisterConsumers()
	for _, reg := range registrations {
		b.Register(reg.Type, reg.Name, reg.Handler)
	}

	return len(registrations)
}

// Handlers returns the names of the handlers registered for eventType in call order.
func (b *Bus) Handlers(eventType EventType) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers[eventType]))
	for _, reg := range b.handlers[eventType] {
		names = append(names, reg.Name)
	}

	return names
}

// Publish invokes every handler registered for the event type in order.
// A handler error or panic is logged and the remaining handlers still run.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	registrations := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(registrations) == 0 {
		b.logger.Debug("No handlers for event", zap.String("event", event.Type.String()))
		return
	}

	for _, reg := range registrations {
		b.invoke(ctx, reg, event)
	}
}

// Reset removes every registration.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers = make(map[EventType][]Registration)
}

func (b *Bus) invoke(ctx context.Context, reg Registration, event Event) {
	var err error

	recovered := panics.Try(func() {
		err = reg.Handler(ctx, event)
	})

	switch {
	case recovered != nil:
		b.logger.Error("Event handler panicked",
			zap.String("event", event.Type.String()),
			zap.String("handler", reg.Name),
			zap.String("panic", recovered.String()))
	case err != nil:
		b.logger.Error("Event handler failed",
			zap.String("event", event.Type.String()),
			zap.String("handler", reg.Name),
			zap.Error(err))
	}
}
