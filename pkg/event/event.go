// pkg/event/event.go
// Package event provides a simple publish-subscribe event bus for decoupled communication.
package event

import (
	"context"
	"sync"
)

// Handler is a function that handles an event.
type Handler func(ctx context.Context, data any)

// EventBus defines the interface for an event system.
type EventBus interface {
	Subscribe(event string, handler Handler)
	Publish(ctx context.Context, event string, data any)
	PublishAsync(ctx context.Context, event string, data any)
}

// Bus represents the event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	inflight    sync.WaitGroup
}

var _ EventBus = (*Bus)(nil)

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
	}
}

// Subscribe adds a handler for a specific event.
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[event] = append(b.subscribers[event], handler)
}

// Publish runs every handler subscribed to the event on the calling
// goroutine, in subscription order. Handlers may publish further events.
func (b *Bus) Publish(ctx context.Context, event string, data any) {
	for _, handler := range b.handlers(event) {
		handler(ctx, data)
	}
}

// PublishAsync triggers all handlers subscribed to the event, each on its own goroutine.
func (b *Bus) PublishAsync(ctx context.Context, event string, data any) {
	for _, handler := range b.handlers(event) {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			h(ctx, data)
		}(handler)
	}
}

// Wait blocks until every handler started by PublishAsync has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// HasSubscribers reports whether anyone listens for event.
func (b *Bus) HasSubscribers(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[event]) > 0
}

func (b *Bus) handlers(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler{}, b.subscribers[event]...) // copy to avoid race
}
