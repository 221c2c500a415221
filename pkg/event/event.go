// Package event dispatches in-process domain events to registered listeners.
//
//	bus := event.NewBus()
//	bus.Listen(event.ProductCreated, func(ctx context.Context, e event.Event) { ... })
//	bus.ListenAll(feed.Handle)
//	bus.Fire(ctx, event.ProductCreated, product)
package event

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/productd/pkg/logger"
)

// Product change events.
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// Event is what listeners receive.
type Event struct {
	Name       string      `json:"event"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Handler receives one event. Handlers run on the caller's goroutine and
// must not block.
type Handler func(ctx context.Context, e Event)

// Bus is a synchronous event dispatcher. The zero value is not usable; call
// NewBus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Listen registers h for one event name.
func (b *Bus) Listen(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// ListenAll registers h for every event.
func (b *Bus) ListenAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Fire dispatches to every matching listener. A panicking listener is logged
// and skipped; it never reaches the caller.
func (b *Bus) Fire(ctx context.Context, name string, payload interface{}) {
	if b == nil {
		return
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[name])+len(b.all))
	hs = append(hs, b.handlers[name]...)
	hs = append(hs, b.all...)
	b.mu.RUnlock()

	e := Event{Name: name, Payload: payload, OccurredAt: time.Now().UTC()}
	for _, h := range hs {
		dispatch(ctx, h, e)
	}
}

func dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", e.Name, "panic", r)
		}
	}()
	h(ctx, e)
}
