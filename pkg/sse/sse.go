// Package sse streams product change events as Server-Sent Events.
//
//	feed := sse.NewBroker()
//	bus.ListenAll(feed.Handle)
//	router.Handle(http.MethodGet, "/events/products", "products.events", feed)
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/productd/pkg/event"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/metrics"
)

const (
	heartbeat  = 15 * time.Second
	sendBuffer = 64
)

// Stream is one open SSE response.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// Open writes the SSE headers and clears the server write deadline so the
// stream can outlive http.Server.WriteTimeout.
func Open(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)

	_ = rc.SetWriteDeadline(time.Time{})
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("sse: flush: %w", err)
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes a named event whose data is v encoded as JSON.
func (s *Stream) Send(name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	return s.write(frame(name, payload))
}

// Comment writes a comment line; clients ignore it. Used as a keepalive.
func (s *Stream) Comment(msg string) error {
	return s.write([]byte(": " + msg + "\n\n"))
}

func (s *Stream) write(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	return s.rc.Flush()
}

func frame(name string, data []byte) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, data))
}

// Broker fans bus events out to every open stream. A subscriber that falls
// behind misses events rather than stalling the publisher.
type Broker struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan []byte]struct{})}
}

// Handle is an event.Handler.
func (b *Broker) Handle(ctx context.Context, e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.WithCtx(ctx).Error("sse: encode event", "event", e.Name, "error", err)
		return
	}
	msg := frame(e.Name, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
			metrics.EventsPublished.WithLabelValues("sse", "ok").Inc()
		default:
			metrics.EventsPublished.WithLabelValues("sse", "dropped").Inc()
		}
	}
}

// Subscribers returns the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker) subscribe() chan []byte {
	ch := make(chan []byte, sendBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.FeedClients.WithLabelValues("sse").Inc()
	return ch
}

func (b *Broker) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	metrics.FeedClients.WithLabelValues("sse").Dec()
}

// ServeHTTP holds the response open and streams events until the client
// goes away.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := Open(w)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("sse: stream not supported", "error", err)
		return
	}

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	t := time.NewTicker(heartbeat)
	defer t.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			if err := s.write(msg); err != nil {
				return
			}
		case <-t.C:
			if err := s.Comment("keepalive"); err != nil {
				return
			}
		}
	}
}
