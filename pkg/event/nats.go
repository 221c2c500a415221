package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/reqid"
)

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// NATSPublisher forwards bus events to NATS core subjects. Each event goes
// to "<prefix>.<event name>", e.g. "products.product.created", so
// subscribers can filter with wildcards.
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
}

// NewNATSPublisher connects to url. The client reconnects forever in the
// background; publishes during an outage are buffered by the client.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("event: nats: no url configured")
	}
	nc, err := nats.Connect(url,
		nats.Name("productd"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("event: nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("event: nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("event: nats connect: %w", err)
	}
	return newNATSPublisher(nc, prefix), nil
}

func newNATSPublisher(conn msgPublisher, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = "products"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(name string) string {
	return p.prefix + "." + name
}

// Handle is a bus Handler.
func (p *NATSPublisher) Handle(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.WithCtx(ctx).Error("event: nats encode", "event", e.Name, "error", err)
		return
	}

	msg := nats.NewMsg(p.Subject(e.Name))
	msg.Data = data
	msg.Header.Set("Event", e.Name)
	if id := reqid.FromCtx(ctx); id != "" {
		msg.Header.Set(reqid.Header, id)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		metrics.EventsPublished.WithLabelValues("nats", "failed").Inc()
		logger.WithCtx(ctx).Error("event: nats publish", "event", e.Name, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues("nats", "ok").Inc()
}

// Close flushes buffered messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
