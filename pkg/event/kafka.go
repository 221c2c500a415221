package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/reqid"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards bus events to a Kafka topic. The writer runs in
// async mode so Handle never waits on the broker; delivery failures are
// logged and counted.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("event: kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				metrics.EventsPublished.WithLabelValues("kafka", "failed").Add(float64(len(msgs)))
				logger.Error("event: kafka delivery failed", "topic", topic, "messages", len(msgs), "error", err)
				return
			}
			metrics.EventsPublished.WithLabelValues("kafka", "ok").Add(float64(len(msgs)))
		},
	}
	return &KafkaPublisher{w: w}, nil
}

// Handle is a bus Handler. Messages are keyed by product id (when the
// payload has one) so every change to a product lands on one partition.
func (p *KafkaPublisher) Handle(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		logger.WithCtx(ctx).Error("event: kafka encode", "event", e.Name, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(e)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Name)},
		},
	}
	if id := reqid.FromCtx(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: reqid.Header, Value: []byte(id)})
	}

	// The request context may be cancelled before the async batch flushes.
	if err := p.w.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		metrics.EventsPublished.WithLabelValues("kafka", "failed").Inc()
		logger.WithCtx(ctx).Error("event: kafka enqueue", "event", e.Name, "error", err)
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type identified interface {
	GetID() uint
}

func messageKey(e Event) string {
	if v, ok := e.Payload.(identified); ok {
		return fmt.Sprintf("%d", v.GetID())
	}
	return e.Name
}
