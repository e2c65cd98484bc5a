// Package events publishes order lifecycle events to Kafka for
// downstream consumers (analytics, notifications). Publishing is best
// effort: a broker outage never fails the customer-facing request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"dashmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// EventType labels an order lifecycle event.
type EventType string

const (
	OrderCreated       EventType = "order.created"
	OrderStatusChanged EventType = "order.status_changed"
	OrderAssigned      EventType = "order.assigned"
	OrderDelivered     EventType = "order.delivered"
	OrderCancelled     EventType = "order.cancelled"
)

// OrderEvent is the envelope written to the order event topic, keyed by
// order id so per-order ordering is preserved within a partition.
type OrderEvent struct {
	Type        EventType         `json:"type"`
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	ShopID      uuid.UUID         `json:"shopId"`
	Status      model.OrderStatus `json:"status"`
	Total       string            `json:"total,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// Publisher emits order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent)
	Close() error
}

// Producer is a Kafka-backed Publisher.
type Producer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewProducer creates a Kafka producer for the order event topic.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	return &Producer{
		logger: logger.With().Str("component", "events").Str("topic", topic).Logger(),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

// Publish writes the event. Failures are logged and swallowed.
func (p *Producer) Publish(ctx context.Context, event OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("order_id", event.OrderID.String()).Msg("failed to marshal order event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Str("order_id", event.OrderID.String()).
			Str("type", string(event.Type)).
			Msg("failed to publish order event")
	}
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) {}
func (NopPublisher) Close() error                        { return nil }
