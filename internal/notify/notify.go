// Package notify pushes real-time updates over Redis pub/sub. Gateway
// processes subscribe to the per-order and per-partner channels and fan
// the payloads out to connected clients. Delivery is fire and forget.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier pushes updates to interested subscribers.
type Notifier interface {
	// OrderUpdate notifies watchers of an order (the customer's tracking
	// view and the shop dashboard).
	OrderUpdate(ctx context.Context, orderID uuid.UUID, event string, payload any)

	// PartnerUpdate notifies a delivery partner's device.
	PartnerUpdate(ctx context.Context, partnerID uuid.UUID, event string, payload any)

	// UserUpdate notifies a customer's open sessions.
	UserUpdate(ctx context.Context, userID uuid.UUID, event string, payload any)

	Close() error
}

type message struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// redisNotifier publishes to channel names keyed by entity id.
type redisNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisNotifier creates a Notifier backed by Redis pub/sub.
func NewRedisNotifier(client *redis.Client, logger zerolog.Logger) Notifier {
	return &redisNotifier{
		client: client,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

func (n *redisNotifier) publish(ctx context.Context, channel, event string, payload any) {
	data, err := json.Marshal(message{Event: event, Payload: payload, SentAt: time.Now()})
	if err != nil {
		n.logger.Error().Err(err).Str("channel", channel).Msg("failed to marshal notification")
		return
	}

	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		n.logger.Error().Err(err).
			Str("channel", channel).
			Str("event", event).
			Msg("failed to publish notification")
	}
}

func (n *redisNotifier) OrderUpdate(ctx context.Context, orderID uuid.UUID, event string, payload any) {
	n.publish(ctx, fmt.Sprintf("order:%s", orderID), event, payload)
}

func (n *redisNotifier) PartnerUpdate(ctx context.Context, partnerID uuid.UUID, event string, payload any) {
	n.publish(ctx, fmt.Sprintf("partner:%s", partnerID), event, payload)
}

func (n *redisNotifier) UserUpdate(ctx context.Context, userID uuid.UUID, event string, payload any) {
	n.publish(ctx, fmt.Sprintf("user:%s", userID), event, payload)
}

func (n *redisNotifier) Close() error {
	return n.client.Close()
}

// NopNotifier discards all notifications. Used when Redis is disabled
// and in tests.
type NopNotifier struct{}

func (NopNotifier) OrderUpdate(context.Context, uuid.UUID, string, any)   {}
func (NopNotifier) PartnerUpdate(context.Context, uuid.UUID, string, any) {}
func (NopNotifier) UserUpdate(context.Context, uuid.UUID, string, any)    {}
func (NopNotifier) Close() error                                          { return nil }
