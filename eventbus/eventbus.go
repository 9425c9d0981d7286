package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	nc "github.com/nats-io/nats.go"

	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

// EventBus publishes domain events for audit logging and cache invalidation.
// Payloads are JSON-marshaled; the correlation ID travels as message
// metadata.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// NatsEventBus is the NATS JetStream implementation.
type NatsEventBus struct {
	publisher message.Publisher
	logger    *slog.Logger
}

var _ EventBus = (*NatsEventBus)(nil)

func natsOptions() []nc.Option {
	return []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
	}
}

// New creates a JetStream-backed event bus.
func New(natsURL string, logger *slog.Logger) (*NatsEventBus, error) {
	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: natsOptions(),
			Marshaler:   &wmnats.GobMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: true,
			},
			SubjectCalculator: wmnats.DefaultSubjectCalculator,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return &NatsEventBus{publisher: publisher, logger: logger}, nil
}

func (b *NatsEventBus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if id := attr.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (b *NatsEventBus) Close() error {
	return b.publisher.Close()
}

// NewSubscriber creates a JetStream subscriber sharing a durable queue group,
// for modules that consume the bus (leaderboard rebuilds).
func NewSubscriber(natsURL, queueGroup string, logger *slog.Logger) (message.Subscriber, error) {
	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:              natsURL,
			NatsOptions:      natsOptions(),
			Unmarshaler:      &wmnats.GobMarshaler{},
			QueueGroupPrefix: queueGroup,
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: true,
			},
			SubjectCalculator: wmnats.DefaultSubjectCalculator,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}
	return subscriber, nil
}

// NoOpBus drops every publish. Used when no NATS URL is configured and in
// tests.
type NoOpBus struct{}

var _ EventBus = NoOpBus{}

func (NoOpBus) Publish(context.Context, string, any) error { return nil }
func (NoOpBus) Close() error                               { return nil }
