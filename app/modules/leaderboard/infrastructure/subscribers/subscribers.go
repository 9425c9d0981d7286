package leaderboardsubscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	leaderboardservice "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/application"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	sharedevents "github.com/tipliga-club/tipliga-backend/app/shared/events"
)

// EvaluationSubscriber rebuilds league standings whenever an evaluation run
// completes.
type EvaluationSubscriber struct {
	subscriber message.Subscriber
	service    leaderboardservice.Service
	logger     *slog.Logger
}

func NewEvaluationSubscriber(
	subscriber message.Subscriber,
	service leaderboardservice.Service,
	logger *slog.Logger,
) *EvaluationSubscriber {
	return &EvaluationSubscriber{
		subscriber: subscriber,
		service:    service,
		logger:     logger,
	}
}

// Start subscribes to evaluation completions and consumes them until ctx is
// cancelled.
func (s *EvaluationSubscriber) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, sharedevents.TopicEvaluationCompleted)
	if err != nil {
		return err
	}
	go s.consume(ctx, messages)
	return nil
}

func (s *EvaluationSubscriber) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		s.handle(ctx, msg)
	}
}

func (s *EvaluationSubscriber) handle(ctx context.Context, msg *message.Message) {
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = attr.WithCorrelationID(ctx, id)
	}

	var payload sharedevents.EvaluationCompletedPayloadV1
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		// Malformed payloads never become valid; ack so they are not
		// redelivered forever.
		s.logger.ErrorContext(ctx, "Dropping malformed evaluation.completed message",
			attr.ExtractCorrelationID(ctx),
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		msg.Ack()
		return
	}

	if _, err := s.service.RebuildStandings(ctx, payload.LeagueID); err != nil {
		s.logger.ErrorContext(ctx, "Standings rebuild failed, message will be redelivered",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("league_id", payload.LeagueID),
			attr.Error(err),
		)
		msg.Nack()
		return
	}

	s.logger.InfoContext(ctx, "Standings rebuilt from evaluation event",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("league_id", payload.LeagueID),
		attr.String("entity", payload.Entity),
		attr.Int64("event_id", payload.EventID),
	)
	msg.Ack()
}
