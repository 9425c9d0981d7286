package bettingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	sharedevents "github.com/tipliga-club/tipliga-backend/app/shared/events"
	"github.com/tipliga-club/tipliga-backend/eventbus"
)

// BettingLockWorker publishes the betting.locked signal when a deadline job
// comes due. The publish is the whole job; River's retry policy covers a
// flaky broker.
type BettingLockWorker struct {
	river.WorkerDefaults[BettingLockJob]
	logger   *slog.Logger
	eventBus eventbus.EventBus
}

// NewBettingLockWorker creates a new BettingLockWorker.
func NewBettingLockWorker(logger *slog.Logger, eventBus eventbus.EventBus) *BettingLockWorker {
	return &BettingLockWorker{logger: logger, eventBus: eventBus}
}

// Work publishes the lock event for the job's entity.
func (w *BettingLockWorker) Work(ctx context.Context, job *river.Job[BettingLockJob]) error {
	payload := sharedevents.BettingLockedPayloadV1{
		Entity:   job.Args.Entity,
		EventID:  job.Args.EventID,
		LeagueID: job.Args.LeagueID,
		LockedAt: time.Now().UTC(),
	}

	if err := w.eventBus.Publish(ctx, sharedevents.TopicBettingLocked, payload); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish betting lock",
			attr.String("entity", job.Args.Entity),
			attr.Int64("event_id", job.Args.EventID),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish betting lock for %s %d: %w", job.Args.Entity, job.Args.EventID, err)
	}

	w.logger.InfoContext(ctx, "Betting locked",
		attr.String("entity", job.Args.Entity),
		attr.Int64("event_id", job.Args.EventID),
		attr.Int64("league_id", job.Args.LeagueID),
	)
	return nil
}
