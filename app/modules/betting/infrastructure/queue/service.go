package bettingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	"github.com/tipliga-club/tipliga-backend/eventbus"
)

// QueueService schedules betting deadline jobs.
type QueueService interface {
	// ScheduleBettingLock schedules the betting.locked publication for one
	// event at its deadline.
	ScheduleBettingLock(ctx context.Context, entity string, eventID, leagueID int64, lockAt time.Time) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Service implements QueueService using River over a dedicated pgx pool
// (River requires pgx, not database/sql).
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ QueueService = (*Service)(nil)

// NewService creates a River-based queue service for betting deadlines.
func NewService(ctx context.Context, logger *slog.Logger, dsn string, eventBus eventbus.EventBus) (*Service, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewBettingLockWorker(logger, eventBus))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			"betting":          {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	logger.InfoContext(ctx, "Betting queue service initialized")
	return &Service{client: riverClient, pool: pool, logger: logger}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Betting queue service started")
	return nil
}

// Stop stops the River client and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Betting queue service stopped")
	return nil
}

// ScheduleBettingLock schedules the lock publication. Deadlines already in
// the past are skipped rather than failed, so re-syncing fixtures is safe.
func (s *Service) ScheduleBettingLock(ctx context.Context, entity string, eventID, leagueID int64, lockAt time.Time) error {
	if lockAt.Before(time.Now()) {
		s.logger.InfoContext(ctx, "Betting deadline already passed, skipping",
			attr.String("entity", entity),
			attr.Int64("event_id", eventID),
		)
		return nil
	}

	job := BettingLockJob{Entity: entity, EventID: eventID, LeagueID: leagueID}
	jobResult, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       "betting",
		ScheduledAt: lockAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule betting lock for %s %d: %w", entity, eventID, err)
	}

	s.logger.InfoContext(ctx, "Betting lock scheduled",
		attr.String("entity", entity),
		attr.Int64("event_id", eventID),
		attr.Int64("job_id", jobResult.Job.ID),
	)
	return nil
}
