package evalservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
	"github.com/tipliga-club/tipliga-backend/eventbus"
)

// EvaluationService implements the Service interface: the per-entity
// orchestrators, result entry, and evaluator configuration.
type EvaluationService struct {
	repo     evaldb.Repository
	eventBus eventbus.EventBus
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
	db       *bun.DB
}

// NewEvaluationService creates a new EvaluationService. db may be nil in
// tests; repository calls then run against whatever handle the fake provides.
func NewEvaluationService(
	repo evaldb.Repository,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *EvaluationService {
	return &EvaluationService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, panic
// recovery, and structured result logging.
func withTelemetry[S any, F any](
	s *EvaluationService,
	ctx context.Context,
	operationName string,
	eventID int64,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.Int64("event_id", eventID),
	))
	defer span.End()

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.Int64("event_id", eventID),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Int64("event_id", eventID),
				attr.Error(err),
			)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Int64("event_id", eventID),
			attr.Error(wrappedErr),
		)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Int64("event_id", eventID),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Int64("event_id", eventID),
		)
	}

	return result, nil
}

// runInTx runs fn inside one serializable transaction. Serializable isolation
// is load-bearing: the already-evaluated re-check inside the transaction only
// closes the double-evaluation race if the store actually enforces it.
func runInTx[S any, F any](
	s *EvaluationService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}

// domainEvaluators converts stored evaluator rows into validated domain
// evaluators. Unknown types and malformed configs are dropped here with a
// log entry so one bad row cannot block scoring the whole event.
func (s *EvaluationService) domainEvaluators(ctx context.Context, rows []evaldb.Evaluator) []evaldomain.Evaluator {
	out := make([]evaldomain.Evaluator, 0, len(rows))
	for _, row := range rows {
		evType := evaldomain.EvaluatorType(row.Type)
		cfg, err := evaldomain.ParseConfig(evType, row.Config)
		if err != nil {
			s.metrics.RecordEvaluatorSkipped(ctx, row.Type)
			if errors.Is(err, evaldomain.ErrUnknownEvaluator) {
				s.logger.WarnContext(ctx, "Skipping unknown evaluator type",
					attr.ExtractCorrelationID(ctx),
					attr.Int64("evaluator_id", row.ID),
					attr.String("type", row.Type),
				)
			} else {
				s.logger.ErrorContext(ctx, "Skipping evaluator with malformed config",
					attr.ExtractCorrelationID(ctx),
					attr.Int64("evaluator_id", row.ID),
					attr.String("type", row.Type),
					attr.Error(err),
				)
			}
			continue
		}
		entity, _ := evType.Entity()
		out = append(out, evaldomain.Evaluator{
			ID:       row.ID,
			LeagueID: row.LeagueID,
			Type:     evType,
			Entity:   entity,
			Points:   row.Points,
			Config:   cfg,
		})
	}
	return out
}

// scoreAndLog runs the per-bet pipeline and logs any skipped evaluators.
func (s *EvaluationService) scoreAndLog(ctx context.Context, evaluators []evaldomain.Evaluator, betCtx evaldomain.Context, doubled bool) evaldomain.BetScore {
	score, skips := evaldomain.ScoreBet(evaluators, betCtx, doubled)
	for _, skip := range skips {
		s.metrics.RecordEvaluatorSkipped(ctx, string(skip.Evaluator.Type))
		s.logger.WarnContext(ctx, "Evaluator skipped during scoring",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("evaluator_id", skip.Evaluator.ID),
			attr.String("type", string(skip.Evaluator.Type)),
			attr.Error(skip.Err),
		)
	}
	return score
}

// publishCompleted emits the audit/cache-invalidation signal after a
// committed run. Publishing problems are logged, never surfaced: the
// evaluation itself already succeeded.
func (s *EvaluationService) publishCompleted(ctx context.Context, payload any, topic string) {
	if err := s.eventBus.Publish(ctx, topic, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}
