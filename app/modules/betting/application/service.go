package bettingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	bettingqueue "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/queue"
	bettingdb "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/repositories"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// BettingService implements Service. The clock is injected so deadline tests
// don't race the wall clock.
type BettingService struct {
	repo   bettingdb.Repository
	queue  bettingqueue.QueueService
	logger *slog.Logger
	tracer trace.Tracer
	db     *bun.DB
	now    func() time.Time
}

// NewBettingService creates a new BettingService. queue may be nil when no
// job queue is configured; now may be nil and defaults to time.Now.
func NewBettingService(
	repo bettingdb.Repository,
	queue bettingqueue.QueueService,
	logger *slog.Logger,
	tracer trace.Tracer,
	db *bun.DB,
	now func() time.Time,
) *BettingService {
	if now == nil {
		now = time.Now
	}
	return &BettingService{
		repo:   repo,
		queue:  queue,
		logger: logger,
		tracer: tracer,
		db:     db,
		now:    now,
	}
}

// scheduleLock queues the betting.locked publication for an event's deadline.
// The first bet on an event schedules the job; later bets are deduplicated by
// the queue. Scheduling failures don't fail the bet, the lock event is
// advisory.
func (s *BettingService) scheduleLock(ctx context.Context, entity string, eventID, leagueID int64, lockAt time.Time) {
	if s.queue == nil {
		return
	}
	if err := s.queue.ScheduleBettingLock(ctx, entity, eventID, leagueID, lockAt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to schedule betting lock",
			attr.ExtractCorrelationID(ctx),
			attr.String("entity", entity),
			attr.Int64("event_id", eventID),
			attr.Error(err),
		)
	}
}

var _ Service = (*BettingService)(nil)

func (s *BettingService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) (BetOperationResult, error)) (BetOperationResult, error) {
	if s.db == nil {
		return fn(ctx, nil)
	}
	var result BetOperationResult
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}

func (s *BettingService) placed(ctx context.Context, entity string, eventID, userID int64) BetOperationResult {
	s.logger.InfoContext(ctx, "Bet placed",
		attr.ExtractCorrelationID(ctx),
		attr.String("entity", entity),
		attr.Int64("event_id", eventID),
		attr.Int64("user_id", userID),
	)
	return results.OK[BetPlacedPayload, BetFailedPayload](BetPlacedPayload{
		Entity:   entity,
		EventID:  eventID,
		UserID:   userID,
		PlacedAt: s.now().UTC(),
	})
}

func betFailure(entity string, eventID int64, reason ReasonCode, message string) BetOperationResult {
	return results.Fail[BetPlacedPayload, BetFailedPayload](BetFailedPayload{
		Entity:  entity,
		EventID: eventID,
		Reason:  reason,
		Message: message,
	})
}

// PlaceMatchBet stores a user's match prediction until the match kicks off.
func (s *BettingService) PlaceMatchBet(ctx context.Context, input MatchBetInput) (BetOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceMatchBet", trace.WithAttributes(
		attribute.Int64("league_match_id", input.LeagueMatchID),
		attribute.Int64("user_id", input.UserID),
	))
	defer span.End()

	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) (BetOperationResult, error) {
		leagueMatch, err := s.repo.GetLeagueMatch(ctx, db, input.LeagueMatchID)
		if err != nil {
			if errors.Is(err, evaldb.ErrNotFound) {
				return betFailure("match", input.LeagueMatchID, ReasonNotFound, "league match not found"), nil
			}
			return BetOperationResult{}, fmt.Errorf("failed to load league match: %w", err)
		}
		match, err := s.repo.GetMatch(ctx, db, leagueMatch.MatchID)
		if err != nil {
			return BetOperationResult{}, fmt.Errorf("failed to load match: %w", err)
		}
		if !s.now().Before(match.StartsAt) {
			return betFailure("match", input.LeagueMatchID, ReasonBettingClosed, "match already started"), nil
		}

		bet := &evaldb.UserBet{
			UserID:        input.UserID,
			LeagueMatchID: input.LeagueMatchID,
			HomeScore:     input.HomeScore,
			AwayScore:     input.AwayScore,
			ScorerID:      input.ScorerID,
		}
		if err := s.repo.UpsertUserBet(ctx, db, bet); err != nil {
			return BetOperationResult{}, fmt.Errorf("failed to store bet: %w", err)
		}
		s.scheduleLock(ctx, "match", input.LeagueMatchID, leagueMatch.LeagueID, match.StartsAt)
		return s.placed(ctx, "match", input.LeagueMatchID, input.UserID), nil
	})
}

// PlaceSerieBet stores a user's series prediction until the series starts.
func (s *BettingService) PlaceSerieBet(ctx context.Context, input SerieBetInput) (BetOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceSerieBet", trace.WithAttributes(
		attribute.Int64("serie_id", input.SerieID),
		attribute.Int64("user_id", input.UserID),
	))
	defer span.End()

	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) (BetOperationResult, error) {
		serie, err := s.repo.GetSerie(ctx, db, input.SerieID)
		if err != nil {
			if errors.Is(err, evaldb.ErrNotFound) {
				return betFailure("series", input.SerieID, ReasonNotFound, "serie not found"), nil
			}
			return BetOperationResult{}, fmt.Errorf("failed to load serie: %w", err)
		}
		if !s.now().Before(serie.StartsAt) {
			return betFailure("series", input.SerieID, ReasonBettingClosed, "serie already started"), nil
		}

		bet := &evaldb.UserSerieBet{
			UserID:   input.UserID,
			SerieID:  input.SerieID,
			HomeWins: input.HomeWins,
			AwayWins: input.AwayWins,
		}
		if err := s.repo.UpsertUserSerieBet(ctx, db, bet); err != nil {
			return BetOperationResult{}, fmt.Errorf("failed to store serie bet: %w", err)
		}
		s.scheduleLock(ctx, "series", input.SerieID, serie.LeagueID, serie.StartsAt)
		return s.placed(ctx, "series", input.SerieID, input.UserID), nil
	})
}

// PlaceSpecialBet stores a user's special bet prediction until the bet's end
// date.
func (s *BettingService) PlaceSpecialBet(ctx context.Context, input SpecialBetInput) (BetOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceSpecialBet", trace.WithAttributes(
		attribute.Int64("special_bet_id", input.SpecialBetID),
		attribute.Int64("user_id", input.UserID),
	))
	defer span.End()

	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) (BetOperationResult, error) {
		specialBet, err := s.repo.GetSpecialBet(ctx, db, input.SpecialBetID)
		if err != nil {
			if errors.Is(err, evaldb.ErrNotFound) {
				return betFailure("special", input.SpecialBetID, ReasonNotFound, "special bet not found"), nil
			}
			return BetOperationResult{}, fmt.Errorf("failed to load special bet: %w", err)
		}
		if !s.now().Before(specialBet.EndsAt) {
			return betFailure("special", input.SpecialBetID, ReasonBettingClosed, "special bet closed"), nil
		}

		bet := &evaldb.UserSpecialBet{
			UserID:       input.UserID,
			SpecialBetID: input.SpecialBetID,
			TeamID:       input.TeamID,
			PlayerID:     input.PlayerID,
			Value:        input.Value,
		}
		if err := s.repo.UpsertUserSpecialBet(ctx, db, bet); err != nil {
			return BetOperationResult{}, fmt.Errorf("failed to store special bet: %w", err)
		}
		s.scheduleLock(ctx, "special", input.SpecialBetID, specialBet.LeagueID, specialBet.EndsAt)
		return s.placed(ctx, "special", input.SpecialBetID, input.UserID), nil
	})
}

// AnswerQuestion stores a user's answer. Questions carry no start time;
// answering closes once the question has been evaluated.
func (s *BettingService) AnswerQuestion(ctx context.Context, input AnswerInput) (BetOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "AnswerQuestion", trace.WithAttributes(
		attribute.Int64("question_id", input.QuestionID),
		attribute.Int64("user_id", input.UserID),
	))
	defer span.End()

	return s.runInTx(ctx, func(ctx context.Context, db bun.IDB) (BetOperationResult, error) {
		question, err := s.repo.GetQuestion(ctx, db, input.QuestionID)
		if err != nil {
			if errors.Is(err, evaldb.ErrNotFound) {
				return betFailure("question", input.QuestionID, ReasonNotFound, "question not found"), nil
			}
			return BetOperationResult{}, fmt.Errorf("failed to load question: %w", err)
		}
		if question.IsEvaluated || question.CorrectAnswer != nil {
			return betFailure("question", input.QuestionID, ReasonBettingClosed, "question already resolved"), nil
		}

		answer := &evaldb.UserAnswer{
			UserID:     input.UserID,
			QuestionID: input.QuestionID,
			Answer:     &input.Answer,
		}
		if err := s.repo.UpsertUserAnswer(ctx, db, answer); err != nil {
			return BetOperationResult{}, fmt.Errorf("failed to store answer: %w", err)
		}
		return s.placed(ctx, "question", input.QuestionID, input.UserID), nil
	})
}
