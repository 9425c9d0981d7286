package evalservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
	sharedevents "github.com/tipliga-club/tipliga-backend/app/shared/events"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// EvaluateMatch scores the bets on one league match against its entered
// result. With userID set it re-scores just that user's bet and leaves the
// match's evaluated flag alone; a full run flips the flag and is refused when
// the flag is already set.
func (s *EvaluationService) EvaluateMatch(ctx context.Context, matchID, leagueMatchID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error) {
	s.metrics.RecordEvaluationAttempt(ctx, string(evaldomain.EntityMatch))

	result, err := withTelemetry(s, ctx, "EvaluateMatch", leagueMatchID, func(ctx context.Context) (EvaluationOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (EvaluationOperationResult, error) {
			return s.evaluateMatchTx(ctx, db, matchID, leagueMatchID, userID, triggeredBy)
		})
	})
	if err != nil {
		return result, err
	}

	s.finishEvaluation(ctx, string(evaldomain.EntityMatch), leagueMatchID, result)
	return result, nil
}

func (s *EvaluationService) evaluateMatchTx(ctx context.Context, db bun.IDB, matchID, leagueMatchID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error) {
	entity := string(evaldomain.EntityMatch)

	leagueMatch, err := s.repo.GetLeagueMatch(ctx, db, leagueMatchID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return evaluationFailure(entity, leagueMatchID, ReasonNotFound, "league match not found"), nil
		}
		return EvaluationOperationResult{}, fmt.Errorf("failed to load league match: %w", err)
	}
	if leagueMatch.MatchID != matchID {
		return evaluationFailure(entity, leagueMatchID, ReasonNotFound,
			fmt.Sprintf("league match %d does not belong to match %d", leagueMatchID, matchID)), nil
	}
	// Re-checked inside the serializable transaction so two concurrent full
	// runs cannot both pass the guard.
	if leagueMatch.IsEvaluated && userID == nil {
		return evaluationFailure(entity, leagueMatchID, ReasonAlreadyEvaluated, "league match already evaluated"), nil
	}

	match, err := s.repo.GetMatch(ctx, db, matchID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return evaluationFailure(entity, leagueMatchID, ReasonNotFound, "match not found"), nil
		}
		return EvaluationOperationResult{}, fmt.Errorf("failed to load match: %w", err)
	}
	if !match.HasResult() {
		return evaluationFailure(entity, leagueMatchID, ReasonMissingResult, "match result not entered"), nil
	}

	rows, err := s.repo.GetLeagueEvaluators(ctx, db, leagueMatch.LeagueID, entity)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load evaluators: %w", err)
	}
	evaluators := s.domainEvaluators(ctx, rows)
	if len(evaluators) == 0 {
		return evaluationFailure(entity, leagueMatchID, ReasonNoEvaluators, "league has no match evaluators"), nil
	}

	scorerRows, err := s.repo.GetMatchScorers(ctx, db, matchID)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load match scorers: %w", err)
	}
	actualScorerIDs := make([]int64, 0, len(scorerRows))
	for _, row := range scorerRows {
		if row.Goals > 0 {
			actualScorerIDs = append(actualScorerIDs, row.PlayerID)
		}
	}

	// The scorer-rank table is resolved once per run, frozen at the match
	// start, and shared across the whole cohort.
	var scorerRanks map[int64]int
	if needsScorerRanks(evaluators) {
		scorerRanks, err = s.repo.ScorerRanks(ctx, db, leagueMatch.LeagueID, match.StartsAt)
		if err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to load scorer ranks: %w", err)
		}
	}

	bets, err := s.repo.GetUserBets(ctx, db, leagueMatchID, userID)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load user bets: %w", err)
	}

	summary := make([]EvaluationResult, 0, len(bets))
	totalAwarded := 0
	for i := range bets {
		bet := &bets[i]
		betCtx := evaldomain.MatchContext{
			PredictedHomeScore: bet.HomeScore,
			PredictedAwayScore: bet.AwayScore,
			ActualHomeScore:    *match.HomeRegularScore,
			ActualAwayScore:    *match.AwayRegularScore,
			PredictedScorerID:  bet.ScorerID,
			ActualScorerIDs:    actualScorerIDs,
		}
		if bet.ScorerID != nil && scorerRanks != nil {
			if rank, ok := scorerRanks[*bet.ScorerID]; ok {
				betCtx.PredictedScorerRank = &rank
			}
		}

		score := s.scoreAndLog(ctx, evaluators, betCtx, leagueMatch.IsDoubled)
		if err := s.repo.UpdateUserBetPoints(ctx, db, bet.ID, score.Total); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to store points for bet %d: %w", bet.ID, err)
		}
		totalAwarded += score.Total
		summary = append(summary, EvaluationResult{
			UserID:      bet.UserID,
			TotalPoints: score.Total,
			Evaluators:  score.Outcomes,
		})
	}

	if userID == nil {
		if err := s.repo.SetLeagueMatchEvaluated(ctx, db, leagueMatchID, true); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to mark league match evaluated: %w", err)
		}
	}

	return results.OK[EvaluationSucceededPayload, EvaluationFailedPayload](EvaluationSucceededPayload{
		Entity:             entity,
		EventID:            leagueMatchID,
		LeagueID:           leagueMatch.LeagueID,
		TriggeredBy:        triggeredBy,
		UsersEvaluated:     len(summary),
		TotalPointsAwarded: totalAwarded,
		Partial:            userID != nil,
		Results:            summary,
	}), nil
}

// needsScorerRanks reports whether any evaluator in the set resolves the
// predicted scorer's rank.
func needsScorerRanks(evaluators []evaldomain.Evaluator) bool {
	for _, ev := range evaluators {
		if ev.Type == evaldomain.TypeScorer && ev.Config.RankedScorer != nil {
			return true
		}
	}
	return false
}

// evaluationFailure builds the expected-failure side of an orchestrator run.
func evaluationFailure(entity string, eventID int64, reason ReasonCode, message string) EvaluationOperationResult {
	return results.Fail[EvaluationSucceededPayload, EvaluationFailedPayload](EvaluationFailedPayload{
		Entity:  entity,
		EventID: eventID,
		Reason:  reason,
		Message: message,
	})
}

// finishEvaluation records metrics and publishes the completion event after
// the transaction committed.
func (s *EvaluationService) finishEvaluation(ctx context.Context, entity string, eventID int64, result EvaluationOperationResult) {
	if result.IsFailure() {
		s.metrics.RecordEvaluationFailure(ctx, entity, string(result.Failure.Reason))
		return
	}
	if !result.IsSuccess() {
		return
	}

	payload := result.Success
	s.metrics.RecordEvaluationSuccess(ctx, entity, payload.UsersEvaluated, payload.TotalPointsAwarded)
	s.logger.InfoContext(ctx, "Evaluation run committed",
		attr.ExtractCorrelationID(ctx),
		attr.String("entity", entity),
		attr.Int64("event_id", eventID),
		attr.Int("users_evaluated", payload.UsersEvaluated),
		attr.Int("total_points_awarded", payload.TotalPointsAwarded),
		attr.Bool("partial", payload.Partial),
	)
	s.publishCompleted(ctx, sharedevents.EvaluationCompletedPayloadV1{
		Entity:             payload.Entity,
		EventID:            payload.EventID,
		LeagueID:           payload.LeagueID,
		TriggeredBy:        payload.TriggeredBy,
		UsersEvaluated:     payload.UsersEvaluated,
		TotalPointsAwarded: payload.TotalPointsAwarded,
		Partial:            payload.Partial,
		CompletedAt:        time.Now().UTC(),
	}, sharedevents.TopicEvaluationCompleted)
}
