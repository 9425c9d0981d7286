package evalservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// EvaluateSerie scores the bets on one best-of-N series against its entered
// aggregate result. The partial/full semantics mirror EvaluateMatch.
func (s *EvaluationService) EvaluateSerie(ctx context.Context, serieID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error) {
	s.metrics.RecordEvaluationAttempt(ctx, string(evaldomain.EntitySeries))

	result, err := withTelemetry(s, ctx, "EvaluateSerie", serieID, func(ctx context.Context) (EvaluationOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (EvaluationOperationResult, error) {
			return s.evaluateSerieTx(ctx, db, serieID, userID, triggeredBy)
		})
	})
	if err != nil {
		return result, err
	}

	s.finishEvaluation(ctx, string(evaldomain.EntitySeries), serieID, result)
	return result, nil
}

func (s *EvaluationService) evaluateSerieTx(ctx context.Context, db bun.IDB, serieID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error) {
	entity := string(evaldomain.EntitySeries)

	serie, err := s.repo.GetSerie(ctx, db, serieID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return evaluationFailure(entity, serieID, ReasonNotFound, "serie not found"), nil
		}
		return EvaluationOperationResult{}, fmt.Errorf("failed to load serie: %w", err)
	}
	if serie.IsEvaluated && userID == nil {
		return evaluationFailure(entity, serieID, ReasonAlreadyEvaluated, "serie already evaluated"), nil
	}
	if !serie.HasResult() {
		return evaluationFailure(entity, serieID, ReasonMissingResult, "serie result not entered"), nil
	}

	rows, err := s.repo.GetLeagueEvaluators(ctx, db, serie.LeagueID, entity)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load evaluators: %w", err)
	}
	evaluators := s.domainEvaluators(ctx, rows)
	if len(evaluators) == 0 {
		return evaluationFailure(entity, serieID, ReasonNoEvaluators, "league has no series evaluators"), nil
	}

	bets, err := s.repo.GetUserSerieBets(ctx, db, serieID, userID)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load serie bets: %w", err)
	}

	summary := make([]EvaluationResult, 0, len(bets))
	totalAwarded := 0
	for i := range bets {
		bet := &bets[i]
		betCtx := evaldomain.SeriesContext{
			PredictedHomeWins: bet.HomeWins,
			PredictedAwayWins: bet.AwayWins,
			ActualHomeWins:    *serie.HomeWins,
			ActualAwayWins:    *serie.AwayWins,
		}

		score := s.scoreAndLog(ctx, evaluators, betCtx, serie.IsDoubled)
		if err := s.repo.UpdateUserSerieBetPoints(ctx, db, bet.ID, score.Total); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to store points for serie bet %d: %w", bet.ID, err)
		}
		totalAwarded += score.Total
		summary = append(summary, EvaluationResult{
			UserID:      bet.UserID,
			TotalPoints: score.Total,
			Evaluators:  score.Outcomes,
		})
	}

	if userID == nil {
		if err := s.repo.SetSerieEvaluated(ctx, db, serieID, true); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to mark serie evaluated: %w", err)
		}
	}

	return results.OK[EvaluationSucceededPayload, EvaluationFailedPayload](EvaluationSucceededPayload{
		Entity:             entity,
		EventID:            serieID,
		LeagueID:           serie.LeagueID,
		TriggeredBy:        triggeredBy,
		UsersEvaluated:     len(summary),
		TotalPointsAwarded: totalAwarded,
		Partial:            userID != nil,
		Results:            summary,
	}), nil
}
