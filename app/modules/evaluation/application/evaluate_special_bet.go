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

// EvaluateSpecialBet scores every prediction on one special bet. Special bets
// are always evaluated as a full cohort: the closest-value rule depends on
// the minimal distance across all predictions, so there is no per-user run.
func (s *EvaluationService) EvaluateSpecialBet(ctx context.Context, specialBetID int64, triggeredBy string) (EvaluationOperationResult, error) {
	s.metrics.RecordEvaluationAttempt(ctx, string(evaldomain.EntitySpecial))

	result, err := withTelemetry(s, ctx, "EvaluateSpecialBet", specialBetID, func(ctx context.Context) (EvaluationOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (EvaluationOperationResult, error) {
			return s.evaluateSpecialBetTx(ctx, db, specialBetID, triggeredBy)
		})
	})
	if err != nil {
		return result, err
	}

	s.finishEvaluation(ctx, string(evaldomain.EntitySpecial), specialBetID, result)
	return result, nil
}

func (s *EvaluationService) evaluateSpecialBetTx(ctx context.Context, db bun.IDB, specialBetID int64, triggeredBy string) (EvaluationOperationResult, error) {
	entity := string(evaldomain.EntitySpecial)

	specialBet, err := s.repo.GetSpecialBet(ctx, db, specialBetID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return evaluationFailure(entity, specialBetID, ReasonNotFound, "special bet not found"), nil
		}
		return EvaluationOperationResult{}, fmt.Errorf("failed to load special bet: %w", err)
	}
	if specialBet.IsEvaluated {
		return evaluationFailure(entity, specialBetID, ReasonAlreadyEvaluated, "special bet already evaluated"), nil
	}
	if !specialBet.HasResult() {
		return evaluationFailure(entity, specialBetID, ReasonMissingResult, "special bet result not entered"), nil
	}

	rows, err := s.repo.GetLeagueEvaluators(ctx, db, specialBet.LeagueID, entity)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load evaluators: %w", err)
	}
	evaluators := s.domainEvaluators(ctx, rows)
	if len(evaluators) == 0 {
		return evaluationFailure(entity, specialBetID, ReasonNoEvaluators, "league has no special bet evaluators"), nil
	}

	bets, err := s.repo.GetUserSpecialBets(ctx, db, specialBetID)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load special bet predictions: %w", err)
	}

	// The minimal distance is computed once over the full cohort and shared
	// by every context, so ties all land on the same winning distance.
	var cohortMinDistance *int
	if specialBet.ValueResult != nil {
		predictions := make([]int, 0, len(bets))
		for i := range bets {
			if bets[i].Value != nil {
				predictions = append(predictions, *bets[i].Value)
			}
		}
		if min, ok := evaldomain.MinDistance(*specialBet.ValueResult, predictions); ok {
			cohortMinDistance = &min
		}
	}

	summary := make([]EvaluationResult, 0, len(bets))
	totalAwarded := 0
	for i := range bets {
		bet := &bets[i]
		betCtx := evaldomain.SpecialBetContext{
			PredictedTeamID:        bet.TeamID,
			ActualTeamID:           specialBet.TeamResultID,
			PredictedPlayerID:      bet.PlayerID,
			ActualPlayerID:         specialBet.PlayerResultID,
			PredictedValue:         bet.Value,
			ActualValue:            specialBet.ValueResult,
			CohortMinDistance:      cohortMinDistance,
			ActualGroupWinnerID:    specialBet.GroupWinnerTeamID,
			ActualAdvancingTeamIDs: specialBet.AdvancingTeamIDs,
		}

		score := s.scoreAndLog(ctx, evaluators, betCtx, specialBet.IsDoubled)
		if err := s.repo.UpdateUserSpecialBetPoints(ctx, db, bet.ID, score.Total); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to store points for special bet %d: %w", bet.ID, err)
		}
		totalAwarded += score.Total
		summary = append(summary, EvaluationResult{
			UserID:      bet.UserID,
			TotalPoints: score.Total,
			Evaluators:  score.Outcomes,
		})
	}

	if err := s.repo.SetSpecialBetEvaluated(ctx, db, specialBetID, true); err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to mark special bet evaluated: %w", err)
	}

	return results.OK[EvaluationSucceededPayload, EvaluationFailedPayload](EvaluationSucceededPayload{
		Entity:             entity,
		EventID:            specialBetID,
		LeagueID:           specialBet.LeagueID,
		TriggeredBy:        triggeredBy,
		UsersEvaluated:     len(summary),
		TotalPointsAwarded: totalAwarded,
		Results:            summary,
	}), nil
}
