package evalservice

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// CreateEvaluator validates and stores one evaluator definition. All config
// validation happens here, so evaluation-time parsing of a stored row can
// only fail if the table was edited out of band.
func (s *EvaluationService) CreateEvaluator(ctx context.Context, input CreateEvaluatorInput) (EvaluatorOperationResult, error) {
	return withTelemetry(s, ctx, "CreateEvaluator", input.LeagueID, func(ctx context.Context) (EvaluatorOperationResult, error) {
		evType := evaldomain.EvaluatorType(input.Type)
		entity, ok := evType.Entity()
		if !ok {
			return evaluatorFailure(input.LeagueID, ReasonInvalidConfig,
				fmt.Sprintf("unknown evaluator type %q", input.Type)), nil
		}
		if input.Points < 0 {
			return evaluatorFailure(input.LeagueID, ReasonInvalidConfig, "points must not be negative"), nil
		}
		if _, err := evaldomain.ParseConfig(evType, input.Config); err != nil {
			return evaluatorFailure(input.LeagueID, ReasonInvalidConfig, err.Error()), nil
		}

		row := &evaldb.Evaluator{
			LeagueID: input.LeagueID,
			Type:     input.Type,
			Entity:   string(entity),
			Points:   input.Points,
			Config:   input.Config,
		}
		var err error
		if s.db != nil {
			err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				return s.repo.InsertEvaluator(ctx, tx, row)
			})
		} else {
			err = s.repo.InsertEvaluator(ctx, nil, row)
		}
		if err != nil {
			return EvaluatorOperationResult{}, fmt.Errorf("failed to store evaluator: %w", err)
		}

		return results.OK[EvaluatorView, EvaluatorFailedPayload](EvaluatorView{
			ID:       row.ID,
			LeagueID: row.LeagueID,
			Type:     row.Type,
			Entity:   row.Entity,
			Points:   row.Points,
			Config:   row.Config,
		}), nil
	})
}

// ListEvaluators returns every evaluator configured for the league.
func (s *EvaluationService) ListEvaluators(ctx context.Context, leagueID int64) ([]EvaluatorView, error) {
	rows, err := s.repo.ListLeagueEvaluators(ctx, nil, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluators: %w", err)
	}
	views := make([]EvaluatorView, 0, len(rows))
	for _, row := range rows {
		views = append(views, EvaluatorView{
			ID:       row.ID,
			LeagueID: row.LeagueID,
			Type:     row.Type,
			Entity:   row.Entity,
			Points:   row.Points,
			Config:   row.Config,
		})
	}
	return views, nil
}

// ExclusionTable exposes the static suppression rules for admin inspection.
func (s *EvaluationService) ExclusionTable() map[evaldomain.EvaluatorType][]evaldomain.EvaluatorType {
	return evaldomain.ExclusionTable()
}

func evaluatorFailure(leagueID int64, reason ReasonCode, message string) EvaluatorOperationResult {
	return results.Fail[EvaluatorView, EvaluatorFailedPayload](EvaluatorFailedPayload{
		LeagueID: leagueID,
		Reason:   reason,
		Message:  message,
	})
}
