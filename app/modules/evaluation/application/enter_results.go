package evalservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	sharedevents "github.com/tipliga-club/tipliga-backend/app/shared/events"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// EnterMatchResult stores a match's final score and scorer list. Entering a
// result is also how corrections happen: every league instance already
// evaluated against the old result is reopened for re-evaluation.
func (s *EvaluationService) EnterMatchResult(ctx context.Context, matchID int64, homeScore, awayScore int, overtime bool, scorers []ScorerGoals, enteredBy string) (ResultOperationResult, error) {
	result, err := withTelemetry(s, ctx, "EnterMatchResult", matchID, func(ctx context.Context) (ResultOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ResultOperationResult, error) {
			if _, err := s.repo.GetMatch(ctx, db, matchID); err != nil {
				if errors.Is(err, evaldb.ErrNotFound) {
					return resultFailure(string(evaldomain.EntityMatch), matchID, ReasonNotFound, "match not found"), nil
				}
				return ResultOperationResult{}, fmt.Errorf("failed to load match: %w", err)
			}

			scorerRows := make([]evaldb.MatchScorer, 0, len(scorers))
			for _, sc := range scorers {
				scorerRows = append(scorerRows, evaldb.MatchScorer{
					MatchID:  matchID,
					PlayerID: sc.PlayerID,
					Goals:    sc.Goals,
				})
			}
			if err := s.repo.SetMatchResult(ctx, db, matchID, homeScore, awayScore, overtime, scorerRows); err != nil {
				return ResultOperationResult{}, fmt.Errorf("failed to store match result: %w", err)
			}

			reopened, err := s.repo.ResetLeagueMatchEvaluations(ctx, db, matchID)
			if err != nil {
				return ResultOperationResult{}, fmt.Errorf("failed to reopen league matches: %w", err)
			}

			return results.OK[ResultEnteredPayload, EvaluationFailedPayload](ResultEnteredPayload{
				Entity:   string(evaldomain.EntityMatch),
				EventID:  matchID,
				Reopened: reopened,
			}), nil
		})
	})
	if err != nil {
		return result, err
	}

	s.finishResultEntry(ctx, result, enteredBy)
	return result, nil
}

// EnterSerieResult stores a series' aggregate win counts and reopens it if it
// had already been evaluated.
func (s *EvaluationService) EnterSerieResult(ctx context.Context, serieID int64, homeWins, awayWins int, enteredBy string) (ResultOperationResult, error) {
	result, err := withTelemetry(s, ctx, "EnterSerieResult", serieID, func(ctx context.Context) (ResultOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ResultOperationResult, error) {
			serie, err := s.repo.GetSerie(ctx, db, serieID)
			if err != nil {
				if errors.Is(err, evaldb.ErrNotFound) {
					return resultFailure(string(evaldomain.EntitySeries), serieID, ReasonNotFound, "serie not found"), nil
				}
				return ResultOperationResult{}, fmt.Errorf("failed to load serie: %w", err)
			}

			if err := s.repo.SetSerieResult(ctx, db, serieID, homeWins, awayWins); err != nil {
				return ResultOperationResult{}, fmt.Errorf("failed to store serie result: %w", err)
			}

			reopened := 0
			if serie.IsEvaluated {
				reopened = 1
			}
			return results.OK[ResultEnteredPayload, EvaluationFailedPayload](ResultEnteredPayload{
				Entity:   string(evaldomain.EntitySeries),
				EventID:  serieID,
				Reopened: reopened,
			}), nil
		})
	})
	if err != nil {
		return result, err
	}

	s.finishResultEntry(ctx, result, enteredBy)
	return result, nil
}

// EnterSpecialBetResult stores a special bet's actual outcome fields.
func (s *EvaluationService) EnterSpecialBetResult(ctx context.Context, input SpecialBetResultInput, enteredBy string) (ResultOperationResult, error) {
	result, err := withTelemetry(s, ctx, "EnterSpecialBetResult", input.SpecialBetID, func(ctx context.Context) (ResultOperationResult, error) {
		if !input.HasAnyResult() {
			return resultFailure(string(evaldomain.EntitySpecial), input.SpecialBetID, ReasonMissingResult, "result input carries no outcome field"), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ResultOperationResult, error) {
			specialBet, err := s.repo.GetSpecialBet(ctx, db, input.SpecialBetID)
			if err != nil {
				if errors.Is(err, evaldb.ErrNotFound) {
					return resultFailure(string(evaldomain.EntitySpecial), input.SpecialBetID, ReasonNotFound, "special bet not found"), nil
				}
				return ResultOperationResult{}, fmt.Errorf("failed to load special bet: %w", err)
			}

			reopened := 0
			if specialBet.IsEvaluated {
				reopened = 1
			}

			specialBet.TeamResultID = input.TeamResultID
			specialBet.PlayerResultID = input.PlayerResultID
			specialBet.ValueResult = input.ValueResult
			specialBet.GroupWinnerTeamID = input.GroupWinnerTeamID
			specialBet.AdvancingTeamIDs = input.AdvancingTeamIDs
			if err := s.repo.SetSpecialBetResult(ctx, db, specialBet); err != nil {
				return ResultOperationResult{}, fmt.Errorf("failed to store special bet result: %w", err)
			}

			return results.OK[ResultEnteredPayload, EvaluationFailedPayload](ResultEnteredPayload{
				Entity:   string(evaldomain.EntitySpecial),
				EventID:  input.SpecialBetID,
				Reopened: reopened,
			}), nil
		})
	})
	if err != nil {
		return result, err
	}

	s.finishResultEntry(ctx, result, enteredBy)
	return result, nil
}

// EnterQuestionResult stores a question's correct answer.
func (s *EvaluationService) EnterQuestionResult(ctx context.Context, questionID int64, correctAnswer, enteredBy string) (ResultOperationResult, error) {
	result, err := withTelemetry(s, ctx, "EnterQuestionResult", questionID, func(ctx context.Context) (ResultOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (ResultOperationResult, error) {
			question, err := s.repo.GetQuestion(ctx, db, questionID)
			if err != nil {
				if errors.Is(err, evaldb.ErrNotFound) {
					return resultFailure(string(evaldomain.EntityQuestion), questionID, ReasonNotFound, "question not found"), nil
				}
				return ResultOperationResult{}, fmt.Errorf("failed to load question: %w", err)
			}

			if err := s.repo.SetQuestionResult(ctx, db, questionID, correctAnswer); err != nil {
				return ResultOperationResult{}, fmt.Errorf("failed to store question result: %w", err)
			}

			reopened := 0
			if question.IsEvaluated {
				reopened = 1
			}
			return results.OK[ResultEnteredPayload, EvaluationFailedPayload](ResultEnteredPayload{
				Entity:   string(evaldomain.EntityQuestion),
				EventID:  questionID,
				Reopened: reopened,
			}), nil
		})
	})
	if err != nil {
		return result, err
	}

	s.finishResultEntry(ctx, result, enteredBy)
	return result, nil
}

// resultFailure builds the expected-failure side of a result entry.
func resultFailure(entity string, eventID int64, reason ReasonCode, message string) ResultOperationResult {
	return results.Fail[ResultEnteredPayload, EvaluationFailedPayload](EvaluationFailedPayload{
		Entity:  entity,
		EventID: eventID,
		Reason:  reason,
		Message: message,
	})
}

// finishResultEntry publishes the result-entered signal after a committed
// entry.
func (s *EvaluationService) finishResultEntry(ctx context.Context, result ResultOperationResult, enteredBy string) {
	if !result.IsSuccess() {
		return
	}
	payload := result.Success
	s.publishCompleted(ctx, sharedevents.ResultEnteredPayloadV1{
		Entity:    payload.Entity,
		EventID:   payload.EventID,
		EnteredBy: enteredBy,
		EnteredAt: time.Now().UTC(),
	}, sharedevents.TopicResultEntered)
}
