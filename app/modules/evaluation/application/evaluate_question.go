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

// EvaluateQuestion scores every answer to one trivia question against the
// stored correct answer.
func (s *EvaluationService) EvaluateQuestion(ctx context.Context, questionID int64, triggeredBy string) (EvaluationOperationResult, error) {
	s.metrics.RecordEvaluationAttempt(ctx, string(evaldomain.EntityQuestion))

	result, err := withTelemetry(s, ctx, "EvaluateQuestion", questionID, func(ctx context.Context) (EvaluationOperationResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (EvaluationOperationResult, error) {
			return s.evaluateQuestionTx(ctx, db, questionID, triggeredBy)
		})
	})
	if err != nil {
		return result, err
	}

	s.finishEvaluation(ctx, string(evaldomain.EntityQuestion), questionID, result)
	return result, nil
}

func (s *EvaluationService) evaluateQuestionTx(ctx context.Context, db bun.IDB, questionID int64, triggeredBy string) (EvaluationOperationResult, error) {
	entity := string(evaldomain.EntityQuestion)

	question, err := s.repo.GetQuestion(ctx, db, questionID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return evaluationFailure(entity, questionID, ReasonNotFound, "question not found"), nil
		}
		return EvaluationOperationResult{}, fmt.Errorf("failed to load question: %w", err)
	}
	if question.IsEvaluated {
		return evaluationFailure(entity, questionID, ReasonAlreadyEvaluated, "question already evaluated"), nil
	}
	if question.CorrectAnswer == nil {
		return evaluationFailure(entity, questionID, ReasonMissingResult, "correct answer not entered"), nil
	}

	rows, err := s.repo.GetLeagueEvaluators(ctx, db, question.LeagueID, entity)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load evaluators: %w", err)
	}
	evaluators := s.domainEvaluators(ctx, rows)
	if len(evaluators) == 0 {
		return evaluationFailure(entity, questionID, ReasonNoEvaluators, "league has no question evaluators"), nil
	}

	answers, err := s.repo.GetUserAnswers(ctx, db, questionID)
	if err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to load answers: %w", err)
	}

	summary := make([]EvaluationResult, 0, len(answers))
	totalAwarded := 0
	for i := range answers {
		answer := &answers[i]
		betCtx := evaldomain.QuestionContext{
			PredictedAnswer: answer.Answer,
			ActualAnswer:    *question.CorrectAnswer,
		}

		score := s.scoreAndLog(ctx, evaluators, betCtx, false)
		if err := s.repo.UpdateUserAnswerPoints(ctx, db, answer.ID, score.Total); err != nil {
			return EvaluationOperationResult{}, fmt.Errorf("failed to store points for answer %d: %w", answer.ID, err)
		}
		totalAwarded += score.Total
		summary = append(summary, EvaluationResult{
			UserID:      answer.UserID,
			TotalPoints: score.Total,
			Evaluators:  score.Outcomes,
		})
	}

	if err := s.repo.SetQuestionEvaluated(ctx, db, questionID, true); err != nil {
		return EvaluationOperationResult{}, fmt.Errorf("failed to mark question evaluated: %w", err)
	}

	return results.OK[EvaluationSucceededPayload, EvaluationFailedPayload](EvaluationSucceededPayload{
		Entity:             entity,
		EventID:            questionID,
		LeagueID:           question.LeagueID,
		TriggeredBy:        triggeredBy,
		UsersEvaluated:     len(summary),
		TotalPointsAwarded: totalAwarded,
		Results:            summary,
	}), nil
}
