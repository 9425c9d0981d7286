package evalservice

import (
	"context"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
)

// Service is the evaluation core's application surface: the per-entity
// orchestrators, result entry, and evaluator configuration.
type Service interface {
	// EvaluateMatch scores every undeleted bet on the league match, or only
	// the given user's bet when userID is set. Partial runs never flip the
	// evaluated flag.
	EvaluateMatch(ctx context.Context, matchID, leagueMatchID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error)
	EvaluateSerie(ctx context.Context, serieID int64, userID *int64, triggeredBy string) (EvaluationOperationResult, error)
	EvaluateSpecialBet(ctx context.Context, specialBetID int64, triggeredBy string) (EvaluationOperationResult, error)
	EvaluateQuestion(ctx context.Context, questionID int64, triggeredBy string) (EvaluationOperationResult, error)

	// EnterMatchResult stores the final score and scorer list and reopens
	// every already-evaluated league instance of the match.
	EnterMatchResult(ctx context.Context, matchID int64, homeScore, awayScore int, overtime bool, scorers []ScorerGoals, enteredBy string) (ResultOperationResult, error)
	EnterSerieResult(ctx context.Context, serieID int64, homeWins, awayWins int, enteredBy string) (ResultOperationResult, error)
	EnterSpecialBetResult(ctx context.Context, input SpecialBetResultInput, enteredBy string) (ResultOperationResult, error)
	EnterQuestionResult(ctx context.Context, questionID int64, correctAnswer, enteredBy string) (ResultOperationResult, error)

	CreateEvaluator(ctx context.Context, input CreateEvaluatorInput) (EvaluatorOperationResult, error)
	ListEvaluators(ctx context.Context, leagueID int64) ([]EvaluatorView, error)
	ExclusionTable() map[evaldomain.EvaluatorType][]evaldomain.EvaluatorType

	// MatchEvaluationReport renders the persisted evaluation state of one
	// league match as an XLSX workbook.
	MatchEvaluationReport(ctx context.Context, leagueMatchID int64) ([]byte, error)
}
