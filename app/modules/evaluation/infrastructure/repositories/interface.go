package evaldb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository is the persistence surface of the evaluation core. Every method
// accepts an explicit bun.IDB so orchestrators can thread one transaction
// handle through a whole run; passing nil falls back to the repository's own
// connection.
type Repository interface {
	// Evaluator configuration.
	InsertEvaluator(ctx context.Context, db bun.IDB, evaluator *Evaluator) error
	GetLeagueEvaluators(ctx context.Context, db bun.IDB, leagueID int64, entity string) ([]Evaluator, error)
	ListLeagueEvaluators(ctx context.Context, db bun.IDB, leagueID int64) ([]Evaluator, error)

	// Matches.
	GetMatch(ctx context.Context, db bun.IDB, matchID int64) (*Match, error)
	GetLeagueMatch(ctx context.Context, db bun.IDB, leagueMatchID int64) (*LeagueMatch, error)
	GetMatchScorers(ctx context.Context, db bun.IDB, matchID int64) ([]MatchScorer, error)
	GetUserBets(ctx context.Context, db bun.IDB, leagueMatchID int64, userID *int64) ([]UserBet, error)
	UpdateUserBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error
	SetLeagueMatchEvaluated(ctx context.Context, db bun.IDB, leagueMatchID int64, evaluated bool) error
	SetMatchResult(ctx context.Context, db bun.IDB, matchID int64, homeScore, awayScore int, overtime bool, scorers []MatchScorer) error

	// ResetLeagueMatchEvaluations un-evaluates every league instance of a
	// match after a result correction, returning how many were reopened.
	ResetLeagueMatchEvaluations(ctx context.Context, db bun.IDB, matchID int64) (int, error)

	// ScorerRanks returns the league's scorer standing (player id -> rank,
	// best scorer first) computed over all goals in league matches that
	// started before asOf. Players on equal goals share a rank.
	ScorerRanks(ctx context.Context, db bun.IDB, leagueID int64, asOf time.Time) (map[int64]int, error)

	// Series.
	GetSerie(ctx context.Context, db bun.IDB, serieID int64) (*Serie, error)
	GetUserSerieBets(ctx context.Context, db bun.IDB, serieID int64, userID *int64) ([]UserSerieBet, error)
	UpdateUserSerieBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error
	SetSerieEvaluated(ctx context.Context, db bun.IDB, serieID int64, evaluated bool) error
	SetSerieResult(ctx context.Context, db bun.IDB, serieID int64, homeWins, awayWins int) error

	// Special bets.
	GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID int64) (*SpecialBet, error)
	GetUserSpecialBets(ctx context.Context, db bun.IDB, specialBetID int64) ([]UserSpecialBet, error)
	UpdateUserSpecialBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error
	SetSpecialBetEvaluated(ctx context.Context, db bun.IDB, specialBetID int64, evaluated bool) error
	SetSpecialBetResult(ctx context.Context, db bun.IDB, bet *SpecialBet) error

	// Questions.
	GetQuestion(ctx context.Context, db bun.IDB, questionID int64) (*Question, error)
	SetQuestionResult(ctx context.Context, db bun.IDB, questionID int64, correctAnswer string) error
	GetUserAnswers(ctx context.Context, db bun.IDB, questionID int64) ([]UserAnswer, error)
	UpdateUserAnswerPoints(ctx context.Context, db bun.IDB, answerID int64, totalPoints int) error
	SetQuestionEvaluated(ctx context.Context, db bun.IDB, questionID int64, evaluated bool) error
}
