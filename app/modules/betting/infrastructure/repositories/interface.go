package bettingdb

import (
	"context"

	"github.com/uptrace/bun"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
)

// Repository is the betting write path over the shared bet tables. The
// evaluation module owns the table definitions; this side only upserts
// predictions while the event is still open.
type Repository interface {
	GetLeagueMatch(ctx context.Context, db bun.IDB, leagueMatchID int64) (*evaldb.LeagueMatch, error)
	GetMatch(ctx context.Context, db bun.IDB, matchID int64) (*evaldb.Match, error)
	GetSerie(ctx context.Context, db bun.IDB, serieID int64) (*evaldb.Serie, error)
	GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID int64) (*evaldb.SpecialBet, error)
	GetQuestion(ctx context.Context, db bun.IDB, questionID int64) (*evaldb.Question, error)

	// UpsertUserBet creates or replaces the user's prediction for one league
	// match. The partial unique index on (user_id, league_match_id) backs the
	// conflict target.
	UpsertUserBet(ctx context.Context, db bun.IDB, bet *evaldb.UserBet) error
	UpsertUserSerieBet(ctx context.Context, db bun.IDB, bet *evaldb.UserSerieBet) error
	UpsertUserSpecialBet(ctx context.Context, db bun.IDB, bet *evaldb.UserSpecialBet) error
	UpsertUserAnswer(ctx context.Context, db bun.IDB, answer *evaldb.UserAnswer) error

	GetUserBet(ctx context.Context, db bun.IDB, userID, leagueMatchID int64) (*evaldb.UserBet, error)
	GetUserSerieBet(ctx context.Context, db bun.IDB, userID, serieID int64) (*evaldb.UserSerieBet, error)
	GetUserSpecialBet(ctx context.Context, db bun.IDB, userID, specialBetID int64) (*evaldb.UserSpecialBet, error)
}
