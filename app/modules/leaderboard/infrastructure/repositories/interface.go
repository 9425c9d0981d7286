package leaderboarddb

import (
	"context"

	"github.com/uptrace/bun"
)

// PointsTotals is one user's summed points per bet kind within a league.
type PointsTotals struct {
	UserID         int64
	MatchPoints    int
	SeriePoints    int
	SpecialPoints  int
	QuestionPoints int
}

// Repository is the standings read-model store. Methods take an explicit db
// handle; nil means the repository's own connection.
type Repository interface {
	// SumPoints aggregates every user's points across the four bet tables
	// for one league.
	SumPoints(ctx context.Context, db bun.IDB, leagueID int64) ([]PointsTotals, error)
	// ReplaceStandings swaps the league's standings rows and appends one
	// history snapshot per user.
	ReplaceStandings(ctx context.Context, db bun.IDB, leagueID int64, standings []Standing) error
	GetStandings(ctx context.Context, db bun.IDB, leagueID int64) ([]Standing, error)
	GetHistory(ctx context.Context, db bun.IDB, leagueID, userID int64) ([]StandingSnapshot, error)
}
