package leaderboardservice

import "context"

// Service recomputes and serves league standings. Rebuilds are triggered by
// evaluation.completed events and by the admin rebuild endpoint.
type Service interface {
	// RebuildStandings recomputes the full standings table for a league from
	// the per-bet point totals and returns the number of ranked users.
	RebuildStandings(ctx context.Context, leagueID int64) (int, error)
	// GetStandings returns the current standings ordered by rank.
	GetStandings(ctx context.Context, leagueID int64) ([]StandingView, error)
	// PointsHistoryChart renders a PNG chart of one user's total points over
	// time. A user with no recorded history gets a placeholder image.
	PointsHistoryChart(ctx context.Context, leagueID, userID int64) ([]byte, error)
}
