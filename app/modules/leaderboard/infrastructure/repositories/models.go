package leaderboarddb

import (
	"time"

	"github.com/uptrace/bun"
)

// Standing is one user's row in a league's standings read model. Rebuilt
// wholesale from the bet tables, never updated in place.
type Standing struct {
	bun.BaseModel `bun:"table:league_standings,alias:ls"`

	ID             int64     `bun:"id,pk,autoincrement"`
	LeagueID       int64     `bun:"league_id,notnull"`
	UserID         int64     `bun:"user_id,notnull"`
	MatchPoints    int       `bun:"match_points,notnull,default:0"`
	SeriePoints    int       `bun:"serie_points,notnull,default:0"`
	SpecialPoints  int       `bun:"special_points,notnull,default:0"`
	QuestionPoints int       `bun:"question_points,notnull,default:0"`
	TotalPoints    int       `bun:"total_points,notnull,default:0"`
	Rank           int       `bun:"rank,notnull,default:0"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// StandingSnapshot is an append-only history row, one per user per rebuild.
// The points chart reads from here.
type StandingSnapshot struct {
	bun.BaseModel `bun:"table:league_standing_history,alias:lsh"`

	ID          int64     `bun:"id,pk,autoincrement"`
	LeagueID    int64     `bun:"league_id,notnull"`
	UserID      int64     `bun:"user_id,notnull"`
	TotalPoints int       `bun:"total_points,notnull,default:0"`
	Rank        int       `bun:"rank,notnull,default:0"`
	RecordedAt  time.Time `bun:"recorded_at,nullzero,notnull,default:current_timestamp"`
}
