package evaldb

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Evaluator is a league's configured scoring rule. Config is the type-specific
// JSON blob, validated by the domain parser before it ever reaches this table.
type Evaluator struct {
	bun.BaseModel `bun:"table:evaluators,alias:e"`

	ID        int64           `bun:"id,pk,autoincrement"`
	LeagueID  int64           `bun:"league_id,notnull"`
	Type      string          `bun:"type,notnull,type:varchar(40)"`
	Entity    string          `bun:"entity,notnull,type:varchar(20)"`
	Points    int             `bun:"points,notnull"`
	Config    json.RawMessage `bun:"config,type:jsonb"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Match is a single fixture. Score columns stay NULL until an admin enters
// the result; evaluation refuses to run while they are.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID               int64     `bun:"id,pk,autoincrement"`
	HomeTeamID       int64     `bun:"home_team_id,notnull"`
	AwayTeamID       int64     `bun:"away_team_id,notnull"`
	HomeRegularScore *int      `bun:"home_regular_score"`
	AwayRegularScore *int      `bun:"away_regular_score"`
	Overtime         bool      `bun:"overtime,notnull,default:false"`
	StartsAt         time.Time `bun:"starts_at,notnull"`
}

// HasResult reports whether both regular scores have been entered.
func (m *Match) HasResult() bool {
	return m.HomeRegularScore != nil && m.AwayRegularScore != nil
}

// MatchScorer records goals per player for one match. The actual scorer list
// of a match is every row with at least one goal; league scorer standings are
// aggregated from these rows.
type MatchScorer struct {
	bun.BaseModel `bun:"table:match_scorers,alias:ms"`

	ID       int64 `bun:"id,pk,autoincrement"`
	MatchID  int64 `bun:"match_id,notnull"`
	PlayerID int64 `bun:"player_id,notnull"`
	Goals    int   `bun:"goals,notnull,default:0"`
}

// LeagueMatch is a match instance inside one league, carrying the per-league
// evaluation state and the doubled flag.
type LeagueMatch struct {
	bun.BaseModel `bun:"table:league_matches,alias:lm"`

	ID          int64 `bun:"id,pk,autoincrement"`
	LeagueID    int64 `bun:"league_id,notnull"`
	MatchID     int64 `bun:"match_id,notnull"`
	IsDoubled   bool  `bun:"is_doubled,notnull,default:false"`
	IsEvaluated bool  `bun:"is_evaluated,notnull,default:false"`
}

// UserBet is one user's prediction for one league match. TotalPoints is
// write-only by the evaluation core.
type UserBet struct {
	bun.BaseModel `bun:"table:user_bets,alias:ub"`

	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        int64      `bun:"user_id,notnull"`
	LeagueMatchID int64      `bun:"league_match_id,notnull"`
	HomeScore     *int       `bun:"home_score"`
	AwayScore     *int       `bun:"away_score"`
	ScorerID      *int64     `bun:"scorer_id"`
	TotalPoints   int        `bun:"total_points,notnull,default:0"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero"`
}

// Serie is a best-of-N series; win counts stay NULL until the series ends.
type Serie struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID          int64     `bun:"id,pk,autoincrement"`
	LeagueID    int64     `bun:"league_id,notnull"`
	HomeTeamID  int64     `bun:"home_team_id,notnull"`
	AwayTeamID  int64     `bun:"away_team_id,notnull"`
	HomeWins    *int      `bun:"home_wins"`
	AwayWins    *int      `bun:"away_wins"`
	IsDoubled   bool      `bun:"is_doubled,notnull,default:false"`
	IsEvaluated bool      `bun:"is_evaluated,notnull,default:false"`
	StartsAt    time.Time `bun:"starts_at,notnull"`
}

// HasResult reports whether both aggregate win counts have been entered.
func (s *Serie) HasResult() bool {
	return s.HomeWins != nil && s.AwayWins != nil
}

// UserSerieBet is one user's prediction of a series outcome.
type UserSerieBet struct {
	bun.BaseModel `bun:"table:user_serie_bets,alias:usb"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      int64      `bun:"user_id,notnull"`
	SerieID     int64      `bun:"serie_id,notnull"`
	HomeWins    *int       `bun:"home_wins"`
	AwayWins    *int       `bun:"away_wins"`
	TotalPoints int        `bun:"total_points,notnull,default:0"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero"`
}

// SpecialBet is a one-off league bet (best team, top scorer, total goals,
// group outcome). Which result columns matter depends on the evaluators
// configured for the league.
type SpecialBet struct {
	bun.BaseModel `bun:"table:special_bets,alias:sb"`

	ID                int64     `bun:"id,pk,autoincrement"`
	LeagueID          int64     `bun:"league_id,notnull"`
	Title             string    `bun:"title,notnull"`
	TeamResultID      *int64    `bun:"team_result_id"`
	PlayerResultID    *int64    `bun:"player_result_id"`
	ValueResult       *int      `bun:"value_result"`
	GroupWinnerTeamID *int64    `bun:"group_winner_team_id"`
	AdvancingTeamIDs  []int64   `bun:"advancing_team_ids,array"`
	IsDoubled         bool      `bun:"is_doubled,notnull,default:false"`
	IsEvaluated       bool      `bun:"is_evaluated,notnull,default:false"`
	EndsAt            time.Time `bun:"ends_at,notnull"`
}

// HasResult reports whether any result field has been entered.
func (sb *SpecialBet) HasResult() bool {
	return sb.TeamResultID != nil || sb.PlayerResultID != nil || sb.ValueResult != nil ||
		sb.GroupWinnerTeamID != nil || len(sb.AdvancingTeamIDs) > 0
}

// UserSpecialBet is one user's prediction for a special bet.
type UserSpecialBet struct {
	bun.BaseModel `bun:"table:user_special_bets,alias:usp"`

	ID           int64      `bun:"id,pk,autoincrement"`
	UserID       int64      `bun:"user_id,notnull"`
	SpecialBetID int64      `bun:"special_bet_id,notnull"`
	TeamID       *int64     `bun:"team_id"`
	PlayerID     *int64     `bun:"player_id"`
	Value        *int       `bun:"value"`
	TotalPoints  int        `bun:"total_points,notnull,default:0"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete,nullzero"`
}

// Question is a league trivia question.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64   `bun:"id,pk,autoincrement"`
	LeagueID      int64   `bun:"league_id,notnull"`
	Text          string  `bun:"text,notnull"`
	CorrectAnswer *string `bun:"correct_answer"`
	IsEvaluated   bool    `bun:"is_evaluated,notnull,default:false"`
}

// UserAnswer is one user's answer to a trivia question.
type UserAnswer struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      int64      `bun:"user_id,notnull"`
	QuestionID  int64      `bun:"question_id,notnull"`
	Answer      *string    `bun:"answer"`
	TotalPoints int        `bun:"total_points,notnull,default:0"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero"`
}
