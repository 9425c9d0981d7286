package leaderboardservice

import "time"

// StandingView is one leaderboard row as served over HTTP.
type StandingView struct {
	Rank           int   `json:"rank"`
	UserID         int64 `json:"userId"`
	MatchPoints    int   `json:"matchPoints"`
	SeriePoints    int   `json:"seriePoints"`
	SpecialPoints  int   `json:"specialPoints"`
	QuestionPoints int   `json:"questionPoints"`
	TotalPoints    int   `json:"totalPoints"`
}

// HistoryPointView is one snapshot of a user's total over time.
type HistoryPointView struct {
	TotalPoints int       `json:"totalPoints"`
	Rank        int       `json:"rank"`
	RecordedAt  time.Time `json:"recordedAt"`
}
