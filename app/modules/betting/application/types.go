package bettingservice

import (
	"time"

	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// ReasonCode is the stable failure code for bet placement.
type ReasonCode string

const (
	ReasonNotFound      ReasonCode = "NOT_FOUND"
	ReasonBettingClosed ReasonCode = "BETTING_CLOSED"
)

// MatchBetInput is one user's prediction for a league match.
type MatchBetInput struct {
	UserID        int64  `json:"userId"`
	LeagueMatchID int64  `json:"leagueMatchId"`
	HomeScore     *int   `json:"homeScore,omitempty"`
	AwayScore     *int   `json:"awayScore,omitempty"`
	ScorerID      *int64 `json:"scorerId,omitempty"`
}

// SerieBetInput is one user's prediction for a series outcome.
type SerieBetInput struct {
	UserID   int64 `json:"userId"`
	SerieID  int64 `json:"serieId"`
	HomeWins *int  `json:"homeWins,omitempty"`
	AwayWins *int  `json:"awayWins,omitempty"`
}

// SpecialBetInput is one user's prediction for a special bet.
type SpecialBetInput struct {
	UserID       int64  `json:"userId"`
	SpecialBetID int64  `json:"specialBetId"`
	TeamID       *int64 `json:"teamId,omitempty"`
	PlayerID     *int64 `json:"playerId,omitempty"`
	Value        *int   `json:"value,omitempty"`
}

// AnswerInput is one user's answer to a trivia question.
type AnswerInput struct {
	UserID     int64  `json:"userId"`
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
}

// BetPlacedPayload confirms a stored prediction.
type BetPlacedPayload struct {
	Entity   string    `json:"entity"`
	EventID  int64     `json:"eventId"`
	UserID   int64     `json:"userId"`
	PlacedAt time.Time `json:"placedAt"`
}

// BetFailedPayload is a structured placement failure.
type BetFailedPayload struct {
	Entity  string     `json:"entity"`
	EventID int64      `json:"eventId"`
	Reason  ReasonCode `json:"reason"`
	Message string     `json:"message"`
}

// BetOperationResult pairs the two payloads.
type BetOperationResult = results.OperationResult[BetPlacedPayload, BetFailedPayload]
