package evalservice

import (
	"encoding/json"

	evaldomain "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/domain"
	"github.com/tipliga-club/tipliga-backend/app/shared/results"
)

// ReasonCode is the stable failure code surfaced to callers. These are
// expected precondition failures, recoverable once the underlying condition
// is fixed, never bugs.
type ReasonCode string

const (
	ReasonNotFound         ReasonCode = "NOT_FOUND"
	ReasonMissingResult    ReasonCode = "MISSING_RESULT"
	ReasonNoEvaluators     ReasonCode = "NO_EVALUATORS"
	ReasonAlreadyEvaluated ReasonCode = "ALREADY_EVALUATED"
	ReasonInvalidConfig    ReasonCode = "INVALID_CONFIG"
)

// EvaluationResult is the per-user summary of one scored bet, returned to the
// caller for audit logging and admin feedback. Not persisted as its own
// table.
type EvaluationResult struct {
	UserID      int64                         `json:"userId"`
	TotalPoints int                           `json:"totalPoints"`
	Evaluators  []evaldomain.EvaluatorOutcome `json:"evaluators"`
}

// EvaluationSucceededPayload summarizes a completed orchestrator run.
type EvaluationSucceededPayload struct {
	Entity             string             `json:"entity"`
	EventID            int64              `json:"eventId"`
	LeagueID           int64              `json:"leagueId"`
	TriggeredBy        string             `json:"triggeredBy"`
	UsersEvaluated     int                `json:"usersEvaluated"`
	TotalPointsAwarded int                `json:"totalPointsAwarded"`
	Partial            bool               `json:"partial"`
	Results            []EvaluationResult `json:"results"`
}

// EvaluationFailedPayload is a structured precondition failure.
type EvaluationFailedPayload struct {
	Entity  string     `json:"entity"`
	EventID int64      `json:"eventId"`
	Reason  ReasonCode `json:"reason"`
	Message string     `json:"message"`
}

// EvaluationOperationResult pairs the two payloads.
type EvaluationOperationResult = results.OperationResult[EvaluationSucceededPayload, EvaluationFailedPayload]

// CreateEvaluatorInput is the admin-facing evaluator definition. Entity is
// derived from Type; Config is validated here, at creation time, so that
// evaluation-time failures are limited to missing results and unknown types.
type CreateEvaluatorInput struct {
	LeagueID int64           `json:"leagueId"`
	Type     string          `json:"type"`
	Points   int             `json:"points"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// EvaluatorView is the read model of a configured evaluator.
type EvaluatorView struct {
	ID       int64           `json:"id"`
	LeagueID int64           `json:"leagueId"`
	Type     string          `json:"type"`
	Entity   string          `json:"entity"`
	Points   int             `json:"points"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// EvaluatorFailedPayload is the failure side of evaluator configuration.
type EvaluatorFailedPayload struct {
	LeagueID int64      `json:"leagueId"`
	Reason   ReasonCode `json:"reason"`
	Message  string     `json:"message"`
}

// EvaluatorOperationResult pairs the evaluator payloads.
type EvaluatorOperationResult = results.OperationResult[EvaluatorView, EvaluatorFailedPayload]

// ResultEnteredPayload confirms a stored result entry or correction.
type ResultEnteredPayload struct {
	Entity  string `json:"entity"`
	EventID int64  `json:"eventId"`
	// Reopened reports how many evaluated league instances were reset to
	// awaiting re-evaluation by this entry.
	Reopened int `json:"reopened"`
}

// ResultOperationResult pairs result-entry payloads.
type ResultOperationResult = results.OperationResult[ResultEnteredPayload, EvaluationFailedPayload]

// ScorerGoals is one scorer line of an entered match result.
type ScorerGoals struct {
	PlayerID int64 `json:"playerId"`
	Goals    int   `json:"goals"`
}

// SpecialBetResultInput carries the actual outcome of a special bet. Which
// fields are set depends on what the league's evaluators score.
type SpecialBetResultInput struct {
	SpecialBetID      int64   `json:"specialBetId"`
	TeamResultID      *int64  `json:"teamResultId,omitempty"`
	PlayerResultID    *int64  `json:"playerResultId,omitempty"`
	ValueResult       *int    `json:"valueResult,omitempty"`
	GroupWinnerTeamID *int64  `json:"groupWinnerTeamId,omitempty"`
	AdvancingTeamIDs  []int64 `json:"advancingTeamIds,omitempty"`
}

// HasAnyResult reports whether the input carries at least one outcome field.
func (in SpecialBetResultInput) HasAnyResult() bool {
	return in.TeamResultID != nil || in.PlayerResultID != nil || in.ValueResult != nil ||
		in.GroupWinnerTeamID != nil || len(in.AdvancingTeamIDs) > 0
}
