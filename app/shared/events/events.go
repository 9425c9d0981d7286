package sharedevents

import "time"

// Topics published on the event bus. Subscribers include the leaderboard
// module (standings rebuild) and any external cache-invalidation consumers.
const (
	TopicEvaluationCompleted = "evaluation.completed"
	TopicResultEntered       = "result.entered"
	TopicBettingLocked       = "betting.locked"
)

// EvaluationCompletedPayloadV1 is the audit record of one successful
// evaluation run.
type EvaluationCompletedPayloadV1 struct {
	Entity             string    `json:"entity"`
	EventID            int64     `json:"eventId"`
	LeagueID           int64     `json:"leagueId"`
	TriggeredBy        string    `json:"triggeredBy"`
	UsersEvaluated     int       `json:"usersEvaluated"`
	TotalPointsAwarded int       `json:"totalPointsAwarded"`
	Partial            bool      `json:"partial"`
	CompletedAt        time.Time `json:"completedAt"`
}

// ResultEnteredPayloadV1 announces that an event's actual result was entered
// or corrected; any previous evaluation of the event is void.
type ResultEnteredPayloadV1 struct {
	Entity    string    `json:"entity"`
	EventID   int64     `json:"eventId"`
	EnteredBy string    `json:"enteredBy"`
	EnteredAt time.Time `json:"enteredAt"`
}

// BettingLockedPayloadV1 announces that the betting deadline for an event
// passed and its predictions are now immutable.
type BettingLockedPayloadV1 struct {
	Entity   string    `json:"entity"`
	EventID  int64     `json:"eventId"`
	LeagueID int64     `json:"leagueId"`
	LockedAt time.Time `json:"lockedAt"`
}
