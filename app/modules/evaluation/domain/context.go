package evaldomain

import "strings"

// Context is the ephemeral bundle of one user's prediction, the event's
// actual outcome and any auxiliary lookups, built fresh per (bet, event)
// pair. Builders never mutate their inputs; missing optional predictions stay
// nil and downstream rules read nil as "cannot match".
type Context interface {
	isContext()
}

// MatchContext covers a single match: predicted vs. actual regular scores
// plus scorer data. PredictedScorerRank is the predicted scorer's tournament
// rank as of the match start, resolved once per event by the orchestrator and
// shared across the cohort; nil means no ranking entry existed at that time.
type MatchContext struct {
	PredictedHomeScore *int
	PredictedAwayScore *int
	ActualHomeScore    int
	ActualAwayScore    int

	PredictedScorerID   *int64
	ActualScorerIDs     []int64
	PredictedScorerRank *int
}

func (MatchContext) isContext() {}

// predictedScorerScored reports whether the predicted scorer appears in the
// actual scorer list. Membership, not ordering.
func (c MatchContext) predictedScorerScored() bool {
	if c.PredictedScorerID == nil {
		return false
	}
	for _, id := range c.ActualScorerIDs {
		if id == *c.PredictedScorerID {
			return true
		}
	}
	return false
}

// SeriesContext mirrors MatchContext over aggregate best-of-N series wins.
type SeriesContext struct {
	PredictedHomeWins *int
	PredictedAwayWins *int
	ActualHomeWins    int
	ActualAwayWins    int
}

func (SeriesContext) isContext() {}

// SpecialBetContext covers team, player, value and group-stage special bets.
// CohortMinDistance is the minimal |predicted - actual| over every user's
// value prediction for the same special bet; it has to come from the full
// cohort even on a single-user re-evaluation.
type SpecialBetContext struct {
	PredictedTeamID *int64
	ActualTeamID    *int64

	PredictedPlayerID *int64
	ActualPlayerID    *int64

	PredictedValue    *int
	ActualValue       *int
	CohortMinDistance *int

	ActualGroupWinnerID    *int64
	ActualAdvancingTeamIDs []int64
}

func (SpecialBetContext) isContext() {}

// QuestionContext covers a trivia question. Answers compare case-insensitively
// after trimming surrounding whitespace.
type QuestionContext struct {
	PredictedAnswer *string
	ActualAnswer    string
}

func (QuestionContext) isContext() {}

func (c QuestionContext) answerMatches() bool {
	if c.PredictedAnswer == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*c.PredictedAnswer), strings.TrimSpace(c.ActualAnswer))
}

// MinDistance returns the minimal absolute distance between actual and the
// given cohort of predicted values. The second return is false when the
// cohort has no usable prediction.
func MinDistance(actual int, predictions []int) (int, bool) {
	if len(predictions) == 0 {
		return 0, false
	}
	best := abs(predictions[0] - actual)
	for _, p := range predictions[1:] {
		if d := abs(p - actual); d < best {
			best = d
		}
	}
	return best, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
