package evaldomain

import (
	"errors"
	"fmt"
)

// RuleResult is the outcome of one evaluator against one context. Boolean
// rules award the evaluator's flat points; value rules (ranked scorer, group
// stage) compute Points from their config directly.
type RuleResult struct {
	Awarded bool
	Points  int
}

// ErrContextMismatch marks an evaluator applied to a context of the wrong
// entity class. Orchestrators treat it like an unknown type: log and skip.
var ErrContextMismatch = errors.New("evaluator does not apply to this context")

// EvaluateRule runs a single evaluator against a context. It is pure and
// total over well-formed input: malformed or missing prediction data scores
// as "not awarded", never as an error. The only errors are the unknown-type
// and wrong-entity skip paths.
func EvaluateRule(ev Evaluator, ctx Context) (RuleResult, error) {
	switch ev.Type {
	case TypeExactScore, TypeWinner, TypeScoreDifference, TypeOneTeamScore, TypeDraw, TypeScorer:
		mc, ok := ctx.(MatchContext)
		if !ok {
			return RuleResult{}, fmt.Errorf("%w: %s", ErrContextMismatch, ev.Type)
		}
		return evaluateMatchRule(ev, mc)

	case TypeSerieWinner, TypeSerieExactScore:
		sc, ok := ctx.(SeriesContext)
		if !ok {
			return RuleResult{}, fmt.Errorf("%w: %s", ErrContextMismatch, ev.Type)
		}
		return evaluateSeriesRule(ev, sc)

	case TypeExactTeam, TypeExactPlayer, TypeExactValue, TypeClosestValue, TypeGroupStageAdvance:
		sp, ok := ctx.(SpecialBetContext)
		if !ok {
			return RuleResult{}, fmt.Errorf("%w: %s", ErrContextMismatch, ev.Type)
		}
		return evaluateSpecialRule(ev, sp)

	case TypeExactAnswer:
		qc, ok := ctx.(QuestionContext)
		if !ok {
			return RuleResult{}, fmt.Errorf("%w: %s", ErrContextMismatch, ev.Type)
		}
		return boolResult(qc.answerMatches(), ev.Points), nil

	default:
		return RuleResult{}, fmt.Errorf("%w: %q", ErrUnknownEvaluator, ev.Type)
	}
}

func boolResult(awarded bool, points int) RuleResult {
	if !awarded {
		return RuleResult{}
	}
	return RuleResult{Awarded: true, Points: points}
}

func evaluateMatchRule(ev Evaluator, c MatchContext) (RuleResult, error) {
	switch ev.Type {
	case TypeExactScore:
		awarded := c.PredictedHomeScore != nil && c.PredictedAwayScore != nil &&
			*c.PredictedHomeScore == c.ActualHomeScore &&
			*c.PredictedAwayScore == c.ActualAwayScore
		return boolResult(awarded, ev.Points), nil

	case TypeWinner:
		if c.PredictedHomeScore == nil || c.PredictedAwayScore == nil {
			return RuleResult{}, nil
		}
		awarded := sign(*c.PredictedHomeScore-*c.PredictedAwayScore) == sign(c.ActualHomeScore-c.ActualAwayScore)
		return boolResult(awarded, ev.Points), nil

	case TypeScoreDifference:
		// Raw condition only. Overlap with exact_score is resolved by the
		// exclusion pass, never here.
		if c.PredictedHomeScore == nil || c.PredictedAwayScore == nil {
			return RuleResult{}, nil
		}
		awarded := (*c.PredictedHomeScore - *c.PredictedAwayScore) == (c.ActualHomeScore - c.ActualAwayScore)
		return boolResult(awarded, ev.Points), nil

	case TypeOneTeamScore:
		homeHit := c.PredictedHomeScore != nil && *c.PredictedHomeScore == c.ActualHomeScore
		awayHit := c.PredictedAwayScore != nil && *c.PredictedAwayScore == c.ActualAwayScore
		return boolResult(homeHit || awayHit, ev.Points), nil

	case TypeDraw:
		predictedDraw := c.PredictedHomeScore != nil && c.PredictedAwayScore != nil &&
			*c.PredictedHomeScore == *c.PredictedAwayScore
		actualDraw := c.ActualHomeScore == c.ActualAwayScore
		return boolResult(predictedDraw && actualDraw, ev.Points), nil

	case TypeScorer:
		if ev.Config.RankedScorer != nil {
			return evaluateRankedScorer(*ev.Config.RankedScorer, c), nil
		}
		return boolResult(c.predictedScorerScored(), ev.Points), nil
	}
	return RuleResult{}, fmt.Errorf("%w: %q", ErrUnknownEvaluator, ev.Type)
}

// evaluateRankedScorer maps a correct scorer prediction through the rank
// table: ranked entry wins, otherwise the unranked fallback. A scorer who did
// not actually score earns nothing regardless of rank.
func evaluateRankedScorer(cfg RankedScorerConfig, c MatchContext) RuleResult {
	if !c.predictedScorerScored() {
		return RuleResult{}
	}
	points := cfg.UnrankedPoints
	if c.PredictedScorerRank != nil {
		if p, ok := cfg.RankedPoints[*c.PredictedScorerRank]; ok {
			points = p
		}
	}
	return RuleResult{Awarded: true, Points: points}
}

func evaluateSeriesRule(ev Evaluator, c SeriesContext) (RuleResult, error) {
	switch ev.Type {
	case TypeSerieWinner:
		if c.PredictedHomeWins == nil || c.PredictedAwayWins == nil {
			return RuleResult{}, nil
		}
		awarded := sign(*c.PredictedHomeWins-*c.PredictedAwayWins) == sign(c.ActualHomeWins-c.ActualAwayWins)
		return boolResult(awarded, ev.Points), nil

	case TypeSerieExactScore:
		awarded := c.PredictedHomeWins != nil && c.PredictedAwayWins != nil &&
			*c.PredictedHomeWins == c.ActualHomeWins &&
			*c.PredictedAwayWins == c.ActualAwayWins
		return boolResult(awarded, ev.Points), nil
	}
	return RuleResult{}, fmt.Errorf("%w: %q", ErrUnknownEvaluator, ev.Type)
}

func evaluateSpecialRule(ev Evaluator, c SpecialBetContext) (RuleResult, error) {
	switch ev.Type {
	case TypeExactTeam:
		awarded := c.PredictedTeamID != nil && c.ActualTeamID != nil &&
			*c.PredictedTeamID == *c.ActualTeamID
		return boolResult(awarded, ev.Points), nil

	case TypeExactPlayer:
		// A position filter only restricts what is selectable at bet time;
		// scoring is a plain ID comparison.
		awarded := c.PredictedPlayerID != nil && c.ActualPlayerID != nil &&
			*c.PredictedPlayerID == *c.ActualPlayerID
		return boolResult(awarded, ev.Points), nil

	case TypeExactValue:
		awarded := c.PredictedValue != nil && c.ActualValue != nil &&
			*c.PredictedValue == *c.ActualValue
		return boolResult(awarded, ev.Points), nil

	case TypeClosestValue:
		if c.PredictedValue == nil || c.ActualValue == nil || c.CohortMinDistance == nil {
			return RuleResult{}, nil
		}
		awarded := abs(*c.PredictedValue-*c.ActualValue) == *c.CohortMinDistance
		return boolResult(awarded, ev.Points), nil

	case TypeGroupStageAdvance:
		cfg := ev.Config.GroupStage
		if cfg == nil {
			return RuleResult{}, fmt.Errorf("%w: %s", ErrMissingConfig, ev.Type)
		}
		if c.PredictedTeamID == nil {
			return RuleResult{}, nil
		}
		if c.ActualGroupWinnerID != nil && *c.PredictedTeamID == *c.ActualGroupWinnerID {
			return RuleResult{Awarded: true, Points: cfg.WinnerPoints}, nil
		}
		for _, id := range c.ActualAdvancingTeamIDs {
			if id == *c.PredictedTeamID {
				return RuleResult{Awarded: true, Points: cfg.AdvancePoints}, nil
			}
		}
		return RuleResult{}, nil
	}
	return RuleResult{}, fmt.Errorf("%w: %q", ErrUnknownEvaluator, ev.Type)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
