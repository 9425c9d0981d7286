package evaldomain

// exclusions maps a weaker evaluator type to the stronger types whose success
// voids it for the same bet. It is a code-level contract: admin tooling may
// read it, league configuration never edits it. Only match evaluators
// overlap; series and special-bet rule sets are disjoint by construction.
var exclusions = map[EvaluatorType][]EvaluatorType{
	TypeScoreDifference: {TypeExactScore},
	TypeOneTeamScore:    {TypeExactScore, TypeScoreDifference},
}

// ExclusionTable returns a copy of the static exclusion mapping for
// inspection.
func ExclusionTable() map[EvaluatorType][]EvaluatorType {
	out := make(map[EvaluatorType][]EvaluatorType, len(exclusions))
	for weak, strong := range exclusions {
		out[weak] = append([]EvaluatorType(nil), strong...)
	}
	return out
}

// EvaluatorOutcome is the per-evaluator detail of one scored bet, retained
// for audit logging and admin feedback.
type EvaluatorOutcome struct {
	EvaluatorID int64         `json:"evaluatorId"`
	Type        EvaluatorType `json:"type"`
	Awarded     bool          `json:"awarded"`
	Points      int           `json:"points"`
	Excluded    bool          `json:"excluded"`
}

// BetScore is the result of running every configured evaluator over one bet.
type BetScore struct {
	Total    int
	Outcomes []EvaluatorOutcome
}

// Skip records an evaluator that contributed nothing because it could not be
// run at all (unknown type, wrong entity, missing config).
type Skip struct {
	Evaluator Evaluator
	Err       error
}

// ScoreBet runs the full per-bet pipeline: every evaluator independently
// against the same context, then the exclusion pass, then the doubling
// multiplier on the summed total.
//
// The two passes are deliberate. Suppression needs global knowledge of which
// stronger rules fired, so the first pass never short-circuits; the final
// total is identical for any iteration order of the evaluators.
func ScoreBet(evaluators []Evaluator, ctx Context, doubled bool) (BetScore, []Skip) {
	outcomes := make([]EvaluatorOutcome, 0, len(evaluators))
	var skips []Skip

	// Pass 1: raw, order-independent evaluation.
	rawAwarded := make(map[EvaluatorType]bool, len(evaluators))
	for _, ev := range evaluators {
		res, err := EvaluateRule(ev, ctx)
		if err != nil {
			skips = append(skips, Skip{Evaluator: ev, Err: err})
			continue
		}
		outcomes = append(outcomes, EvaluatorOutcome{
			EvaluatorID: ev.ID,
			Type:        ev.Type,
			Awarded:     res.Awarded,
			Points:      res.Points,
		})
		if res.Points > 0 {
			rawAwarded[ev.Type] = true
		}
	}

	// Pass 2: suppress weaker outcomes whose exclusion set intersects the
	// raw-awarded set. Match evaluators only; other entities carry no
	// overlapping rules.
	_, isMatch := ctx.(MatchContext)
	total := 0
	for i := range outcomes {
		if isMatch && outcomes[i].Points > 0 {
			for _, stronger := range exclusions[outcomes[i].Type] {
				if rawAwarded[stronger] {
					outcomes[i].Excluded = true
					outcomes[i].Points = 0
					break
				}
			}
		}
		total += outcomes[i].Points
	}

	if doubled {
		total *= 2
	}

	return BetScore{Total: total, Outcomes: outcomes}, skips
}
