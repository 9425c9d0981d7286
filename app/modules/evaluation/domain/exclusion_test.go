package evaldomain

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func matchEvaluators() []Evaluator {
	return []Evaluator{
		{ID: 1, Type: TypeExactScore, Entity: EntityMatch, Points: 10},
		{ID: 2, Type: TypeScoreDifference, Entity: EntityMatch, Points: 5},
		{ID: 3, Type: TypeOneTeamScore, Entity: EntityMatch, Points: 2},
		{ID: 4, Type: TypeWinner, Entity: EntityMatch, Points: 3},
	}
}

// An exact 2-1 prediction raw-matches exact_score, score_difference and
// one_team_score; only exact_score (plus winner) may contribute.
func TestScoreBetExclusionEndToEnd(t *testing.T) {
	ctx := MatchContext{
		PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1),
		ActualHomeScore: 2, ActualAwayScore: 1,
	}

	score, skips := ScoreBet(matchEvaluators(), ctx, false)
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %v", skips)
	}

	if score.Total != 13 { // exact_score 10 + winner 3
		t.Errorf("Total = %d, want 13", score.Total)
	}

	byType := map[EvaluatorType]EvaluatorOutcome{}
	for _, o := range score.Outcomes {
		byType[o.Type] = o
	}

	if o := byType[TypeExactScore]; !o.Awarded || o.Points != 10 || o.Excluded {
		t.Errorf("exact_score outcome = %+v", o)
	}
	if o := byType[TypeScoreDifference]; !o.Excluded || o.Points != 0 {
		t.Errorf("score_difference should be excluded with 0 points, got %+v", o)
	}
	if o := byType[TypeOneTeamScore]; !o.Excluded || o.Points != 0 {
		t.Errorf("one_team_score should be excluded with 0 points, got %+v", o)
	}
	if o := byType[TypeWinner]; !o.Awarded || o.Points != 3 {
		t.Errorf("winner outcome = %+v", o)
	}
}

// A correct differential without the exact score keeps score_difference.
func TestScoreBetPartialExclusion(t *testing.T) {
	ctx := MatchContext{
		PredictedHomeScore: intPtr(3), PredictedAwayScore: intPtr(2),
		ActualHomeScore: 2, ActualAwayScore: 1,
	}

	score, _ := ScoreBet(matchEvaluators(), ctx, false)

	// score_difference 5 + winner 3; one_team_score raw condition does not
	// hold here (neither side matches), exact_score misses.
	if score.Total != 8 {
		t.Errorf("Total = %d, want 8", score.Total)
	}
}

func TestScoreBetOneTeamScoreSurvivesAlone(t *testing.T) {
	// Home side correct, differential wrong: only one_team_score and nothing
	// stronger fires, so it keeps its points.
	ctx := MatchContext{
		PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(0),
		ActualHomeScore: 2, ActualAwayScore: 1,
	}

	score, _ := ScoreBet(matchEvaluators(), ctx, false)

	byType := map[EvaluatorType]EvaluatorOutcome{}
	for _, o := range score.Outcomes {
		byType[o.Type] = o
	}
	if o := byType[TypeOneTeamScore]; !o.Awarded || o.Points != 2 || o.Excluded {
		t.Errorf("one_team_score outcome = %+v", o)
	}
	if score.Total != 2+3 { // one_team_score + winner
		t.Errorf("Total = %d, want 5", score.Total)
	}
}

// The post-exclusion total must be identical for any permutation of evaluator
// execution order.
func TestScoreBetOrderIndependence(t *testing.T) {
	ctx := MatchContext{
		PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1),
		ActualHomeScore: 2, ActualAwayScore: 1,
	}

	base, _ := ScoreBet(matchEvaluators(), ctx, false)
	sortOutcomes := func(out []EvaluatorOutcome) {
		sort.Slice(out, func(i, j int) bool { return out[i].EvaluatorID < out[j].EvaluatorID })
	}
	sortOutcomes(base.Outcomes)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		evs := matchEvaluators()
		rng.Shuffle(len(evs), func(a, b int) { evs[a], evs[b] = evs[b], evs[a] })

		got, _ := ScoreBet(evs, ctx, false)
		sortOutcomes(got.Outcomes)

		if diff := cmp.Diff(base, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("permutation %d diverged (-base +got):\n%s", i, diff)
		}
	}
}

func TestScoreBetDoubling(t *testing.T) {
	ctx := MatchContext{
		PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1),
		ActualHomeScore: 2, ActualAwayScore: 1,
		PredictedScorerID:   int64Ptr(42),
		ActualScorerIDs:     []int64{42},
		PredictedScorerRank: intPtr(2),
	}
	evs := append(matchEvaluators(), Evaluator{
		ID: 5, Type: TypeScorer, Entity: EntityMatch,
		Config: Config{RankedScorer: &RankedScorerConfig{RankedPoints: map[int]int{2: 4}, UnrankedPoints: 8}},
	})

	plain, _ := ScoreBet(evs, ctx, false)
	doubled, _ := ScoreBet(evs, ctx, true)

	if plain.Total != 17 { // exact_score 10 + winner 3 + ranked scorer 4
		t.Fatalf("plain Total = %d, want 17", plain.Total)
	}
	if doubled.Total != 2*plain.Total {
		t.Errorf("doubled Total = %d, want %d", doubled.Total, 2*plain.Total)
	}
}

// Closest-value ties all win, including ties at distance zero alongside
// exact_value: special bets have no exclusion pass.
func TestScoreBetClosestValueTies(t *testing.T) {
	evs := []Evaluator{
		{ID: 1, Type: TypeExactValue, Entity: EntitySpecial, Points: 6},
		{ID: 2, Type: TypeClosestValue, Entity: EntitySpecial, Points: 4},
	}

	cohort := []int{3, 5, 5, 9}
	min, ok := MinDistance(5, cohort)
	if !ok || min != 0 {
		t.Fatalf("MinDistance = (%d, %v), want (0, true)", min, ok)
	}

	totals := map[int]int{}
	for i, predicted := range cohort {
		ctx := SpecialBetContext{
			PredictedValue:    intPtr(predicted),
			ActualValue:       intPtr(5),
			CohortMinDistance: intPtr(min),
		}
		score, _ := ScoreBet(evs, ctx, false)
		totals[i] = score.Total
	}

	// The two users on 5 earn exact_value and closest_value, the rest nothing.
	want := map[int]int{0: 0, 1: 10, 2: 10, 3: 0}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreBetSkipsUnknownAndMisconfigured(t *testing.T) {
	evs := []Evaluator{
		{ID: 1, Type: TypeWinner, Entity: EntityMatch, Points: 3},
		{ID: 2, Type: "retired_rule", Entity: EntityMatch, Points: 99},
	}
	ctx := MatchContext{
		PredictedHomeScore: intPtr(2), PredictedAwayScore: intPtr(1),
		ActualHomeScore: 2, ActualAwayScore: 1,
	}

	score, skips := ScoreBet(evs, ctx, false)
	if score.Total != 3 {
		t.Errorf("Total = %d, want 3 (unknown type contributes nothing)", score.Total)
	}
	if len(skips) != 1 || skips[0].Evaluator.ID != 2 {
		t.Errorf("skips = %+v, want single skip for evaluator 2", skips)
	}
}

func TestExclusionTableIsACopy(t *testing.T) {
	table := ExclusionTable()
	table[TypeScoreDifference] = nil
	delete(table, TypeOneTeamScore)

	fresh := ExclusionTable()
	if len(fresh[TypeScoreDifference]) != 1 || len(fresh[TypeOneTeamScore]) != 2 {
		t.Errorf("mutating the returned table leaked into the static mapping: %v", fresh)
	}
}
