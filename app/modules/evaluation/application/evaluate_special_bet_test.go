package evalservice

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
)

func seedSpecialBetFixture(repo *fakeRepo) {
	repo.specialBets[40] = &evaldb.SpecialBet{
		ID:           40,
		LeagueID:     1,
		Title:        "Total goals in the tournament",
		ValueResult:  ptr(100),
		TeamResultID: ptr(int64(55)),
	}
}

func TestEvaluateSpecialBetExactAndClosestCoAward(t *testing.T) {
	repo := newFakeRepo()
	seedSpecialBetFixture(repo)
	repo.addEvaluator(1, "exact_value", "special", 10, nil)
	repo.addEvaluator(1, "closest_value", "special", 5, nil)
	repo.userSpecials = []evaldb.UserSpecialBet{
		{ID: 1, UserID: 1, SpecialBetID: 40, Value: ptr(100)}, // exact, distance 0
		{ID: 2, UserID: 2, SpecialBetID: 40, Value: ptr(99)},  // distance 1, beaten
		{ID: 3, UserID: 3, SpecialBetID: 40},                  // no prediction
	}
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	result, err := svc.EvaluateSpecialBet(context.Background(), 40, "admin")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())

	// An exact hit is also the closest prediction; both rules award.
	require.Equal(t, 15, repo.pointsByBet[1])
	require.Equal(t, 0, repo.pointsByBet[2])
	require.Equal(t, 0, repo.pointsByBet[3])
	require.True(t, repo.specialBets[40].IsEvaluated)
	require.Len(t, bus.topics(), 1)
}

func TestEvaluateSpecialBetClosestValueTies(t *testing.T) {
	repo := newFakeRepo()
	seedSpecialBetFixture(repo)
	repo.addEvaluator(1, "closest_value", "special", 5, nil)
	repo.userSpecials = []evaldb.UserSpecialBet{
		{ID: 1, UserID: 1, SpecialBetID: 40, Value: ptr(98)},  // distance 2
		{ID: 2, UserID: 2, SpecialBetID: 40, Value: ptr(102)}, // distance 2
		{ID: 3, UserID: 3, SpecialBetID: 40, Value: ptr(90)},  // distance 10
	}
	svc := newTestService(repo, &fakeBus{})

	result, err := svc.EvaluateSpecialBet(context.Background(), 40, "admin")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())

	// Both predictions at the winning distance are awarded, either side of
	// the actual value.
	require.Equal(t, 5, repo.pointsByBet[1])
	require.Equal(t, 5, repo.pointsByBet[2])
	require.Equal(t, 0, repo.pointsByBet[3])
}

func TestEvaluateSpecialBetTeamAndGroupStage(t *testing.T) {
	repo := newFakeRepo()
	repo.specialBets[41] = &evaldb.SpecialBet{
		ID:                41,
		LeagueID:          1,
		Title:             "Group A outcome",
		GroupWinnerTeamID: ptr(int64(55)),
		AdvancingTeamIDs:  []int64{55, 56},
	}
	repo.addEvaluator(1, "group_stage_advance", "special", 0,
		json.RawMessage(`{"winnerPoints":10,"advancePoints":4}`))
	repo.userSpecials = []evaldb.UserSpecialBet{
		{ID: 1, UserID: 1, SpecialBetID: 41, TeamID: ptr(int64(55))}, // winner
		{ID: 2, UserID: 2, SpecialBetID: 41, TeamID: ptr(int64(56))}, // advanced
		{ID: 3, UserID: 3, SpecialBetID: 41, TeamID: ptr(int64(57))}, // eliminated
	}
	svc := newTestService(repo, &fakeBus{})

	result, err := svc.EvaluateSpecialBet(context.Background(), 41, "admin")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	require.Equal(t, 10, repo.pointsByBet[1])
	require.Equal(t, 4, repo.pointsByBet[2])
	require.Equal(t, 0, repo.pointsByBet[3])
}

func TestEvaluateSpecialBetDoubled(t *testing.T) {
	repo := newFakeRepo()
	seedSpecialBetFixture(repo)
	repo.specialBets[40].IsDoubled = true
	repo.addEvaluator(1, "exact_team", "special", 7, nil)
	repo.userSpecials = []evaldb.UserSpecialBet{
		{ID: 1, UserID: 1, SpecialBetID: 40, TeamID: ptr(int64(55))},
	}
	svc := newTestService(repo, &fakeBus{})

	result, err := svc.EvaluateSpecialBet(context.Background(), 40, "admin")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	require.Equal(t, 14, repo.pointsByBet[1])
}

func TestEvaluateSpecialBetPreconditions(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(repo *fakeRepo)
		betID      int64
		wantReason ReasonCode
	}{
		{
			name:       "unknown special bet",
			setup:      func(repo *fakeRepo) { repo.addEvaluator(1, "exact_value", "special", 10, nil) },
			betID:      999,
			wantReason: ReasonNotFound,
		},
		{
			name: "already evaluated",
			setup: func(repo *fakeRepo) {
				repo.specialBets[40].IsEvaluated = true
				repo.addEvaluator(1, "exact_value", "special", 10, nil)
			},
			betID:      40,
			wantReason: ReasonAlreadyEvaluated,
		},
		{
			name: "missing result",
			setup: func(repo *fakeRepo) {
				repo.specialBets[40].ValueResult = nil
				repo.specialBets[40].TeamResultID = nil
				repo.addEvaluator(1, "exact_value", "special", 10, nil)
			},
			betID:      40,
			wantReason: ReasonMissingResult,
		},
		{
			name:       "no evaluators",
			setup:      func(repo *fakeRepo) {},
			betID:      40,
			wantReason: ReasonNoEvaluators,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			seedSpecialBetFixture(repo)
			tt.setup(repo)
			svc := newTestService(repo, &fakeBus{})

			result, err := svc.EvaluateSpecialBet(context.Background(), tt.betID, "admin")
			require.NoError(t, err)
			require.True(t, result.IsFailure())
			require.Equal(t, tt.wantReason, result.Failure.Reason)
		})
	}
}
