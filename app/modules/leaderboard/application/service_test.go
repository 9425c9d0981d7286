package leaderboardservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	leaderboarddb "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
)

var errForced = errors.New("storage unavailable")

type fakeRepo struct {
	totals    map[int64][]leaderboarddb.PointsTotals
	standings map[int64][]leaderboarddb.Standing
	history   map[int64][]leaderboarddb.StandingSnapshot
	forcedErr error

	replacedWith []leaderboarddb.Standing
}

var _ leaderboarddb.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		totals:    make(map[int64][]leaderboarddb.PointsTotals),
		standings: make(map[int64][]leaderboarddb.Standing),
		history:   make(map[int64][]leaderboarddb.StandingSnapshot),
	}
}

func (f *fakeRepo) SumPoints(_ context.Context, _ bun.IDB, leagueID int64) ([]leaderboarddb.PointsTotals, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.totals[leagueID], nil
}

func (f *fakeRepo) ReplaceStandings(_ context.Context, _ bun.IDB, leagueID int64, standings []leaderboarddb.Standing) error {
	if f.forcedErr != nil {
		return f.forcedErr
	}
	f.replacedWith = standings
	f.standings[leagueID] = standings
	return nil
}

func (f *fakeRepo) GetStandings(_ context.Context, _ bun.IDB, leagueID int64) ([]leaderboarddb.Standing, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.standings[leagueID], nil
}

func (f *fakeRepo) GetHistory(_ context.Context, _ bun.IDB, leagueID, userID int64) ([]leaderboarddb.StandingSnapshot, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []leaderboarddb.StandingSnapshot
	for _, snap := range f.history[leagueID] {
		if snap.UserID == userID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func newTestService(repo *fakeRepo) *LeaderboardService {
	return NewLeaderboardService(repo, observability.NoOpLogger, noop.NewTracerProvider().Tracer("test"), nil)
}

func TestRebuildStandingsRanksCompetitionStyle(t *testing.T) {
	repo := newFakeRepo()
	repo.totals[1] = []leaderboarddb.PointsTotals{
		{UserID: 101, MatchPoints: 10, SeriePoints: 5},
		{UserID: 102, MatchPoints: 8, QuestionPoints: 7},
		{UserID: 103, SpecialPoints: 15},
		{UserID: 104, MatchPoints: 3},
	}
	svc := newTestService(repo)

	ranked, err := svc.RebuildStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 4, ranked)

	require.Len(t, repo.replacedWith, 4)

	// 101, 102 and 103 all total 15 and share rank 1; the next rank is 4.
	require.Equal(t, int64(101), repo.replacedWith[0].UserID)
	require.Equal(t, 1, repo.replacedWith[0].Rank)
	require.Equal(t, 15, repo.replacedWith[0].TotalPoints)

	require.Equal(t, int64(102), repo.replacedWith[1].UserID)
	require.Equal(t, 1, repo.replacedWith[1].Rank)

	require.Equal(t, int64(103), repo.replacedWith[2].UserID)
	require.Equal(t, 1, repo.replacedWith[2].Rank)

	require.Equal(t, int64(104), repo.replacedWith[3].UserID)
	require.Equal(t, 4, repo.replacedWith[3].Rank)
	require.Equal(t, 3, repo.replacedWith[3].TotalPoints)
}

func TestRebuildStandingsOrdersByPointsThenUserID(t *testing.T) {
	repo := newFakeRepo()
	repo.totals[1] = []leaderboarddb.PointsTotals{
		{UserID: 5, MatchPoints: 2},
		{UserID: 3, MatchPoints: 9},
		{UserID: 7, MatchPoints: 9},
	}
	svc := newTestService(repo)

	_, err := svc.RebuildStandings(context.Background(), 1)
	require.NoError(t, err)

	require.Equal(t, int64(3), repo.replacedWith[0].UserID)
	require.Equal(t, int64(7), repo.replacedWith[1].UserID)
	require.Equal(t, 1, repo.replacedWith[1].Rank)
	require.Equal(t, int64(5), repo.replacedWith[2].UserID)
	require.Equal(t, 3, repo.replacedWith[2].Rank)
}

func TestRebuildStandingsEmptyLeague(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	ranked, err := svc.RebuildStandings(context.Background(), 42)
	require.NoError(t, err)
	require.Zero(t, ranked)
	require.Empty(t, repo.replacedWith)
}

func TestRebuildStandingsRepoError(t *testing.T) {
	repo := newFakeRepo()
	repo.forcedErr = errForced
	svc := newTestService(repo)

	_, err := svc.RebuildStandings(context.Background(), 1)
	require.ErrorIs(t, err, errForced)
}

func TestGetStandingsMapsViews(t *testing.T) {
	repo := newFakeRepo()
	repo.standings[1] = []leaderboarddb.Standing{
		{LeagueID: 1, UserID: 101, Rank: 1, MatchPoints: 10, SeriePoints: 2, TotalPoints: 12},
		{LeagueID: 1, UserID: 102, Rank: 2, QuestionPoints: 4, TotalPoints: 4},
	}
	svc := newTestService(repo)

	views, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, StandingView{Rank: 1, UserID: 101, MatchPoints: 10, SeriePoints: 2, TotalPoints: 12}, views[0])
	require.Equal(t, StandingView{Rank: 2, UserID: 102, QuestionPoints: 4, TotalPoints: 4}, views[1])
}

func TestPointsHistoryChartRendersPNG(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	repo.history[1] = []leaderboarddb.StandingSnapshot{
		{LeagueID: 1, UserID: 101, TotalPoints: 5, Rank: 2, RecordedAt: base},
		{LeagueID: 1, UserID: 101, TotalPoints: 12, Rank: 1, RecordedAt: base.Add(24 * time.Hour)},
		{LeagueID: 1, UserID: 102, TotalPoints: 9, Rank: 3, RecordedAt: base},
	}
	svc := newTestService(repo)

	png, err := svc.PointsHistoryChart(context.Background(), 1, 101)
	require.NoError(t, err)
	require.True(t, len(png) > 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestPointsHistoryChartNoData(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	png, err := svc.PointsHistoryChart(context.Background(), 1, 999)
	require.NoError(t, err)
	require.True(t, len(png) > 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
