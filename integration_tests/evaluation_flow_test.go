package integrationtests

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.opentelemetry.io/otel/trace/noop"

	bettingservice "github.com/tipliga-club/tipliga-backend/app/modules/betting/application"
	bettingdb "github.com/tipliga-club/tipliga-backend/app/modules/betting/infrastructure/repositories"
	evalservice "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/application"
	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	evalmigrations "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories/migrations"
	leaderboardservice "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/application"
	leaderboarddb "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories"
	leaderboardmigrations "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories/migrations"
	"github.com/tipliga-club/tipliga-backend/app/shared/observability"
	"github.com/tipliga-club/tipliga-backend/eventbus"
	"github.com/tipliga-club/tipliga-backend/integration_tests/containers"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, dsn, err := containers.SetupPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, migrations := range []*migrate.Migrations{evalmigrations.Migrations, leaderboardmigrations.Migrations} {
		migrator := migrate.NewMigrator(db, migrations)
		require.NoError(t, migrator.Init(ctx))
		_, err := migrator.Migrate(ctx)
		require.NoError(t, err)
	}
	return db
}

// TestMatchEvaluationFlow walks the full pipeline against a real database:
// configure evaluators, place bets, enter the result, evaluate, and rebuild
// the standings.
func TestMatchEvaluationFlow(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	tracer := noop.NewTracerProvider().Tracer("integration")
	logger := observability.NoOpLogger

	evalSvc := evalservice.NewEvaluationService(
		&evaldb.EvalDBImpl{DB: db}, eventbus.NoOpBus{}, logger, evalservice.NoOpMetrics{}, tracer, db,
	)
	lbSvc := leaderboardservice.NewLeaderboardService(&leaderboarddb.LeaderboardDBImpl{DB: db}, logger, tracer, db)

	kickoff := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	betSvc := bettingservice.NewBettingService(
		&bettingdb.BettingDBImpl{DB: db}, nil, logger, tracer, db,
		func() time.Time { return kickoff.Add(-30 * time.Minute) },
	)

	const leagueID = int64(1)

	// League scoring rules.
	for _, input := range []evalservice.CreateEvaluatorInput{
		{LeagueID: leagueID, Type: "exact_score", Points: 10},
		{LeagueID: leagueID, Type: "winner", Points: 5},
	} {
		result, err := evalSvc.CreateEvaluator(ctx, input)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
	}

	// Fixture.
	match := &evaldb.Match{
		HomeTeamID: int64(gofakeit.Number(1, 500)),
		AwayTeamID: int64(gofakeit.Number(501, 1000)),
		StartsAt:   kickoff,
	}
	_, err := db.NewInsert().Model(match).Exec(ctx)
	require.NoError(t, err)
	leagueMatch := &evaldb.LeagueMatch{LeagueID: leagueID, MatchID: match.ID}
	_, err = db.NewInsert().Model(leagueMatch).Exec(ctx)
	require.NoError(t, err)

	// A match is scheduled at most once per league.
	duplicate := &evaldb.LeagueMatch{LeagueID: leagueID, MatchID: match.ID}
	_, err = db.NewInsert().Model(duplicate).Exec(ctx)
	require.Error(t, err)

	// Two users bet before kickoff.
	exact, err := betSvc.PlaceMatchBet(ctx, bettingservice.MatchBetInput{
		UserID: 101, LeagueMatchID: leagueMatch.ID, HomeScore: ptr(2), AwayScore: ptr(1),
	})
	require.NoError(t, err)
	require.True(t, exact.IsSuccess())
	winnerOnly, err := betSvc.PlaceMatchBet(ctx, bettingservice.MatchBetInput{
		UserID: 102, LeagueMatchID: leagueMatch.ID, HomeScore: ptr(3), AwayScore: ptr(0),
	})
	require.NoError(t, err)
	require.True(t, winnerOnly.IsSuccess())

	// Result comes in.
	entered, err := evalSvc.EnterMatchResult(ctx, match.ID, 2, 1, false, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, entered.IsSuccess())

	// Evaluate the league match.
	evaluated, err := evalSvc.EvaluateMatch(ctx, match.ID, leagueMatch.ID, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, evaluated.IsSuccess())
	require.Equal(t, 2, evaluated.Success.UsersEvaluated)
	require.Equal(t, 20, evaluated.Success.TotalPointsAwarded)

	var bets []evaldb.UserBet
	require.NoError(t, db.NewSelect().Model(&bets).
		Where("league_match_id = ?", leagueMatch.ID).
		Order("user_id ASC").
		Scan(ctx))
	require.Len(t, bets, 2)
	require.Equal(t, 15, bets[0].TotalPoints)
	require.Equal(t, 5, bets[1].TotalPoints)

	// Re-running without a user filter is rejected.
	again, err := evalSvc.EvaluateMatch(ctx, match.ID, leagueMatch.ID, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, again.IsFailure())
	require.Equal(t, evalservice.ReasonAlreadyEvaluated, again.Failure.Reason)

	// Standings reflect the awarded points.
	ranked, err := lbSvc.RebuildStandings(ctx, leagueID)
	require.NoError(t, err)
	require.Equal(t, 2, ranked)

	standings, err := lbSvc.GetStandings(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	require.Equal(t, int64(101), standings[0].UserID)
	require.Equal(t, 1, standings[0].Rank)
	require.Equal(t, 15, standings[0].TotalPoints)
	require.Equal(t, int64(102), standings[1].UserID)
	require.Equal(t, 2, standings[1].Rank)
}

// TestResultCorrectionReopensEvaluation verifies that correcting a result
// voids the previous evaluation and a re-run applies the new scores.
func TestResultCorrectionReopensEvaluation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	tracer := noop.NewTracerProvider().Tracer("integration")
	logger := observability.NoOpLogger

	evalSvc := evalservice.NewEvaluationService(
		&evaldb.EvalDBImpl{DB: db}, eventbus.NoOpBus{}, logger, evalservice.NoOpMetrics{}, tracer, db,
	)

	const leagueID = int64(1)
	created, err := evalSvc.CreateEvaluator(ctx, evalservice.CreateEvaluatorInput{
		LeagueID: leagueID, Type: "exact_score", Points: 10,
	})
	require.NoError(t, err)
	require.True(t, created.IsSuccess())

	match := &evaldb.Match{HomeTeamID: 1, AwayTeamID: 2, StartsAt: time.Now().UTC()}
	_, err = db.NewInsert().Model(match).Exec(ctx)
	require.NoError(t, err)
	leagueMatch := &evaldb.LeagueMatch{LeagueID: leagueID, MatchID: match.ID}
	_, err = db.NewInsert().Model(leagueMatch).Exec(ctx)
	require.NoError(t, err)

	bet := &evaldb.UserBet{UserID: 101, LeagueMatchID: leagueMatch.ID, HomeScore: ptr(1), AwayScore: ptr(0)}
	_, err = db.NewInsert().Model(bet).Exec(ctx)
	require.NoError(t, err)

	entered, err := evalSvc.EnterMatchResult(ctx, match.ID, 2, 0, false, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, entered.IsSuccess())
	evaluated, err := evalSvc.EvaluateMatch(ctx, match.ID, leagueMatch.ID, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, evaluated.IsSuccess())
	require.Equal(t, 0, evaluated.Success.TotalPointsAwarded)

	// Correction: the real score matches the bet.
	corrected, err := evalSvc.EnterMatchResult(ctx, match.ID, 1, 0, false, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, corrected.IsSuccess())
	require.Equal(t, 1, corrected.Success.Reopened)

	evaluated, err = evalSvc.EvaluateMatch(ctx, match.ID, leagueMatch.ID, nil, "it-admin")
	require.NoError(t, err)
	require.True(t, evaluated.IsSuccess())
	require.Equal(t, 10, evaluated.Success.TotalPointsAwarded)
}

func ptr[T any](v T) *T { return &v }
