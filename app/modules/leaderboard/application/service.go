package leaderboardservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	leaderboarddb "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	repo   leaderboarddb.Repository
	logger *slog.Logger
	tracer trace.Tracer
	db     *bun.DB
}

// NewLeaderboardService creates a new LeaderboardService. db may be nil in
// tests; repository calls then run against whatever handle the fake provides.
func NewLeaderboardService(
	repo leaderboarddb.Repository,
	logger *slog.Logger,
	tracer trace.Tracer,
	db *bun.DB,
) *LeaderboardService {
	return &LeaderboardService{
		repo:   repo,
		logger: logger,
		tracer: tracer,
		db:     db,
	}
}

func (s *LeaderboardService) runInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// RebuildStandings recomputes a league's standings from scratch. Ties on
// total points share a rank and the next rank is skipped (1, 2, 2, 4).
func (s *LeaderboardService) RebuildStandings(ctx context.Context, leagueID int64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "RebuildStandings", trace.WithAttributes(
		attribute.Int64("league_id", leagueID),
	))
	defer span.End()

	var ranked int
	err := s.runInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		totals, err := s.repo.SumPoints(ctx, db, leagueID)
		if err != nil {
			return err
		}

		standings := rankTotals(leagueID, totals)
		if err := s.repo.ReplaceStandings(ctx, db, leagueID, standings); err != nil {
			return err
		}
		ranked = len(standings)
		return nil
	})
	if err != nil {
		wrappedErr := fmt.Errorf("failed to rebuild standings for league %d: %w", leagueID, err)
		span.RecordError(wrappedErr)
		return 0, wrappedErr
	}

	s.logger.InfoContext(ctx, "Standings rebuilt",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("league_id", leagueID),
		attr.Int("users_ranked", ranked),
	)
	return ranked, nil
}

// rankTotals orders totals by points (ties broken by user ID for stable
// output) and assigns competition ranks.
func rankTotals(leagueID int64, totals []leaderboarddb.PointsTotals) []leaderboarddb.Standing {
	standings := make([]leaderboarddb.Standing, 0, len(totals))
	for _, t := range totals {
		standings = append(standings, leaderboarddb.Standing{
			LeagueID:       leagueID,
			UserID:         t.UserID,
			MatchPoints:    t.MatchPoints,
			SeriePoints:    t.SeriePoints,
			SpecialPoints:  t.SpecialPoints,
			QuestionPoints: t.QuestionPoints,
			TotalPoints:    t.MatchPoints + t.SeriePoints + t.SpecialPoints + t.QuestionPoints,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].TotalPoints != standings[j].TotalPoints {
			return standings[i].TotalPoints > standings[j].TotalPoints
		}
		return standings[i].UserID < standings[j].UserID
	})

	for i := range standings {
		if i > 0 && standings[i].TotalPoints == standings[i-1].TotalPoints {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}

func (s *LeaderboardService) GetStandings(ctx context.Context, leagueID int64) ([]StandingView, error) {
	ctx, span := s.tracer.Start(ctx, "GetStandings", trace.WithAttributes(
		attribute.Int64("league_id", leagueID),
	))
	defer span.End()

	standings, err := s.repo.GetStandings(ctx, nil, leagueID)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to fetch standings for league %d: %w", leagueID, err)
		span.RecordError(wrappedErr)
		return nil, wrappedErr
	}

	views := make([]StandingView, 0, len(standings))
	for _, st := range standings {
		views = append(views, StandingView{
			Rank:           st.Rank,
			UserID:         st.UserID,
			MatchPoints:    st.MatchPoints,
			SeriePoints:    st.SeriePoints,
			SpecialPoints:  st.SpecialPoints,
			QuestionPoints: st.QuestionPoints,
			TotalPoints:    st.TotalPoints,
		})
	}
	return views, nil
}

func (s *LeaderboardService) PointsHistoryChart(ctx context.Context, leagueID, userID int64) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "PointsHistoryChart", trace.WithAttributes(
		attribute.Int64("league_id", leagueID),
		attribute.Int64("user_id", userID),
	))
	defer span.End()

	history, err := s.repo.GetHistory(ctx, nil, leagueID, userID)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to fetch standing history for league %d user %d: %w", leagueID, userID, err)
		span.RecordError(wrappedErr)
		return nil, wrappedErr
	}

	points := make([]HistoryPointView, 0, len(history))
	for _, snap := range history {
		points = append(points, HistoryPointView{
			TotalPoints: snap.TotalPoints,
			Rank:        snap.Rank,
			RecordedAt:  snap.RecordedAt,
		})
	}

	png, err := GeneratePointsHistoryChart(points, DefaultChartPalette)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to render points history chart: %w", err)
		span.RecordError(wrappedErr)
		return nil, wrappedErr
	}
	return png, nil
}
