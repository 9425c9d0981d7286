package leaderboarddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// LeaderboardDBImpl implements Repository on top of bun.
type LeaderboardDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*LeaderboardDBImpl)(nil)

func (r *LeaderboardDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

type userPoints struct {
	UserID int64 `bun:"user_id"`
	Points int   `bun:"points"`
}

// SumPoints aggregates per-user totals from the four bet tables. Each query
// sums one kind; the merge happens here so a user betting in only one kind
// still gets a standings row.
func (r *LeaderboardDBImpl) SumPoints(ctx context.Context, db bun.IDB, leagueID int64) ([]PointsTotals, error) {
	byUser := make(map[int64]*PointsTotals)
	totals := func(userID int64) *PointsTotals {
		t, ok := byUser[userID]
		if !ok {
			t = &PointsTotals{UserID: userID}
			byUser[userID] = t
		}
		return t
	}

	var matchRows []userPoints
	err := r.idb(db).NewSelect().
		TableExpr("user_bets AS ub").
		ColumnExpr("ub.user_id AS user_id").
		ColumnExpr("SUM(ub.total_points) AS points").
		Join("JOIN league_matches AS lm ON lm.id = ub.league_match_id").
		Where("lm.league_id = ?", leagueID).
		Where("ub.deleted_at IS NULL").
		GroupExpr("ub.user_id").
		Scan(ctx, &matchRows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum match points for league %d: %w", leagueID, err)
	}
	for _, row := range matchRows {
		totals(row.UserID).MatchPoints = row.Points
	}

	var serieRows []userPoints
	err = r.idb(db).NewSelect().
		TableExpr("user_serie_bets AS usb").
		ColumnExpr("usb.user_id AS user_id").
		ColumnExpr("SUM(usb.total_points) AS points").
		Join("JOIN series AS s ON s.id = usb.serie_id").
		Where("s.league_id = ?", leagueID).
		Where("usb.deleted_at IS NULL").
		GroupExpr("usb.user_id").
		Scan(ctx, &serieRows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum serie points for league %d: %w", leagueID, err)
	}
	for _, row := range serieRows {
		totals(row.UserID).SeriePoints = row.Points
	}

	var specialRows []userPoints
	err = r.idb(db).NewSelect().
		TableExpr("user_special_bets AS usp").
		ColumnExpr("usp.user_id AS user_id").
		ColumnExpr("SUM(usp.total_points) AS points").
		Join("JOIN special_bets AS sb ON sb.id = usp.special_bet_id").
		Where("sb.league_id = ?", leagueID).
		Where("usp.deleted_at IS NULL").
		GroupExpr("usp.user_id").
		Scan(ctx, &specialRows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum special bet points for league %d: %w", leagueID, err)
	}
	for _, row := range specialRows {
		totals(row.UserID).SpecialPoints = row.Points
	}

	var questionRows []userPoints
	err = r.idb(db).NewSelect().
		TableExpr("user_answers AS ua").
		ColumnExpr("ua.user_id AS user_id").
		ColumnExpr("SUM(ua.total_points) AS points").
		Join("JOIN questions AS q ON q.id = ua.question_id").
		Where("q.league_id = ?", leagueID).
		Where("ua.deleted_at IS NULL").
		GroupExpr("ua.user_id").
		Scan(ctx, &questionRows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum question points for league %d: %w", leagueID, err)
	}
	for _, row := range questionRows {
		totals(row.UserID).QuestionPoints = row.Points
	}

	out := make([]PointsTotals, 0, len(byUser))
	for _, t := range byUser {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *LeaderboardDBImpl) ReplaceStandings(ctx context.Context, db bun.IDB, leagueID int64, standings []Standing) error {
	h := r.idb(db)

	if _, err := h.NewDelete().
		Model((*Standing)(nil)).
		Where("league_id = ?", leagueID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear standings for league %d: %w", leagueID, err)
	}

	if len(standings) == 0 {
		return nil
	}

	now := time.Now().UTC()
	snapshots := make([]StandingSnapshot, 0, len(standings))
	for i := range standings {
		standings[i].LeagueID = leagueID
		standings[i].UpdatedAt = now
		snapshots = append(snapshots, StandingSnapshot{
			LeagueID:    leagueID,
			UserID:      standings[i].UserID,
			TotalPoints: standings[i].TotalPoints,
			Rank:        standings[i].Rank,
			RecordedAt:  now,
		})
	}

	if _, err := h.NewInsert().Model(&standings).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert standings for league %d: %w", leagueID, err)
	}
	if _, err := h.NewInsert().Model(&snapshots).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append standing history for league %d: %w", leagueID, err)
	}
	return nil
}

func (r *LeaderboardDBImpl) GetStandings(ctx context.Context, db bun.IDB, leagueID int64) ([]Standing, error) {
	var standings []Standing
	err := r.idb(db).NewSelect().
		Model(&standings).
		Where("league_id = ?", leagueID).
		Order("rank ASC", "user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standings for league %d: %w", leagueID, err)
	}
	return standings, nil
}

func (r *LeaderboardDBImpl) GetHistory(ctx context.Context, db bun.IDB, leagueID, userID int64) ([]StandingSnapshot, error) {
	var history []StandingSnapshot
	err := r.idb(db).NewSelect().
		Model(&history).
		Where("league_id = ?", leagueID).
		Where("user_id = ?", userID).
		Order("recorded_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standing history for league %d user %d: %w", leagueID, userID, err)
	}
	return history, nil
}
