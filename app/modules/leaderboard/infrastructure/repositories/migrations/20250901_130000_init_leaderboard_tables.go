package leaderboardmigrations

import (
	"context"
	"fmt"

	leaderboarddb "github.com/tipliga-club/tipliga-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	models := []any{
		(*leaderboarddb.Standing)(nil),
		(*leaderboarddb.StandingSnapshot)(nil),
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, model := range models {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			stmts := []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_league_standings_league_user ON league_standings (league_id, user_id)",
				"CREATE INDEX IF NOT EXISTS idx_league_standings_league_rank ON league_standings (league_id, rank)",
				"CREATE INDEX IF NOT EXISTS idx_standing_history_league_user ON league_standing_history (league_id, user_id, recorded_at)",
			}
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create leaderboard index: %w", err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for i := len(models) - 1; i >= 0; i-- {
				if _, err := tx.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
				}
			}
			return nil
		})
	})
}
