package evalmigrations

import (
	"context"
	"fmt"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	models := []any{
		(*evaldb.Evaluator)(nil),
		(*evaldb.Match)(nil),
		(*evaldb.MatchScorer)(nil),
		(*evaldb.LeagueMatch)(nil),
		(*evaldb.UserBet)(nil),
		(*evaldb.Serie)(nil),
		(*evaldb.UserSerieBet)(nil),
		(*evaldb.SpecialBet)(nil),
		(*evaldb.UserSpecialBet)(nil),
		(*evaldb.Question)(nil),
		(*evaldb.UserAnswer)(nil),
	}

	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, model := range models {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			indices := []struct {
				name  string
				table string
				cols  string
			}{
				{"idx_evaluators_league_entity", "evaluators", "(league_id, entity)"},
				{"idx_league_matches_match", "league_matches", "(match_id)"},
				{"idx_league_matches_league", "league_matches", "(league_id)"},
				{"idx_user_bets_league_match", "user_bets", "(league_match_id)"},
				{"idx_user_bets_user", "user_bets", "(user_id)"},
				{"idx_match_scorers_match", "match_scorers", "(match_id)"},
				{"idx_user_serie_bets_serie", "user_serie_bets", "(serie_id)"},
				{"idx_user_special_bets_bet", "user_special_bets", "(special_bet_id)"},
				{"idx_user_answers_question", "user_answers", "(question_id)"},
			}
			for _, idx := range indices {
				stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s %s", idx.name, idx.table, idx.cols)
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create index %s: %w", idx.name, err)
				}
			}

			// One bet per user per event, one schedule row per match per league.
			uniques := []string{
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_league_matches_league_match ON league_matches (league_id, match_id)",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_user_bets_user_match ON user_bets (user_id, league_match_id) WHERE deleted_at IS NULL",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_user_serie_bets_user_serie ON user_serie_bets (user_id, serie_id) WHERE deleted_at IS NULL",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_user_special_bets_user_bet ON user_special_bets (user_id, special_bet_id) WHERE deleted_at IS NULL",
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_user_answers_user_question ON user_answers (user_id, question_id) WHERE deleted_at IS NULL",
			}
			for _, stmt := range uniques {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create unique index: %w", err)
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
