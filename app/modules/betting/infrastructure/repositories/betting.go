package bettingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
)

// BettingDBImpl implements Repository on top of bun.
type BettingDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*BettingDBImpl)(nil)

func (r *BettingDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *BettingDBImpl) GetLeagueMatch(ctx context.Context, db bun.IDB, leagueMatchID int64) (*evaldb.LeagueMatch, error) {
	lm := new(evaldb.LeagueMatch)
	err := r.idb(db).NewSelect().Model(lm).Where("lm.id = ?", leagueMatchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("league match %d: %w", leagueMatchID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch league match %d: %w", leagueMatchID, err)
	}
	return lm, nil
}

func (r *BettingDBImpl) GetMatch(ctx context.Context, db bun.IDB, matchID int64) (*evaldb.Match, error) {
	match := new(evaldb.Match)
	err := r.idb(db).NewSelect().Model(match).Where("m.id = ?", matchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %d: %w", matchID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch match %d: %w", matchID, err)
	}
	return match, nil
}

func (r *BettingDBImpl) GetSerie(ctx context.Context, db bun.IDB, serieID int64) (*evaldb.Serie, error) {
	serie := new(evaldb.Serie)
	err := r.idb(db).NewSelect().Model(serie).Where("s.id = ?", serieID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("serie %d: %w", serieID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch serie %d: %w", serieID, err)
	}
	return serie, nil
}

func (r *BettingDBImpl) GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID int64) (*evaldb.SpecialBet, error) {
	bet := new(evaldb.SpecialBet)
	err := r.idb(db).NewSelect().Model(bet).Where("sb.id = ?", specialBetID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("special bet %d: %w", specialBetID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch special bet %d: %w", specialBetID, err)
	}
	return bet, nil
}

func (r *BettingDBImpl) GetQuestion(ctx context.Context, db bun.IDB, questionID int64) (*evaldb.Question, error) {
	question := new(evaldb.Question)
	err := r.idb(db).NewSelect().Model(question).Where("q.id = ?", questionID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", questionID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch question %d: %w", questionID, err)
	}
	return question, nil
}

func (r *BettingDBImpl) UpsertUserBet(ctx context.Context, db bun.IDB, bet *evaldb.UserBet) error {
	bet.UpdatedAt = time.Now().UTC()
	_, err := r.idb(db).NewInsert().
		Model(bet).
		On("CONFLICT (user_id, league_match_id) WHERE deleted_at IS NULL DO UPDATE").
		Set("home_score = EXCLUDED.home_score").
		Set("away_score = EXCLUDED.away_score").
		Set("scorer_id = EXCLUDED.scorer_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert bet for user %d on league match %d: %w", bet.UserID, bet.LeagueMatchID, err)
	}
	return nil
}

func (r *BettingDBImpl) UpsertUserSerieBet(ctx context.Context, db bun.IDB, bet *evaldb.UserSerieBet) error {
	bet.UpdatedAt = time.Now().UTC()
	_, err := r.idb(db).NewInsert().
		Model(bet).
		On("CONFLICT (user_id, serie_id) WHERE deleted_at IS NULL DO UPDATE").
		Set("home_wins = EXCLUDED.home_wins").
		Set("away_wins = EXCLUDED.away_wins").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert serie bet for user %d on serie %d: %w", bet.UserID, bet.SerieID, err)
	}
	return nil
}

func (r *BettingDBImpl) UpsertUserSpecialBet(ctx context.Context, db bun.IDB, bet *evaldb.UserSpecialBet) error {
	bet.UpdatedAt = time.Now().UTC()
	_, err := r.idb(db).NewInsert().
		Model(bet).
		On("CONFLICT (user_id, special_bet_id) WHERE deleted_at IS NULL DO UPDATE").
		Set("team_id = EXCLUDED.team_id").
		Set("player_id = EXCLUDED.player_id").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert special bet for user %d on special bet %d: %w", bet.UserID, bet.SpecialBetID, err)
	}
	return nil
}

func (r *BettingDBImpl) UpsertUserAnswer(ctx context.Context, db bun.IDB, answer *evaldb.UserAnswer) error {
	_, err := r.idb(db).NewInsert().
		Model(answer).
		On("CONFLICT (user_id, question_id) WHERE deleted_at IS NULL DO UPDATE").
		Set("answer = EXCLUDED.answer").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert answer for user %d on question %d: %w", answer.UserID, answer.QuestionID, err)
	}
	return nil
}

func (r *BettingDBImpl) GetUserBet(ctx context.Context, db bun.IDB, userID, leagueMatchID int64) (*evaldb.UserBet, error) {
	bet := new(evaldb.UserBet)
	err := r.idb(db).NewSelect().
		Model(bet).
		Where("ub.user_id = ?", userID).
		Where("ub.league_match_id = ?", leagueMatchID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bet for user %d on league match %d: %w", userID, leagueMatchID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch bet for user %d on league match %d: %w", userID, leagueMatchID, err)
	}
	return bet, nil
}

func (r *BettingDBImpl) GetUserSerieBet(ctx context.Context, db bun.IDB, userID, serieID int64) (*evaldb.UserSerieBet, error) {
	bet := new(evaldb.UserSerieBet)
	err := r.idb(db).NewSelect().
		Model(bet).
		Where("usb.user_id = ?", userID).
		Where("usb.serie_id = ?", serieID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("serie bet for user %d on serie %d: %w", userID, serieID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch serie bet for user %d on serie %d: %w", userID, serieID, err)
	}
	return bet, nil
}

func (r *BettingDBImpl) GetUserSpecialBet(ctx context.Context, db bun.IDB, userID, specialBetID int64) (*evaldb.UserSpecialBet, error) {
	bet := new(evaldb.UserSpecialBet)
	err := r.idb(db).NewSelect().
		Model(bet).
		Where("usp.user_id = ?", userID).
		Where("usp.special_bet_id = ?", specialBetID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("special bet for user %d on special bet %d: %w", userID, specialBetID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch special bet for user %d on special bet %d: %w", userID, specialBetID, err)
	}
	return bet, nil
}
