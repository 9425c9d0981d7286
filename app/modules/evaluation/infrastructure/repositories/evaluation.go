package evaldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// EvalDBImpl implements Repository on top of bun.
type EvalDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*EvalDBImpl)(nil)

// idb resolves the handle to use: the caller's transaction when given,
// otherwise the repository's own connection.
func (r *EvalDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *EvalDBImpl) InsertEvaluator(ctx context.Context, db bun.IDB, evaluator *Evaluator) error {
	if _, err := r.idb(db).NewInsert().Model(evaluator).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert evaluator for league %d: %w", evaluator.LeagueID, err)
	}
	return nil
}

func (r *EvalDBImpl) GetLeagueEvaluators(ctx context.Context, db bun.IDB, leagueID int64, entity string) ([]Evaluator, error) {
	var evaluators []Evaluator
	err := r.idb(db).NewSelect().
		Model(&evaluators).
		Where("league_id = ?", leagueID).
		Where("entity = ?", entity).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s evaluators for league %d: %w", entity, leagueID, err)
	}
	return evaluators, nil
}

func (r *EvalDBImpl) ListLeagueEvaluators(ctx context.Context, db bun.IDB, leagueID int64) ([]Evaluator, error) {
	var evaluators []Evaluator
	err := r.idb(db).NewSelect().
		Model(&evaluators).
		Where("league_id = ?", leagueID).
		Order("entity ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluators for league %d: %w", leagueID, err)
	}
	return evaluators, nil
}

func (r *EvalDBImpl) GetMatch(ctx context.Context, db bun.IDB, matchID int64) (*Match, error) {
	match := new(Match)
	err := r.idb(db).NewSelect().Model(match).Where("m.id = ?", matchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch match %d: %w", matchID, err)
	}
	return match, nil
}

func (r *EvalDBImpl) GetLeagueMatch(ctx context.Context, db bun.IDB, leagueMatchID int64) (*LeagueMatch, error) {
	lm := new(LeagueMatch)
	err := r.idb(db).NewSelect().Model(lm).Where("lm.id = ?", leagueMatchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("league match %d: %w", leagueMatchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch league match %d: %w", leagueMatchID, err)
	}
	return lm, nil
}

func (r *EvalDBImpl) GetMatchScorers(ctx context.Context, db bun.IDB, matchID int64) ([]MatchScorer, error) {
	var scorers []MatchScorer
	err := r.idb(db).NewSelect().
		Model(&scorers).
		Where("match_id = ?", matchID).
		Where("goals > 0").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scorers for match %d: %w", matchID, err)
	}
	return scorers, nil
}

func (r *EvalDBImpl) GetUserBets(ctx context.Context, db bun.IDB, leagueMatchID int64, userID *int64) ([]UserBet, error) {
	var bets []UserBet
	q := r.idb(db).NewSelect().
		Model(&bets).
		Where("league_match_id = ?", leagueMatchID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch bets for league match %d: %w", leagueMatchID, err)
	}
	return bets, nil
}

func (r *EvalDBImpl) UpdateUserBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*UserBet)(nil)).
		Set("total_points = ?", totalPoints).
		Set("updated_at = current_timestamp").
		Where("id = ?", betID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update points for bet %d: %w", betID, err)
	}
	return requireRows(res, betID)
}

func (r *EvalDBImpl) SetLeagueMatchEvaluated(ctx context.Context, db bun.IDB, leagueMatchID int64, evaluated bool) error {
	res, err := r.idb(db).NewUpdate().
		Model((*LeagueMatch)(nil)).
		Set("is_evaluated = ?", evaluated).
		Where("id = ?", leagueMatchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set evaluated flag on league match %d: %w", leagueMatchID, err)
	}
	return requireRows(res, leagueMatchID)
}

// SetMatchResult writes the final score and replaces the scorer list in one
// shot. Evaluation-state reset is the caller's concern so it stays visible in
// the orchestrating transaction.
func (r *EvalDBImpl) SetMatchResult(ctx context.Context, db bun.IDB, matchID int64, homeScore, awayScore int, overtime bool, scorers []MatchScorer) error {
	idb := r.idb(db)

	res, err := idb.NewUpdate().
		Model((*Match)(nil)).
		Set("home_regular_score = ?", homeScore).
		Set("away_regular_score = ?", awayScore).
		Set("overtime = ?", overtime).
		Where("id = ?", matchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set result for match %d: %w", matchID, err)
	}
	if err := requireRows(res, matchID); err != nil {
		return err
	}

	if _, err := idb.NewDelete().Model((*MatchScorer)(nil)).Where("match_id = ?", matchID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear scorers for match %d: %w", matchID, err)
	}
	if len(scorers) == 0 {
		return nil
	}
	for i := range scorers {
		scorers[i].MatchID = matchID
	}
	if _, err := idb.NewInsert().Model(&scorers).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert scorers for match %d: %w", matchID, err)
	}
	return nil
}

func (r *EvalDBImpl) ResetLeagueMatchEvaluations(ctx context.Context, db bun.IDB, matchID int64) (int, error) {
	res, err := r.idb(db).NewUpdate().
		Model((*LeagueMatch)(nil)).
		Set("is_evaluated = ?", false).
		Where("match_id = ?", matchID).
		Where("is_evaluated = ?", true).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset evaluations for match %d: %w", matchID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *EvalDBImpl) ScorerRanks(ctx context.Context, db bun.IDB, leagueID int64, asOf time.Time) (map[int64]int, error) {
	var rows []struct {
		PlayerID int64 `bun:"player_id"`
		Goals    int   `bun:"goals"`
	}
	err := r.idb(db).NewSelect().
		TableExpr("match_scorers AS ms").
		ColumnExpr("ms.player_id").
		ColumnExpr("SUM(ms.goals) AS goals").
		Join("JOIN matches AS m ON m.id = ms.match_id").
		Join("JOIN league_matches AS lm ON lm.match_id = m.id").
		Where("lm.league_id = ?", leagueID).
		Where("m.starts_at < ?", asOf).
		GroupExpr("ms.player_id").
		Having("SUM(ms.goals) > 0").
		OrderExpr("goals DESC, ms.player_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to compute scorer ranks for league %d: %w", leagueID, err)
	}

	// Competition ranking: players on equal goals share a rank, the next
	// distinct goal count skips past them (1, 2, 2, 4).
	ranks := make(map[int64]int, len(rows))
	currentRank := 0
	prevGoals := -1
	for i, row := range rows {
		if row.Goals != prevGoals {
			currentRank = i + 1
			prevGoals = row.Goals
		}
		ranks[row.PlayerID] = currentRank
	}
	return ranks, nil
}

func (r *EvalDBImpl) GetSerie(ctx context.Context, db bun.IDB, serieID int64) (*Serie, error) {
	serie := new(Serie)
	err := r.idb(db).NewSelect().Model(serie).Where("s.id = ?", serieID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("serie %d: %w", serieID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch serie %d: %w", serieID, err)
	}
	return serie, nil
}

func (r *EvalDBImpl) GetUserSerieBets(ctx context.Context, db bun.IDB, serieID int64, userID *int64) ([]UserSerieBet, error) {
	var bets []UserSerieBet
	q := r.idb(db).NewSelect().
		Model(&bets).
		Where("serie_id = ?", serieID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch bets for serie %d: %w", serieID, err)
	}
	return bets, nil
}

func (r *EvalDBImpl) UpdateUserSerieBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*UserSerieBet)(nil)).
		Set("total_points = ?", totalPoints).
		Set("updated_at = current_timestamp").
		Where("id = ?", betID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update points for serie bet %d: %w", betID, err)
	}
	return requireRows(res, betID)
}

func (r *EvalDBImpl) SetSerieEvaluated(ctx context.Context, db bun.IDB, serieID int64, evaluated bool) error {
	res, err := r.idb(db).NewUpdate().
		Model((*Serie)(nil)).
		Set("is_evaluated = ?", evaluated).
		Where("id = ?", serieID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set evaluated flag on serie %d: %w", serieID, err)
	}
	return requireRows(res, serieID)
}

func (r *EvalDBImpl) SetSerieResult(ctx context.Context, db bun.IDB, serieID int64, homeWins, awayWins int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*Serie)(nil)).
		Set("home_wins = ?", homeWins).
		Set("away_wins = ?", awayWins).
		Set("is_evaluated = ?", false).
		Where("id = ?", serieID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set result for serie %d: %w", serieID, err)
	}
	return requireRows(res, serieID)
}

func (r *EvalDBImpl) GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID int64) (*SpecialBet, error) {
	bet := new(SpecialBet)
	err := r.idb(db).NewSelect().Model(bet).Where("sb.id = ?", specialBetID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("special bet %d: %w", specialBetID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch special bet %d: %w", specialBetID, err)
	}
	return bet, nil
}

func (r *EvalDBImpl) GetUserSpecialBets(ctx context.Context, db bun.IDB, specialBetID int64) ([]UserSpecialBet, error) {
	var bets []UserSpecialBet
	err := r.idb(db).NewSelect().
		Model(&bets).
		Where("special_bet_id = ?", specialBetID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bets for special bet %d: %w", specialBetID, err)
	}
	return bets, nil
}

func (r *EvalDBImpl) UpdateUserSpecialBetPoints(ctx context.Context, db bun.IDB, betID int64, totalPoints int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*UserSpecialBet)(nil)).
		Set("total_points = ?", totalPoints).
		Set("updated_at = current_timestamp").
		Where("id = ?", betID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update points for special bet %d: %w", betID, err)
	}
	return requireRows(res, betID)
}

func (r *EvalDBImpl) SetSpecialBetEvaluated(ctx context.Context, db bun.IDB, specialBetID int64, evaluated bool) error {
	res, err := r.idb(db).NewUpdate().
		Model((*SpecialBet)(nil)).
		Set("is_evaluated = ?", evaluated).
		Where("id = ?", specialBetID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set evaluated flag on special bet %d: %w", specialBetID, err)
	}
	return requireRows(res, specialBetID)
}

func (r *EvalDBImpl) SetSpecialBetResult(ctx context.Context, db bun.IDB, bet *SpecialBet) error {
	res, err := r.idb(db).NewUpdate().
		Model(bet).
		Column("team_result_id", "player_result_id", "value_result", "group_winner_team_id", "advancing_team_ids").
		Set("is_evaluated = ?", false).
		Where("id = ?", bet.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set result for special bet %d: %w", bet.ID, err)
	}
	return requireRows(res, bet.ID)
}

func (r *EvalDBImpl) GetQuestion(ctx context.Context, db bun.IDB, questionID int64) (*Question, error) {
	question := new(Question)
	err := r.idb(db).NewSelect().Model(question).Where("q.id = ?", questionID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch question %d: %w", questionID, err)
	}
	return question, nil
}

func (r *EvalDBImpl) SetQuestionResult(ctx context.Context, db bun.IDB, questionID int64, correctAnswer string) error {
	res, err := r.idb(db).NewUpdate().
		Model((*Question)(nil)).
		Set("correct_answer = ?", correctAnswer).
		Set("is_evaluated = ?", false).
		Where("id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set answer for question %d: %w", questionID, err)
	}
	return requireRows(res, questionID)
}

func (r *EvalDBImpl) GetUserAnswers(ctx context.Context, db bun.IDB, questionID int64) ([]UserAnswer, error) {
	var answers []UserAnswer
	err := r.idb(db).NewSelect().
		Model(&answers).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch answers for question %d: %w", questionID, err)
	}
	return answers, nil
}

func (r *EvalDBImpl) UpdateUserAnswerPoints(ctx context.Context, db bun.IDB, answerID int64, totalPoints int) error {
	res, err := r.idb(db).NewUpdate().
		Model((*UserAnswer)(nil)).
		Set("total_points = ?", totalPoints).
		Where("id = ?", answerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update points for answer %d: %w", answerID, err)
	}
	return requireRows(res, answerID)
}

func (r *EvalDBImpl) SetQuestionEvaluated(ctx context.Context, db bun.IDB, questionID int64, evaluated bool) error {
	res, err := r.idb(db).NewUpdate().
		Model((*Question)(nil)).
		Set("is_evaluated = ?", evaluated).
		Where("id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set evaluated flag on question %d: %w", questionID, err)
	}
	return requireRows(res, questionID)
}

func requireRows(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %d: %w", id, ErrNoRowsAffected)
	}
	return nil
}
