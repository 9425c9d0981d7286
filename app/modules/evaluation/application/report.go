package evalservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	evaldb "github.com/tipliga-club/tipliga-backend/app/modules/evaluation/infrastructure/repositories"
	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

// MatchEvaluationReport renders the persisted evaluation state of one league
// match as an XLSX workbook: one row per bet with prediction, scorer pick and
// awarded points. Built from stored rows, so it reflects the last committed
// run rather than a fresh scoring pass.
func (s *EvaluationService) MatchEvaluationReport(ctx context.Context, leagueMatchID int64) ([]byte, error) {
	leagueMatch, err := s.repo.GetLeagueMatch(ctx, nil, leagueMatchID)
	if err != nil {
		if errors.Is(err, evaldb.ErrNotFound) {
			return nil, fmt.Errorf("league match %d: %w", leagueMatchID, evaldb.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load league match: %w", err)
	}
	match, err := s.repo.GetMatch(ctx, nil, leagueMatch.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	bets, err := s.repo.GetUserBets(ctx, nil, leagueMatchID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load user bets: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Evaluation"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := []any{"User ID", "Predicted Home", "Predicted Away", "Scorer Pick", "Points"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	meta := []any{
		fmt.Sprintf("League match %d", leagueMatchID),
		fmt.Sprintf("Result %s - %s", formatScore(match.HomeRegularScore), formatScore(match.AwayRegularScore)),
		fmt.Sprintf("Doubled: %t", leagueMatch.IsDoubled),
		fmt.Sprintf("Evaluated: %t", leagueMatch.IsEvaluated),
	}
	if err := f.SetSheetRow(sheet, "G1", &meta); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	for i, bet := range bets {
		row := []any{
			bet.UserID,
			formatScore(bet.HomeScore),
			formatScore(bet.AwayScore),
			formatScorer(bet.ScorerID),
			bet.TotalPoints,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write bet row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Evaluation report generated",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("league_match_id", leagueMatchID),
		attr.Int("bets", len(bets)),
	)
	return buf.Bytes(), nil
}

func formatScore(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatScorer(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}
