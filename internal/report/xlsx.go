// Package report exports pair sessions as spreadsheets.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
)

const (
	sessionsSheet = "Sessions"
	axesSheet     = "Axes"
)

var (
	sessionHeaders = []string{
		"session_id", "relationship", "host", "guest", "completed",
		"type_code", "category", "exact_match", "synchrony_percent",
		"overall_divergence_percent", "overridden", "incomplete",
	}
	axisHeaders = []string{
		"session_id", "axis", "name", "score_a", "score_b", "pair_score",
		"gap", "threshold", "label", "divergence_percent",
	}
)

// WriteXLSX writes one row per session to the Sessions sheet and one row per
// axis of each completed session to the Axes sheet.
func WriteXLSX(path string, list []pairing.Status) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a single Sheet1.
	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	if _, err := f.NewSheet(axesSheet); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	if err := writeRow(f, sessionsSheet, 1, toCells(sessionHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, axesSheet, 1, toCells(axisHeaders)); err != nil {
		return err
	}

	axisRow := 2
	for i, st := range list {
		row := []any{st.SessionID, st.Relationship, st.HostName, st.GuestName, st.Completed}
		if res := st.Result; res != nil {
			row = append(row,
				string(res.TypeCode), res.Category.Name, res.ExactMatch, res.SynchronyPercent,
				res.OverallDivergencePercent, res.Overridden, res.Incomplete)
			for _, d := range res.Axes {
				cells := []any{
					st.SessionID, string(d.Axis), d.Name, d.ScoreA, d.ScoreB, d.PairScore,
					d.Gap, d.Threshold, d.Label.Name, d.DivergencePercent,
				}
				if err := writeRow(f, axesSheet, axisRow, cells); err != nil {
					return err
				}
				axisRow++
			}
		}
		if err := writeRow(f, sessionsSheet, i+2, row); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write xlsx %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(headers []string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
