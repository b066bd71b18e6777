package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/caseprep/qgate/internal/batch"
)

// WriteXLSX writes a two-sheet workbook: a Summary sheet with the
// batch statistics and gate events, and a Questions sheet mirroring
// the CSV rows.
func WriteXLSX(r *batch.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	rows := [][]any{
		{"Batch ID", r.ID},
		{"Started", r.StartedAt.Format("2006-01-02 15:04:05")},
		{"Total", r.Total},
		{"Dispatched", r.Dispatched},
		{"Accepted", r.Accepted},
		{"Rejected", r.Rejected},
		{"Needs review", r.NeedsReview},
		{"Acceptance rate", r.AcceptanceRate},
		{"Elite count", r.EliteCount},
		{"Elite rate", r.EliteRate},
		{"Average score", r.AverageScore},
		{"Median score", r.MedianScore},
		{"Estimated cost (USD)", r.EstimatedCost},
		{"Elapsed (ms)", r.ElapsedMs},
		{"Review sample size", r.ReviewSampleSize},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	gateStart := len(rows) + 2
	for i, ev := range r.QualityGateFailures {
		cell, _ := excelize.CoordinatesToCellName(1, gateStart+i)
		row := []any{"Gate failure", string(ev.Action), ev.TriggerIndex, ev.Rate, ev.Message}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("write gate row: %w", err)
		}
	}

	const questions = "Questions"
	if _, err := f.NewSheet(questions); err != nil {
		return fmt.Errorf("create questions sheet: %w", err)
	}
	header := make([]any, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(questions, "A1", &header); err != nil {
		return fmt.Errorf("write questions header: %w", err)
	}
	for i, o := range r.Outcomes {
		cells := outcomeRow(o)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(questions, cell, &row); err != nil {
			return fmt.Errorf("write questions row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx report: %w", err)
	}
	return nil
}
