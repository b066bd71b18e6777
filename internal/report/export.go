// Package report exports batch validation reports for audit: JSON is
// canonical, CSV and XLSX serve spreadsheet review.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caseprep/qgate/internal/batch"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Write exports the report to path in the given format.
func Write(r *batch.Report, path, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(r, path)
	case FormatCSV:
		return WriteCSV(r, path)
	case FormatXLSX:
		return WriteXLSX(r, path)
	}
	return fmt.Errorf("unknown report format: %q", format)
}

// WriteJSON writes the full report, outcomes included, as indented JSON.
func WriteJSON(r *batch.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"question_id", "status", "stage", "final_score", "elite_composite",
	"is_elite", "similarity", "cost", "elapsed_ms", "issues",
}

// WriteCSV writes one row per question outcome.
func WriteCSV(r *batch.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range r.Outcomes {
		if err := w.Write(outcomeRow(o)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func outcomeRow(o batch.Outcome) []string {
	eliteComposite, isElite, similarity := "", "false", ""
	if o.Elite != nil {
		eliteComposite = strconv.FormatFloat(o.Elite.Composite, 'f', 1, 64)
		isElite = strconv.FormatBool(o.Elite.IsElite)
	}
	if o.Originality != nil {
		similarity = strconv.FormatFloat(o.Originality.Similarity, 'f', 3, 64)
	}
	return []string{
		o.QuestionID,
		string(o.Status),
		o.Stage,
		strconv.FormatFloat(o.FinalScore, 'f', 1, 64),
		eliteComposite,
		isElite,
		similarity,
		strconv.FormatFloat(o.Cost, 'f', 6, 64),
		strconv.FormatInt(o.ElapsedMs, 10),
		strings.Join(o.Issues, "; "),
	}
}
