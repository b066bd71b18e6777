package batch

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/caseprep/qgate/internal/elite"
	"github.com/caseprep/qgate/internal/originality"
	"github.com/caseprep/qgate/internal/triage"
)

// Pipeline stage names, used in Outcome.Stage and Report.StageCounts.
const (
	StageStructural  = "structural"
	StageOriginality = "originality"
	StageElite       = "elite"
	StageLLM         = "llm"
)

// Outcome is the merged per-question verdict.
type Outcome struct {
	QuestionID string `json:"question_id"`

	// Status is the final disposition after merging all stages.
	Status triage.Status `json:"status"`

	// Stage names the pipeline stage that decided the status.
	Stage string `json:"stage"`

	// FinalScore is the LLM overall score when the LLM stage ran,
	// otherwise the elite composite.
	FinalScore float64 `json:"final_score"`

	StructuralIssues []string            `json:"structural_issues,omitempty"`
	Originality      *originality.Result `json:"originality,omitempty"`
	Elite            *elite.Result       `json:"elite,omitempty"`
	Verdict          *triage.Verdict     `json:"verdict,omitempty"`

	// Issues is the merged audit trail across stages. Retained on
	// accepted questions too.
	Issues []string `json:"issues,omitempty"`

	ElapsedMs int64 `json:"elapsed_ms"`

	// Cost is the incremental USD cost; non-zero only when the LLM
	// stage ran.
	Cost float64 `json:"cost"`
}

// Report is the batch-level result, built incrementally and finalized
// once all candidates are processed or a stop gate fires.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Total       int `json:"total"`
	Accepted    int `json:"accepted"`
	Rejected    int `json:"rejected"`
	NeedsReview int `json:"needs_review"`

	AcceptanceRate float64 `json:"acceptance_rate"`
	EliteCount     int     `json:"elite_count"`
	EliteRate      float64 `json:"elite_rate"`
	AverageScore   float64 `json:"average_score"`
	MedianScore    float64 `json:"median_score"`

	QualityGateFailures []GateEvent    `json:"quality_gate_failures"`
	StageCounts         map[string]int `json:"stage_counts"`
	IssueHistogram      map[string]int `json:"issue_histogram"`

	EstimatedCost float64 `json:"estimated_cost"`
	ElapsedMs     int64   `json:"elapsed_ms"`

	// ReviewSampleSize is the computed (or overridden) human-review
	// sample size; ReviewSample lists the drawn question IDs.
	ReviewSampleSize int      `json:"review_sample_size"`
	ReviewSample     []string `json:"review_sample,omitempty"`

	// Dispatched is how many candidates were actually processed; less
	// than Total when a stop gate fired.
	Dispatched int `json:"dispatched"`

	Outcomes []Outcome `json:"outcomes"`
}

// finalize computes the aggregate statistics from the accumulated
// outcomes.
func (r *Report) finalize() {
	r.FinishedAt = time.Now()
	r.ElapsedMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	r.StageCounts = make(map[string]int)
	r.IssueHistogram = make(map[string]int)

	var scores []float64
	for _, o := range r.Outcomes {
		r.StageCounts[o.Stage]++
		switch o.Status {
		case triage.StatusAccept:
			r.Accepted++
		case triage.StatusRevise:
			r.NeedsReview++
		case triage.StatusReject:
			r.Rejected++
		}
		if o.Elite != nil && o.Elite.IsElite {
			r.EliteCount++
		}
		for _, issue := range o.Issues {
			r.IssueHistogram[issue]++
		}
		r.EstimatedCost += o.Cost
		scores = append(scores, o.FinalScore)
	}

	r.Dispatched = len(r.Outcomes)
	if r.Dispatched > 0 {
		r.AcceptanceRate = float64(r.Accepted) / float64(r.Dispatched)
		r.EliteRate = float64(r.EliteCount) / float64(r.Dispatched)
	}
	if len(scores) > 0 {
		// Mean and median over every dispatched candidate, accepted
		// or not; errors are impossible on a non-empty input.
		r.AverageScore, _ = stats.Mean(scores)
		r.MedianScore, _ = stats.Median(scores)
	}
}

// StoppedByGate reports whether a STOP_GENERATION gate fired.
func (r *Report) StoppedByGate() bool {
	for _, ev := range r.QualityGateFailures {
		if ev.Action == ActionStopGeneration {
			return true
		}
	}
	return false
}
