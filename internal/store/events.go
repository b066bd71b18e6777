package store

import (
	"context"
	"fmt"
	"time"
)

// LLMRequestEventData captures a single LLM API call for cost
// tracking and debugging.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RunRecord summarizes one completed validation batch.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Total          int
	Accepted       int
	Rejected       int
	NeedsReview    int
	AcceptanceRate float64
	EliteCount     int
	EstimatedCost  float64
	ReportPath     string
}

// EventRepo provides append access to audit events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// SaveRun records a completed validation run.
	SaveRun(ctx context.Context, run RunRecord) error
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{store: s}
}

type eventRepo struct {
	store *Store
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO llm_request_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		data.Success, data.ErrorMessage)
	if err != nil {
		return fmt.Errorf("append llm request event: %w", err)
	}
	return nil
}

func (r *eventRepo) SaveRun(ctx context.Context, run RunRecord) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO validation_runs
			(id, started_at, finished_at, total, accepted, rejected, needs_review,
			 acceptance_rate, elite_count, estimated_cost, report_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Total, run.Accepted,
		run.Rejected, run.NeedsReview, run.AcceptanceRate, run.EliteCount,
		run.EstimatedCost, run.ReportPath)
	if err != nil {
		return fmt.Errorf("save validation run %s: %w", run.ID, err)
	}
	return nil
}

// NopEventRepo discards all events. Used when the gate runs without a
// database.
type NopEventRepo struct{}

func (NopEventRepo) AppendLLMRequest(context.Context, LLMRequestEventData) error { return nil }
func (NopEventRepo) SaveRun(context.Context, RunRecord) error                    { return nil }
