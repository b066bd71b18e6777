package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/caseprep/qgate/internal/store"
)

type recordingEventRepo struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func (r *recordingEventRepo) SaveRun(context.Context, store.RunRecord) error { return nil }

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{
		Text:  "ok",
		Usage: Usage{InputTokens: 812, OutputTokens: 144, TotalTokens: 956},
	})
	p := WithLogging(mock, repo)

	ctx := WithPurpose(context.Background(), "question-review")
	if _, err := p.Complete(ctx, Request{Prompt: "hi"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("got %d events, want 1", len(repo.events))
	}
	ev := repo.events[0]
	if !ev.Success {
		t.Error("success event recorded as failure")
	}
	if ev.Purpose != "question-review" {
		t.Errorf("purpose = %q", ev.Purpose)
	}
	if ev.InputTokens != 812 || ev.OutputTokens != 144 {
		t.Errorf("tokens = %d/%d", ev.InputTokens, ev.OutputTokens)
	}
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, repo)

	if _, err := p.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected provider error")
	}

	ev := repo.events[0]
	if ev.Success {
		t.Error("failure event recorded as success")
	}
	if ev.ErrorMessage == "" {
		t.Error("error message not captured")
	}
	if ev.Purpose != "unknown" {
		t.Errorf("purpose = %q, want unknown without a context label", ev.Purpose)
	}
}

func TestLogging_RepoFailureDoesNotFailRequest(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("db locked")}
	mock := NewMockProvider(MockResponse{Text: "ok"})
	p := WithLogging(mock, repo)

	resp, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("logging failure leaked into the request: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestEstimateCost(t *testing.T) {
	usage := Usage{InputTokens: 1_000_000, OutputTokens: 500_000}
	got := EstimateCost("gpt-4o-mini", usage)
	want := 0.15 + 0.3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cost = %v, want %v", got, want)
	}

	if c := EstimateCost("some-unknown-model", usage); c != 0 {
		t.Errorf("unknown model cost = %v, want 0", c)
	}
}
