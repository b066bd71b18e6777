package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_TransientErrorRecovered(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("blip")}},
		MockResponse{Text: "recovered"},
	)
	p := WithRetry(mock, fastRetryConfig())

	resp, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("text = %q", resp.Text)
	}
	if mock.CallCount() != 2 {
		t.Errorf("call count = %d, want 2", mock.CallCount())
	}
}

func TestRetry_AuthErrorNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrAuth{Err: errors.New("bad key")}},
		MockResponse{Text: "never reached"},
	)
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	var auth *ErrAuth
	if !errors.As(err, &auth) {
		t.Fatalf("error = %v, want *ErrAuth", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("retried an auth failure: %d calls", mock.CallCount())
	}
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{Text: "truncated"}})
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("error = %v, want *ErrMaxTokensExceeded", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("retried a max-tokens failure: %d calls", mock.CallCount())
	}
}

func TestRetry_AttemptBudgetExhausted(t *testing.T) {
	mock := NewMockProvider()
	for i := 0; i < 5; i++ {
		mock.AddResponse(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("still down")}})
	}
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error after budget exhausted")
	}
	if mock.CallCount() != fastRetryConfig().MaxAttempts {
		t.Errorf("call count = %d, want %d", mock.CallCount(), fastRetryConfig().MaxAttempts)
	}
}

func TestRetry_RespectsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 20 * time.Millisecond, Err: errors.New("429")}},
		MockResponse{Text: "after the wait"},
	)
	p := WithRetry(mock, fastRetryConfig())

	start := time.Now()
	resp, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "after the wait" {
		t.Errorf("text = %q", resp.Text)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("retried after %v, before the server's RetryAfter", elapsed)
	}
}

func TestRetry_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: time.Minute}})
	p := WithRetry(mock, fastRetryConfig())

	cancel()
	_, err := p.Complete(ctx, Request{Prompt: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("call count = %d, want 1", mock.CallCount())
	}
}
