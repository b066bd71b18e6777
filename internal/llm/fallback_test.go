package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := NewMockProvider(MockResponse{Text: "primary answer"})
	backup := NewMockProvider(MockResponse{Text: "backup answer"})
	chain, err := NewFallbackProvider(primary, backup)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}

	resp, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "primary answer" {
		t.Errorf("text = %q, want primary answer", resp.Text)
	}
	if backup.CallCount() != 0 {
		t.Errorf("backup called %d times despite primary success", backup.CallCount())
	}
}

func TestFallback_MovesToNextOnFailure(t *testing.T) {
	primary := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	backup := NewMockProvider(MockResponse{Text: "backup answer"})
	chain, _ := NewFallbackProvider(primary, backup)

	resp, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "backup answer" {
		t.Errorf("text = %q, want backup answer", resp.Text)
	}
	if primary.CallCount() != 1 || backup.CallCount() != 1 {
		t.Errorf("calls: primary=%d backup=%d, want 1/1", primary.CallCount(), backup.CallCount())
	}
}

func TestFallback_AllExhausted(t *testing.T) {
	a := NewMockProvider(MockResponse{Err: errors.New("a down")})
	b := NewMockProvider(MockResponse{Err: errors.New("b down")})
	chain, _ := NewFallbackProvider(a, b)

	_, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("error type = %T, want *ErrProviderUnavailable", err)
	}
	// Both underlying failures must survive in the joined error.
	for _, want := range []string{"a down", "b down"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestFallback_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := NewMockProvider(MockResponse{Err: ctx.Err()})
	backup := NewMockProvider(MockResponse{Text: "backup answer"})
	chain, _ := NewFallbackProvider(primary, backup)

	if _, err := chain.Complete(ctx, Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected error after cancellation")
	}
	if backup.CallCount() != 0 {
		t.Errorf("backup called after caller cancellation")
	}
}

func TestFallback_RequiresAProvider(t *testing.T) {
	if _, err := NewFallbackProvider(); err == nil {
		t.Fatal("expected error for empty chain")
	}
}
