// Package triage obtains machine quality verdicts for candidate
// questions from a low-cost LLM reviewer, with multi-provider
// resilience. Failures never escape a single question's review: they
// degrade to conservative REVISE verdicts.
package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/caseprep/qgate/internal/llm"
	"github.com/caseprep/qgate/internal/question"
)

// Config tunes the reviewer.
type Config struct {
	// MinAcceptScore is the overall score below which a raw ACCEPT is
	// downgraded to REVISE. Default 70.
	MinAcceptScore float64

	// MinReviseScore is the overall score below which any non-REJECT
	// status is forced to REJECT. Default 50.
	MinReviseScore float64

	// StopOnRejectStreak halts batch validation after this many
	// consecutive REJECTs: the upstream generator is broken and every
	// further call wastes money. Default 5.
	StopOnRejectStreak int

	// MaxTokens bounds the review response.
	MaxTokens int

	// Temperature for the review call. Kept at 0 for determinism.
	Temperature float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinAcceptScore:     70,
		MinReviseScore:     50,
		StopOnRejectStreak: 5,
		MaxTokens:          1024,
		Temperature:        0,
	}
}

// Counters are running call totals for monitoring.
type Counters struct {
	Total  int
	Accept int
	Revise int
	Reject int
}

// Validator reviews candidate questions through an LLM provider chain.
type Validator struct {
	provider llm.Provider
	config   Config

	mu       sync.Mutex
	counters Counters
}

// NewValidator creates a Validator. The provider is typically a
// fallback chain built by llm.NewProvider.
func NewValidator(provider llm.Provider, cfg Config) *Validator {
	return &Validator{provider: provider, config: cfg}
}

// review is the raw decoded model payload before reconciliation.
type review struct {
	Status            string   `json:"status"`
	OverallScore      float64  `json:"overall_score"`
	MedicalAccuracy   float64  `json:"medical_accuracy"`
	DistractorQuality float64  `json:"distractor_quality"`
	VignetteQuality   float64  `json:"vignette_quality"`
	Issues            []string `json:"issues"`
	Suggestions       []string `json:"suggestions"`
}

// ValidateQuestion reviews one candidate. It never returns an error:
// provider exhaustion and unparseable replies both degrade to a
// REVISE verdict with score 0 and a diagnostic issue.
func (v *Validator) ValidateQuestion(ctx context.Context, q *question.Question) Verdict {
	start := time.Now()
	ctx = llm.WithPurpose(ctx, "question-review")

	resp, err := v.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(q),
		MaxTokens:   v.config.MaxTokens,
		Temperature: v.config.Temperature,
	})
	if err != nil {
		return v.record(Verdict{
			QuestionID:   q.ID,
			Status:       StatusRevise,
			OverallScore: 0,
			Issues:       []string{fmt.Sprintf("validator unavailable: %v", err)},
			Provider:     "none",
			LatencyMs:    time.Since(start).Milliseconds(),
		})
	}

	raw, err := ExtractJSON(resp.Text)
	if err == nil {
		err = validateReview(raw)
	}
	if err != nil {
		return v.record(Verdict{
			QuestionID:   q.ID,
			Status:       StatusRevise,
			OverallScore: 0,
			Issues:       []string{fmt.Sprintf("unparseable review response: %v", err)},
			Provider:     resp.Provider,
			Model:        resp.Model,
			LatencyMs:    time.Since(start).Milliseconds(),
			Cost:         llm.EstimateCost(resp.Model, resp.Usage),
		})
	}

	var r review
	if jsonErr := json.Unmarshal(raw, &r); jsonErr != nil {
		// Schema validation passed, so this should not happen; treat
		// like any other parse failure.
		return v.record(Verdict{
			QuestionID:   q.ID,
			Status:       StatusRevise,
			OverallScore: 0,
			Issues:       []string{fmt.Sprintf("unparseable review response: %v", jsonErr)},
			Provider:     resp.Provider,
			Model:        resp.Model,
			LatencyMs:    time.Since(start).Milliseconds(),
			Cost:         llm.EstimateCost(resp.Model, resp.Usage),
		})
	}

	status := reconcileStatus(Status(r.Status), r.OverallScore,
		v.config.MinAcceptScore, v.config.MinReviseScore)

	return v.record(Verdict{
		QuestionID:        q.ID,
		Status:            status,
		OverallScore:      r.OverallScore,
		MedicalAccuracy:   r.MedicalAccuracy,
		DistractorQuality: r.DistractorQuality,
		VignetteQuality:   r.VignetteQuality,
		Issues:            r.Issues,
		Suggestions:       r.Suggestions,
		Provider:          resp.Provider,
		Model:             resp.Model,
		LatencyMs:         time.Since(start).Milliseconds(),
		Cost:              llm.EstimateCost(resp.Model, resp.Usage),
	})
}

// ValidateBatch reviews candidates in submission order, halting early
// once StopOnRejectStreak consecutive REJECTs occur. The returned
// slice may be shorter than the input.
func (v *Validator) ValidateBatch(ctx context.Context, questions []question.Question) []Verdict {
	streak := 0
	verdicts := make([]Verdict, 0, len(questions))

	for i := range questions {
		verdict := v.ValidateQuestion(ctx, &questions[i])
		verdicts = append(verdicts, verdict)

		if verdict.Status == StatusReject {
			streak++
			if v.config.StopOnRejectStreak > 0 && streak >= v.config.StopOnRejectStreak {
				break
			}
		} else {
			streak = 0
		}
	}
	return verdicts
}

// Stats returns a copy of the running call counters.
func (v *Validator) Stats() Counters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counters
}

func (v *Validator) record(verdict Verdict) Verdict {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counters.Total++
	switch verdict.Status {
	case StatusAccept:
		v.counters.Accept++
	case StatusRevise:
		v.counters.Revise++
	case StatusReject:
		v.counters.Reject++
	}
	return verdict
}
