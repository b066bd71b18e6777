package triage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/caseprep/qgate/internal/llm"
	"github.com/caseprep/qgate/internal/question"
)

func reviewJSON(status string, score float64) string {
	return fmt.Sprintf(`{"status":%q,"overall_score":%v,"medical_accuracy":%v,"distractor_quality":%v,"vignette_quality":%v,"issues":[],"suggestions":[]}`,
		status, score, score, score, score)
}

func testQuestion(id string) *question.Question {
	return &question.Question{
		ID:       id,
		Vignette: "A 45-year-old woman presents with palpitations and heat intolerance.",
		Stem:     "Which of the following is the most likely diagnosis?",
		Choices: map[string]string{
			"A": "Graves disease", "B": "Pheochromocytoma", "C": "Panic disorder",
			"D": "Anemia", "E": "Atrial fibrillation",
		},
		Answer: "A",
	}
}

func newTestValidator(responses ...llm.MockResponse) (*Validator, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewValidator(mock, DefaultConfig()), mock
}

func TestValidateQuestion_AcceptVerdict(t *testing.T) {
	prose := "Here is my review:\n" + reviewJSON("ACCEPT", 82) + "\nLet me know if you need more."
	v, mock := newTestValidator(llm.MockResponse{Text: prose})

	verdict := v.ValidateQuestion(context.Background(), testQuestion("q1"))
	if verdict.Status != StatusAccept {
		t.Fatalf("status = %s, want ACCEPT", verdict.Status)
	}
	if verdict.OverallScore != 82 {
		t.Errorf("score = %v, want 82", verdict.OverallScore)
	}
	if verdict.Provider != "mock" {
		t.Errorf("provider = %q, want mock", verdict.Provider)
	}
	if mock.CallCount() != 1 {
		t.Errorf("call count = %d, want 1", mock.CallCount())
	}
}

// vendorProvider serves a fixed response tagged with a vendor identity,
// the way a fallback chain link does.
type vendorProvider struct {
	vendor string
	model  string
	text   string
}

func (p *vendorProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: p.text, Provider: p.vendor, Model: p.model, StopReason: "end"}, nil
}

func (p *vendorProvider) ModelID() string { return p.model }

func TestValidateQuestion_RecordsServingVendorAndModel(t *testing.T) {
	p := &vendorProvider{
		vendor: "openrouter",
		model:  "deepseek/deepseek-chat",
		text:   reviewJSON("ACCEPT", 80),
	}
	v := NewValidator(p, DefaultConfig())

	verdict := v.ValidateQuestion(context.Background(), testQuestion("q1"))
	if verdict.Provider != "openrouter" {
		t.Errorf("provider = %q, want openrouter", verdict.Provider)
	}
	if verdict.Model != "deepseek/deepseek-chat" {
		t.Errorf("model = %q, want deepseek/deepseek-chat", verdict.Model)
	}
}

func TestValidateQuestion_ScoreOverridesLabel(t *testing.T) {
	cases := []struct {
		raw   string
		score float64
		want  Status
	}{
		{"ACCEPT", 82, StatusAccept},
		{"ACCEPT", 65, StatusRevise},  // below accept floor
		{"ACCEPT", 40, StatusReject},  // below revise floor
		{"REVISE", 45, StatusReject},  // below revise floor
		{"REVISE", 90, StatusRevise},  // label never upgraded
		{"REJECT", 95, StatusReject},  // reject is terminal
	}
	for _, tc := range cases {
		v, _ := newTestValidator(llm.MockResponse{Text: reviewJSON(tc.raw, tc.score)})
		verdict := v.ValidateQuestion(context.Background(), testQuestion("q1"))
		if verdict.Status != tc.want {
			t.Errorf("%s/%v: status = %s, want %s", tc.raw, tc.score, verdict.Status, tc.want)
		}
	}
}

func TestValidateQuestion_ProviderFailureDegradesToRevise(t *testing.T) {
	v, _ := newTestValidator() // empty queue: provider unavailable

	verdict := v.ValidateQuestion(context.Background(), testQuestion("q1"))
	if verdict.Status != StatusRevise {
		t.Fatalf("status = %s, want REVISE", verdict.Status)
	}
	if verdict.OverallScore != 0 {
		t.Errorf("score = %v, want 0", verdict.OverallScore)
	}
	if verdict.Provider != "none" {
		t.Errorf("provider = %q, want none", verdict.Provider)
	}
	if len(verdict.Issues) == 0 || !strings.Contains(verdict.Issues[0], "validator unavailable") {
		t.Errorf("missing diagnostic issue: %v", verdict.Issues)
	}
}

func TestValidateQuestion_UnparseableResponse(t *testing.T) {
	cases := []string{
		"I think this question is great overall.",
		"Review: {status: ACCEPT, score: 90",
		`{"status":"ACCEPT","overall_score":"high"}`, // fails schema validation
	}
	for _, text := range cases {
		v, _ := newTestValidator(llm.MockResponse{Text: text})
		verdict := v.ValidateQuestion(context.Background(), testQuestion("q1"))
		if verdict.Status != StatusRevise {
			t.Errorf("%q: status = %s, want REVISE", text, verdict.Status)
		}
		if len(verdict.Issues) == 0 || !strings.Contains(verdict.Issues[0], "unparseable review response") {
			t.Errorf("%q: missing parse issue: %v", text, verdict.Issues)
		}
	}
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	text := `prefix {"a": {"b": 1}, "c": "x}y{z"} suffix`
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := string(raw); got != `{"a": {"b": 1}, "c": "x}y{z"}` {
		t.Fatalf("raw = %s", got)
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	if _, err := ExtractJSON("no braces here"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateBatch_HaltsOnRejectStreak(t *testing.T) {
	var responses []llm.MockResponse
	for i := 0; i < 10; i++ {
		responses = append(responses, llm.MockResponse{Text: reviewJSON("REJECT", 10)})
	}
	v, mock := newTestValidator(responses...)

	var questions []question.Question
	for i := 0; i < 10; i++ {
		questions = append(questions, *testQuestion(fmt.Sprintf("q%d", i)))
	}

	verdicts := v.ValidateBatch(context.Background(), questions)
	if len(verdicts) != DefaultConfig().StopOnRejectStreak {
		t.Fatalf("got %d verdicts, want halt after %d", len(verdicts), DefaultConfig().StopOnRejectStreak)
	}
	if mock.CallCount() != len(verdicts) {
		t.Errorf("made %d calls for %d verdicts", mock.CallCount(), len(verdicts))
	}
}

func TestValidateBatch_NonConsecutiveRejectsDoNotHalt(t *testing.T) {
	var responses []llm.MockResponse
	for i := 0; i < 12; i++ {
		// Every third response passes, so no streak reaches five.
		if i%3 == 2 {
			responses = append(responses, llm.MockResponse{Text: reviewJSON("ACCEPT", 85)})
		} else {
			responses = append(responses, llm.MockResponse{Text: reviewJSON("REJECT", 10)})
		}
	}
	v, _ := newTestValidator(responses...)

	var questions []question.Question
	for i := 0; i < 12; i++ {
		questions = append(questions, *testQuestion(fmt.Sprintf("q%d", i)))
	}

	verdicts := v.ValidateBatch(context.Background(), questions)
	if len(verdicts) != 12 {
		t.Fatalf("got %d verdicts, want all 12", len(verdicts))
	}
}

func TestStats_CountsByStatus(t *testing.T) {
	v, _ := newTestValidator(
		llm.MockResponse{Text: reviewJSON("ACCEPT", 85)},
		llm.MockResponse{Text: reviewJSON("REVISE", 60)},
		llm.MockResponse{Text: reviewJSON("REJECT", 20)},
	)
	for i := 0; i < 3; i++ {
		v.ValidateQuestion(context.Background(), testQuestion(fmt.Sprintf("q%d", i)))
	}

	stats := v.Stats()
	if stats.Total != 3 || stats.Accept != 1 || stats.Revise != 1 || stats.Reject != 1 {
		t.Fatalf("counters = %+v", stats)
	}
}

func TestBuildPrompt_IncludesChoicesAndAnswer(t *testing.T) {
	p := buildPrompt(testQuestion("q1"))
	for _, want := range []string{"Graves disease", "Keyed answer: A", "palpitations"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
