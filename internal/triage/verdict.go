package triage

// Status is the reviewer's disposition for a candidate question.
type Status string

const (
	StatusAccept Status = "ACCEPT"
	StatusRevise Status = "REVISE"
	StatusReject Status = "REJECT"
)

// Verdict is one LLM review outcome. Immutable per call.
type Verdict struct {
	QuestionID string `json:"question_id"`

	Status Status `json:"status"`

	// OverallScore is 0-100 and authoritative over the model's own
	// status label after reconciliation.
	OverallScore float64 `json:"overall_score"`

	MedicalAccuracy   float64 `json:"medical_accuracy"`
	DistractorQuality float64 `json:"distractor_quality"`
	VignetteQuality   float64 `json:"vignette_quality"`

	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`

	// Provider is the vendor that served the verdict ("anthropic",
	// "openai", ...), or "none" when every provider failed and the
	// verdict is a degraded placeholder. Tells a fallback-served
	// verdict apart from a primary-served one.
	Provider string `json:"provider"`

	// Model is the exact model ID that produced the verdict.
	Model string `json:"model,omitempty"`

	LatencyMs int64 `json:"latency_ms"`

	// Cost is the estimated USD cost of the review call.
	Cost float64 `json:"cost"`
}

// reconcileStatus makes the numeric score authoritative over the
// model's self-reported label. Pure function of (raw status, score,
// thresholds).
func reconcileStatus(raw Status, score, minAccept, minRevise float64) Status {
	s := raw
	if s == StatusAccept && score < minAccept {
		s = StatusRevise
	}
	if s != StatusReject && score < minRevise {
		s = StatusReject
	}
	return s
}
