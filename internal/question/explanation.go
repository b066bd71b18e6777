package question

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Explanation is a tagged union over the two payload shapes the
// generation stage emits: a structured teaching object, or (for older
// batches) a single free-text string. Exactly one side is set.
type Explanation struct {
	Structured *StructuredExplanation
	Legacy     string
}

// StructuredExplanation is the full teaching payload.
type StructuredExplanation struct {
	// QuickAnswer is a one-to-two sentence answer summary. Budgeted at
	// 30 words by the elite scorer.
	QuickAnswer string `json:"quick_answer"`

	// Principle is the underlying concept being tested.
	Principle string `json:"principle"`

	// ClinicalReasoning walks through the vignette findings.
	ClinicalReasoning string `json:"clinical_reasoning"`

	// CorrectAnswer explains why the keyed choice is right.
	CorrectAnswer string `json:"correct_answer"`

	// Distractors maps incorrect choice letters to explanations of why
	// each is wrong (and ideally why it tempts).
	Distractors map[string]string `json:"distractors"`
}

// IsStructured reports whether the structured payload is present.
func (e *Explanation) IsStructured() bool {
	return e.Structured != nil
}

// IsEmpty reports whether neither side of the union is set.
func (e *Explanation) IsEmpty() bool {
	return e.Structured == nil && strings.TrimSpace(e.Legacy) == ""
}

// Text flattens the explanation for prompt embedding and text scans.
func (e *Explanation) Text() string {
	if e.Structured == nil {
		return e.Legacy
	}
	parts := []string{
		e.Structured.QuickAnswer,
		e.Structured.Principle,
		e.Structured.ClinicalReasoning,
		e.Structured.CorrectAnswer,
	}
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString("\n")
	}
	for _, l := range ChoiceLetters {
		if d, ok := e.Structured.Distractors[l]; ok && d != "" {
			b.WriteString(d)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// UnmarshalJSON accepts either a JSON string (legacy) or an object
// (structured). Null decodes to the empty union.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*e = Explanation{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode legacy explanation: %w", err)
		}
		*e = Explanation{Legacy: s}
		return nil
	}
	var structured StructuredExplanation
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("decode structured explanation: %w", err)
	}
	*e = Explanation{Structured: &structured}
	return nil
}

// MarshalJSON emits whichever side of the union is set.
func (e Explanation) MarshalJSON() ([]byte, error) {
	if e.Structured != nil {
		return json.Marshal(e.Structured)
	}
	return json.Marshal(e.Legacy)
}
