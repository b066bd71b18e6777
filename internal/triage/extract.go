package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError indicates the model's reply did not contain one decodable
// JSON object. Distinct from transport failures: the provider answered,
// the answer was unusable.
type ParseError struct {
	Reason string
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("response parse failure: %s", e.Reason)
}

// ExtractJSON locates the outermost {...} span in free-form model
// output and returns it, tolerating prose before and after the object.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &ParseError{Reason: "no JSON object in response", Text: text}
	}
	raw := json.RawMessage(text[start : end+1])
	if !json.Valid(raw) {
		return nil, &ParseError{Reason: "extracted span is not valid JSON", Text: text}
	}
	return raw, nil
}
