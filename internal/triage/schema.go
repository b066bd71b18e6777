package triage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// reviewSchemaDef is the JSON Schema the extracted review object must
// conform to. Matches the rubric spelled out in the prompt.
var reviewSchemaDef = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"status": map[string]any{
			"type": "string",
			"enum": []any{"ACCEPT", "REVISE", "REJECT"},
		},
		"overall_score":      map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"medical_accuracy":   map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"distractor_quality": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"vignette_quality":   map[string]any{"type": "number", "minimum": 0, "maximum": 100},
		"issues": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"suggestions": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []any{"status", "overall_score"},
}

var (
	reviewSchemaOnce sync.Once
	reviewSchema     *jsonschema.Schema
	reviewSchemaErr  error
)

// validateReview checks the extracted JSON against the review schema.
// Returns a *ParseError on mismatch so callers treat it exactly like
// an unextractable reply.
func validateReview(raw json.RawMessage) error {
	reviewSchemaOnce.Do(compileReviewSchema)
	if reviewSchemaErr != nil {
		return fmt.Errorf("compile review schema: %w", reviewSchemaErr)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Text: string(raw)}
	}
	if err := reviewSchema.Validate(parsed); err != nil {
		return &ParseError{Reason: fmt.Sprintf("schema validation failed: %v", err), Text: string(raw)}
	}
	return nil
}

func compileReviewSchema() {
	defBytes, err := json.Marshal(reviewSchemaDef)
	if err != nil {
		reviewSchemaErr = err
		return
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		reviewSchemaErr = err
		return
	}

	c := jsonschema.NewCompiler()
	const url = "schema://question-review.json"
	if err := c.AddResource(url, defParsed); err != nil {
		reviewSchemaErr = err
		return
	}
	reviewSchema, reviewSchemaErr = c.Compile(url)
}
