// Package elite scores explanation payloads against a deterministic
// instructional-quality rubric. Zero marginal cost: no network, no
// state, pure functions over the question.
package elite

import (
	"fmt"
	"sort"

	"github.com/caseprep/qgate/internal/question"
)

// Dimension names. Keys of Result.Dimensions.
const (
	DimPatternRecognition    = "pattern_recognition"
	DimMechanismDepth        = "mechanism_depth"
	DimDistractorCoverage    = "distractor_coverage"
	DimDistractorPsychology  = "distractor_psychology"
	DimThresholdExplicitness = "threshold_explicitness"
	DimBrevity               = "brevity"
)

// EliteThreshold is the composite score an explanation must reach to
// be exempt from flagged-for-improvement status.
const EliteThreshold = 85.0

// weights combine the six dimension scores into the composite.
// They always sum to 1.0.
var weights = map[string]float64{
	DimPatternRecognition:    0.20,
	DimMechanismDepth:        0.25,
	DimDistractorCoverage:    0.20,
	DimDistractorPsychology:  0.15,
	DimThresholdExplicitness: 0.10,
	DimBrevity:               0.10,
}

// Weights returns a copy of the dimension weight table.
func Weights() map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}

// Result is the rubric outcome for one question.
type Result struct {
	QuestionID string `json:"question_id"`

	// Composite is the weighted score on a 0-100 scale.
	Composite float64 `json:"composite"`

	// Dimensions maps each dimension name to its score in [0,1].
	Dimensions map[string]float64 `json:"dimensions"`

	// IsElite is true when Composite >= EliteThreshold.
	IsElite bool `json:"is_elite"`

	Issues    []string `json:"issues,omitempty"`
	Strengths []string `json:"strengths,omitempty"`

	// Recommendations lists up to five remediation steps for the
	// weakest dimensions.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Validator scores questions against the elite rubric. Stateless and
// safe for concurrent use.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate scores one question's explanation.
func (v *Validator) Validate(q *question.Question) Result {
	dims := map[string]float64{
		DimPatternRecognition:    scorePatternRecognition(q),
		DimMechanismDepth:        scoreMechanismDepth(q),
		DimDistractorCoverage:    scoreDistractorCoverage(q),
		DimDistractorPsychology:  scoreDistractorPsychology(q),
		DimThresholdExplicitness: scoreThresholdExplicitness(q),
		DimBrevity:               scoreBrevity(q),
	}

	composite := 0.0
	for name, score := range dims {
		composite += weights[name] * score
	}
	composite *= 100
	if composite < 0 {
		composite = 0
	}
	if composite > 100 {
		composite = 100
	}

	res := Result{
		QuestionID: q.ID,
		Composite:  composite,
		Dimensions: dims,
		IsElite:    composite >= EliteThreshold,
	}
	res.Issues, res.Strengths = describe(dims)
	res.Recommendations = recommend(dims)
	return res
}

// BatchSummary aggregates a batch of elite results.
type BatchSummary struct {
	Total             int                `json:"total"`
	EliteCount        int                `json:"elite_count"`
	EliteRate         float64            `json:"elite_rate"`
	AverageComposite  float64            `json:"average_composite"`
	DimensionAverages map[string]float64 `json:"dimension_averages"`
	Results           []Result           `json:"results"`
}

// BatchValidate scores every question and summarizes the population.
func (v *Validator) BatchValidate(questions []question.Question) BatchSummary {
	summary := BatchSummary{
		Total:             len(questions),
		DimensionAverages: make(map[string]float64, len(weights)),
	}
	if len(questions) == 0 {
		return summary
	}

	for i := range questions {
		res := v.Validate(&questions[i])
		summary.Results = append(summary.Results, res)
		summary.AverageComposite += res.Composite
		if res.IsElite {
			summary.EliteCount++
		}
		for name, score := range res.Dimensions {
			summary.DimensionAverages[name] += score
		}
	}

	n := float64(len(questions))
	summary.AverageComposite /= n
	summary.EliteRate = float64(summary.EliteCount) / n
	for name := range summary.DimensionAverages {
		summary.DimensionAverages[name] /= n
	}
	return summary
}

// describe turns dimension scores into human-readable issues (< 0.5)
// and strengths (>= 0.9), in stable dimension order.
func describe(dims map[string]float64) (issues, strengths []string) {
	for _, name := range dimensionOrder {
		score := dims[name]
		switch {
		case score < 0.5:
			issues = append(issues, fmt.Sprintf("%s scored %.2f: %s", name, score, issueText[name]))
		case score >= 0.9:
			strengths = append(strengths, fmt.Sprintf("%s scored %.2f: %s", name, score, strengthText[name]))
		}
	}
	return issues, strengths
}

// recommend picks remediation templates for the weakest dimensions
// below 0.7, at most five.
func recommend(dims map[string]float64) []string {
	type scored struct {
		name  string
		score float64
	}
	var weak []scored
	for _, name := range dimensionOrder {
		if dims[name] < 0.7 {
			weak = append(weak, scored{name, dims[name]})
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].score < weak[j].score })

	var out []string
	for _, w := range weak {
		if len(out) == 5 {
			break
		}
		out = append(out, recommendationText[w.name])
	}
	return out
}

var dimensionOrder = []string{
	DimPatternRecognition,
	DimMechanismDepth,
	DimDistractorCoverage,
	DimDistractorPsychology,
	DimThresholdExplicitness,
	DimBrevity,
}

var issueText = map[string]string{
	DimPatternRecognition:    "quick answer does not echo the vignette's presenting findings",
	DimMechanismDepth:        "reasoning lacks causal chains",
	DimDistractorCoverage:    "most incorrect choices are unexplained",
	DimDistractorPsychology:  "distractor explanations never say why a wrong choice tempts",
	DimThresholdExplicitness: "numeric values are not anchored to normal ranges",
	DimBrevity:               "quick answer missing or far over the word budget",
}

var strengthText = map[string]string{
	DimPatternRecognition:    "quick answer ties directly to the presenting findings",
	DimMechanismDepth:        "reasoning walks full causal chains",
	DimDistractorCoverage:    "every incorrect choice is explained",
	DimDistractorPsychology:  "distractor explanations teach why wrong choices tempt",
	DimThresholdExplicitness: "clinical values are anchored to their normal ranges",
	DimBrevity:               "quick answer is concise",
}

var recommendationText = map[string]string{
	DimPatternRecognition:    "Open the quick answer with the key finding from the vignette's first sentence so the pattern link is explicit.",
	DimMechanismDepth:        "Add arrow-notation causal chains (finding -> mechanism -> consequence) to the clinical reasoning.",
	DimDistractorCoverage:    "Write an explanation for every incorrect choice, not just the closest ones.",
	DimDistractorPsychology:  "For each distractor, state why a student would be tempted to pick it (e.g. 'tempting because...').",
	DimThresholdExplicitness: "Annotate each numeric value with its normal range, e.g. 'potassium 6.2 mEq/L (normal 3.5-5.0)'.",
	DimBrevity:               "Trim the quick answer to 30 words or fewer; move detail into the clinical reasoning.",
}
