package batch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/caseprep/qgate/internal/originality"
	"github.com/caseprep/qgate/internal/question"
)

// vagueVitals are qualifiers that assert a vital-sign abnormality
// without a number. A vignette leaning on these instead of explicit
// values fails the pre-check before any paid call.
var vagueVitals = []string{
	"hypotensive", "hypertensive", "tachycardic", "bradycardic",
	"febrile", "tachypneic", "hypoxic", "altered vital signs",
}

// numericFindingRe matches an explicit numeric clinical finding:
// a blood pressure pair, or a number with a unit.
var numericFindingRe = regexp.MustCompile(
	`\d+\s*/\s*\d+\s*mm ?hg|\d+(\.\d+)?\s*(mmhg|mg/dl|meq/l|mmol/l|g/dl|bpm|/min|°f|°c|f\b|c\b|%|kg|cm)`)

// StructuralCheck rejects obviously malformed candidates before any
// money is spent: missing or vague vignettes, the wrong choice count,
// near-duplicate choice pairs, and an answer-length tell.
// Returns the list of violations; empty means the candidate passes.
func StructuralCheck(q *question.Question) []string {
	var issues []string

	vignette := strings.ToLower(q.Vignette)
	if strings.TrimSpace(vignette) == "" {
		issues = append(issues, "vignette is empty")
	} else {
		if !numericFindingRe.MatchString(vignette) {
			issues = append(issues, "vignette has no explicit numeric vital signs or lab values")
		}
		for _, vague := range vagueVitals {
			if strings.Contains(vignette, vague) && !numericFindingRe.MatchString(vignette) {
				issues = append(issues, fmt.Sprintf("vague qualifier %q without a numeric value", vague))
				break
			}
		}
	}

	if strings.TrimSpace(q.Stem) == "" {
		issues = append(issues, "stem is empty")
	}

	if len(q.Choices) != 5 {
		issues = append(issues, fmt.Sprintf("expected 5 choices, got %d", len(q.Choices)))
	}
	if _, ok := q.Choices[q.Answer]; !ok && q.Answer != "" {
		issues = append(issues, fmt.Sprintf("answer key %q is not among the choices", q.Answer))
	}
	if q.Answer == "" {
		issues = append(issues, "answer key is empty")
	}

	issues = append(issues, duplicateChoicePairs(q)...)

	if tell := answerLengthTell(q); tell != "" {
		issues = append(issues, tell)
	}

	return issues
}

// duplicateChoicePairs flags choice pairs that a test-taker could not
// distinguish. Near-duplicates are caught by word-set overlap.
func duplicateChoicePairs(q *question.Question) []string {
	letters := q.SortedLetters()
	var issues []string
	for i := 0; i < len(letters); i++ {
		for j := i + 1; j < len(letters); j++ {
			a := originality.Normalize(q.Choices[letters[i]])
			b := originality.Normalize(q.Choices[letters[j]])
			if a == "" || b == "" {
				continue
			}
			if a == b || wordOverlap(a, b) >= 0.8 {
				issues = append(issues, fmt.Sprintf(
					"choices %s and %s are near-duplicates", letters[i], letters[j]))
			}
		}
	}
	return issues
}

// wordOverlap is the Jaccard similarity of the two choices' word sets.
func wordOverlap(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		setB[w] = struct{}{}
	}
	return originality.Jaccard(setA, setB)
}

// answerLengthTell flags the classic item-writing flaw where the
// correct choice is conspicuously longer than every distractor.
func answerLengthTell(q *question.Question) string {
	correct, ok := q.Choices[q.Answer]
	if !ok {
		return ""
	}
	var total, n int
	for l, text := range q.Choices {
		if l == q.Answer {
			continue
		}
		total += len(text)
		n++
	}
	if n == 0 {
		return ""
	}
	mean := float64(total) / float64(n)
	if len(correct) >= 40 && float64(len(correct)) >= 2*mean {
		return "correct choice is far longer than the distractors (length tell)"
	}
	return ""
}
