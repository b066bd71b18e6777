package elite

import (
	"regexp"
	"strings"

	"github.com/caseprep/qgate/internal/question"
)

// clinicalSuffixes mark disease/finding terms worth echoing in the
// quick answer (pancreatitis, anemia, cirrhosis...).
var clinicalSuffixes = []string{
	"itis", "emia", "osis", "pathy", "algia", "uria", "pnea",
	"megaly", "penia", "plegia", "rrhea", "edema",
}

// symptomKeywords are common presenting complaints without a telling
// suffix.
var symptomKeywords = map[string]bool{
	"fever": true, "pain": true, "cough": true, "fatigue": true,
	"headache": true, "nausea": true, "vomiting": true, "diarrhea": true,
	"rash": true, "jaundice": true, "syncope": true, "weakness": true,
	"palpitations": true, "confusion": true, "seizure": true,
	"hypotension": true, "hypertension": true, "tachycardia": true,
	"bradycardia": true, "murmur": true,
}

var wordRe = regexp.MustCompile(`[a-z]+`)

// clinicalTerms extracts suffix-bearing and keyword terms from text.
func clinicalTerms(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if seen[w] {
			continue
		}
		if symptomKeywords[w] {
			seen[w] = true
			out = append(out, w)
			continue
		}
		for _, suf := range clinicalSuffixes {
			if len(w) > len(suf) && strings.HasSuffix(w, suf) {
				seen[w] = true
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// firstSentence returns text up to and including the first period
// (skipping decimal points), or the whole text if none.
func firstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		// A digit on both sides is a decimal point, not a boundary.
		if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
			continue
		}
		return text[:i+1]
	}
	return text
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// scorePatternRecognition rewards a quick answer that echoes the
// presenting findings from the vignette's opening sentence.
func scorePatternRecognition(q *question.Question) float64 {
	expl := q.Explanation.Structured
	if expl == nil || strings.TrimSpace(expl.QuickAnswer) == "" {
		return 0
	}

	quick := strings.ToLower(expl.QuickAnswer)
	matches := 0
	for _, term := range clinicalTerms(firstSentence(q.Vignette)) {
		if strings.Contains(quick, term) {
			matches++
		}
	}

	switch {
	case matches >= 2:
		return 1.0
	case matches == 1:
		return 0.7
	case len(strings.Fields(expl.QuickAnswer)) >= 8:
		// No echoed finding, but a substantive answer all the same.
		return 0.4
	default:
		return 0.2
	}
}

// causal-chain markers: arrow glyphs or causal phrases.
var causalRe = regexp.MustCompile(`(→|->|leads to|causes|results in)`)

// scoreMechanismDepth counts causal-chain markers across the reasoning
// fields.
func scoreMechanismDepth(q *question.Question) float64 {
	var text string
	if expl := q.Explanation.Structured; expl != nil {
		text = strings.Join([]string{expl.Principle, expl.ClinicalReasoning, expl.CorrectAnswer}, "\n")
	} else {
		text = q.Explanation.Legacy
	}

	n := len(causalRe.FindAllString(strings.ToLower(text), -1))
	switch {
	case n >= 4:
		return 1.0
	case n >= 2:
		return 0.7
	case n == 1:
		return 0.4
	default:
		return 0.1
	}
}

// scoreDistractorCoverage checks that each incorrect choice letter has
// a corresponding distractor explanation.
func scoreDistractorCoverage(q *question.Question) float64 {
	expl := q.Explanation.Structured
	if expl == nil || len(expl.Distractors) == 0 {
		return 0
	}

	missing := 0
	for _, l := range q.IncorrectLetters() {
		if strings.TrimSpace(expl.Distractors[l]) == "" {
			missing++
		}
	}

	switch {
	case missing == 0:
		return 1.0
	case missing == 1:
		return 0.8
	case missing == 2:
		return 0.5
	default:
		return 0.2
	}
}

// psychology phrases signal that a distractor explanation teaches why
// the wrong choice tempts.
var psychologyRe = regexp.MustCompile(strings.Join([]string{
	`tempting because`,
	`commonly confused`,
	`trap answer`,
	`students often choose`,
	`might seem correct`,
	`if you forgot`,
	`easy to confuse`,
	`often mistaken`,
}, "|"))

// scoreDistractorPsychology counts tempting-why phrases across the
// distractor explanations.
func scoreDistractorPsychology(q *question.Question) float64 {
	expl := q.Explanation.Structured
	if expl == nil || len(expl.Distractors) == 0 {
		return 0
	}

	var b strings.Builder
	for _, text := range expl.Distractors {
		b.WriteString(strings.ToLower(text))
		b.WriteString("\n")
	}

	n := len(psychologyRe.FindAllString(b.String(), -1))
	switch {
	case n >= 3:
		return 1.0
	case n == 2:
		return 0.8
	case n == 1:
		return 0.5
	default:
		return 0.2
	}
}

// clinicalValueRe matches a number with a clinical unit.
var clinicalValueRe = regexp.MustCompile(
	`\d+(?:\.\d+)?\s*(?:mmhg|mg/dl|meq/l|mmol/l|g/dl|ng/ml|miu/l|cells/mm3|/min|/hr|bpm|°f|°c|kg|cm|mg|ml|%)`)

// normalRangeRe matches an immediately following "(normal X-Y)"-style
// annotation.
var normalRangeRe = regexp.MustCompile(`^\s*\((?:normal|nl|reference|ref)\b[^)]*\)`)

// scoreThresholdExplicitness measures how many numeric clinical values
// are anchored to a normal range. Absence of numbers entirely is
// neutral, not a defect.
func scoreThresholdExplicitness(q *question.Question) float64 {
	var text string
	if expl := q.Explanation.Structured; expl != nil {
		text = strings.Join([]string{expl.ClinicalReasoning, expl.CorrectAnswer, expl.Principle}, "\n")
	} else {
		text = q.Explanation.Legacy
	}
	lower := strings.ToLower(text)

	locs := clinicalValueRe.FindAllStringIndex(lower, -1)
	if len(locs) == 0 {
		return 0.7
	}

	annotated := 0
	for _, loc := range locs {
		if normalRangeRe.MatchString(lower[loc[1]:]) {
			annotated++
		}
	}

	ratio := float64(annotated) / float64(len(locs))
	switch {
	case ratio >= 0.5:
		return 1.0
	case ratio >= 0.25:
		return 0.6
	case ratio > 0:
		return 0.4
	default:
		return 0.2
	}
}

// scoreBrevity word-counts the quick answer against a 30-word budget.
func scoreBrevity(q *question.Question) float64 {
	expl := q.Explanation.Structured
	if expl == nil || strings.TrimSpace(expl.QuickAnswer) == "" {
		return 0
	}

	n := len(strings.Fields(expl.QuickAnswer))
	switch {
	case n <= 30:
		return 1.0
	case n <= 40:
		return 0.7
	case n <= 50:
		return 0.4
	default:
		return 0.1
	}
}
