package triage

import (
	"fmt"
	"strings"

	"github.com/caseprep/qgate/internal/question"
)

const systemPrompt = `You are a medical education reviewer screening machine-generated exam questions before they reach students.

Score the question on three dimensions, each 0-100:
- medical_accuracy: the keyed answer is correct and the clinical facts are right.
- distractor_quality: the wrong choices are plausible, homogeneous, and reflect real misconceptions.
- vignette_quality: the scenario is complete, specific (explicit vitals and lab values), and free of cues that give the answer away.

Then give an overall_score (0-100), a status label, an issues list, and a suggestions list.

Status labels:
- ACCEPT: ready for the serving pool.
- REVISE: salvageable with edits.
- REJECT: fundamentally flawed.

Automatic REJECT, regardless of scores:
- the keyed answer is medically wrong
- an essential clinical detail is missing from the vignette
- more than one choice is defensibly correct
- inappropriate or unsafe content
- verbatim duplicate of a known published question

Respond with exactly one JSON object:
{"status": "...", "overall_score": N, "medical_accuracy": N, "distractor_quality": N, "vignette_quality": N, "issues": [...], "suggestions": [...]}`

// buildPrompt embeds the candidate into the review request.
func buildPrompt(q *question.Question) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Vignette:\n%s\n\n", q.Vignette)
	fmt.Fprintf(&b, "Question: %s\n\n", q.Stem)

	b.WriteString("Choices:\n")
	for _, l := range q.SortedLetters() {
		fmt.Fprintf(&b, "%s. %s\n", l, q.Choices[l])
	}
	fmt.Fprintf(&b, "\nKeyed answer: %s\n", q.Answer)

	if !q.Explanation.IsEmpty() {
		expl := q.Explanation.Text()
		// A brief excerpt is enough context; the full teaching payload
		// is scored elsewhere.
		if len(expl) > 600 {
			expl = expl[:600] + "..."
		}
		fmt.Fprintf(&b, "\nExplanation (excerpt):\n%s\n", expl)
	}

	return b.String()
}
