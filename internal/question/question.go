package question

import (
	"sort"
	"strings"
)

// ChoiceLetters is the canonical choice ordering for a five-option item.
var ChoiceLetters = []string{"A", "B", "C", "D", "E"}

// Question represents a machine-generated exam item as produced by the
// generation stage. Validators treat it as read-only.
type Question struct {
	// ID identifies the question within a batch. May be empty for
	// freshly generated candidates; the orchestrator assigns one then.
	ID string `json:"id,omitempty"`

	// Vignette is the clinical scenario presented before the stem.
	Vignette string `json:"vignette"`

	// Stem is the actual question, e.g. "Which of the following is the
	// most likely diagnosis?"
	Stem string `json:"stem"`

	// Choices maps choice letters (A-E) to answer-option text.
	Choices map[string]string `json:"choices"`

	// Answer is the correct choice letter.
	Answer string `json:"answer"`

	// Explanation is the teaching payload shown after answering.
	Explanation Explanation `json:"explanation"`

	// Metadata carries generation provenance.
	Metadata Metadata `json:"metadata,omitempty"`
}

// Metadata describes where a candidate came from.
type Metadata struct {
	Specialty string `json:"specialty,omitempty"`
	System    string `json:"system,omitempty"`
	Task      string `json:"task,omitempty"`
	Source    string `json:"source,omitempty"`
}

// FullText returns the text used for originality comparison:
// vignette plus stem.
func (q *Question) FullText() string {
	return strings.TrimSpace(q.Vignette + " " + q.Stem)
}

// IncorrectLetters returns the choice letters present on the question
// other than the answer key, in canonical order.
func (q *Question) IncorrectLetters() []string {
	var out []string
	for _, l := range ChoiceLetters {
		if l == q.Answer {
			continue
		}
		if _, ok := q.Choices[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// SortedLetters returns the question's choice letters in canonical order.
// Letters outside A-E are appended alphabetically after the canonical set.
func (q *Question) SortedLetters() []string {
	var out []string
	seen := make(map[string]bool, len(q.Choices))
	for _, l := range ChoiceLetters {
		if _, ok := q.Choices[l]; ok {
			out = append(out, l)
			seen[l] = true
		}
	}
	var extra []string
	for l := range q.Choices {
		if !seen[l] {
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
