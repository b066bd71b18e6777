package batch

import (
	"github.com/caseprep/qgate/internal/originality"
)

// plagiarismFlagThreshold is the similarity above which a spot-check
// match counts as an exact-duplicate-level hit.
const plagiarismFlagThreshold = 0.95

// Reference is one entry in an explicit spot-check reference set,
// typically a small published question bank.
type Reference struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PlagiarismMatch is one spot-check comparison result.
type PlagiarismMatch struct {
	ReferenceID string  `json:"reference_id"`
	Similarity  float64 `json:"similarity"`
	Flagged     bool    `json:"flagged"`
}

// SpotCheck compares one candidate text against an explicit reference
// set and reports per-reference similarity, flagging exact-duplicate
// level matches. This is a one-off utility against a known published
// set, distinct from the corpus-wide originality checker.
func SpotCheck(candidate string, refs []Reference) []PlagiarismMatch {
	norm := originality.Normalize(candidate)
	candGrams := originality.NGrams(norm, 4)

	out := make([]PlagiarismMatch, 0, len(refs))
	for _, ref := range refs {
		refNorm := originality.Normalize(ref.Text)
		sim := originality.Jaccard(candGrams, originality.NGrams(refNorm, 4))
		if norm != "" && norm == refNorm {
			sim = 1.0
		}
		out = append(out, PlagiarismMatch{
			ReferenceID: ref.ID,
			Similarity:  sim,
			Flagged:     sim > plagiarismFlagThreshold,
		})
	}
	return out
}
