package originality

import (
	"regexp"
	"strings"
)

// abbreviations maps common clinical shorthand to its expansion.
// Applied on word boundaries after lowercasing, so "pt" inside
// "patient" is untouched.
var abbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\by/o\b`), "year old"},
	{regexp.MustCompile(`\byo\b`), "year old"},
	{regexp.MustCompile(`\bh/o\b`), "history of"},
	{regexp.MustCompile(`\bc/o\b`), "complaining of"},
	{regexp.MustCompile(`\bs/p\b`), "status post"},
	{regexp.MustCompile(`\bpt\b`), "patient"},
	{regexp.MustCompile(`\bpts\b`), "patients"},
	{regexp.MustCompile(`\bhx\b`), "history"},
	{regexp.MustCompile(`\bdx\b`), "diagnosis"},
	{regexp.MustCompile(`\btx\b`), "treatment"},
	{regexp.MustCompile(`\bsx\b`), "symptoms"},
	{regexp.MustCompile(`\bw/o\b`), "without"},
	{regexp.MustCompile(`\bw/`), "with "},
}

// punctuation strips everything except word characters, whitespace,
// hyphens, and periods. Hyphens and periods carry meaning in clinical
// text (beta-blocker, 98.6).
var punctuation = regexp.MustCompile(`[^\w\s.-]`)

var whitespace = regexp.MustCompile(`\s+`)

// Normalize canonicalizes clinical text for comparison: lowercase,
// abbreviation expansion, punctuation stripping, whitespace collapse.
func Normalize(text string) string {
	s := strings.ToLower(text)
	for _, a := range abbreviations {
		s = a.pattern.ReplaceAllString(s, a.replacement)
	}
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NGrams returns the set of n-word shingles over the normalized text.
// Texts shorter than n words produce a single shingle of the whole text.
func NGrams(normalized string, n int) map[string]struct{} {
	words := strings.Fields(normalized)
	out := make(map[string]struct{})
	if len(words) == 0 {
		return out
	}
	if len(words) < n {
		out[strings.Join(words, " ")] = struct{}{}
		return out
	}
	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}

// Jaccard computes |A∩B| / |A∪B| over two shingle sets.
// Two empty sets have similarity 0, not 1: no shared evidence.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for g := range small {
		if _, ok := large[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// phrases slides a window of w words over the normalized text and
// returns each window as a phrase. Texts shorter than w words yield
// the whole text as one phrase.
func phrases(normalized string, w int) []string {
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return nil
	}
	if len(words) < w {
		return []string{strings.Join(words, " ")}
	}
	out := make([]string, 0, len(words)-w+1)
	for i := 0; i+w <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+w], " "))
	}
	return out
}
