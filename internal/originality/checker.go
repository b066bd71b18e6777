package originality

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/caseprep/qgate/internal/question"
	"github.com/caseprep/qgate/internal/store"
)

// Detection methods reported on a Result.
const (
	MethodSkipShort    = "skip_short"
	MethodExactPhrase  = "exact_phrase"
	MethodNGramOverlap = "ngram_overlap"
	MethodSemantic     = "semantic"
	MethodNone         = "none"
)

// Result is the outcome of one originality check. Immutable.
type Result struct {
	QuestionID        string  `json:"question_id"`
	IsOriginal        bool    `json:"is_original"`
	Similarity        float64 `json:"similarity"`
	MatchedQuestionID string  `json:"matched_question_id,omitempty"`
	Method            string  `json:"method"`
	ElapsedMs         int64   `json:"elapsed_ms"`
	Note              string  `json:"note,omitempty"`
}

// Config tunes the checker's thresholds.
type Config struct {
	// PhraseWindow is the exact-phrase window width in words.
	PhraseWindow int
	// PhraseThreshold is the phrase-overlap ratio above which a
	// candidate is a duplicate.
	PhraseThreshold float64
	// NGramSize is the shingle width for Jaccard comparison.
	NGramSize int
	// NGramThreshold is the Jaccard similarity above which a candidate
	// is a duplicate.
	NGramThreshold float64
	// MinLength is the minimum normalized length worth checking.
	MinLength int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		PhraseWindow:    8,
		PhraseThreshold: 0.7,
		NGramSize:       4,
		NGramThreshold:  0.5,
		MinLength:       50,
	}
}

// CorpusSource hydrates the checker from the question store.
type CorpusSource interface {
	AllQuestions(ctx context.Context) ([]store.CorpusQuestion, error)
}

type corpusEntry struct {
	text   string
	ngrams map[string]struct{}
}

// Checker screens candidate questions against the accepted-question
// corpus. Reads are concurrent; corpus mutation is exclusive and
// updates text and shingle index together.
type Checker struct {
	source CorpusSource
	config Config
	log    *zap.Logger

	mu      sync.RWMutex
	entries map[string]corpusEntry
	loaded  bool
}

// NewChecker creates a Checker over the given corpus source.
func NewChecker(source CorpusSource, cfg Config, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		source:  source,
		config:  cfg,
		log:     log,
		entries: make(map[string]corpusEntry),
	}
}

// LoadCorpus hydrates the in-memory corpus from the question store and
// returns the entry count. A second call is a no-op unless forceReload
// is set. Load failure leaves the corpus empty: every check then
// reports original, with a logged warning.
func (c *Checker) LoadCorpus(ctx context.Context, forceReload bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && !forceReload {
		return len(c.entries), nil
	}

	rows, err := c.source.AllQuestions(ctx)
	if err != nil {
		c.entries = make(map[string]corpusEntry)
		c.loaded = true
		c.log.Warn("corpus load failed; all checks will report original",
			zap.Error(err))
		return 0, fmt.Errorf("load corpus: %w", err)
	}

	entries := make(map[string]corpusEntry, len(rows))
	for _, row := range rows {
		norm := Normalize(row.Text)
		entries[row.ID] = corpusEntry{
			text:   norm,
			ngrams: NGrams(norm, c.config.NGramSize),
		}
	}
	c.entries = entries
	c.loaded = true
	return len(c.entries), nil
}

// AddToCorpus indexes an accepted question so later checks in the same
// run see it. Text and shingle set are written together under the
// write lock; a partially indexed entry is never observable.
func (c *Checker) AddToCorpus(id, text string) {
	norm := Normalize(text)
	entry := corpusEntry{
		text:   norm,
		ngrams: NGrams(norm, c.config.NGramSize),
	}
	c.mu.Lock()
	c.entries[id] = entry
	c.mu.Unlock()
}

// CorpusSize returns the number of indexed entries.
func (c *Checker) CorpusSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CheckOriginality screens one candidate. It never panics or returns
// an error: any processing failure degrades to a not-flagged result
// with a diagnostic note.
func (c *Checker) CheckOriginality(q *question.Question, useSemantic bool) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("originality check panicked; question not flagged",
				zap.String("question_id", q.ID), zap.Any("panic", r))
			result = Result{
				QuestionID: q.ID,
				IsOriginal: true,
				Method:     MethodNone,
				ElapsedMs:  time.Since(start).Milliseconds(),
				Note:       fmt.Sprintf("check error: %v", r),
			}
		}
	}()

	result = c.check(q, useSemantic)
	result.ElapsedMs = time.Since(start).Milliseconds()
	return result
}

func (c *Checker) check(q *question.Question, useSemantic bool) Result {
	norm := Normalize(q.FullText())

	if len(norm) < c.config.MinLength {
		return Result{
			QuestionID: q.ID,
			IsOriginal: true,
			Method:     MethodSkipShort,
			Note:       "text too short to check",
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	maxSim := 0.0
	matchedID := ""

	// Tier 1: exact-phrase window overlap.
	candPhrases := phrases(norm, c.config.PhraseWindow)
	if len(candPhrases) > 0 {
		bestRatio, bestID := 0.0, ""
		for id, entry := range c.entries {
			matches := 0
			for _, p := range candPhrases {
				if strings.Contains(entry.text, p) {
					matches++
				}
			}
			ratio := float64(matches) / float64(len(candPhrases))
			if ratio > bestRatio {
				bestRatio, bestID = ratio, id
			}
		}
		if bestRatio > maxSim {
			maxSim, matchedID = bestRatio, bestID
		}
		if bestRatio >= c.config.PhraseThreshold {
			return Result{
				QuestionID:        q.ID,
				IsOriginal:        false,
				Similarity:        bestRatio,
				MatchedQuestionID: bestID,
				Method:            MethodExactPhrase,
			}
		}
	}

	// Tier 2: n-gram Jaccard overlap.
	candGrams := NGrams(norm, c.config.NGramSize)
	bestJaccard, bestID := 0.0, ""
	for id, entry := range c.entries {
		sim := Jaccard(candGrams, entry.ngrams)
		if sim > bestJaccard {
			bestJaccard, bestID = sim, id
		}
	}
	if bestJaccard > maxSim {
		maxSim, matchedID = bestJaccard, bestID
	}
	if bestJaccard >= c.config.NGramThreshold {
		return Result{
			QuestionID:        q.ID,
			IsOriginal:        false,
			Similarity:        bestJaccard,
			MatchedQuestionID: bestID,
			Method:            MethodNGramOverlap,
		}
	}

	// Tier 3: semantic similarity. Extension point only; never flags.
	if useSemantic {
		if sim := c.semanticSimilarity(norm); sim > maxSim {
			maxSim = sim
		}
	}

	return Result{
		QuestionID:        q.ID,
		IsOriginal:        true,
		Similarity:        maxSim,
		MatchedQuestionID: matchedID,
		Method:            MethodNone,
	}
}

// semanticSimilarity is the embedding-based tier. Not implemented:
// always 0, so it can never produce a duplicate verdict.
func (c *Checker) semanticSimilarity(string) float64 {
	return 0
}

// CheckBatch screens a slice of candidates and partitions out the
// original ones. The full result list is returned alongside for audit.
func (c *Checker) CheckBatch(questions []question.Question) ([]question.Question, []Result) {
	originals := make([]question.Question, 0, len(questions))
	results := make([]Result, 0, len(questions))
	for i := range questions {
		res := c.CheckOriginality(&questions[i], false)
		results = append(results, res)
		if res.IsOriginal {
			originals = append(originals, questions[i])
		}
	}
	return originals, results
}
