package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/qgate/internal/question"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "qgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleQuestion(id string) question.Question {
	return question.Question{
		ID:       id,
		Vignette: "A 58-year-old man presents with chest pain. BP 82/50 mmHg.",
		Stem:     "Which of the following is the most appropriate next step?",
		Choices: map[string]string{
			"A": "Catheterization", "B": "Aspirin", "C": "CT angiography",
			"D": "Echocardiography", "E": "Stress testing",
		},
		Answer: "A",
		Explanation: question.Explanation{
			Structured: &question.StructuredExplanation{QuickAnswer: "Cath lab now."},
		},
		Metadata: question.Metadata{Specialty: "cardiology", Source: "gen-v2"},
	}
}

func TestQuestionRepo_SaveAndHydrate(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	require.NoError(t, repo.SaveAccepted(ctx, sampleQuestion("q1"), 92.5))
	require.NoError(t, repo.SaveAccepted(ctx, sampleQuestion("q2"), 88.0))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := repo.AllQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Corpus text is vignette plus stem, the originality comparison unit.
	assert.Contains(t, rows[0].Text, "chest pain")
	assert.Contains(t, rows[0].Text, "next step")
}

func TestQuestionRepo_SaveAcceptedUpserts(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	q := sampleQuestion("q1")
	require.NoError(t, repo.SaveAccepted(ctx, q, 80))

	q.Vignette = "An updated vignette. BP 120/80 mmHg."
	require.NoError(t, repo.SaveAccepted(ctx, q, 91))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "resubmission must not duplicate the row")

	rows, err := repo.AllQuestions(ctx)
	require.NoError(t, err)
	assert.Contains(t, rows[0].Text, "updated vignette")
}

func TestEventRepo_AppendAndSaveRun(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider:     "anthropic",
		Model:        "claude-haiku",
		Purpose:      "question-review",
		InputTokens:  812,
		OutputTokens: 144,
		LatencyMs:    950,
		Success:      true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Purpose:      "question-review",
		Success:      false,
		ErrorMessage: "rate limited",
	}))

	var count int
	require.NoError(t, s.DB().Get(&count, `SELECT COUNT(*) FROM llm_request_events`))
	assert.Equal(t, 2, count)

	started := time.Now().Add(-time.Minute)
	require.NoError(t, repo.SaveRun(ctx, RunRecord{
		ID:             "run-1",
		StartedAt:      started,
		FinishedAt:     time.Now(),
		Total:          100,
		Accepted:       64,
		Rejected:       22,
		NeedsReview:    14,
		AcceptanceRate: 0.64,
		EliteCount:     18,
		EstimatedCost:  0.73,
		ReportPath:     "report.json",
	}))

	var accepted int
	require.NoError(t, s.DB().Get(&accepted,
		`SELECT accepted FROM validation_runs WHERE id = ?`, "run-1"))
	assert.Equal(t, 64, accepted)
}

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qgate.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.QuestionRepo().SaveAccepted(context.Background(), sampleQuestion("q1"), 90))
	require.NoError(t, s1.Close())

	// Reopening must keep existing data and not fail on CREATE.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.QuestionRepo().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
