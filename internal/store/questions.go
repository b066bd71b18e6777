package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caseprep/qgate/internal/question"
)

// CorpusQuestion is the minimal projection the originality checker
// hydrates from: an id and the comparison text.
type CorpusQuestion struct {
	ID   string `db:"id"`
	Text string `db:"text"`
}

// QuestionRepo reads and writes the accepted-question pool.
type QuestionRepo interface {
	// AllQuestions returns id + vignette/stem text for every stored
	// question, for corpus hydration.
	AllQuestions(ctx context.Context) ([]CorpusQuestion, error)

	// SaveAccepted stores a question that passed the gate into the
	// serving pool.
	SaveAccepted(ctx context.Context, q question.Question, eliteScore float64) error

	// Count returns the number of stored questions.
	Count(ctx context.Context) (int, error)
}

// QuestionRepo returns a QuestionRepo backed by this store.
func (s *Store) QuestionRepo() QuestionRepo {
	return &questionRepo{store: s}
}

type questionRepo struct {
	store *Store
}

func (r *questionRepo) AllQuestions(ctx context.Context) ([]CorpusQuestion, error) {
	var rows []CorpusQuestion
	err := r.store.db.SelectContext(ctx, &rows,
		`SELECT id, vignette || ' ' || stem AS text FROM questions`)
	if err != nil {
		return nil, fmt.Errorf("load corpus questions: %w", err)
	}
	return rows, nil
}

func (r *questionRepo) SaveAccepted(ctx context.Context, q question.Question, eliteScore float64) error {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return fmt.Errorf("marshal choices: %w", err)
	}
	expl, err := json.Marshal(q.Explanation)
	if err != nil {
		return fmt.Errorf("marshal explanation: %w", err)
	}

	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO questions
			(id, vignette, stem, choices_json, answer, explanation_json, specialty, source, elite_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			vignette = excluded.vignette,
			stem = excluded.stem,
			choices_json = excluded.choices_json,
			answer = excluded.answer,
			explanation_json = excluded.explanation_json,
			elite_score = excluded.elite_score`,
		q.ID, q.Vignette, q.Stem, string(choices), q.Answer, string(expl),
		q.Metadata.Specialty, q.Metadata.Source, eliteScore)
	if err != nil {
		return fmt.Errorf("save question %s: %w", q.ID, err)
	}
	return nil
}

func (r *questionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM questions`); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
