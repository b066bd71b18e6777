// Package batch sequences the structural pre-check, elite scorer,
// originality checker, and LLM reviewer per candidate question, and
// enforces population-level quality controls over the batch.
package batch

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/caseprep/qgate/internal/elite"
	"github.com/caseprep/qgate/internal/originality"
	"github.com/caseprep/qgate/internal/question"
	"github.com/caseprep/qgate/internal/store"
	"github.com/caseprep/qgate/internal/triage"
)

// Config tunes the orchestrator.
type Config struct {
	Gates GateConfig

	// Confidence and Margin parameterize the human-review sample size
	// and the population estimate. Defaults: 0.95 and 0.05.
	Confidence float64
	Margin     float64

	// SampleSizeOverride forces the review sample size when > 0.
	SampleSizeOverride int

	// SkipLLM disables the paid review stage; final status then comes
	// from the elite composite against EliteAcceptFloor.
	SkipLLM bool

	// EliteAcceptFloor is the composite a question must reach to be
	// accepted when the LLM stage is skipped.
	EliteAcceptFloor float64

	// Concurrency is the number of candidates validated in flight.
	// 1 (the default) keeps dispatch strictly sequential, which lets
	// a stop gate fire before the next paid call.
	Concurrency int

	// Seed fixes the sampling RNG for reproducible draws; 0 seeds
	// from entropy.
	Seed uint64
}

// DefaultConfig returns the standard orchestrator setup.
func DefaultConfig() Config {
	return Config{
		Gates:            DefaultGateConfig(),
		Confidence:       0.95,
		Margin:           0.05,
		EliteAcceptFloor: 70,
		Concurrency:      1,
	}
}

// Orchestrator owns the three validators and the shared corpus, and
// runs candidates through the gate.
type Orchestrator struct {
	checker *originality.Checker
	elite   *elite.Validator
	triage  *triage.Validator
	repo    store.QuestionRepo // optional; nil skips persistence
	config  Config
	log     *zap.Logger
}

// New creates an Orchestrator. repo may be nil when accepted questions
// should not be persisted (dry runs, tests).
func New(checker *originality.Checker, eliteV *elite.Validator, triageV *triage.Validator,
	repo store.QuestionRepo, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		checker: checker,
		elite:   eliteV,
		triage:  triageV,
		repo:    repo,
		config:  cfg,
		log:     log,
	}
}

// Run validates a batch of candidates and returns the finalized
// report. Gate trips are recorded in the report rather than returned
// as errors; only context cancellation aborts the run.
func (o *Orchestrator) Run(ctx context.Context, questions []question.Question) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(questions),
	}
	gates := newGateState(o.config.Gates)

	var err error
	if o.config.Concurrency > 1 {
		err = o.runConcurrent(ctx, questions, gates, report)
	} else {
		err = o.runSequential(ctx, questions, gates, report)
	}
	if err != nil {
		return nil, err
	}

	report.QualityGateFailures = gates.events
	report.finalize()
	o.drawReviewSample(report)

	o.log.Info("batch complete",
		zap.String("batch_id", report.ID),
		zap.Int("total", report.Total),
		zap.Int("dispatched", report.Dispatched),
		zap.Int("accepted", report.Accepted),
		zap.Float64("acceptance_rate", report.AcceptanceRate),
		zap.Float64("estimated_cost", report.EstimatedCost))

	return report, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, questions []question.Question,
	gates *gateState, report *Report) error {
	for i := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if gates.haltDispatch() {
			o.log.Warn("stop gate fired; remaining candidates not dispatched",
				zap.Int("remaining", len(questions)-i))
			break
		}

		outcome := o.processOne(ctx, &questions[i])
		report.Outcomes = append(report.Outcomes, outcome)
		o.afterOutcome(ctx, &questions[i], outcome)
		gates.observe(i, outcome.Status == triage.StatusAccept)
	}
	return nil
}

// runConcurrent validates candidates with a bounded worker pool.
// Outcomes land in submission-order slots, and the gates replay that
// order chunk by chunk: a stop gate prevents dispatch of the next
// chunk while already-started validations complete.
func (o *Orchestrator) runConcurrent(ctx context.Context, questions []question.Question,
	gates *gateState, report *Report) error {
	chunk := o.config.Concurrency
	for lo := 0; lo < len(questions); lo += chunk {
		if gates.haltDispatch() {
			o.log.Warn("stop gate fired; remaining candidates not dispatched",
				zap.Int("remaining", len(questions)-lo))
			break
		}
		hi := min(lo+chunk, len(questions))

		outcomes := make([]Outcome, hi-lo)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.config.Concurrency)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				outcomes[i-lo] = o.processOne(gctx, &questions[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for i := lo; i < hi; i++ {
			outcome := outcomes[i-lo]
			report.Outcomes = append(report.Outcomes, outcome)
			o.afterOutcome(ctx, &questions[i], outcome)
			gates.observe(i, outcome.Status == triage.StatusAccept)
		}
	}
	return nil
}

// processOne runs the per-question pipeline: stages are sequential
// because later stages cost more and should not run once an earlier
// one has rejected.
func (o *Orchestrator) processOne(ctx context.Context, q *question.Question) Outcome {
	start := time.Now()
	outcome := Outcome{QuestionID: q.ID}

	// Stage 1: structural pre-check, before any paid call.
	if issues := StructuralCheck(q); len(issues) > 0 {
		outcome.Status = triage.StatusReject
		outcome.Stage = StageStructural
		outcome.StructuralIssues = issues
		outcome.Issues = issues
		outcome.ElapsedMs = time.Since(start).Milliseconds()
		return outcome
	}

	// Originality runs against the shared corpus; free, so it goes
	// before the LLM.
	origRes := o.checker.CheckOriginality(q, false)
	outcome.Originality = &origRes
	if !origRes.IsOriginal {
		outcome.Status = triage.StatusReject
		outcome.Stage = StageOriginality
		outcome.Issues = []string{"duplicate of existing question " + origRes.MatchedQuestionID}
		outcome.ElapsedMs = time.Since(start).Milliseconds()
		return outcome
	}

	// Stage 2: elite rubric, still free.
	eliteRes := o.elite.Validate(q)
	outcome.Elite = &eliteRes
	outcome.Issues = append(outcome.Issues, eliteRes.Issues...)

	// Stage 3: paid LLM review, unless disabled.
	if o.config.SkipLLM || o.triage == nil {
		outcome.Stage = StageElite
		outcome.FinalScore = eliteRes.Composite
		if eliteRes.Composite >= o.config.EliteAcceptFloor {
			outcome.Status = triage.StatusAccept
		} else {
			outcome.Status = triage.StatusRevise
		}
		outcome.ElapsedMs = time.Since(start).Milliseconds()
		return outcome
	}

	verdict := o.triage.ValidateQuestion(ctx, q)
	outcome.Verdict = &verdict
	outcome.Stage = StageLLM
	outcome.Status = verdict.Status
	outcome.FinalScore = verdict.OverallScore
	outcome.Cost = verdict.Cost
	outcome.Issues = append(outcome.Issues, verdict.Issues...)
	outcome.ElapsedMs = time.Since(start).Milliseconds()
	return outcome
}

// afterOutcome indexes and persists accepted questions so later
// candidates in the same batch are screened against them.
func (o *Orchestrator) afterOutcome(ctx context.Context, q *question.Question, outcome Outcome) {
	if outcome.Status != triage.StatusAccept {
		return
	}
	o.checker.AddToCorpus(q.ID, q.FullText())
	if o.repo == nil {
		return
	}
	score := outcome.FinalScore
	if err := o.repo.SaveAccepted(ctx, *q, score); err != nil {
		o.log.Warn("failed to persist accepted question",
			zap.String("question_id", q.ID), zap.Error(err))
	}
}

// drawReviewSample computes the sample size and draws the stratified
// human-review sample from the accepted outcomes.
func (o *Orchestrator) drawReviewSample(report *Report) {
	var accepted []Outcome
	for _, out := range report.Outcomes {
		if out.Status == triage.StatusAccept {
			accepted = append(accepted, out)
		}
	}
	if len(accepted) == 0 {
		return
	}

	size := o.config.SampleSizeOverride
	if size <= 0 {
		size = SampleSize(len(accepted), o.config.Confidence, o.config.Margin)
	}
	report.ReviewSampleSize = size

	var rng *rand.Rand
	if o.config.Seed != 0 {
		rng = rand.New(rand.NewPCG(o.config.Seed, 0))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	report.ReviewSample = StratifiedSample(accepted, size, rng)
}
