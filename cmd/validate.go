package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caseprep/qgate/internal/batch"
	"github.com/caseprep/qgate/internal/elite"
	"github.com/caseprep/qgate/internal/llm"
	"github.com/caseprep/qgate/internal/originality"
	"github.com/caseprep/qgate/internal/question"
	"github.com/caseprep/qgate/internal/report"
	"github.com/caseprep/qgate/internal/store"
	"github.com/caseprep/qgate/internal/triage"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run a candidate batch through the quality gate",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("input", "", "Candidate batch file (JSON)")
	validateCmd.Flags().String("output", "validation_report.json", "Report output path")
	validateCmd.Flags().String("format", "json", "Report format: json, csv, or xlsx")
	validateCmd.Flags().Int("sample-size", 0, "Override the auto-computed human-review sample size")
	validateCmd.Flags().Bool("disable-gates", false, "Skip quality-gate enforcement")
	validateCmd.Flags().String("check-plagiarism", "", "Reference set file for the plagiarism spot-check")
	validateCmd.Flags().Bool("skip-llm", false, "Skip the paid LLM review stage")
	validateCmd.Flags().Int("concurrency", 1, "Candidates validated in flight")
	validateCmd.Flags().Uint64("seed", 0, "Sampling RNG seed (0 = random)")
	_ = validateCmd.MarkFlagRequired("input")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	input, _ := cmd.Flags().GetString("input")
	questions, err := question.LoadBatch(input)
	if err != nil {
		return err
	}
	log.Info("loaded candidate batch", zap.String("input", input), zap.Int("count", len(questions)))

	// The gate degrades without a database: no corpus, no persistence,
	// no event log, but the batch still validates.
	var (
		eventRepo    store.EventRepo = store.NopEventRepo{}
		questionRepo store.QuestionRepo
		source       originality.CorpusSource = emptyCorpus{}
	)
	if st, err := openStore(cmd); err != nil {
		log.Warn("database unavailable; running without corpus or persistence", zap.Error(err))
	} else {
		defer st.Close()
		eventRepo = st.EventRepo()
		questionRepo = st.QuestionRepo()
		source = st.QuestionRepo()
	}

	checker := originality.NewChecker(source, originality.DefaultConfig(), log)
	if n, err := checker.LoadCorpus(ctx, false); err == nil {
		log.Info("corpus loaded", zap.Int("entries", n))
	}

	cfg := batch.DefaultConfig()
	cfg.SampleSizeOverride, _ = cmd.Flags().GetInt("sample-size")
	cfg.SkipLLM, _ = cmd.Flags().GetBool("skip-llm")
	cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	cfg.Seed, _ = cmd.Flags().GetUint64("seed")
	if disabled, _ := cmd.Flags().GetBool("disable-gates"); disabled {
		cfg.Gates.Enabled = false
	}

	var triageV *triage.Validator
	if !cfg.SkipLLM {
		llmCfg := llm.ConfigFromEnv()
		if err := llmCfg.Validate(); err != nil {
			log.Warn("LLM review disabled", zap.Error(err))
			cfg.SkipLLM = true
		} else {
			provider, err := llm.NewProvider(ctx, llmCfg, eventRepo)
			if err != nil {
				return err
			}
			triageV = triage.NewValidator(provider, triage.DefaultConfig())
		}
	}

	if refPath, _ := cmd.Flags().GetString("check-plagiarism"); refPath != "" {
		if err := spotCheckBatch(refPath, questions, log); err != nil {
			return err
		}
	}

	orch := batch.New(checker, elite.NewValidator(), triageV, questionRepo, cfg, log)
	rep, err := orch.Run(ctx, questions)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if err := report.Write(rep, output, format); err != nil {
		return err
	}
	log.Info("report written", zap.String("output", output), zap.String("format", format))

	if eventRepo != nil {
		run := store.RunRecord{
			ID:             rep.ID,
			StartedAt:      rep.StartedAt,
			FinishedAt:     rep.FinishedAt,
			Total:          rep.Total,
			Accepted:       rep.Accepted,
			Rejected:       rep.Rejected,
			NeedsReview:    rep.NeedsReview,
			AcceptanceRate: rep.AcceptanceRate,
			EliteCount:     rep.EliteCount,
			EstimatedCost:  rep.EstimatedCost,
			ReportPath:     output,
		}
		if err := eventRepo.SaveRun(ctx, run); err != nil {
			log.Warn("failed to record validation run", zap.Error(err))
		}
	}

	printSummary(cmd, rep)

	switch {
	case rep.StoppedByGate():
		return &exitCodeError{code: 2}
	case rep.AcceptanceRate < cfg.Gates.FlagFloor && cfg.Gates.Enabled:
		return &exitCodeError{code: 1}
	}
	return nil
}

// spotCheckBatch compares every candidate against an explicit
// published reference set and logs exact-duplicate-level hits.
func spotCheckBatch(refPath string, questions []question.Question, log *zap.Logger) error {
	data, err := os.ReadFile(refPath)
	if err != nil {
		return fmt.Errorf("read reference set: %w", err)
	}
	var refs []batch.Reference
	if err := json.Unmarshal(data, &refs); err != nil {
		return fmt.Errorf("decode reference set %s: %w", refPath, err)
	}

	flagged := 0
	for i := range questions {
		for _, m := range batch.SpotCheck(questions[i].FullText(), refs) {
			if m.Flagged {
				flagged++
				log.Warn("plagiarism spot-check hit",
					zap.String("question_id", questions[i].ID),
					zap.String("reference_id", m.ReferenceID),
					zap.Float64("similarity", m.Similarity))
			}
		}
	}
	log.Info("plagiarism spot-check complete",
		zap.Int("references", len(refs)), zap.Int("flagged", flagged))
	return nil
}

func printSummary(cmd *cobra.Command, rep *batch.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch %s: %d dispatched of %d\n", rep.ID, rep.Dispatched, rep.Total)
	fmt.Fprintf(out, "  accepted %d  rejected %d  needs-review %d  (acceptance %.1f%%)\n",
		rep.Accepted, rep.Rejected, rep.NeedsReview, rep.AcceptanceRate*100)
	fmt.Fprintf(out, "  elite %d (%.1f%%)  avg %.1f  median %.1f\n",
		rep.EliteCount, rep.EliteRate*100, rep.AverageScore, rep.MedianScore)
	fmt.Fprintf(out, "  estimated cost $%.4f  elapsed %dms\n", rep.EstimatedCost, rep.ElapsedMs)
	for _, ev := range rep.QualityGateFailures {
		fmt.Fprintf(out, "  gate: %s at index %d (%s)\n", ev.Action, ev.TriggerIndex, ev.Message)
	}
	if rep.ReviewSampleSize > 0 {
		fmt.Fprintf(out, "  human-review sample: %d of %d accepted\n", rep.ReviewSampleSize, rep.Accepted)
	}
}

// emptyCorpus is the corpus source used when no database is available.
type emptyCorpus struct{}

func (emptyCorpus) AllQuestions(context.Context) ([]store.CorpusQuestion, error) {
	return nil, nil
}
