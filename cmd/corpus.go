package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caseprep/qgate/internal/originality"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Show originality-corpus statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stored, err := st.QuestionRepo().Count(ctx)
		if err != nil {
			return err
		}

		checker := originality.NewChecker(st.QuestionRepo(), originality.DefaultConfig(), log)
		loaded, err := checker.LoadCorpus(ctx, true)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stored questions: %d\nindexed corpus entries: %d\n", stored, loaded)
		return nil
	},
}
