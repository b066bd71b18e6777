package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caseprep/qgate/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "qgate",
	Short: "Quality gate for AI-generated exam questions",
	Long: "qgate screens machine-generated exam questions before they enter the serving pool:\n" +
		"originality checking against the accepted corpus, a cost-optimized multi-provider\n" +
		"LLM review, a deterministic elite-quality rubric, and batch-level quality gates.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QGATE_DB env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitCodeError carries a batch-status exit code out of a command
// without printing an error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ec, ok := err.(*exitCodeError); ok {
		return ec.code
	}
	return 1
}

// IsExitCode reports whether err is a bare exit-code signal that
// needs no message printed.
func IsExitCode(err error) bool {
	_, ok := err.(*exitCodeError)
	return ok
}

// newLogger builds the CLI logger: human-readable, debug level when
// --verbose is set.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// envOr returns the environment variable value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openStore opens the database named by --db, the QGATE_DB env var,
// or the default XDG path, in that order.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = envOr("QGATE_DB", "")
	}
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	} else if err := store.EnsureDir(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}
