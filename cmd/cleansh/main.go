// Command cleansh is the CLI front end for the sanitization engine: it wires
// rule loading, the engine facade, the audit log, and the artifact
// signer/verifier behind a cobra command tree, the way the reference
// implementation's clap-based CLI wires its own core library.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sanitizer-engine/internal/config"
	"sanitizer-engine/internal/logger"
	"sanitizer-engine/internal/metrics"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitDenied  = 2
)

var (
	flagClipboard    bool
	flagDiff         bool
	flagConfigPath   string
	flagProfile      string
	flagOutputPath   string
	flagNoSummary    bool
	flagEnable       []string
	flagDisable      []string
	flagEngine       string
	flagInputFile    string
	flagLineBuffered bool
	flagQuiet        bool
	flagDebug        bool

	cfg *config.Config
	log *logger.Logger
	met *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "cleansh",
	Short: "Securely redact sensitive data from text",
	Long: `cleansh redacts sensitive information from text-based input using a
configurable, regex-and-validator rule set: emails, IP addresses, card
numbers, government IDs, API keys and more.`,
	RunE: runSanitizeCmd,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagClipboard, "clipboard", "c", false, "Copy sanitized output to the system clipboard")
	rootCmd.PersistentFlags().BoolVarP(&flagDiff, "diff", "D", false, "Show a unified diff between original and sanitized output")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to a custom redaction rule file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Named rule profile to apply (\"strict\" enables every opt-in rule)")
	rootCmd.PersistentFlags().StringVarP(&flagOutputPath, "output", "o", "", "Write output to a file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&flagNoSummary, "no-redaction-summary", false, "Suppress the redaction summary")
	rootCmd.PersistentFlags().StringSliceVarP(&flagEnable, "enable", "e", nil, "Enable these opt-in rule names")
	rootCmd.PersistentFlags().StringSliceVarP(&flagDisable, "disable", "x", nil, "Explicitly disable these rule names")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "regex", "Sanitization engine to use")
	rootCmd.PersistentFlags().StringVarP(&flagInputFile, "input-file", "i", "", "Read input from a file instead of stdin")
	rootCmd.PersistentFlags().BoolVar(&flagLineBuffered, "line-buffered", false, "Process input line by line, with no cross-line state")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational messages")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Enable debug logging")

	rootCmd.PersistentPreRunE = loadAmbientState
	rootCmd.AddCommand(statsCmd, signArtifactCmd, verifyArtifactCmd)
}

// loadAmbientState builds the process-wide config and logger before any
// subcommand runs, mirroring the teacher's config.Load()-then-wire pattern.
func loadAmbientState(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	if flagQuiet {
		cfg.LogLevel = "error"
	}
	log = logger.New("cleansh", cfg.LogLevel)
	met = metrics.New()

	if flagEngine != "" && flagEngine != "regex" {
		return fmt.Errorf("unsupported engine %q: only \"regex\" is implemented", flagEngine)
	}

	installCompileManifest()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}
