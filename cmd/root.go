package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/config"
	"github.com/zpam/knb/pkg/corpus"
	"github.com/zpam/knb/pkg/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
)

var rootRun crossvalFlags

var rootCmd = &cobra.Command{
	Use:   "knb <corpus-dir>",
	Short: "knb - Naive Bayes spam classifier evaluation",
	Long: `knb trains a multinomial Naive Bayes spam classifier on pre-tokenized
corpora such as PU1 and measures it with 10-fold cross-validation.

Documents are files of whitespace-separated integer token ids. A file whose
name contains "spmsg" is spam, a path containing "unused" is ignored and the
fold is taken from the "partN" directory the file lives in.`,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runCrossval(cmd, args[0], &rootRun)
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ErrorMessage returns the text printed after "Error: " when a command fails
func ErrorMessage(err error) string {
	if errors.Is(err, corpus.ErrDirectoryNotFound) {
		dir := strings.TrimSuffix(err.Error(), ": "+corpus.ErrDirectoryNotFound.Error())
		return fmt.Sprintf("Directory not found! %s", dir)
	}
	return err.Error()
}

// loadSettings loads the configuration, applies the persistent flags and
// builds the logger. The returned function closes the log output.
func loadSettings(cmd *cobra.Command) (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %v", err)
	}

	return cfg, logger, closeLog, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	addCrossvalFlags(rootCmd, &rootRun)

	rootCmd.AddCommand(crossvalCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(generateCmd)
}
