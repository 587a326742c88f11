package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/corpus"
	"github.com/zpam/knb/pkg/learning"
)

var trainOutput string

var trainCmd = &cobra.Command{
	Use:   "train <corpus-dir>",
	Short: "Train on a whole corpus and show model statistics",
	Long: `Train the Naive Bayes model on every usable document of the corpus, ignoring
folds, and print its priors, vocabulary and most discriminating tokens.

The model is not saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		dir := args[0]

		if err := corpus.CheckRoot(dir); err != nil {
			return err
		}
		if trainOutput != "text" && trainOutput != "json" {
			return fmt.Errorf("invalid output format: %s", trainOutput)
		}

		cfg, logger, closeLog, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		docs, err := corpus.Scan(dir, labelerFromConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to scan corpus: %v", err)
		}

		ctx := cmd.Context()
		source, closeSource, err := openSource(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer closeSource()

		start := time.Now()
		trainer, err := trainCorpus(ctx, source, docs, "", logger)
		if err != nil {
			return err
		}
		model, err := trainer.Model()
		if err != nil {
			return fmt.Errorf("failed to train: %v", err)
		}
		duration := time.Since(start)

		out := cmd.OutOrStdout()
		if trainOutput == "json" {
			enc := jsoniter.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(model.Info())
		}

		fmt.Fprintf(out, "📁 Corpus: %s\n", dir)
		fmt.Fprintf(out, "⏱️  Training time: %v\n\n", duration.Round(time.Millisecond))
		model.PrintStats(out)

		return nil
	},
}

// trainCorpus trains on every usable document except the one at exclude.
// Unused documents are ignored and unreadable ones are logged and skipped.
func trainCorpus(ctx context.Context, source corpus.Source, docs []corpus.Document, exclude string, logger *slog.Logger) (*learning.Trainer, error) {
	excluded := ""
	if exclude != "" {
		excluded = absPath(exclude)
	}

	trainer := learning.NewTrainer()
	var skipped int
	for _, doc := range docs {
		if doc.Unused || (excluded != "" && absPath(doc.Path) == excluded) {
			continue
		}

		tokens, err := source.Tokens(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("skipping unreadable document", "document", doc.Path, "error", err)
			skipped++
			continue
		}

		trainer.Add(tokens, doc.Spam)
	}

	logger.Debug("training set loaded", "documents", trainer.Documents(), "skipped", skipped)

	return trainer, nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func init() {
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "text", "Output format (text, json)")
}
