package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/corpus"
)

var testCmd = &cobra.Command{
	Use:   "test <corpus-dir> <document>",
	Short: "Classify a single document",
	Long: `Train on the corpus, leaving out the document itself if it belongs to the
corpus, and classify one tokenized document as spam or legit.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		dir, docPath := args[0], args[1]

		if err := corpus.CheckRoot(dir); err != nil {
			return err
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
		tokens, err := corpus.FileSource{}.Tokens(ctx, corpus.Document{Path: docPath})
		if err != nil {
			return fmt.Errorf("failed to read document: %v", err)
		}

		source, closeSource, err := openSource(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer closeSource()

		trainer, err := trainCorpus(ctx, source, docs, docPath, logger)
		if err != nil {
			return err
		}
		model, err := trainer.Model()
		if err != nil {
			return fmt.Errorf("failed to train: %v", err)
		}

		start := time.Now()
		scores := model.Score(tokens)
		duration := time.Since(start)

		classification := "LEGIT"
		if scores.IsSpam() {
			classification = "SPAM"
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "knb Test Results:\n")
		fmt.Fprintf(out, "File: %s\n", docPath)
		fmt.Fprintf(out, "Tokens: %d\n", len(tokens))
		fmt.Fprintf(out, "Spam score: %.4f\n", scores.Spam)
		fmt.Fprintf(out, "Legit score: %.4f\n", scores.Legit)
		fmt.Fprintf(out, "Classification: %s\n", classification)
		fmt.Fprintf(out, "Trained on: %d documents\n", trainer.Documents())
		fmt.Fprintf(out, "Processing time: %.2fms\n", float64(duration.Nanoseconds())/1e6)

		return nil
	},
}
