package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/corpus"
)

var generateSettings = corpus.DefaultGeneratorConfig()

var generateCmd = &cobra.Command{
	Use:   "generate <output-dir>",
	Short: "Generate a synthetic tokenized corpus",
	Long: `Generate a synthetic corpus in the PU1 layout (partN directories of token id
files, spam marked by "spmsg" in the file name) for trying out and
benchmarking the classifier.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := args[0]

		generator, err := corpus.NewGenerator(generateSettings)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🧪 Generating synthetic corpus...\n")
		fmt.Fprintf(out, "📧 Documents: %d (%.1f%% spam)\n", generateSettings.Documents, generateSettings.SpamRatio*100)
		fmt.Fprintf(out, "🗂️  Folds: %d\n", generateSettings.Folds)
		fmt.Fprintf(out, "📂 Output directory: %s\n\n", output)

		start := time.Now()
		stats, err := generator.WriteCorpus(output)
		if err != nil {
			return fmt.Errorf("failed to generate corpus: %v", err)
		}
		duration := time.Since(start)

		fmt.Fprintf(out, "✅ Generation complete!\n")
		fmt.Fprintf(out, "🚫 Spam: %d\n", stats.Spam)
		fmt.Fprintf(out, "✅ Legit: %d\n", stats.Legit)
		if stats.Unused > 0 {
			fmt.Fprintf(out, "🗑️  Unused: %d\n", stats.Unused)
		}
		fmt.Fprintf(out, "⏱️ Time taken: %v\n", duration.Round(time.Millisecond))

		return nil
	},
}

func init() {
	generateCmd.Flags().IntVarP(&generateSettings.Documents, "count", "n", generateSettings.Documents, "Number of documents in the folds")
	generateCmd.Flags().Float64Var(&generateSettings.SpamRatio, "spam-ratio", generateSettings.SpamRatio, "Share of spam documents (0-1)")
	generateCmd.Flags().IntVarP(&generateSettings.Folds, "folds", "k", generateSettings.Folds, "Number of partN directories")
	generateCmd.Flags().IntVar(&generateSettings.Unused, "unused", generateSettings.Unused, "Extra documents under an unused directory")
	generateCmd.Flags().IntVar(&generateSettings.Vocabulary, "vocabulary", generateSettings.Vocabulary, "Highest token id")
	generateCmd.Flags().IntVar(&generateSettings.MinLength, "min-length", generateSettings.MinLength, "Minimum tokens per document")
	generateCmd.Flags().IntVar(&generateSettings.MaxLength, "max-length", generateSettings.MaxLength, "Maximum tokens per document")
	generateCmd.Flags().Int64Var(&generateSettings.Seed, "seed", generateSettings.Seed, "Random seed")
}
