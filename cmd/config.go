package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage knb configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with all options`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "knb.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration file generated: %s\n", configPath)
		fmt.Fprintf(out, "📝 Edit the file to change corpus markers, folds or caching\n")
		fmt.Fprintf(out, "🚀 Use 'knb --config %s <corpus-dir>' to use the configuration\n", configPath)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration is valid: %s\n", configPath)

		if warnings := validateConfigLogic(cfg); len(warnings) > 0 {
			fmt.Fprintf(out, "\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Fprintf(out, "  - %s\n", warning)
			}
		}

		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show current configuration",
	Long:  `Display the current configuration with all values`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var cfg *config.Config
		if len(args) > 0 {
			var err error
			cfg, err = config.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
			fmt.Fprintf(out, "Configuration: %s\n\n", args[0])
		} else {
			cfg = config.DefaultConfig()
			fmt.Fprintf(out, "Default Configuration:\n\n")
		}

		fmt.Fprintf(out, "📁 Corpus:\n")
		fmt.Fprintf(out, "  Spam marker: %q\n", cfg.Corpus.SpamMarker)
		fmt.Fprintf(out, "  Unused marker: %q\n", cfg.Corpus.UnusedMarker)
		fmt.Fprintf(out, "  Fold prefix: %q\n", cfg.Corpus.FoldPrefix)

		fmt.Fprintf(out, "\n🔁 Evaluation:\n")
		fmt.Fprintf(out, "  Folds: %d\n", cfg.Evaluation.Folds)
		fmt.Fprintf(out, "  Undefined metrics: %s\n", cfg.Evaluation.UndefinedMetric)
		fmt.Fprintf(out, "  Parallel: %v (workers: %d)\n", cfg.Evaluation.Parallel, cfg.Evaluation.Workers)

		fmt.Fprintf(out, "\n📝 Logging:\n")
		fmt.Fprintf(out, "  Level: %s\n", cfg.Logging.Level)
		fmt.Fprintf(out, "  Format: %s\n", cfg.Logging.Format)
		if cfg.Logging.File != "" {
			fmt.Fprintf(out, "  File: %s\n", cfg.Logging.File)
		}

		fmt.Fprintf(out, "\n⚡ Token Cache:\n")
		fmt.Fprintf(out, "  Enabled: %v\n", cfg.Cache.Enabled)
		if cfg.Cache.Enabled {
			fmt.Fprintf(out, "  Redis: %s (db %d)\n", cfg.Cache.RedisURL, cfg.Cache.DatabaseNum)
			fmt.Fprintf(out, "  Key prefix: %s\n", cfg.Cache.KeyPrefix)
			fmt.Fprintf(out, "  TTL: %s\n", cfg.Cache.TTL)
		}

		return nil
	},
}

// validateConfigLogic performs additional logical validation
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if cfg.Evaluation.Folds == 1 {
		warnings = append(warnings, "A single fold trains only on documents outside part1")
	}

	if cfg.Evaluation.Folds != 10 {
		warnings = append(warnings, fmt.Sprintf("PU corpora are split into 10 parts, folds is set to %d", cfg.Evaluation.Folds))
	}

	if cfg.Evaluation.Parallel && cfg.Evaluation.Workers > cfg.Evaluation.Folds {
		warnings = append(warnings, "More workers than folds")
	}

	if cfg.Corpus.SpamMarker == cfg.Corpus.UnusedMarker {
		warnings = append(warnings, "Spam and unused markers are identical")
	}

	return warnings
}

func init() {
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
