package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/zpam/knb/pkg/config"
	"github.com/zpam/knb/pkg/corpus"
	"github.com/zpam/knb/pkg/evaluation"
	"github.com/zpam/knb/pkg/profiler"
)

type crossvalFlags struct {
	folds           int
	parallel        bool
	workers         int
	undefinedMetric string
	output          string
	cache           bool
	resetCache      bool
	redisURL        string
	profileMode     string
	timings         bool
}

var crossvalRun crossvalFlags

var crossvalCmd = &cobra.Command{
	Use:   "crossval <corpus-dir>",
	Short: "Run k-fold cross-validation",
	Long: `Train and test the classifier k times, each time holding out one fold of
the corpus, and report the mean spam recall and precision over the folds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runCrossval(cmd, args[0], &crossvalRun)
	},
}

func addCrossvalFlags(cmd *cobra.Command, f *crossvalFlags) {
	cmd.Flags().IntVarP(&f.folds, "folds", "k", evaluation.DefaultFolds, "Number of folds")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "Evaluate folds concurrently (progress lines stay in fold order)")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Concurrent folds in parallel mode")
	cmd.Flags().StringVar(&f.undefinedMetric, "undefined-metric", string(evaluation.SkipUndefined), "Folds with undefined recall/precision: skip or zero")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&f.cache, "cache", false, "Cache tokenized documents in Redis")
	cmd.Flags().BoolVar(&f.resetCache, "reset-cache", false, "Clear the token cache before running")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", "", "Redis URL for the token cache")
	cmd.Flags().StringVar(&f.profileMode, "profile", "", "Write a cpu or mem profile")
	cmd.Flags().BoolVar(&f.timings, "timings", false, "Print per-phase timings")
}

// apply overrides configuration values with the flags set on the command line
func (f *crossvalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("folds") {
		cfg.Evaluation.Folds = f.folds
	}
	if flags.Changed("parallel") {
		cfg.Evaluation.Parallel = f.parallel
	}
	if flags.Changed("workers") {
		cfg.Evaluation.Workers = f.workers
	}
	if flags.Changed("undefined-metric") {
		cfg.Evaluation.UndefinedMetric = f.undefinedMetric
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = f.cache
	}
	if flags.Changed("redis-url") {
		cfg.Cache.RedisURL = f.redisURL
	}
	if flags.Changed("profile") {
		cfg.Profiling.Mode = f.profileMode
	}
	if flags.Changed("timings") {
		cfg.Profiling.Timings = f.timings
	}
}

func runCrossval(cmd *cobra.Command, dir string, f *crossvalFlags) error {
	if err := corpus.CheckRoot(dir); err != nil {
		return err
	}
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("invalid output format: %s", f.output)
	}

	cfg, logger, closeLog, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %v", err)
	}

	policy, err := evaluation.ParseMetricPolicy(cfg.Evaluation.UndefinedMetric)
	if err != nil {
		return err
	}

	switch cfg.Profiling.Mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profiling.Path), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(cfg.Profiling.Path), profile.NoShutdownHook).Stop()
	}

	docs, err := corpus.Scan(dir, labelerFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to scan corpus: %v", err)
	}
	logger.Debug("corpus scanned", "dir", dir, "documents", len(docs))

	ctx := cmd.Context()
	source, closeSource, err := openSource(ctx, cfg, logger, f.resetCache)
	if err != nil {
		return err
	}
	defer closeSource()

	var prof *profiler.Profiler
	if cfg.Profiling.Timings {
		prof = profiler.NewProfiler()
	}

	out := cmd.OutOrStdout()
	textOutput := f.output == "text"

	cv := evaluation.NewCrossValidator(source, evaluation.Options{
		Folds:    cfg.Evaluation.Folds,
		Policy:   policy,
		Parallel: cfg.Evaluation.Parallel,
		Workers:  cfg.Evaluation.Workers,
		Logger:   logger,
		Profiler: prof,
		Progress: func(fold int) {
			if textOutput {
				fmt.Fprintf(out, "Now starting fold number %d\n", fold)
			}
		},
	})

	report, err := cv.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("cross-validation failed: %v", err)
	}

	logger.Info("cross-validation complete",
		"folds", len(report.Folds),
		"documents", report.Documents,
		"skipped", report.Skipped,
		"excluded", report.Excluded,
		"train_only", report.TrainOnly,
	)

	if textOutput {
		printReport(out, report)
		if prof != nil {
			fmt.Fprintf(out, "\n")
			prof.PrintReport(out)
		}
		return nil
	}

	if prof != nil {
		prof.PrintReport(cmd.ErrOrStderr())
	}
	enc := jsoniter.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printReport(w io.Writer, report *evaluation.Report) {
	fmt.Fprintf(w, "Spam recall: %s\n", report.Recall)
	fmt.Fprintf(w, "Spam precision: %s\n", report.Precision)
}

func labelerFromConfig(cfg *config.Config) corpus.Labeler {
	return corpus.Labeler{
		SpamMarker:   cfg.Corpus.SpamMarker,
		UnusedMarker: cfg.Corpus.UnusedMarker,
		FoldPrefix:   cfg.Corpus.FoldPrefix,
	}
}

// openSource returns the token source for the run: the files themselves, or
// the Redis cache in front of them when caching is enabled and reachable.
func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger, reset bool) (corpus.Source, func(), error) {
	files := corpus.FileSource{}
	if !cfg.Cache.Enabled {
		return files, func() {}, nil
	}

	ttl, err := cfg.CacheTTL()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid cache ttl: %v", err)
	}

	cache, err := corpus.NewRedisCache(ctx, files, &corpus.RedisCacheConfig{
		RedisURL:    cfg.Cache.RedisURL,
		KeyPrefix:   cfg.Cache.KeyPrefix,
		DatabaseNum: cfg.Cache.DatabaseNum,
		TTL:         ttl,
		BatchSize:   cfg.Cache.BatchSize,
	}, logger)
	if err != nil {
		logger.Warn("token cache unavailable, reading files directly", "error", err)
		return files, func() {}, nil
	}

	if reset {
		if err := cache.Reset(ctx); err != nil {
			cache.Close()
			return nil, nil, fmt.Errorf("failed to reset token cache: %v", err)
		}
		logger.Info("token cache cleared", "prefix", cfg.Cache.KeyPrefix)
	}

	return cache, func() {
		stats := cache.Stats()
		logger.Info("token cache", "hits", stats.Hits, "misses", stats.Misses)
		cache.Close()
	}, nil
}

func init() {
	addCrossvalFlags(crossvalCmd, &crossvalRun)
}
