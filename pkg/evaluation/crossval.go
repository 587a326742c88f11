package evaluation

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/zpam/knb/pkg/corpus"
	"github.com/zpam/knb/pkg/learning"
	"github.com/zpam/knb/pkg/profiler"
	"golang.org/x/sync/errgroup"
)

// DefaultFolds is the number of partitions of the PU corpora
const DefaultFolds = 10

// Options configures a CrossValidator
type Options struct {
	Folds  int
	Policy MetricPolicy

	// Parallel evaluates up to Workers folds at once. Results are identical
	// to a sequential run.
	Parallel bool
	Workers  int

	Logger   *slog.Logger
	Profiler *profiler.Profiler

	// Progress is called once per fold, in fold order, from the goroutine
	// calling Run. In parallel mode it is called as the fold is scheduled.
	Progress func(fold int)
}

// CrossValidator runs k-fold cross-validation of the Naive Bayes classifier
// over documents whose fold index is already known.
type CrossValidator struct {
	source corpus.Source
	opts   Options
}

// NewCrossValidator creates a cross-validator reading tokens from source
func NewCrossValidator(source corpus.Source, opts Options) *CrossValidator {
	if opts.Folds < 1 {
		opts.Folds = DefaultFolds
	}
	if opts.Policy == "" {
		opts.Policy = SkipUndefined
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &CrossValidator{
		source: source,
		opts:   opts,
	}
}

// FoldResult holds the outcome of one fold
type FoldResult struct {
	Fold           int           `json:"fold"`
	TrainDocuments int           `json:"train_documents"`
	TestDocuments  int           `json:"test_documents"`
	Confusion      Confusion     `json:"confusion"`
	Recall         Metric        `json:"recall"`
	Precision      Metric        `json:"precision"`
	Duration       time.Duration `json:"duration"`
}

// Report is the outcome of a cross-validation run
type Report struct {
	Folds     []FoldResult  `json:"folds"`
	Recall    MetricSummary `json:"recall"`
	Precision MetricSummary `json:"precision"`
	Policy    MetricPolicy  `json:"policy"`

	// Documents were loaded and took part in the folds
	Documents int `json:"documents"`
	// Skipped documents could not be read
	Skipped int `json:"skipped"`
	// Excluded documents are marked unused
	Excluded int `json:"excluded"`
	// TrainOnly documents have no fold in 1..k: they are trained on in every
	// fold and never tested
	TrainOnly int `json:"train_only"`
}

type sample struct {
	doc    corpus.Document
	tokens []learning.TokenID
}

// Run evaluates docs. Unused documents are excluded, documents outside folds
// 1..k are only trained on, unreadable documents are logged and skipped.
// Folds with an empty training set fail the run.
func (cv *CrossValidator) Run(ctx context.Context, docs []corpus.Document) (*Report, error) {
	report := &Report{
		Policy: cv.opts.Policy,
		Folds:  make([]FoldResult, cv.opts.Folds),
	}

	samples, err := cv.load(ctx, docs, report)
	if err != nil {
		return nil, err
	}
	report.Documents = len(samples)

	if cv.opts.Parallel {
		err = cv.runParallel(ctx, samples, report.Folds)
	} else {
		err = cv.runSequential(ctx, samples, report.Folds)
	}
	if err != nil {
		return nil, err
	}

	recall := make([]Metric, len(report.Folds))
	precision := make([]Metric, len(report.Folds))
	for i, f := range report.Folds {
		recall[i] = f.Recall
		precision[i] = f.Precision
	}

	report.Recall = summarize(recall, cv.opts.Policy)
	report.Precision = summarize(precision, cv.opts.Policy)

	return report, nil
}

func (cv *CrossValidator) load(ctx context.Context, docs []corpus.Document, report *Report) ([]sample, error) {
	timer := cv.opts.Profiler.Start(profiler.PhaseLoad)
	defer timer.Stop()

	samples := make([]sample, 0, len(docs))
	for _, doc := range docs {
		if doc.Unused {
			report.Excluded++
			continue
		}

		tokens, err := cv.source.Tokens(ctx, doc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			cv.opts.Logger.Warn("skipping unreadable document", "document", doc.Path, "error", err)
			report.Skipped++
			continue
		}

		if doc.Fold < 1 || doc.Fold > cv.opts.Folds {
			cv.opts.Logger.Debug("document outside folds, training only", "document", doc.Path, "fold", doc.Fold)
			report.TrainOnly++
		}

		samples = append(samples, sample{doc: doc, tokens: tokens})
	}

	return samples, nil
}

func (cv *CrossValidator) runSequential(ctx context.Context, samples []sample, results []FoldResult) error {
	for i := range results {
		fold := i + 1
		if cv.opts.Progress != nil {
			cv.opts.Progress(fold)
		}

		res, err := cv.evaluateFold(ctx, samples, fold)
		if err != nil {
			return err
		}
		results[i] = res
	}

	return nil
}

func (cv *CrossValidator) runParallel(ctx context.Context, samples []sample, results []FoldResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.opts.Workers)

	for i := range results {
		fold := i + 1
		if cv.opts.Progress != nil {
			cv.opts.Progress(fold)
		}

		// blocks while Workers folds are running
		g.Go(func() error {
			res, err := cv.evaluateFold(gctx, samples, fold)
			if err != nil {
				return err
			}
			results[fold-1] = res
			return nil
		})
	}

	return g.Wait()
}

// evaluateFold trains on every sample outside fold and tests on the samples in it
func (cv *CrossValidator) evaluateFold(ctx context.Context, samples []sample, fold int) (FoldResult, error) {
	start := time.Now()
	res := FoldResult{Fold: fold}

	trainTimer := cv.opts.Profiler.Start(profiler.PhaseTrain)
	trainer := learning.NewTrainer()
	var test []sample
	for _, s := range samples {
		if s.doc.Fold == fold {
			test = append(test, s)
			continue
		}
		trainer.Add(s.tokens, s.doc.Spam)
	}
	model, err := trainer.Model()
	trainTimer.Stop()
	if err != nil {
		return res, errors.Wrapf(err, "fold %d", fold)
	}

	res.TrainDocuments = trainer.Documents()
	res.TestDocuments = len(test)

	classifyTimer := cv.opts.Profiler.Start(profiler.PhaseClassify)
	for _, s := range test {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Confusion.Add(model.Classify(s.tokens), s.doc.Spam)
	}
	classifyTimer.Stop()

	recall, err := res.Confusion.Recall()
	if err != nil {
		cv.opts.Logger.Warn("metric undefined for fold", "fold", fold, "error", err, "policy", string(cv.opts.Policy))
	}
	res.Recall = newMetric(recall, err)

	precision, err := res.Confusion.Precision()
	if err != nil {
		cv.opts.Logger.Warn("metric undefined for fold", "fold", fold, "error", err, "policy", string(cv.opts.Policy))
	}
	res.Precision = newMetric(precision, err)

	res.Duration = time.Since(start)

	cv.opts.Logger.Debug("fold complete",
		"fold", fold,
		"train", res.TrainDocuments,
		"test", res.TestDocuments,
		"recall", res.Recall.String(),
		"precision", res.Precision.String(),
		"duration", res.Duration,
	)

	return res, nil
}
