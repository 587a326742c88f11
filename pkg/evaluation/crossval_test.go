package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zpam/knb/pkg/corpus"
	"github.com/zpam/knb/pkg/learning"
	"github.com/zpam/knb/pkg/profiler"
)

type testDocument struct {
	path   string
	fold   int
	spam   bool
	unused bool
	tokens []learning.TokenID
}

func buildCorpus(docs ...testDocument) ([]corpus.Document, *corpus.MemorySource) {
	src := corpus.NewMemorySource()
	out := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, corpus.Document{Path: d.path, Fold: d.fold, Spam: d.spam, Unused: d.unused})
		src.Documents[d.path] = d.tokens
	}
	return out, src
}

// twoFolds is perfectly separable in both folds
func twoFolds() []testDocument {
	return []testDocument{
		{path: "part1/spmsg1", fold: 1, spam: true, tokens: []learning.TokenID{1, 2}},
		{path: "part1/msg1", fold: 1, tokens: []learning.TokenID{4}},
		{path: "part2/spmsg2", fold: 2, spam: true, tokens: []learning.TokenID{2, 3}},
		{path: "part2/msg2", fold: 2, tokens: []learning.TokenID{4, 5}},
	}
}

// threeFolds has a third fold without spam, where both metrics are undefined
func threeFolds() []testDocument {
	return []testDocument{
		{path: "part1/spmsg1", fold: 1, spam: true, tokens: []learning.TokenID{1, 1}},
		{path: "part1/msg1", fold: 1, tokens: []learning.TokenID{2, 2}},
		{path: "part2/spmsg2", fold: 2, spam: true, tokens: []learning.TokenID{1}},
		{path: "part2/msg2", fold: 2, tokens: []learning.TokenID{2}},
		{path: "part3/msg3", fold: 3, tokens: []learning.TokenID{2, 2, 2}},
	}
}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestCrossValidatorTwoFolds(t *testing.T) {
	docs, src := buildCorpus(twoFolds()...)

	var logs bytes.Buffer
	var started []int
	cv := NewCrossValidator(src, Options{
		Folds:    2,
		Logger:   quietLogger(&logs),
		Progress: func(fold int) { started = append(started, fold) },
	})

	report, err := cv.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, 4, report.Documents)
	require.Len(t, report.Folds, 2)

	for i, f := range report.Folds {
		assert.Equal(t, i+1, f.Fold)
		assert.Equal(t, 2, f.TrainDocuments)
		assert.Equal(t, 2, f.TestDocuments)
		assert.Equal(t, Confusion{TruePositive: 1, TrueNegative: 1}, f.Confusion)
		assert.Equal(t, Metric{Value: 1, Defined: true}, f.Recall)
		assert.Equal(t, Metric{Value: 1, Defined: true}, f.Precision)
	}

	assert.Equal(t, MetricSummary{Mean: 1, Folds: 2, Defined: true}, report.Recall)
	assert.Equal(t, MetricSummary{Mean: 1, Folds: 2, Defined: true}, report.Precision)
}

func TestCrossValidatorSingleFold(t *testing.T) {
	// With k=1 the documents of part2 are outside the folds and only trained on
	docs, src := buildCorpus(twoFolds()...)

	cv := NewCrossValidator(src, Options{Folds: 1, Logger: quietLogger(&bytes.Buffer{})})
	report, err := cv.Run(context.Background(), docs)
	require.NoError(t, err)

	require.Len(t, report.Folds, 1)
	assert.Equal(t, 2, report.TrainOnly)
	assert.Equal(t, 2, report.Folds[0].TrainDocuments)
	assert.Equal(t, 2, report.Folds[0].TestDocuments)
	assert.Equal(t, report.Folds[0].Recall.Value, report.Recall.Mean)
	assert.Equal(t, report.Folds[0].Precision.Value, report.Precision.Mean)
}

func TestCrossValidatorUnusedDocumentsNeverCount(t *testing.T) {
	base := twoFolds()
	withUnused := append(append([]testDocument(nil), base...),
		testDocument{path: "unused/part1/spmsg9", fold: 1, spam: true, unused: true, tokens: []learning.TokenID{4, 4, 4}},
		testDocument{path: "unused/part2/msg9", fold: 2, unused: true, tokens: []learning.TokenID{1, 2, 3}},
	)

	docs, src := buildCorpus(withUnused...)
	cv := NewCrossValidator(src, Options{Folds: 2, Logger: quietLogger(&bytes.Buffer{})})

	report, err := cv.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Excluded)
	assert.Equal(t, 4, report.Documents)

	var total int
	for _, f := range report.Folds {
		assert.Equal(t, 2, f.TrainDocuments)
		total += f.Confusion.Total()
	}
	assert.Equal(t, 4, total)

	baseDocs, baseSrc := buildCorpus(base...)
	baseReport, err := NewCrossValidator(baseSrc, Options{Folds: 2, Logger: quietLogger(&bytes.Buffer{})}).Run(context.Background(), baseDocs)
	require.NoError(t, err)
	assert.Equal(t, baseReport.Recall, report.Recall)
	assert.Equal(t, baseReport.Precision, report.Precision)
}

func TestCrossValidatorSkipsUnreadableDocuments(t *testing.T) {
	docs, src := buildCorpus(twoFolds()...)
	docs = append(docs, corpus.Document{Path: "part1/broken", Fold: 1, Spam: true})
	src.Errors["part1/broken"] = errors.New("permission denied")

	var logs bytes.Buffer
	cv := NewCrossValidator(src, Options{Folds: 2, Logger: quietLogger(&logs)})

	report, err := cv.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 4, report.Documents)
	assert.Equal(t, 2, report.Folds[0].TestDocuments)
	assert.Equal(t, 2, report.Folds[0].Confusion.Total())
	assert.Contains(t, logs.String(), "skipping unreadable document")
	assert.Contains(t, logs.String(), "part1/broken")
	assert.Contains(t, logs.String(), "permission denied")
}

func TestCrossValidatorUndefinedMetricPolicies(t *testing.T) {
	tests := []struct {
		policy         MetricPolicy
		expectedMean   float64
		expectedFolds  int
		expectedStdDev float64
	}{
		{SkipUndefined, 1, 2, 0},
		{ZeroUndefined, 2.0 / 3, 3, 0.5773502691896258},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			docs, src := buildCorpus(threeFolds()...)

			var logs bytes.Buffer
			cv := NewCrossValidator(src, Options{Folds: 3, Policy: tt.policy, Logger: quietLogger(&logs)})

			report, err := cv.Run(context.Background(), docs)
			require.NoError(t, err)

			third := report.Folds[2]
			assert.Equal(t, Confusion{TrueNegative: 1}, third.Confusion)
			assert.False(t, third.Recall.Defined)
			assert.False(t, third.Precision.Defined)
			assert.Contains(t, logs.String(), "metric undefined for fold")

			for _, s := range []MetricSummary{report.Recall, report.Precision} {
				assert.True(t, s.Defined)
				assert.Equal(t, tt.expectedFolds, s.Folds)
				assert.InDelta(t, tt.expectedMean, s.Mean, 1e-12)
				assert.InDelta(t, tt.expectedStdDev, s.StdDev, 1e-12)
			}
		})
	}
}

func TestCrossValidatorEmptyTrainingSet(t *testing.T) {
	docs, src := buildCorpus(
		testDocument{path: "part1/spmsg1", fold: 1, spam: true, tokens: []learning.TokenID{1}},
		testDocument{path: "part1/msg1", fold: 1, tokens: []learning.TokenID{2}},
	)

	cv := NewCrossValidator(src, Options{Folds: 1, Logger: quietLogger(&bytes.Buffer{})})
	_, err := cv.Run(context.Background(), docs)
	assert.True(t, errors.Is(err, learning.ErrEmptyTrainingSet), "unexpected error: %v", err)
	assert.Contains(t, err.Error(), "fold 1")
}

func TestCrossValidatorParallelMatchesSequential(t *testing.T) {
	var all []testDocument
	for fold := 1; fold <= 5; fold++ {
		for i := 0; i < 4; i++ {
			base := learning.TokenID(fold*10 + i)
			all = append(all,
				testDocument{path: fmt.Sprintf("part%d/spmsg%d", fold, i), fold: fold, spam: true, tokens: []learning.TokenID{1, 2, base, 1}},
				testDocument{path: fmt.Sprintf("part%d/msg%d", fold, i), fold: fold, tokens: []learning.TokenID{3, base, 4, 4}},
			)
		}
	}
	docs, src := buildCorpus(all...)

	sequential, err := NewCrossValidator(src, Options{Folds: 5, Logger: quietLogger(&bytes.Buffer{})}).Run(context.Background(), docs)
	require.NoError(t, err)

	var started []int
	prof := profiler.NewProfiler()
	parallel, err := NewCrossValidator(src, Options{
		Folds:    5,
		Parallel: true,
		Workers:  3,
		Logger:   quietLogger(&bytes.Buffer{}),
		Profiler: prof,
		Progress: func(fold int) { started = append(started, fold) },
	}).Run(context.Background(), docs)
	require.NoError(t, err)

	for i := range sequential.Folds {
		sequential.Folds[i].Duration = 0
		parallel.Folds[i].Duration = 0
	}
	assert.Equal(t, sequential, parallel)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, started)

	assert.Equal(t, 1, prof.Stats(profiler.PhaseLoad).Count)
	assert.Equal(t, 5, prof.Stats(profiler.PhaseTrain).Count)
	assert.Equal(t, 5, prof.Stats(profiler.PhaseClassify).Count)
}

func TestCrossValidatorCancelled(t *testing.T) {
	docs, src := buildCorpus(twoFolds()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCrossValidator(src, Options{Folds: 2, Logger: quietLogger(&bytes.Buffer{})}).Run(ctx, docs)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewCrossValidatorDefaults(t *testing.T) {
	cv := NewCrossValidator(corpus.NewMemorySource(), Options{})
	assert.Equal(t, DefaultFolds, cv.opts.Folds)
	assert.Equal(t, SkipUndefined, cv.opts.Policy)
	assert.Equal(t, 1, cv.opts.Workers)
	assert.NotNil(t, cv.opts.Logger)
}
