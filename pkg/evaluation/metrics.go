package evaluation

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrUndefinedMetric is returned for a recall or precision whose
// denominator is zero.
var ErrUndefinedMetric = errors.New("undefined metric")

// Confusion counts the outcomes of classifying one fold's test documents,
// with spam as the positive class.
type Confusion struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
	TrueNegative  int `json:"true_negative"`
}

// Add records one prediction
func (c *Confusion) Add(predictedSpam, actualSpam bool) {
	switch {
	case predictedSpam && actualSpam:
		c.TruePositive++
	case predictedSpam && !actualSpam:
		c.FalsePositive++
	case !predictedSpam && actualSpam:
		c.FalseNegative++
	default:
		c.TrueNegative++
	}
}

// Total returns the number of recorded predictions
func (c Confusion) Total() int {
	return c.TruePositive + c.FalsePositive + c.FalseNegative + c.TrueNegative
}

// Recall is TP / (TP + FN). It is undefined for a fold without spam.
func (c Confusion) Recall() (float64, error) {
	d := c.TruePositive + c.FalseNegative
	if d == 0 {
		return 0, errors.Wrap(ErrUndefinedMetric, "recall: no spam documents")
	}
	return float64(c.TruePositive) / float64(d), nil
}

// Precision is TP / (TP + FP). It is undefined when nothing was predicted spam.
func (c Confusion) Precision() (float64, error) {
	d := c.TruePositive + c.FalsePositive
	if d == 0 {
		return 0, errors.Wrap(ErrUndefinedMetric, "precision: no spam predictions")
	}
	return float64(c.TruePositive) / float64(d), nil
}

// MetricPolicy decides how folds with an undefined metric enter the mean
type MetricPolicy string

const (
	// SkipUndefined leaves the fold out of that metric's mean
	SkipUndefined MetricPolicy = "skip"
	// ZeroUndefined counts the fold as 0
	ZeroUndefined MetricPolicy = "zero"
)

// ParseMetricPolicy validates a policy name
func ParseMetricPolicy(s string) (MetricPolicy, error) {
	switch p := MetricPolicy(s); p {
	case SkipUndefined, ZeroUndefined:
		return p, nil
	default:
		return "", fmt.Errorf("unknown undefined-metric policy %q (want %q or %q)", s, SkipUndefined, ZeroUndefined)
	}
}

// Metric is a per-fold metric value
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

func newMetric(v float64, err error) Metric {
	if err != nil {
		return Metric{}
	}
	return Metric{Value: v, Defined: true}
}

func (m Metric) String() string {
	if !m.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

// MetricSummary aggregates one metric over the folds
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	// Folds is the number of folds that entered the mean
	Folds   int  `json:"folds"`
	Defined bool `json:"defined"`
}

func (s MetricSummary) String() string {
	if !s.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%v", s.Mean)
}

// summarize averages per-fold values: the arithmetic mean over folds, not a
// pooled confusion matrix.
func summarize(metrics []Metric, policy MetricPolicy) MetricSummary {
	values := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		switch {
		case m.Defined:
			values = append(values, m.Value)
		case policy == ZeroUndefined:
			values = append(values, 0)
		}
	}

	if len(values) == 0 {
		return MetricSummary{}
	}

	s := MetricSummary{
		Mean:    stat.Mean(values, nil),
		Folds:   len(values),
		Defined: true,
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}

	return s
}
