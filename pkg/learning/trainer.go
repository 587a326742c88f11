package learning

import (
	"github.com/pkg/errors"
)

// ErrEmptyTrainingSet is returned when a model is requested from a trainer
// that has seen no documents.
var ErrEmptyTrainingSet = errors.New("empty training set")

// Sample is one labelled training document
type Sample struct {
	Tokens []TokenID
	Spam   bool
}

// Trainer accumulates token counts over a training set. Its counters are
// local to one training run.
type Trainer struct {
	documents   [numClasses]int
	tokens      [numClasses]int
	occurrences [numClasses]map[TokenID]int
	vocabulary  map[TokenID]struct{}
}

// NewTrainer creates an empty trainer
func NewTrainer() *Trainer {
	t := &Trainer{
		vocabulary: make(map[TokenID]struct{}),
	}
	for c := range t.occurrences {
		t.occurrences[c] = make(map[TokenID]int)
	}
	return t
}

// Add counts one document. Repeated tokens are counted every time.
func (t *Trainer) Add(tokens []TokenID, spam bool) {
	c := ClassOf(spam)

	for _, token := range tokens {
		t.vocabulary[token] = struct{}{}
		t.occurrences[c][token]++
		t.tokens[c]++
	}

	t.documents[c]++
}

// Documents returns the number of documents added so far
func (t *Trainer) Documents() int {
	return t.documents[Spam] + t.documents[Legit]
}

// Model computes the priors and smoothed likelihoods of everything added so
// far. Every vocabulary token gets an entry in both classes:
//
//	p(token|c) = (1 + occurrences_c(token)) / (tokens_c + |V|)
func (t *Trainer) Model() (*Model, error) {
	total := t.Documents()
	if total == 0 {
		return nil, ErrEmptyTrainingSet
	}

	m := &Model{
		documents: t.documents,
		tokens:    t.tokens,
	}

	vocabSize := len(t.vocabulary)
	for c := Legit; c < numClasses; c++ {
		m.priors[c] = float64(t.documents[c]) / float64(total)

		divisor := float64(t.tokens[c] + vocabSize)
		likelihoods := make(map[TokenID]float64, vocabSize)
		for token := range t.vocabulary {
			likelihoods[token] = float64(1+t.occurrences[c][token]) / divisor
		}
		m.likelihoods[c] = likelihoods
	}

	return m, nil
}

// Train builds a model from a complete training set
func Train(samples []Sample) (*Model, error) {
	t := NewTrainer()
	for _, s := range samples {
		t.Add(s.Tokens, s.Spam)
	}
	return t.Model()
}
