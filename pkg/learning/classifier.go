package learning

import (
	"math"
)

// Scores are the log10 posteriors (up to a shared constant) of a document
type Scores struct {
	Spam  float64 `json:"spam"`
	Legit float64 `json:"legit"`
}

// IsSpam applies the decision rule. Ties go to spam.
func (s Scores) IsSpam() bool {
	return s.Spam >= s.Legit
}

// Score sums log10 likelihoods per class and adds the log10 prior.
// Tokens outside the training vocabulary carry no evidence and are ignored.
func (m *Model) Score(tokens []TokenID) Scores {
	var spam, legit float64

	for _, token := range tokens {
		if p, ok := m.likelihoods[Spam][token]; ok {
			spam += math.Log10(p)
		}
		if p, ok := m.likelihoods[Legit][token]; ok {
			legit += math.Log10(p)
		}
	}

	// A class without training documents has a prior of 0 and scores -Inf.
	return Scores{
		Spam:  spam + math.Log10(m.priors[Spam]),
		Legit: legit + math.Log10(m.priors[Legit]),
	}
}

// Classify reports whether tokens are classified as spam
func (m *Model) Classify(tokens []TokenID) bool {
	return m.Score(tokens).IsSpam()
}
