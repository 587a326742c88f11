package learning

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// TokenID identifies a vocabulary item of a pre-tokenized corpus
type TokenID uint32

// Class is one of the two document classes
type Class int

const (
	Legit Class = iota
	Spam

	numClasses
)

// ClassOf maps a spam flag to its class
func ClassOf(spam bool) Class {
	if spam {
		return Spam
	}
	return Legit
}

func (c Class) String() string {
	switch c {
	case Legit:
		return "legit"
	case Spam:
		return "spam"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Model holds the class priors and the Laplace-smoothed token likelihoods
// learned from one training set. It is read-only once built.
type Model struct {
	priors      [numClasses]float64
	likelihoods [numClasses]map[TokenID]float64

	documents [numClasses]int
	tokens    [numClasses]int
}

// Prior returns the prior probability of class c
func (m *Model) Prior(c Class) float64 {
	return m.priors[c]
}

// Likelihood returns p(token|c). The boolean is false for tokens outside the
// training vocabulary.
func (m *Model) Likelihood(c Class, token TokenID) (float64, bool) {
	p, ok := m.likelihoods[c][token]
	return p, ok
}

// VocabularySize returns the number of distinct tokens seen in training
func (m *Model) VocabularySize() int {
	return len(m.likelihoods[Spam])
}

// ModelInfo contains model information
type ModelInfo struct {
	SpamDocuments  int     `json:"spam_documents"`
	LegitDocuments int     `json:"legit_documents"`
	SpamTokens     int     `json:"spam_tokens"`
	LegitTokens    int     `json:"legit_tokens"`
	VocabularySize int     `json:"vocabulary_size"`
	SpamPrior      float64 `json:"spam_prior"`
	LegitPrior     float64 `json:"legit_prior"`
}

// Info returns information about the trained model
func (m *Model) Info() ModelInfo {
	return ModelInfo{
		SpamDocuments:  m.documents[Spam],
		LegitDocuments: m.documents[Legit],
		SpamTokens:     m.tokens[Spam],
		LegitTokens:    m.tokens[Legit],
		VocabularySize: m.VocabularySize(),
		SpamPrior:      m.priors[Spam],
		LegitPrior:     m.priors[Legit],
	}
}

// TokenStats contains the learned probabilities of a token
type TokenStats struct {
	Token     TokenID `json:"token"`
	SpamProb  float64 `json:"spam_prob"`
	LegitProb float64 `json:"legit_prob"`
	// LogRatio is log10(SpamProb / LegitProb)
	LogRatio float64 `json:"log_ratio"`
}

// TopTokens returns the tokens that speak most strongly for class c
func (m *Model) TopTokens(c Class, limit int) []TokenStats {
	stats := make([]TokenStats, 0, m.VocabularySize())
	for token, spamProb := range m.likelihoods[Spam] {
		legitProb := m.likelihoods[Legit][token]
		stats = append(stats, TokenStats{
			Token:     token,
			SpamProb:  spamProb,
			LegitProb: legitProb,
			LogRatio:  math.Log10(spamProb) - math.Log10(legitProb),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].LogRatio != stats[j].LogRatio {
			if c == Spam {
				return stats[i].LogRatio > stats[j].LogRatio
			}
			return stats[i].LogRatio < stats[j].LogRatio
		}
		return stats[i].Token < stats[j].Token
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}

	return stats
}

// PrintStats prints model statistics
func (m *Model) PrintStats(w io.Writer) {
	info := m.Info()

	fmt.Fprintf(w, "🧠 Naive Bayes Probability Model\n")
	fmt.Fprintf(w, "════════════════════════════════════════\n")
	fmt.Fprintf(w, "Training Data:\n")
	fmt.Fprintf(w, "  Spam documents: %d\n", info.SpamDocuments)
	fmt.Fprintf(w, "  Legit documents: %d\n", info.LegitDocuments)
	fmt.Fprintf(w, "  Spam tokens: %d\n", info.SpamTokens)
	fmt.Fprintf(w, "  Legit tokens: %d\n", info.LegitTokens)
	fmt.Fprintf(w, "  Vocabulary size: %d\n", info.VocabularySize)
	fmt.Fprintf(w, "  Priors: spam=%.4f legit=%.4f\n", info.SpamPrior, info.LegitPrior)

	fmt.Fprintf(w, "\n📈 Top Spam Tokens:\n")
	for i, s := range m.TopTokens(Spam, 10) {
		fmt.Fprintf(w, "  %2d. %-10d (%+.3f log-ratio, p=%.6f/%.6f)\n",
			i+1, s.Token, s.LogRatio, s.SpamProb, s.LegitProb)
	}

	fmt.Fprintf(w, "\n📉 Top Legit Tokens:\n")
	for i, s := range m.TopTokens(Legit, 10) {
		fmt.Fprintf(w, "  %2d. %-10d (%+.3f log-ratio, p=%.6f/%.6f)\n",
			i+1, s.Token, s.LogRatio, s.SpamProb, s.LegitProb)
	}

	fmt.Fprintf(w, "\n")
}
