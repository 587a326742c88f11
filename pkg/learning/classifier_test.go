package learning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	m, err := Train(fourDocuments())
	require.NoError(t, err)

	tests := []struct {
		name     string
		tokens   []TokenID
		expected bool
	}{
		{"spam-dominant tokens", []TokenID{1, 2}, true},
		{"repeated spam token", []TokenID{2, 2, 2}, true},
		{"legit-dominant tokens", []TokenID{4, 5}, false},
		{"mostly legit", []TokenID{4, 4, 2}, false},
		{"unknown tokens only", []TokenID{77, 78}, true},
		{"empty document", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Classify(tt.tokens))
		})
	}
}

func TestScoreSpamDominantDocument(t *testing.T) {
	m, err := Train(fourDocuments())
	require.NoError(t, err)

	s := m.Score([]TokenID{1, 2})

	expectedSpam := math.Log10(2.0/9) + math.Log10(3.0/9) + math.Log10(0.5)
	expectedLegit := math.Log10(1.0/8) + math.Log10(1.0/8) + math.Log10(0.5)

	assert.InDelta(t, expectedSpam, s.Spam, epsilon)
	assert.InDelta(t, expectedLegit, s.Legit, epsilon)
	assert.True(t, s.IsSpam())
}

func TestScoreDisjointVocabularyComparesPriors(t *testing.T) {
	m, err := Train([]Sample{
		{Tokens: []TokenID{1}, Spam: true},
		{Tokens: []TokenID{2}, Spam: false},
		{Tokens: []TokenID{3}, Spam: false},
	})
	require.NoError(t, err)

	s := m.Score([]TokenID{40, 41, 42})
	assert.Equal(t, math.Log10(m.Prior(Spam)), s.Spam)
	assert.Equal(t, math.Log10(m.Prior(Legit)), s.Legit)
	assert.False(t, s.IsSpam(), "legit prior is larger")
}

func TestClassifyTieFavorsSpam(t *testing.T) {
	// Mirror-image classes produce identical scores for a mirrored document
	m, err := Train([]Sample{
		{Tokens: []TokenID{1, 1, 2}, Spam: true},
		{Tokens: []TokenID{2, 2, 1}, Spam: false},
	})
	require.NoError(t, err)

	for _, tokens := range [][]TokenID{nil, {1, 2}, {2, 1}, {9}} {
		s := m.Score(tokens)
		require.Equal(t, s.Spam, s.Legit, "tokens %v", tokens)
		assert.True(t, m.Classify(tokens), "tie must classify as spam for %v", tokens)
	}
}

func TestClassifyZeroPrior(t *testing.T) {
	m, err := Train([]Sample{
		{Tokens: []TokenID{1, 1, 1}, Spam: false},
	})
	require.NoError(t, err)

	s := m.Score([]TokenID{1})
	assert.True(t, math.IsInf(s.Spam, -1))
	assert.False(t, m.Classify([]TokenID{1}))
}
