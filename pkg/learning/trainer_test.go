package learning

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-12

// fourDocuments is the two-spam, two-legit training set used across tests
func fourDocuments() []Sample {
	return []Sample{
		{Tokens: []TokenID{1, 2}, Spam: true},
		{Tokens: []TokenID{2, 3}, Spam: true},
		{Tokens: []TokenID{4}, Spam: false},
		{Tokens: []TokenID{4, 5}, Spam: false},
	}
}

func TestTrainFourDocuments(t *testing.T) {
	m, err := Train(fourDocuments())
	require.NoError(t, err)

	assert.Equal(t, 5, m.VocabularySize())
	assert.InDelta(t, 0.5, m.Prior(Spam), epsilon)
	assert.InDelta(t, 0.5, m.Prior(Legit), epsilon)

	// 4 spam tokens and 3 legit tokens over a vocabulary of 5
	tests := []struct {
		class    Class
		token    TokenID
		expected float64
	}{
		{Spam, 1, 2.0 / 9},
		{Spam, 2, 3.0 / 9},
		{Spam, 3, 2.0 / 9},
		{Spam, 4, 1.0 / 9},
		{Spam, 5, 1.0 / 9},
		{Legit, 1, 1.0 / 8},
		{Legit, 2, 1.0 / 8},
		{Legit, 3, 1.0 / 8},
		{Legit, 4, 3.0 / 8},
		{Legit, 5, 2.0 / 8},
	}

	for _, tt := range tests {
		p, ok := m.Likelihood(tt.class, tt.token)
		require.True(t, ok, "token %d missing for %s", tt.token, tt.class)
		assert.InDelta(t, tt.expected, p, epsilon, "p(%d|%s)", tt.token, tt.class)
	}

	info := m.Info()
	assert.Equal(t, 2, info.SpamDocuments)
	assert.Equal(t, 2, info.LegitDocuments)
	assert.Equal(t, 4, info.SpamTokens)
	assert.Equal(t, 3, info.LegitTokens)
}

func TestTrainEmptyTrainingSet(t *testing.T) {
	m, err := Train(nil)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrEmptyTrainingSet), "unexpected error: %v", err)
}

func TestTrainPriorsSumToOne(t *testing.T) {
	tests := []struct {
		name  string
		spam  int
		legit int
	}{
		{"balanced", 3, 3},
		{"mostly spam", 7, 1},
		{"mostly legit", 2, 11},
		{"spam only", 4, 0},
		{"legit only", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrainer()
			for i := 0; i < tt.spam; i++ {
				tr.Add([]TokenID{TokenID(i)}, true)
			}
			for i := 0; i < tt.legit; i++ {
				tr.Add([]TokenID{TokenID(100 + i)}, false)
			}

			m, err := tr.Model()
			require.NoError(t, err)
			assert.InDelta(t, 1.0, m.Prior(Spam)+m.Prior(Legit), epsilon)
		})
	}
}

func TestTrainLikelihoodsArePositive(t *testing.T) {
	m, err := Train([]Sample{
		{Tokens: []TokenID{10, 10, 10, 11}, Spam: true},
		{Tokens: []TokenID{12}, Spam: false},
		{Tokens: []TokenID{13, 10}, Spam: false},
	})
	require.NoError(t, err)

	for _, token := range []TokenID{10, 11, 12, 13} {
		for _, c := range []Class{Spam, Legit} {
			p, ok := m.Likelihood(c, token)
			require.True(t, ok)
			assert.Greater(t, p, 0.0, "p(%d|%s)", token, c)
		}
	}

	_, ok := m.Likelihood(Spam, 99)
	assert.False(t, ok, "token outside the vocabulary must have no entry")
}

func TestTrainMissingClassGetsFloor(t *testing.T) {
	m, err := Train([]Sample{
		{Tokens: []TokenID{1, 2, 2}, Spam: false},
		{Tokens: []TokenID{3}, Spam: false},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Prior(Spam))
	assert.Equal(t, 1.0, m.Prior(Legit))

	for _, token := range []TokenID{1, 2, 3} {
		p, ok := m.Likelihood(Spam, token)
		require.True(t, ok)
		assert.InDelta(t, 1.0/3, p, epsilon)
	}
}

func TestTrainIsIdempotent(t *testing.T) {
	first, err := Train(fourDocuments())
	require.NoError(t, err)

	second, err := Train(fourDocuments())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTopTokens(t *testing.T) {
	m, err := Train(fourDocuments())
	require.NoError(t, err)

	spam := m.TopTokens(Spam, 2)
	require.Len(t, spam, 2)
	assert.Equal(t, TokenID(2), spam[0].Token)

	legit := m.TopTokens(Legit, 1)
	require.Len(t, legit, 1)
	assert.Equal(t, TokenID(4), legit[0].Token)
	assert.Less(t, legit[0].LogRatio, 0.0)

	assert.Len(t, m.TopTokens(Spam, 0), 5)
}
