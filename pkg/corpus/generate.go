package corpus

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/zpam/knb/pkg/learning"
)

// GeneratorConfig describes a synthetic corpus laid out like PU1
type GeneratorConfig struct {
	Documents  int     // documents placed in folds
	SpamRatio  float64 // share of spam documents
	Folds      int
	Unused     int // extra documents under an unused directory
	Vocabulary int // token ids are drawn from 1..Vocabulary
	MinLength  int
	MaxLength  int
	Seed       int64
}

// DefaultGeneratorConfig returns settings close to the size of PU1
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Documents:  1000,
		SpamRatio:  0.44,
		Folds:      10,
		Vocabulary: 3000,
		MinLength:  20,
		MaxLength:  200,
		Seed:       1,
	}
}

// GenerateStats reports what WriteCorpus produced
type GenerateStats struct {
	Spam   int
	Legit  int
	Unused int
}

// Generator produces token documents whose vocabulary leans towards one
// class. A third of the ids is shared, a third favours spam and the rest
// favours legit documents, so the corpus is learnable but not separable.
type Generator struct {
	rand   *rand.Rand
	config GeneratorConfig
}

// NewGenerator creates a generator. The same seed always yields the same corpus.
func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.Documents < 1 {
		return nil, errors.New("documents must be greater than 0")
	}
	if config.SpamRatio < 0 || config.SpamRatio > 1 {
		return nil, errors.New("spam ratio must be between 0 and 1")
	}
	if config.Folds < 1 {
		return nil, errors.New("folds must be greater than 0")
	}
	if config.Vocabulary < 3 {
		return nil, errors.New("vocabulary must hold at least 3 tokens")
	}
	if config.MinLength < 1 || config.MaxLength < config.MinLength {
		return nil, errors.Errorf("invalid document length range %d..%d", config.MinLength, config.MaxLength)
	}

	return &Generator{
		rand:   rand.New(rand.NewSource(config.Seed)),
		config: config,
	}, nil
}

// Document generates the tokens of one document
func (g *Generator) Document(spam bool) []learning.TokenID {
	third := g.config.Vocabulary / 3
	length := g.config.MinLength + g.rand.Intn(g.config.MaxLength-g.config.MinLength+1)

	own, other := 1, 2
	if !spam {
		own, other = 2, 1
	}

	tokens := make([]learning.TokenID, length)
	for i := range tokens {
		band := 0
		switch r := g.rand.Float64(); {
		case r < 0.4:
			band = own
		case r < 0.5:
			band = other
		}
		tokens[i] = learning.TokenID(band*third + 1 + g.rand.Intn(third))
	}
	return tokens
}

// WriteCorpus writes the corpus below root as partN/NspmsgM.txt and
// partN/NlegitM.txt files, spreading each class evenly over the folds.
func (g *Generator) WriteCorpus(root string) (GenerateStats, error) {
	var stats GenerateStats

	spamCount := int(float64(g.config.Documents) * g.config.SpamRatio)
	legitCount := g.config.Documents - spamCount

	for i := 0; i < spamCount; i++ {
		fold := i%g.config.Folds + 1
		path := filepath.Join(root, fmt.Sprintf("part%d", fold), fmt.Sprintf("%dspmsg%d.txt", fold, i+1))
		if err := writeTokens(path, g.Document(true)); err != nil {
			return stats, err
		}
		stats.Spam++
	}

	for i := 0; i < legitCount; i++ {
		fold := i%g.config.Folds + 1
		path := filepath.Join(root, fmt.Sprintf("part%d", fold), fmt.Sprintf("%dlegit%d.txt", fold, i+1))
		if err := writeTokens(path, g.Document(false)); err != nil {
			return stats, err
		}
		stats.Legit++
	}

	for i := 0; i < g.config.Unused; i++ {
		spam := i%2 == 0
		name := fmt.Sprintf("legit%d.txt", i+1)
		if spam {
			name = fmt.Sprintf("spmsg%d.txt", i+1)
		}
		if err := writeTokens(filepath.Join(root, "unused", name), g.Document(spam)); err != nil {
			return stats, err
		}
		stats.Unused++
	}

	return stats, nil
}

func writeTokens(path string, tokens []learning.TokenID) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating corpus directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	w := bufio.NewWriter(f)
	for i, t := range tokens {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	w.WriteByte('\n')

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
