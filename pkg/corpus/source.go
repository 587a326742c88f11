package corpus

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/zpam/knb/pkg/learning"
)

// ErrUnreadableDocument matches every error caused by a document that could
// not be read or tokenized.
var ErrUnreadableDocument = errors.New("unreadable document")

// DocumentError reports a document that could not be read
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("unreadable document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

func (e *DocumentError) Is(target error) bool {
	return target == ErrUnreadableDocument
}

// Source yields the token sequence of a document
type Source interface {
	Tokens(ctx context.Context, doc Document) ([]learning.TokenID, error)
}

// FileSource reads documents from disk
type FileSource struct{}

// Tokens opens doc.Path and parses its tokens
func (FileSource) Tokens(ctx context.Context, doc Document) ([]learning.TokenID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, &DocumentError{Path: doc.Path, Err: err}
	}
	defer f.Close()

	tokens, err := ParseTokens(f)
	if err != nil {
		return nil, &DocumentError{Path: doc.Path, Err: err}
	}

	return tokens, nil
}

// MemorySource serves token sequences from memory, keyed by document path
type MemorySource struct {
	Documents map[string][]learning.TokenID
	// Errors makes Tokens fail for the given paths
	Errors map[string]error
}

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		Documents: make(map[string][]learning.TokenID),
		Errors:    make(map[string]error),
	}
}

// Tokens returns the stored tokens of doc
func (s *MemorySource) Tokens(ctx context.Context, doc Document) ([]learning.TokenID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err, ok := s.Errors[doc.Path]; ok {
		return nil, &DocumentError{Path: doc.Path, Err: err}
	}

	tokens, ok := s.Documents[doc.Path]
	if !ok {
		return nil, &DocumentError{Path: doc.Path, Err: os.ErrNotExist}
	}

	return tokens, nil
}
