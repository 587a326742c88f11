package corpus

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Document is one corpus file with its label, usage flag and fold index
// resolved up front.
type Document struct {
	Path string `json:"path"`

	// Fold is the 1-based partition the document is held out in, 0 if the
	// path carries no fold segment.
	Fold int `json:"fold"`

	Spam   bool `json:"spam"`
	Unused bool `json:"unused"`
}

// Labeler derives labels from corpus path conventions
type Labeler struct {
	// SpamMarker marks spam documents when found in the file name
	SpamMarker string
	// UnusedMarker excludes documents when found anywhere in the relative path
	UnusedMarker string
	// FoldPrefix precedes the fold number in a directory name, e.g. "part3"
	FoldPrefix string
}

// DefaultLabeler returns the labeler for the PU corpora layout
func DefaultLabeler() Labeler {
	return Labeler{
		SpamMarker:   "spmsg",
		UnusedMarker: "unused",
		FoldPrefix:   "part",
	}
}

// Label builds the Document for a file found under root. Paths are compared
// in slash form so the result does not depend on the platform separator.
func (l Labeler) Label(root, file string) Document {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		rel = file
	}
	rel = filepath.ToSlash(rel)

	doc := Document{
		Path:   file,
		Spam:   strings.Contains(path.Base(rel), l.SpamMarker),
		Unused: strings.Contains(rel, l.UnusedMarker),
	}

	dirs := strings.Split(path.Dir(rel), "/")
	for _, dir := range dirs {
		if n, ok := l.foldNumber(dir); ok {
			doc.Fold = n
			break
		}
	}

	return doc
}

func (l Labeler) foldNumber(dir string) (int, bool) {
	if !strings.HasPrefix(dir, l.FoldPrefix) {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimPrefix(dir, l.FoldPrefix))
	if err != nil || n < 1 {
		return 0, false
	}

	return n, true
}
