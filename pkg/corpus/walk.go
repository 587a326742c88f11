package corpus

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrDirectoryNotFound is returned when the corpus root is missing or is not
// a directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// CheckRoot verifies that root is an existing directory
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.Wrapf(ErrDirectoryNotFound, "%s", root)
	}
	return nil
}

// Enumerate returns every file below root, recursively, in lexical order
func Enumerate(root string) ([]string, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}

	return files, nil
}

// Scan enumerates root and labels every file found
func Scan(root string, labeler Labeler) ([]Document, error) {
	files, err := Enumerate(root)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(files))
	for _, file := range files {
		docs = append(docs, labeler.Label(root, file))
	}

	return docs, nil
}
