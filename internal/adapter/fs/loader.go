package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"ragcheck/internal/domain"
)

// Loader reads document files into domain documents. The source
// identity of each document is its file name, matching how evidence
// citations refer back to it.
type Loader struct {
	walker *Walker
}

func NewLoader(walker *Walker) *Loader {
	return &Loader{walker: walker}
}

// Load walks root and reads every matching file as one document.
func (l *Loader) Load(root string) ([]domain.Document, error) {
	paths, err := l.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, domain.Document{
			Source: filepath.Base(path),
			Text:   string(data),
		})
	}
	return docs, nil
}
