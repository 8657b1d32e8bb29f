// Package corpus loads the raw documents that ingestion chunks and embeds.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/github"
	"github.com/bull/grounded-chat/internal/storage"
)

// Source yields the documents of a corpus in a stable order.
type Source interface {
	Documents(ctx context.Context) ([]storage.Document, error)
}

// DirSource reads every document file below Root. Document IDs are paths
// relative to Root using forward slashes.
type DirSource struct {
	Root string
}

// NewDirSource creates a source for a local directory.
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

// Documents walks Root and returns documents sorted by ID.
func (s *DirSource) Documents(ctx context.Context) ([]storage.Document, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, domain.Configurationf("docs directory %s: %v", s.Root, err)
	}
	if !info.IsDir() {
		return nil, domain.Configurationf("docs path %s is not a directory", s.Root)
	}

	var paths []string
	err = filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !github.IsDocFile(d.Name()) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.Root, err)
	}

	docs := make([]storage.Document, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return nil, fmt.Errorf("relative path of %s: %w", p, err)
		}
		id := filepath.ToSlash(rel)
		docs = append(docs, storage.Document{
			ID:      id,
			Title:   titleOrStem(content, id),
			Content: string(content),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// JSONSource reads a JSON array of {id, title, content} objects.
type JSONSource struct {
	Path string
}

// NewJSONSource creates a source for a JSON documents file.
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{Path: path}
}

// Documents returns the file's documents in file order.
func (s *JSONSource) Documents(ctx context.Context) ([]storage.Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, domain.Configurationf("read documents file %s: %v", s.Path, err)
	}

	var docs []storage.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, domain.Configurationf("parse documents file %s: %v", s.Path, err)
	}

	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, domain.Configurationf("document %d in %s has no id", i, s.Path)
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, domain.Configurationf("duplicate document id %q in %s", doc.ID, s.Path)
		}
		seen[doc.ID] = struct{}{}
	}
	return docs, nil
}
