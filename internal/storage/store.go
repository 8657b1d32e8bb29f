package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bull/grounded-chat/internal/domain"
)

// storeFile is the persisted artifact written by ingestion.
type storeFile struct {
	Dimension int             `json:"dimension"`
	Records   []EmbeddedChunk `json:"records"`
}

// VectorStore is the immutable in-memory collection of embedded chunks
// loaded at startup. It is read-only after construction and safe to share
// between goroutines without locking.
type VectorStore struct {
	records   []EmbeddedChunk
	dimension int
}

// NewVectorStore validates records and wraps them in a VectorStore.
// Every embedding must be non-empty and share one dimensionality.
func NewVectorStore(records []EmbeddedChunk) (*VectorStore, error) {
	dim, err := ValidateDimensions(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return &VectorStore{records: records, dimension: dim}, nil
}

// ValidateDimensions checks that all records share one non-zero embedding
// length and returns it.
func ValidateDimensions(records []EmbeddedChunk) (int, error) {
	if len(records) == 0 {
		return 0, ErrEmptyStore
	}
	dim := len(records[0].Embedding)
	if dim == 0 {
		return 0, fmt.Errorf("%w: record %s has an empty embedding", ErrDimensionMismatch, records[0].ChunkID)
	}
	for i, r := range records {
		if len(r.Embedding) != dim {
			return 0, fmt.Errorf("%w: record %d (%s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, r.ChunkID, len(r.Embedding), dim)
		}
	}
	return dim, nil
}

// Records returns the stored records. Callers must not modify them.
func (s *VectorStore) Records() []EmbeddedChunk { return s.records }

// Len returns the number of stored records.
func (s *VectorStore) Len() int { return len(s.records) }

// Dimension returns the shared embedding length.
func (s *VectorStore) Dimension() int { return s.dimension }

// Health reports whether the store can serve queries.
func (s *VectorStore) Health(_ context.Context) error {
	if s == nil || len(s.records) == 0 {
		return ErrEmptyStore
	}
	return nil
}

// Save writes records to path as JSON. The file is written to a temporary
// sibling first and renamed, so a failed run never leaves a partial store.
func Save(path string, records []EmbeddedChunk) error {
	dim, err := ValidateDimensions(records)
	if err != nil {
		return err
	}

	data, err := json.Marshal(storeFile{Dimension: dim, Records: records})
	if err != nil {
		return fmt.Errorf("encode vector store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write vector store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace vector store: %w", err)
	}
	return nil
}

// Load reads and validates the artifact at path. Any failure wraps
// domain.ErrConfiguration.
func Load(path string) (*VectorStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.Configurationf("vector store %s not found; run ingestion first", path)
		}
		return nil, fmt.Errorf("%w: read vector store: %w", domain.ErrConfiguration, err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse vector store %s: %w", domain.ErrConfiguration, path, err)
	}

	store, err := NewVectorStore(file.Records)
	if err != nil {
		return nil, err
	}
	if file.Dimension != 0 && file.Dimension != store.dimension {
		return nil, fmt.Errorf("%w: %w: header declares %d dimensions, records have %d",
			domain.ErrConfiguration, ErrDimensionMismatch, file.Dimension, store.dimension)
	}
	return store, nil
}
