package storage

import (
	"strconv"

	"github.com/google/uuid"
)

// Document is a raw input document. Documents are supplied externally and
// never mutated.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Chunk is a window of exactly one Document.
type Chunk struct {
	ChunkID    string `json:"chunk_id"`    // Deterministic UUID, see ChunkID
	DocID      string `json:"doc_id"`      // Parent Document.ID
	Title      string `json:"title"`       // Parent Document.Title
	ChunkIndex int    `json:"chunk_index"` // Position in document (0, 1, 2...)
	Content    string `json:"content"`     // Trimmed window text
}

// EmbeddedChunk is a Chunk with its embedding. Records are created once by
// ingestion and never mutated afterwards.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32 `json:"embedding"`
}

// ScoredChunk is the per-query projection of an EmbeddedChunk.
type ScoredChunk struct {
	ChunkID string
	Title   string
	Content string
	Score   float64
}

// chunkNamespace scopes the name-based UUIDs generated for chunks.
var chunkNamespace = uuid.MustParse("6f1f5d0e-8a51-4b7e-9c0c-2b8e7f3a9d41")

// ChunkID derives a stable chunk id from its document id and position, so
// re-ingesting the same corpus produces an identical artifact.
func ChunkID(docID string, chunkIndex int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(docID+"#"+strconv.Itoa(chunkIndex))).String()
}
