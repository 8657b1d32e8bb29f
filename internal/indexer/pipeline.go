// Package indexer builds the vector store artifact from a document corpus.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bull/grounded-chat/internal/chunker"
	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/storage"
)

// Result contains statistics about an ingestion run.
type Result struct {
	TotalDocs   int
	EmptyDocs   int // Documents with no non-blank chunk
	TotalChunks int
	Dimension   int
	Duration    time.Duration
}

// Pipeline chunks documents and embeds every chunk, one embedding call per
// chunk in document then chunk order.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder domain.Embedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewPipeline creates a new ingestion pipeline. A positive delay paces
// embedding calls to at most one per delay; zero disables pacing.
func NewPipeline(c *chunker.Chunker, embedder domain.Embedder, delay time.Duration, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pipeline{
		chunker:  c,
		embedder: embedder,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Ingest embeds every chunk of docs. Any failure aborts the whole run and
// no records are returned: a partial store is never produced.
func (p *Pipeline) Ingest(ctx context.Context, docs []storage.Document) ([]storage.EmbeddedChunk, *Result, error) {
	start := time.Now()
	result := &Result{TotalDocs: len(docs)}
	p.logger.Info("Starting ingestion",
		"docs", len(docs),
		"chunk_size", p.chunker.Size(),
		"overlap", p.chunker.Overlap(),
	)

	var records []storage.EmbeddedChunk
	for _, doc := range docs {
		docRecords, err := p.processDocument(ctx, doc, result.Dimension)
		if err != nil {
			p.logger.Error("Ingestion aborted", "doc", doc.ID, "error", err)
			return nil, nil, fmt.Errorf("ingest %s: %w", doc.ID, err)
		}
		if len(docRecords) == 0 {
			result.EmptyDocs++
			p.logger.Warn("Document produced no chunks", "doc", doc.ID)
			continue
		}
		if result.Dimension == 0 {
			result.Dimension = len(docRecords[0].Embedding)
		}
		records = append(records, docRecords...)
	}

	result.TotalChunks = len(records)
	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"docs", result.TotalDocs,
		"empty", result.EmptyDocs,
		"chunks", result.TotalChunks,
		"dimension", result.Dimension,
		"duration", result.Duration,
	)
	return records, result, nil
}

// processDocument embeds the chunks of one document. dim is the store
// dimensionality seen so far, or 0 before the first embedding.
func (p *Pipeline) processDocument(ctx context.Context, doc storage.Document, dim int) ([]storage.EmbeddedChunk, error) {
	texts := p.chunker.Split(doc.Content)
	p.logger.Debug("Chunked document", "doc", doc.ID, "chunks", len(texts))

	records := make([]storage.EmbeddedChunk, 0, len(texts))
	for i, text := range texts {
		// A whitespace-only window has nothing to retrieve. Skip it but
		// keep i as the window position.
		if text == "" {
			p.logger.Debug("Skipped blank window", "doc", doc.ID, "chunk", i)
			continue
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for embedding slot: %w", err)
		}

		vec, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("embed chunk %d: %w: empty embedding", i, storage.ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("embed chunk %d: %w: got %d, want %d",
				i, storage.ErrDimensionMismatch, len(vec), dim)
		}

		records = append(records, storage.EmbeddedChunk{
			Chunk: storage.Chunk{
				ChunkID:    storage.ChunkID(doc.ID, i),
				DocID:      doc.ID,
				Title:      doc.Title,
				ChunkIndex: i,
				Content:    text,
			},
			Embedding: vec,
		})
	}

	p.logger.Info("Indexed document", "doc", doc.ID, "chunks", len(records))
	return records, nil
}
