package retrieval

import (
	"sort"

	"github.com/bull/grounded-chat/internal/storage"
)

// TopK scores every record against query and returns at most k chunks with
// score >= threshold, ordered by descending score. Equal scores keep the
// store order.
func TopK(query []float32, records []storage.EmbeddedChunk, k int, threshold float64) []storage.ScoredChunk {
	if k <= 0 {
		return nil
	}

	scored := make([]storage.ScoredChunk, 0, len(records))
	for _, r := range records {
		score := Cosine(query, r.Embedding)
		if score < threshold {
			continue
		}
		scored = append(scored, storage.ScoredChunk{
			ChunkID: r.ChunkID,
			Title:   r.Title,
			Content: r.Content,
			Score:   score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Ranker binds TopK to a loaded store and a retrieval policy.
type Ranker struct {
	store     *storage.VectorStore
	k         int
	threshold float64
}

// NewRanker creates a Ranker. threshold is the minimum similarity a chunk
// needs to be used as evidence; it is a policy knob, not a constant.
func NewRanker(store *storage.VectorStore, k int, threshold float64) *Ranker {
	return &Ranker{store: store, k: k, threshold: threshold}
}

// Retrieve ranks the store against query.
func (r *Ranker) Retrieve(query []float32) []storage.ScoredChunk {
	return TopK(query, r.store.Records(), r.k, r.threshold)
}

// Dimension reports the store dimensionality that query vectors must match.
func (r *Ranker) Dimension() int { return r.store.Dimension() }

// Len returns the number of records ranked per query.
func (r *Ranker) Len() int { return r.store.Len() }
