//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage connects to a local Qdrant with a unique collection.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage("localhost", 6334, "test_"+uuid.NewString())
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() {
		_ = storage.client.DeleteCollection(context.Background(), storage.collection)
		storage.Close()
	})
	return storage
}

func TestQdrant_ReplaceAndLoadAll(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	// More than one scroll page to exercise pagination.
	records := make([]EmbeddedChunk, 0, 230)
	for i := 0; i < 230; i++ {
		records = append(records, record("doc-"+uuid.NewString(), i%3, float32(i), 1, 0))
	}

	require.NoError(t, storage.Replace(ctx, records))

	loaded, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(records))
	for i := range records {
		assert.Equal(t, records[i].ChunkID, loaded[i].ChunkID)
		assert.Equal(t, records[i].Content, loaded[i].Content)
		assert.Equal(t, records[i].ChunkIndex, loaded[i].ChunkIndex)
		assert.Len(t, loaded[i].Embedding, 3)
	}
}

func TestQdrant_ReplaceDropsPreviousContent(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Replace(ctx, []EmbeddedChunk{record("a", 0, 1, 0), record("a", 1, 0, 1)}))
	require.NoError(t, storage.Replace(ctx, []EmbeddedChunk{record("b", 0, 1, 0, 0)}))

	loaded, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b", loaded[0].DocID)
	assert.Len(t, loaded[0].Embedding, 3)
}

func TestQdrant_DimensionValidation(t *testing.T) {
	storage := setupTestStorage(t)

	err := storage.Replace(context.Background(), []EmbeddedChunk{record("a", 0, 1, 0), record("a", 1, 1)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrant_LoadAllMissingCollection(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.LoadAll(context.Background())
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestQdrant_LoadAllRejectsUnfinishedPublish(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	records := []EmbeddedChunk{record("a", 0, 1, 0), record("a", 1, 0, 1), record("a", 2, 1, 1)}

	// Batches landed but the manifest never did.
	require.NoError(t, storage.recreate(ctx, 2))
	require.NoError(t, storage.upsertRecords(ctx, records[:2]))

	_, err := storage.LoadAll(ctx)
	assert.ErrorIs(t, err, ErrIncompleteCollection)

	// Manifest count disagrees with what is stored.
	require.NoError(t, storage.writeManifest(ctx, 2, len(records)))

	_, err = storage.LoadAll(ctx)
	assert.ErrorIs(t, err, ErrIncompleteCollection)

	require.NoError(t, storage.upsertRecords(ctx, records))

	loaded, err := storage.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, len(records))
}
