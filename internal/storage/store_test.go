package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/grounded-chat/internal/domain"
)

func record(docID string, idx int, emb ...float32) EmbeddedChunk {
	return EmbeddedChunk{
		Chunk: Chunk{
			ChunkID:    ChunkID(docID, idx),
			DocID:      docID,
			Title:      "Title " + docID,
			ChunkIndex: idx,
			Content:    "content",
		},
		Embedding: emb,
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	records := []EmbeddedChunk{
		record("doc-1", 0, 1, 0, 0),
		record("doc-1", 1, 0, 1, 0),
		record("doc-2", 0, 0, 0, 1),
	}

	require.NoError(t, Save(path, records))

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 3, store.Dimension())
	assert.Equal(t, records, store.Records())
	assert.NoError(t, store.Health(context.Background()))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	body := `{"dimension":2,"records":[
		{"chunk_id":"a","doc_id":"d","title":"t","chunk_index":0,"content":"x","embedding":[1,0]},
		{"chunk_id":"b","doc_id":"d","title":"t","chunk_index":1,"content":"y","embedding":[1,0,0]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLoad_HeaderDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	body := `{"dimension":3,"records":[
		{"chunk_id":"a","doc_id":"d","title":"t","chunk_index":0,"content":"x","embedding":[1,0]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewVectorStore_Empty(t *testing.T) {
	_, err := NewVectorStore(nil)
	assert.ErrorIs(t, err, ErrEmptyStore)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSave_RejectsMismatchedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	err := Save(path, []EmbeddedChunk{record("d", 0, 1, 2), record("d", 1, 1)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, ChunkID("faq.md", 2), ChunkID("faq.md", 2))
	assert.NotEqual(t, ChunkID("faq.md", 2), ChunkID("faq.md", 3))
	assert.NotEqual(t, ChunkID("a", 12), ChunkID("a1", 2))
}

func TestCheckManifest(t *testing.T) {
	assert.NoError(t, checkManifest("c", 3, 3))
	assert.NoError(t, checkManifest("c", 0, 0))

	err := checkManifest("c", -1, 3)
	assert.ErrorIs(t, err, ErrIncompleteCollection)
	assert.Contains(t, err.Error(), "no manifest")

	err = checkManifest("c", 230, 100)
	assert.ErrorIs(t, err, ErrIncompleteCollection)
	assert.Contains(t, err.Error(), "expects 230")

	assert.NotEqual(t, manifestID, ChunkID("manifest", 0))
}
