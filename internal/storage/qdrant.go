package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// DefaultCollection is the Qdrant collection holding the published store.
const DefaultCollection = "grounded_chunks"

// vectorName is the named vector used for chunk embeddings.
const vectorName = "content"

// QdrantStorage mirrors the persisted vector store in a Qdrant collection.
// It is an alternative artifact location only: ranking always runs as an
// in-process linear scan over the records loaded from it.
type QdrantStorage struct {
	client     *qdrant.Client
	host       string
	port       int
	collection string
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(host string, port int, collection string) (*QdrantStorage, error) {
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		host:       host,
		port:       port,
		collection: collection,
	}

	if err := storage.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Collection returns the collection name.
func (s *QdrantStorage) Collection() string { return s.collection }

func (s *QdrantStorage) collectionExists(ctx context.Context) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// manifestID is the fixed point id of the completion marker. Chunk ids are
// derived from "doc#index", so it cannot collide with one.
var manifestID = uuid.NewSHA1(chunkNamespace, []byte("manifest")).String()

// Replace drops the collection, recreates it for the given dimension and
// publishes records in order. Points are upserted in batches of 100. A
// manifest point carrying the record count is written last, so LoadAll
// refuses a collection whose publish did not finish.
func (s *QdrantStorage) Replace(ctx context.Context, records []EmbeddedChunk) error {
	dim, err := ValidateDimensions(records)
	if err != nil {
		return err
	}

	if err := s.recreate(ctx, dim); err != nil {
		return err
	}
	if err := s.upsertRecords(ctx, records); err != nil {
		return err
	}
	return s.writeManifest(ctx, dim, len(records))
}

func (s *QdrantStorage) recreate(ctx context.Context, dim int) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *QdrantStorage) upsertRecords(ctx context.Context, records []EmbeddedChunk) error {
	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			r := records[j]
			points = append(points, &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(r.ChunkID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(r.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"doc_id":      r.DocID,
					"title":       r.Title,
					"chunk_index": r.ChunkIndex,
					"content":     r.Content,
					"ordinal":     j,
				}),
			})
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// writeManifest stores the completion marker. Its vector is a unit vector
// because the collection requires one of the store dimension.
func (s *QdrantStorage) writeManifest(ctx context.Context, dim, count int) error {
	vec := make([]float32, dim)
	vec[0] = 1

	point := &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(manifestID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			vectorName: qdrant.NewVector(vec...),
		}),
		Payload: qdrant.NewValueMap(map[string]any{
			"manifest": true,
			"count":    count,
		}),
	}
	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
}

// checkManifest compares the manifest count with the records loaded. want
// is negative when no manifest point was found.
func checkManifest(collection string, want int64, got int) error {
	if want < 0 {
		return fmt.Errorf("%w: %s has no manifest", ErrIncompleteCollection, collection)
	}
	if want != int64(got) {
		return fmt.Errorf("%w: %s has %d records, manifest expects %d",
			ErrIncompleteCollection, collection, got, want)
	}
	return nil
}

// LoadAll scrolls every point of the collection back into records, in the
// order they were published. It fails with ErrIncompleteCollection unless
// the manifest is present and matches the number of records.
func (s *QdrantStorage) LoadAll(ctx context.Context) ([]EmbeddedChunk, error) {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, s.collection)
	}

	type ordered struct {
		ordinal int64
		record  EmbeddedChunk
	}

	var (
		out    []ordered
		seen   = make(map[string]struct{})
		offset *qdrant.PointId
	)
	batchSize := uint32(100)
	manifest := int64(-1)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		for _, point := range results {
			id := point.Id.GetUuid()
			// The scroll offset is inclusive, so the previous page's last
			// point comes back first.
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			payload := point.Payload
			if payload["manifest"].GetBoolValue() {
				manifest = payload["count"].GetIntegerValue()
				continue
			}
			out = append(out, ordered{
				ordinal: payload["ordinal"].GetIntegerValue(),
				record: EmbeddedChunk{
					Chunk: Chunk{
						ChunkID:    id,
						DocID:      payload["doc_id"].GetStringValue(),
						Title:      payload["title"].GetStringValue(),
						ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
						Content:    payload["content"].GetStringValue(),
					},
					Embedding: denseVector(point.Vectors),
				},
			})
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	if err := checkManifest(s.collection, manifest, len(out)); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ordinal < out[j].ordinal })

	records := make([]EmbeddedChunk, len(out))
	for i, o := range out {
		records[i] = o.record
	}
	return records, nil
}

func denseVector(vectors *qdrant.VectorsOutput) []float32 {
	named := vectors.GetVectors().GetVectors()
	v, ok := named[vectorName]
	if !ok || v == nil {
		return nil
	}
	if dense := v.GetDense(); dense != nil {
		return dense.GetData()
	}
	return v.GetData()
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
