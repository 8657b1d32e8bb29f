package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/bull/grounded-chat/internal/domain"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector dimension for text-embedding-3-small.
	DefaultDimension = 1536
)

// Embedder generates embeddings for text using an OpenAI embedding model.
// By default every failure is returned immediately; WithRateLimitRetry
// enables exponential backoff on HTTP 429 for offline ingestion runs.
type Embedder struct {
	client          *Client
	model           string
	retryElapsed    time.Duration
	initialInterval time.Duration
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithRateLimitRetry retries rate-limited calls with exponential backoff
// for at most maxElapsed. Other errors are permanent.
func WithRateLimitRetry(maxElapsed time.Duration) Option {
	return func(e *Embedder) {
		e.retryElapsed = maxElapsed
	}
}

// NewEmbedder creates a new Embedder with the given client and model.
// If model is empty, DefaultModel is used.
func NewEmbedder(client *Client, model string, opts ...Option) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	e := &Embedder{
		client:          client,
		model:           model,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ domain.Embedder = (*Embedder)(nil)

// Embed returns the embedding of text. Failures are classified
// domain.ProviderError values.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.retryElapsed <= 0 {
		vec, err := e.embedOnce(ctx, text)
		return vec, Classify("embed", err)
	}

	var vec []float32
	operation := func() error {
		var err error
		vec, err = e.embedOnce(ctx, text)
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.initialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = e.retryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, Classify("embed", err)
	}
	return vec, nil
}

func (e *Embedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return toFloat32(resp.Data[0].Embedding), nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
