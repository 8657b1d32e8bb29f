package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/grounded-chat/internal/domain"
)

const embeddingBody = `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,1]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":3,"total_tokens":3}}`

func errorBody(code string) string {
	return fmt.Sprintf(`{"error":{"message":"upstream says no","type":"invalid_request_error","code":%q}}`, code)
}

// newTestEmbedder points an Embedder at handler.
func newTestEmbedder(t *testing.T, handler http.HandlerFunc, opts ...Option) *Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	e := NewEmbedder(client, "", opts...)
	e.initialInterval = 10 * time.Millisecond
	return e
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestEmbed_Success(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, embeddingBody)
	})

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 1}, vec)
}

func TestEmbed_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.ProviderKind
	}{
		{http.StatusUnauthorized, domain.ProviderAuth},
		{http.StatusForbidden, domain.ProviderAuth},
		{http.StatusTooManyRequests, domain.ProviderRateLimit},
		{http.StatusGatewayTimeout, domain.ProviderTimeout},
		{http.StatusBadRequest, domain.ProviderUnknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, errorBody("x"))
			})

			_, err := e.Embed(context.Background(), "hello")
			require.Error(t, err)
			kind, ok := domain.ProviderKindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, int32(1), calls.Load(), "no retries without WithRateLimitRetry")
		})
	}
}

func TestEmbed_RetriesRateLimitWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, errorBody("rate_limit_exceeded"))
			return
		}
		fmt.Fprint(w, embeddingBody)
	}, WithRateLimitRetry(5*time.Second))

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_RetryDoesNotRepeatAuthErrors(t *testing.T) {
	var calls atomic.Int32
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, errorBody("invalid_api_key"))
	}, WithRateLimitRetry(5*time.Second))

	_, err := e.Embed(context.Background(), "hello")
	kind, _ := domain.ProviderKindOf(err)
	assert.Equal(t, domain.ProviderAuth, kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("embed", nil))

	err := Classify("embed", fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	kind, ok := domain.ProviderKindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.ProviderTimeout, kind)

	err = Classify("embed", errors.New("connection reset"))
	kind, _ = domain.ProviderKindOf(err)
	assert.Equal(t, domain.ProviderUnknown, kind)

	already := domain.NewProviderError("generate", domain.ProviderAuth, errors.New("x"))
	assert.Same(t, already, Classify("embed", already))
}
