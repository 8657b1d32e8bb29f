package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/grounded-chat/internal/rag"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		healthy    bool
		wantCode   int
		wantStatus string
		wantStore  string
	}{
		{"healthy", true, http.StatusOK, "healthy", "loaded"},
		{"unhealthy", false, http.StatusServiceUnavailable, "unhealthy", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAssistant{healthOK: tt.healthy, status: rag.Status{Chunks: 6, ActiveSessions: 2}}
			rec := httptest.NewRecorder()

			NewHealthHandler(fake, fake)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantStore, resp.Store)
			assert.Equal(t, 6, resp.Chunks)
			assert.Equal(t, 2, resp.ActiveSessions)
		})
	}
}

func TestMux_Routes(t *testing.T) {
	fake := &fakeAssistant{healthOK: true}
	server := NewServer(&Config{Assistant: fake, StoreBackend: "file"})
	mux := NewMux(server, fake, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grounded Chat")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
