package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFetcher serves a small docs tree:
//
//	docs/faq.md
//	docs/logo.png
//	docs/guides/reset.txt
func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/handbook/contents/docs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `[
			{"type":"file","name":"faq.md","path":"docs/faq.md"},
			{"type":"file","name":"logo.png","path":"docs/logo.png"},
			{"type":"dir","name":"guides","path":"docs/guides"}
		]`)
	})
	mux.HandleFunc("/repos/acme/handbook/contents/docs/guides", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"reset.txt","path":"docs/guides/reset.txt"}]`)
	})
	mux.HandleFunc("/repos/acme/handbook/contents/docs/faq.md", func(w http.ResponseWriter, r *http.Request) {
		encoded := base64.StdEncoding.EncodeToString([]byte("# FAQ\n\nAnswers."))
		fmt.Fprintf(w, `{"type":"file","name":"faq.md","path":"docs/faq.md","encoding":"base64","sha":"abc123","content":%q}`, encoded)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClient("")
	require.NoError(t, err)
	client.BaseURL, err = url.Parse(server.URL + "/")
	require.NoError(t, err)

	return NewFetcher(client, "acme", "handbook", "/docs/", "main")
}

func TestFetcher_ListDocs(t *testing.T) {
	f := newTestFetcher(t)

	docs, err := f.ListDocs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"faq.md", "guides/reset.txt"}, docs)
	assert.Equal(t, "acme/handbook", f.Repository())
}

func TestFetcher_FetchDoc(t *testing.T) {
	f := newTestFetcher(t)

	doc, err := f.FetchDoc(context.Background(), "faq.md")
	require.NoError(t, err)
	assert.Equal(t, "faq.md", doc.Path)
	assert.Equal(t, "# FAQ\n\nAnswers.", doc.Content)
	assert.Equal(t, "abc123", doc.SHA)
}

func TestIsDocFile(t *testing.T) {
	assert.True(t, IsDocFile("README.MD"))
	assert.True(t, IsDocFile("notes.txt"))
	assert.True(t, IsDocFile("a.markdown"))
	assert.False(t, IsDocFile("image.png"))
}
