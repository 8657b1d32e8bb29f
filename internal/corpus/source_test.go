package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/grounded-chat/internal/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDirSource_Documents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "password.md", "# Password Reset\n\nOpen Settings.")
	writeFile(t, root, "billing/refunds.txt", "Refunds take five days.")
	writeFile(t, root, "billing/logo.png", "not a document")

	docs, err := NewDirSource(root).Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "billing/refunds.txt", docs[0].ID)
	assert.Equal(t, "refunds", docs[0].Title)
	assert.Equal(t, "Refunds take five days.", docs[0].Content)

	assert.Equal(t, "password.md", docs[1].ID)
	assert.Equal(t, "Password Reset", docs[1].Title)
}

func TestDirSource_MissingDirectory(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope")).Documents(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestJSONSource_Documents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(p, []byte(`[
		{"id":"pw","title":"Password Reset","content":"Open Settings."},
		{"id":"ship","title":"Shipping","content":"Ships in two days."}
	]`), 0o644))

	docs, err := NewJSONSource(p).Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "pw", docs[0].ID)
	assert.Equal(t, "Shipping", docs[1].Title)
}

func TestJSONSource_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `[{"id":`},
		{"missing id", `[{"title":"x","content":"y"}]`},
		{"duplicate id", `[{"id":"a","content":"x"},{"id":"a","content":"y"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "docs.json")
			require.NoError(t, os.WriteFile(p, []byte(tt.content), 0o644))

			_, err := NewJSONSource(p).Documents(context.Background())
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}
