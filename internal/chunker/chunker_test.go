package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/grounded-chat/internal/domain"
)

// reconstruct concatenates windows, dropping the overlap prefix of every
// window after the first.
func reconstruct(windows []Window, overlap int) string {
	var sb strings.Builder
	for i, w := range windows {
		r := []rune(w.Text)
		if i > 0 {
			r = r[overlap:]
		}
		sb.WriteString(string(r))
	}
	return sb.String()
}

func TestWindows_Coverage(t *testing.T) {
	docs := []string{
		"a",
		"short text",
		"To reset your password, open Settings and choose Security. Then click Reset Password and follow the emailed link.",
		strings.Repeat("0123456789", 37),
		"天气不错我们去散步吧，然后回家吃饭。",
		"  leading and trailing whitespace  \n\n between words   ",
	}
	params := []struct{ size, overlap int }{
		{2, 1}, {5, 2}, {10, 3}, {50, 10}, {500, 50}, {7, 6},
	}

	for _, doc := range docs {
		for _, p := range params {
			c, err := New(p.size, p.overlap)
			require.NoError(t, err)

			windows := c.Windows(doc)
			require.NotEmpty(t, windows)
			assert.Equal(t, doc, reconstruct(windows, p.overlap), "size=%d overlap=%d", p.size, p.overlap)

			last := windows[len(windows)-1]
			assert.Equal(t, len([]rune(doc)), last.End, "last window must end at document end")

			for i := 1; i < len(windows); i++ {
				assert.Equal(t, windows[i-1].End-p.overlap, windows[i].Start, "consecutive windows overlap by exactly overlap")
			}
			for _, w := range windows {
				assert.LessOrEqual(t, w.End-w.Start, p.size)
			}
		}
	}
}

func TestSplit_TrimsAndAdvances(t *testing.T) {
	chunks, err := Split("abcdefghij klmnopqrst", 10, 2)
	require.NoError(t, err)

	// windows: [0,10) [8,18) [16,21)
	assert.Equal(t, []string{"abcdefghij", "ij klmnopq", "pqrst"}, chunks)
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks, err := Split("  hello world  ", 500, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplit_BlankText(t *testing.T) {
	chunks, err := Split("", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Whitespace is still text: one window, trimmed to nothing.
	chunks, err = Split("   \n\t ", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, chunks)
}

// Windows that trim to nothing keep their position, so chunk i is always
// window i and the windows still rebuild the document.
func TestSplit_InteriorWhitespaceKeepsPositions(t *testing.T) {
	text := "abcde" + strings.Repeat(" ", 10) + "fghij"
	c, err := New(5, 2)
	require.NoError(t, err)

	windows := c.Windows(text)
	chunks := c.Split(text)
	require.Len(t, chunks, len(windows))

	// windows: [0,5) [3,8) [6,11) [9,14) [12,17) [15,20)
	assert.Equal(t, []string{"abcde", "de", "", "", "fg", "fghij"}, chunks)
	for i, w := range windows {
		assert.Equal(t, strings.TrimSpace(w.Text), chunks[i])
	}
	assert.Equal(t, text, reconstruct(windows, 2))
}

func TestSplit_Unicode(t *testing.T) {
	chunks, err := Split("天气不错我们去散步吧", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"天气不错", "错我们去", "去散步吧"}, chunks)
	for _, ch := range chunks {
		assert.NotContains(t, ch, "�")
	}
}

func TestNew_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
		{"zero size", 0, 0},
		{"negative size", -5, 1},
		{"zero overlap", 10, 0},
		{"negative overlap", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidWindow)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			_, err = Split("some text", tt.size, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}
