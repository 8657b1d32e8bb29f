// Package chunker splits raw document text into overlapping fixed-size
// windows, the unit of retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bull/grounded-chat/internal/domain"
)

// ErrInvalidWindow is returned when size and overlap cannot make progress.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Window is one untrimmed slice of the source, in rune offsets.
type Window struct {
	Start int
	End   int
	Text  string
}

// Chunker holds a validated size/overlap pair.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window parameters. It requires 0 < overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the trimmed text of every window, one entry per window, so
// chunks[i] is always window i. A window of only whitespace yields "".
// Any non-empty text yields at least one chunk.
func (c *Chunker) Split(text string) []string {
	windows := c.Windows(text)
	chunks := make([]string, len(windows))
	for i, w := range windows {
		chunks[i] = strings.TrimSpace(w.Text)
	}
	return chunks
}

// Windows returns the untrimmed windows covering text. Consecutive windows
// overlap by exactly c.overlap runes and the last one ends at len(text).
func (c *Chunker) Windows(text string) []Window {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var windows []Window
	for start := 0; ; start += step {
		end := min(start+c.size, len(runes))
		windows = append(windows, Window{
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return windows
}

// Split is a convenience wrapper around New and Chunker.Split.
func Split(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}

func validate(size, overlap int) error {
	switch {
	case size <= 0:
		return fmt.Errorf("%w: %w: size %d must be positive", domain.ErrConfiguration, ErrInvalidWindow, size)
	case overlap <= 0:
		return fmt.Errorf("%w: %w: overlap %d must be positive", domain.ErrConfiguration, ErrInvalidWindow, overlap)
	case overlap >= size:
		return fmt.Errorf("%w: %w: overlap %d must be smaller than size %d", domain.ErrConfiguration, ErrInvalidWindow, overlap, size)
	}
	return nil
}
