package domain

import "context"

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generation is a completion together with the provider's token usage.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens is the sum of prompt and completion tokens.
func (g Generation) TotalTokens() int {
	return g.PromptTokens + g.CompletionTokens
}

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (Generation, error)
}
