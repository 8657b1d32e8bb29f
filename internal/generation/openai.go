// Package generation adapts chat-completion providers to domain.Generator.
package generation

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/embedding"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = string(openai.ChatModelGPT4oMini)

// OpenAIGenerator produces answers with an OpenAI chat model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator with the given OpenAI client.
func NewOpenAIGenerator(client *openai.Client, model string) *OpenAIGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{client: client, model: model}
}

var _ domain.Generator = (*OpenAIGenerator)(nil)

// Generate sends prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (domain.Generation, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(g.model),
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return domain.Generation{}, embedding.Classify("generate", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, domain.NewProviderError("generate", domain.ProviderUnknown,
			fmt.Errorf("chat completion returned no choices"))
	}

	return domain.Generation{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
