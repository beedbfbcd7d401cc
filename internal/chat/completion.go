package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

const (
	// CompletionModel generates the grounded answer.
	CompletionModel = openai.ChatModelGPT4oMini

	completionMaxTokens   = 256
	completionTemperature = 0.7
)

// Completer generates a natural-language answer from a system prompt and
// user content.
type Completer struct {
	client *openai.Client
}

// NewCompleter wraps an existing OpenAI client (shared with the embedding
// side).
func NewCompleter(client *openai.Client) *Completer {
	return &Completer{client: client}
}

// Complete issues one chat completion and returns the trimmed answer text.
func (c *Completer) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContent),
		},
		Model:       CompletionModel,
		MaxTokens:   openai.Int(completionMaxTokens),
		Temperature: openai.Float(completionTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
