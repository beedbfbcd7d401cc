package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client with the given API key. The key is
// passed explicitly so callers construct and inject clients instead of
// relying on process-wide state.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding: OpenAI API key not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}, nil
}

// OpenAI returns the underlying OpenAI client for use in other packages
// (e.g. answer generation).
func (c *Client) OpenAI() *openai.Client {
	return c.client
}
