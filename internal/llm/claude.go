package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 2048

// ClaudeClient generates text and reads images. Anthropic has no embedding
// endpoint, so the factory leaves embeddings to the fallback generator.
type ClaudeClient struct {
	client *anthropic.Client
	model  string
}

func NewClaudeClient(apiKey, model, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if model == "" {
		model = string(anthropic.ModelClaude3Haiku20240307)
	}
	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, anthropic.NewTextMessageContent(prompt))
}

func (c *ClaudeClient) ExtractText(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		mimeType,
		base64.StdEncoding.EncodeToString(image),
	)
	return c.send(ctx, anthropic.NewImageMessageContent(source), anthropic.NewTextMessageContent(prompt))
}

func (c *ClaudeClient) send(ctx context.Context, content ...anthropic.MessageContent) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: content},
		},
		MaxTokens: claudeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Text != nil {
			out.WriteString(*block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("claude: no text in response")
	}
	return out.String(), nil
}
