package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VisionClient reads text out of an image.
type VisionClient interface {
	ExtractText(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}

// Clients groups the capabilities of one provider. A nil field means the
// provider does not offer that capability and callers use their fallback.
type Clients struct {
	Provider string
	LLM      LLMClient
	Embedder EmbedderClient
	Vision   VisionClient
}
