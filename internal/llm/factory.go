package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/logger"
)

// NewClient builds the provider named in cfg. "none" is an explicit choice
// that leaves every capability nil.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Clients, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		if cfg.APIKey == "" {
			return Clients{}, fmt.Errorf("openai provider requires an api key")
		}
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.EmbeddingModel, cfg.BaseURL, cfg.Dimensions)
		return Clients{Provider: provider, LLM: c, Embedder: c, Vision: c}, nil

	case "gemini":
		if cfg.APIKey == "" {
			return Clients{}, fmt.Errorf("gemini provider requires an api key")
		}
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return Clients{}, err
		}
		return Clients{Provider: provider, LLM: c, Embedder: c, Vision: c}, nil

	case "claude":
		if cfg.APIKey == "" {
			return Clients{}, fmt.Errorf("claude provider requires an api key")
		}
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return Clients{Provider: provider, LLM: c, Vision: c}, nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		logger.Info("Initializing Ollama via OpenAI-compatible API", "base_url", baseURL)

		// Ollama ignores the key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, baseURL, cfg.Dimensions)
		return Clients{Provider: provider, LLM: c, Embedder: c, Vision: c}, nil

	case "none", "":
		return Clients{Provider: "none"}, nil

	default:
		return Clients{}, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
