package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewExtractor creates a claim extractor based on configuration
func NewExtractor(ctx context.Context, config Config) (Extractor, error) {
	switch strings.ToLower(config.Provider) {
	case "gemini", "google":
		return NewGeminiExtractor(ctx, config)

	case "openai":
		return NewOpenAIExtractor(config)

	case "anthropic", "claude":
		return NewAnthropicExtractor(config)

	case "ollama":
		return NewOllamaExtractor(config)

	case "":
		return nil, ErrNoProvider

	default:
		return nil, fmt.Errorf("unknown extraction provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}
