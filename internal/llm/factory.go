package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a model provider by name.
// Supported provider names: "openai", "gemini".
func NewProvider(ctx context.Context, providerType, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", providerType)
	}

	switch providerType {
	case "openai":
		return NewOpenAIProvider(apiKey, model), nil
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
