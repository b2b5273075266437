package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ProviderConfig selects and configures one completion provider.
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
}

// New constructs the provider named by cfg.Provider.
func New(ctx context.Context, cfg ProviderConfig, logger *slog.Logger) (Client, error) {
	opts := Options{Model: cfg.Model, Temperature: cfg.Temperature}
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, opts, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, opts, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "anthropic":
		c, err := NewAnthropicClient(cfg.APIKey, cfg.BaseURL, opts, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ollama":
		if opts.Model == "" {
			return nil, fmt.Errorf("ollama: model is required")
		}
		return NewOllamaClient(cfg.BaseURL, opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
