// Package llm provides completion clients for the supported model
// providers and a retrying wrapper that absorbs provider rate limits.
package llm

import "context"

// Client is the interface that all completion providers implement. A
// provider takes a fully rendered prompt and returns the model's raw
// text.
type Client interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Generate sends prompt and returns the completion text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are model parameters shared by the providers.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return 1024
}
