// Package llm provides the abstraction for text-generation backends used by
// the content refinement service.
package llm

import "context"

// GenerateConfig carries the per-call model parameters.
type GenerateConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider defines the interface for text-generation integrations.
//
// Implementations handle API communication and return the raw completion
// text; prompt construction and response parsing live with the caller.
type Provider interface {
	// Generate sends a single-prompt completion request and returns the
	// full response text.
	Generate(ctx context.Context, prompt string, cfg GenerateConfig) (string, error)
}
