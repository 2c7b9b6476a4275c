package llm

import (
	"context"
)

// Provider is the single capability the analysis loop needs from a model
// backend: turn the fixed system prompt plus one script into a text reply.
// Callers never branch on which backend is active beyond configuration.
type Provider interface {
	// Complete issues one completion request and returns the raw reply text.
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)

	// GetName returns the provider name (for logging).
	GetName() string

	// GetModel returns the model identifier in use.
	GetModel() string
}
