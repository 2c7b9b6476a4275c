package llm

import (
	"fmt"
)

// BackendType selects which provider implementation the factory builds.
type BackendType string

const (
	// BackendLMStudio - remote OpenAI-compatible chat completions endpoint
	// (LM Studio, LocalAI, vLLM with an OpenAI endpoint, etc.)
	BackendLMStudio BackendType = "lmstudio"

	// BackendOllama - local model served by an Ollama instance; weights are
	// pulled once and reused across the whole run
	BackendOllama BackendType = "ollama"
)

// BackendConfig is the universal configuration for creating a provider.
type BackendConfig struct {
	Type    BackendType
	BaseURL string
	Model   string
	APIKey  string // optional; LM Studio ignores it but one must be sent
}

// NewProvider creates a provider from configuration.
func NewProvider(cfg BackendConfig) (Provider, error) {
	switch cfg.Type {
	case BackendLMStudio:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("lmstudio backend requires a base URL")
		}
		return NewLMStudioProvider(LMStudioConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		}), nil

	case BackendOllama:
		return NewOllamaProvider(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
