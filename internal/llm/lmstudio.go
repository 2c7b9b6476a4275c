package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultLMStudioKey = "lm-studio" // the server ignores it, but the field must be set

// LMStudioProvider talks to an OpenAI-compatible chat completions endpoint.
// Built for LM Studio but works against anything speaking the same protocol.
type LMStudioProvider struct {
	client  *http.Client
	model   string
	baseURL string
	apiKey  string
}

// LMStudioConfig configures the remote backend.
type LMStudioConfig struct {
	BaseURL string // e.g. "http://localhost:1234/v1"
	Model   string // model name as loaded in the server
	APIKey  string // optional
}

// NewLMStudioProvider creates a provider for an OpenAI-compatible endpoint.
func NewLMStudioProvider(cfg LMStudioConfig) *LMStudioProvider {
	if cfg.APIKey == "" {
		cfg.APIKey = defaultLMStudioKey
	}
	return &LMStudioProvider{
		client: &http.Client{
			Timeout: 5 * time.Minute, // local models can be slow
		},
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues one chat completion: the fixed prompt as the system turn,
// the script content as the sole user turn. No streaming, no retries.
func (p *LMStudioProvider) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   -1, // bounded only by the backend
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", httpResp.StatusCode, TruncateString(string(body), 500))
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *LMStudioProvider) GetName() string {
	return "lmstudio"
}

func (p *LMStudioProvider) GetModel() string {
	return p.model
}
