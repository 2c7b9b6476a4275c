package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "qwen3:4b"

	// Context window and completion budget for the local model. Scripts
	// longer than the window are truncated by the server, which matches
	// the bounded-context contract of this backend.
	ollamaNumCtx     = 4000
	ollamaNumPredict = 100
)

// OllamaProvider runs completions against a local Ollama server. The model
// identifier is resolved to weights once per run: Pull is issued lazily
// before the first completion and the loaded model is reused across files.
type OllamaProvider struct {
	client  *http.Client
	model   string
	baseURL string

	pullOnce sync.Once
	pullErr  error
}

// OllamaConfig configures the local backend.
type OllamaConfig struct {
	BaseURL string
	Model   string
}

// NewOllamaProvider creates a provider for a local Ollama server.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	return &OllamaProvider{
		client: &http.Client{
			Timeout: 10 * time.Minute, // first call may download weights
		},
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Complete issues one completion with a single concatenated prompt string,
// mirroring a raw text-completion call against the loaded model.
func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	p.pullOnce.Do(func() {
		p.pullErr = p.pull(ctx)
	})
	if p.pullErr != nil {
		return "", fmt.Errorf("failed to obtain model %s: %w", p.model, p.pullErr)
	}

	reqBody := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: fmt.Sprintf("System: %s\nUser: %s\nAssistant:", systemPrompt, userContent),
		Stream: false,
		Options: map[string]interface{}{
			"num_ctx":     ollamaNumCtx,
			"num_predict": ollamaNumPredict,
			"num_thread":  runtime.NumCPU(),
		},
	}

	body, err := p.post(ctx, "/api/generate", reqBody)
	if err != nil {
		return "", err
	}

	var resp ollamaGenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return resp.Response, nil
}

// pull asks the server to download and cache the model weights. A model
// already present locally makes this a cheap no-op on the server side.
func (p *OllamaProvider) pull(ctx context.Context) error {
	reqBody := map[string]interface{}{
		"model":  p.model,
		"stream": false,
	}
	_, err := p.post(ctx, "/api/pull", reqBody)
	return err
}

func (p *OllamaProvider) post(ctx context.Context, path string, reqBody interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", httpResp.StatusCode, TruncateString(string(body), 500))
	}

	return body, nil
}

func (p *OllamaProvider) GetName() string {
	return "ollama"
}

func (p *OllamaProvider) GetModel() string {
	return p.model
}
