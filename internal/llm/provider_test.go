package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLMStudioProviderComplete(t *testing.T) {
	var got chatCompletionRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "<Score>8</Score><Analysis>ok</Analysis>"}},
			},
		})
	}))
	defer srv.Close()

	p := NewLMStudioProvider(LMStudioConfig{BaseURL: srv.URL + "/v1", Model: "qwen3-4b"})

	reply, err := p.Complete(context.Background(), "system prompt", "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, "<Score>8</Score><Analysis>ok</Analysis>", reply)

	assert.Equal(t, "Bearer lm-studio", gotAuth)
	assert.Equal(t, "qwen3-4b", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "system prompt", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "print('hi')", got.Messages[1].Content)
	assert.Equal(t, -1, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 0.001)
}

func TestLMStudioProviderErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := NewLMStudioProvider(LMStudioConfig{BaseURL: srv.URL, Model: "m"})
		_, err := p.Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		p := NewLMStudioProvider(LMStudioConfig{BaseURL: srv.URL, Model: "m"})
		_, err := p.Complete(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("unreachable server", func(t *testing.T) {
		p := NewLMStudioProvider(LMStudioConfig{BaseURL: "http://127.0.0.1:1", Model: "m"})
		_, err := p.Complete(context.Background(), "s", "u")
		require.Error(t, err)
	})
}

func TestOllamaProviderComplete(t *testing.T) {
	var pulls, generates int
	var got ollamaGenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/pull":
			pulls++
			_, _ = w.Write([]byte(`{"status":"success"}`))
		case "/api/generate":
			generates++
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "<Score>5</Score>"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL, Model: "qwen3:4b"})

	// two completions, weights pulled once
	for i := 0; i < 2; i++ {
		reply, err := p.Complete(context.Background(), "sys", "body")
		require.NoError(t, err)
		assert.Equal(t, "<Score>5</Score>", reply)
	}

	assert.Equal(t, 1, pulls)
	assert.Equal(t, 2, generates)
	assert.Equal(t, "qwen3:4b", got.Model)
	assert.Equal(t, "System: sys\nUser: body\nAssistant:", got.Prompt)
	assert.False(t, got.Stream)
	assert.EqualValues(t, ollamaNumCtx, got.Options["num_ctx"])
	assert.EqualValues(t, ollamaNumPredict, got.Options["num_predict"])
}

func TestOllamaProviderPullFailureSticks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL, Model: "nope"})

	_, err := p.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to obtain model")

	// pull is attempted once; the failure is remembered
	_, err = p.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to obtain model")
}

func TestNewProviderFactory(t *testing.T) {
	tests := []struct {
		name     string
		cfg      BackendConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "lmstudio",
			cfg:      BackendConfig{Type: BackendLMStudio, BaseURL: "http://localhost:1234/v1", Model: "m"},
			wantName: "lmstudio",
		},
		{
			name:    "lmstudio without URL",
			cfg:     BackendConfig{Type: BackendLMStudio, Model: "m"},
			wantErr: true,
		},
		{
			name:     "ollama with defaults",
			cfg:      BackendConfig{Type: BackendOllama},
			wantName: "ollama",
		},
		{
			name:    "unknown type",
			cfg:     BackendConfig{Type: "mystery"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.GetName())
		})
	}
}
