package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Config{Kind: "bard"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New(Config{Kind: "openai"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNewAPIKeyFromEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")

	p, err := New(Config{Kind: "deepseek"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek", p.Name())
	assert.True(t, p.Remote())
}

func TestNewOllamaNeedsNoKey(t *testing.T) {
	p, err := New(Config{Kind: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.False(t, p.Remote())
}

func TestChatCompletionGenerate(t *testing.T) {
	var captured struct {
		Model       string `json:"model"`
		Temperature float64
		MaxTokens   int `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  feat: add parser\n"}}]}`))
	}))
	defer srv.Close()

	p := newHTTPProvider("openai", srv.URL, "gpt-4o-mini", "sk-test", true, time.Second, chatCompletionAdapter())

	got, err := p.Generate(context.Background(), "the prompt", "the system turn")
	require.NoError(t, err)
	assert.Equal(t, "feat: add parser", got)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, defaultMaxTokens, captured.MaxTokens)
	assert.InDelta(t, defaultTemperature, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "the system turn", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "the prompt", captured.Messages[1].Content)
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body struct {
			System      string  `json:"system"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the system turn", body.System)
		assert.InDelta(t, defaultTemperature, body.Temperature, 1e-9)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "the prompt", body.Messages[0].Content[0].Text)

		w.Write([]byte(`{"content":[{"type":"text","text":"fix: close leaked handle"}]}`))
	}))
	defer srv.Close()

	p := newHTTPProvider("anthropic", srv.URL, "claude-3-5-haiku-latest", "sk-ant-test", true, time.Second, anthropicAdapter())

	got, err := p.Generate(context.Background(), "the prompt", "the system turn")
	require.NoError(t, err)
	assert.Equal(t, "fix: close leaked handle", got)
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))

		var body struct {
			Stream  bool `json:"stream"`
			Options struct {
				NumPredict int `json:"num_predict"`
			} `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		assert.Equal(t, defaultMaxTokens, body.Options.NumPredict)

		w.Write([]byte(`{"message":{"role":"assistant","content":"chore: bump deps"}}`))
	}))
	defer srv.Close()

	p := newHTTPProvider("ollama", srv.URL, "llama3.2", "", false, time.Second, ollamaAdapter())

	got, err := p.Generate(context.Background(), "the prompt", "the system turn")
	require.NoError(t, err)
	assert.Equal(t, "chore: bump deps", got)
}

func TestGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newHTTPProvider("openai", srv.URL, "gpt-4o-mini", "sk-test", true, time.Second, chatCompletionAdapter())

	_, err := p.Generate(context.Background(), "p", "s")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
	assert.Equal(t, "openai", statusErr.Provider)
}

func TestGenerateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := newHTTPProvider("openai", srv.URL, "gpt-4o-mini", "sk-test", true, time.Second, chatCompletionAdapter())

	_, err := p.Generate(context.Background(), "p", "s")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise r.Context() is never
		// cancelled and srv.Close() deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := newHTTPProvider("openai", srv.URL, "gpt-4o-mini", "sk-test", true, time.Minute, chatCompletionAdapter())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "p", "s")
	assert.Error(t, err)
}
