package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-router/internal/config"
	"ai-router/internal/models"
	"ai-router/internal/provider"
)

func testConfig(baseURL, key string) config.AnthropicConfig {
	return config.AnthropicConfig{
		CloudConfig: config.CloudConfig{APIKey: key, BaseURL: baseURL},
		Version:     "2023-06-01",
		MaxTokens:   128,
	}
}

func TestNewRejectsNonPositiveMaxTokens(t *testing.T) {
	cfg := testConfig("https://api.anthropic.com", "k")
	cfg.MaxTokens = 0
	_, err := New(cfg, http.DefaultClient)
	require.Error(t, err)
}

func TestInvokeWithoutKey(t *testing.T) {
	p, err := New(testConfig("https://api.anthropic.com", ""), http.DefaultClient)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "claude-3-opus"})
	require.ErrorIs(t, err, provider.ErrCredentialsMissing)
}

func TestInvokeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"model": "claude-3-sonnet",
			"max_tokens": 128,
			"messages": [{"role": "user", "content": [{"type": "text", "text": "hi"}]}]
		}`, string(body))

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "Hello"}, {"type": "tool_use"}, {"type": "text", "text": "again"}],
			"usage": {"input_tokens": 5, "output_tokens": 8},
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL, "ant-key"), server.Client())
	require.NoError(t, err)

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "claude-3-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", res.Content)
	assert.Equal(t, "anthropic", res.Provider)
	assert.Equal(t, "claude-3-sonnet", res.Model)
	assert.Equal(t, models.ModeLive, res.Mode)
	assert.Equal(t, models.TokenUsage{Prompt: 5, Completion: 8, Total: 13}, res.Tokens)
	assert.Equal(t, "end_turn", res.Metadata["stop_reason"])
	assert.Equal(t, "msg_1", res.Metadata["id"])
}

func TestInvokeToleratesMalformedUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "kept"}],
			"usage": {"input_tokens": 4, "output_tokens": "lots"}
		}`))
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL, "ant-key"), server.Client())
	require.NoError(t, err)

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "claude-3-opus"})
	require.NoError(t, err)
	assert.Equal(t, "kept", res.Content)
	assert.Equal(t, models.TokenUsage{Prompt: 4, Completion: 0, Total: 4}, res.Tokens)
}

func TestInvokeNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error"}}`))
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL, "bad"), server.Client())
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "claude-3-opus"})
	reason, details := provider.FailureReason(err)
	assert.Equal(t, "Anthropic error: 401", reason)
	assert.Contains(t, details, "authentication_error")
}
