package openai

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

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	p, err := New(config.CloudConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"}, server.Client())
	require.NoError(t, err)
	return p, server
}

func TestInvokeWithoutKey(t *testing.T) {
	p, err := New(config.CloudConfig{BaseURL: "https://api.openai.com/v1"}, http.DefaultClient)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gpt-4"})
	require.ErrorIs(t, err, provider.ErrCredentialsMissing)

	reason, _ := provider.FailureReason(err)
	assert.Equal(t, "openai credentials not configured: set OPENAI_API_KEY", reason)
}

func TestInvokeSuccess(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"gpt-4","messages":[{"role":"user","content":"hi there"}]}`, string(body))

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 2, "completion_tokens": 3, "total_tokens": 6}
		}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi there", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Content)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, models.ModeLive, res.Mode)
	assert.Equal(t, models.TokenUsage{Prompt: 2, Completion: 3, Total: 6}, res.Tokens)
	assert.Equal(t, "stop", res.Metadata["finish_reason"])
	assert.Equal(t, "chatcmpl-1", res.Metadata["id"])
}

func TestInvokeNoChoices(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Content)
	assert.Equal(t, models.TokenUsage{}, res.Tokens)
}

func TestInvokeToleratesMalformedUsage(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "still here"}}],
			"usage": {"prompt_tokens": "2", "completion_tokens": 3, "total_tokens": {}}
		}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, "still here", res.Content)
	assert.Equal(t, models.TokenUsage{Prompt: 0, Completion: 3, Total: 0}, res.Tokens)
}

func TestInvokeNon2xx(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})
	defer server.Close()

	_, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gpt-4"})
	reason, details := provider.FailureReason(err)
	assert.Equal(t, "OpenAI error: 429", reason)
	assert.Contains(t, details, "rate limited")
}
