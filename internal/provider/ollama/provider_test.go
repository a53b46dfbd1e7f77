package ollama

import (
	"context"
	"encoding/json"
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
	p, err := New(config.OllamaConfig{BaseURL: server.URL + "/"}, server.Client())
	require.NoError(t, err)
	return p, server
}

func TestNewValidation(t *testing.T) {
	_, err := New(config.OllamaConfig{BaseURL: "http://localhost:11434"}, nil)
	require.Error(t, err)

	_, err = New(config.OllamaConfig{}, http.DefaultClient)
	require.Error(t, err)
}

func TestInvokeSuccess(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"mistral","prompt":"What is AI?","stream":false}`, string(body))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":          "AI is the study of intelligent agents.",
			"prompt_eval_count": 4,
			"eval_count":        9,
			"total_duration":    1500,
			"load_duration":     200,
			"eval_duration":     900,
		})
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "What is AI?", Model: "mistral"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "AI is the study of intelligent agents.", res.Content)
	assert.Equal(t, "mistral", res.Model)
	assert.Equal(t, "ollama", res.Provider)
	assert.Equal(t, models.ModeLive, res.Mode)
	assert.Equal(t, models.TokenUsage{Prompt: 4, Completion: 9, Total: 13}, res.Tokens)
	assert.Equal(t, int64(1500), res.Metadata["total_duration"])
	assert.Equal(t, int64(200), res.Metadata["load_duration"])
	assert.Equal(t, int64(900), res.Metadata["eval_duration"])
}

func TestInvokeDefaultsMissingCounters(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "phi"})
	require.NoError(t, err)
	assert.Equal(t, models.TokenUsage{}, res.Tokens)
	assert.Equal(t, int64(0), res.Metadata["total_duration"])
}

func TestInvokeToleratesMalformedCounters(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"real answer","prompt_eval_count":3,"eval_count":"12","total_duration":null}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "real answer", res.Content)
	assert.Equal(t, models.ModeLive, res.Mode)
	assert.Equal(t, models.TokenUsage{Prompt: 3, Completion: 0, Total: 3}, res.Tokens)
	assert.Equal(t, int64(0), res.Metadata["total_duration"])
}

func TestInvokeNon2xx(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama9' not found"}`))
	})
	defer server.Close()

	_, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "llama9"})
	reason, details := provider.FailureReason(err)
	assert.Equal(t, "Ollama error: 404", reason)
	assert.Equal(t, `{"error":"model 'llama9' not found"}`, details)
	assert.False(t, provider.IsHardFailure(err))
}

func TestInvokeDaemonNotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	p, err := New(config.OllamaConfig{BaseURL: baseURL}, http.DefaultClient)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), provider.Call{Message: "What is AI?", Model: "mistral"})
	reason, _ := provider.FailureReason(err)
	assert.Equal(t, "Ollama not running. Start with: ollama run mistral", reason)

	var upstream *provider.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, provider.FailureUnreachable, upstream.Kind)
}

func TestInvokeMalformedBody(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	defer server.Close()

	_, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "mistral"})
	reason, _ := provider.FailureReason(err)
	assert.Equal(t, "Ollama error: decode provider response", reason)
}

func TestPing(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	defer server.Close()

	assert.True(t, p.Ping(context.Background()))
}
