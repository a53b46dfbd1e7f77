package gemini

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
	p, err := New(config.CloudConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Headers: config.Headers{"X-Team": "research"},
	}, server.Client())
	require.NoError(t, err)
	return p, server
}

func TestInvokeWithoutKeyMakesNoCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	p, err := New(config.CloudConfig{BaseURL: server.URL}, server.Client())
	require.NoError(t, err)
	assert.False(t, p.Configured())

	_, err = p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gemini-2.0-flash"})
	require.ErrorIs(t, err, provider.ErrCredentialsMissing)
	assert.False(t, provider.IsHardFailure(err))

	reason, _ := provider.FailureReason(err)
	assert.Contains(t, reason, "credentials not configured")
	assert.False(t, called)
}

func TestInvokeSuccess(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/models/gemini-2.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "research", r.Header.Get("X-Team"))
		assert.Empty(t, r.URL.Query().Get("key"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"contents":[{"parts":[{"text":"hi"}]}]}`, string(body))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": "Hello"}, map[string]any{"text": "there"}},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     1,
				"candidatesTokenCount": 2,
				"totalTokenCount":      4,
			},
		})
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Hello there", res.Content)
	assert.Equal(t, "gemini-2.5-pro", res.Model)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, models.ModeLive, res.Mode)
	assert.Equal(t, models.TokenUsage{Prompt: 1, Completion: 2, Total: 4}, res.Tokens)
	assert.Equal(t, "STOP", res.Metadata["finish_reason"])
	assert.Equal(t, []any{}, res.Metadata["safety_ratings"])
}

func TestInvokeUnexpectedShapeDegrades(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})
	defer server.Close()

	res, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Content)
	assert.Equal(t, models.TokenUsage{}, res.Tokens)
}

func TestInvokeNon2xx(t *testing.T) {
	p, server := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	})
	defer server.Close()

	_, err := p.Invoke(context.Background(), provider.Call{Message: "hi", Model: "gemini-2.0-flash"})
	reason, details := provider.FailureReason(err)
	assert.Equal(t, "Gemini error: 403", reason)
	assert.Contains(t, details, "API key not valid")
}
