package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-router/internal/models"
	"ai-router/internal/provider"
)

func TestRespondKnownProvider(t *testing.T) {
	res := Respond("gemini", "gemini-2.0-flash", "What is AI?")

	assert.True(t, res.Success)
	assert.Equal(t, models.ModeMock, res.Mode)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, "gemini-2.0-flash", res.Model)
	assert.Contains(t, res.Content, "[MOCK] Gemini response")
	assert.Equal(t, models.TokenUsage{Prompt: 3, Completion: 50, Total: 53}, res.Tokens)
	assert.Empty(t, res.Error)
	assert.False(t, res.FallbackUsed)
}

func TestRespondUnknownProvider(t *testing.T) {
	res := Respond("unknownxyz", "", "hi")

	assert.Equal(t, "[MOCK] unknownxyz response", res.Content)
	assert.Equal(t, "", res.Model)
	assert.Equal(t, 1, res.Tokens.Prompt)
}

func TestRespondIsDeterministic(t *testing.T) {
	a := Respond("ollama", "mistral", "tell me   a\tstory")
	b := Respond("ollama", "mistral", "tell me   a\tstory")

	assert.Equal(t, a, b)
	assert.Equal(t, 4, a.Tokens.Prompt)
}

func TestTokensAlwaysSum(t *testing.T) {
	for _, msg := range []string{"", "one", "a b c d e f g", "  padded  words  "} {
		res := Respond("openai", "gpt-4", msg)
		assert.Equal(t, CompletionTokens, res.Tokens.Completion, msg)
		assert.Equal(t, res.Tokens.Prompt+res.Tokens.Completion, res.Tokens.Total, msg)
	}
}

func TestAdapterInvoke(t *testing.T) {
	a := New("anthropic")
	assert.Equal(t, "anthropic", a.Name())

	res, err := a.Invoke(context.Background(), provider.Call{Message: "hello there", Model: "claude-3-opus"})
	require.NoError(t, err)
	assert.Equal(t, Respond("anthropic", "claude-3-opus", "hello there"), *res)
}
