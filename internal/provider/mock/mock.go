// Package mock produces deterministic placeholder answers. It is used for
// providers the catalogue does not know and as the fallback substitute when
// a live provider fails recoverably.
package mock

import (
	"context"
	"fmt"
	"strings"

	"ai-router/internal/models"
	"ai-router/internal/provider"
)

// CompletionTokens is the fixed completion count reported for mock answers.
const CompletionTokens = 50

var templates = map[string]string{
	"ollama":    "[MOCK] Mistral response: This would be a real response from locally-run Mistral model. To enable: 1) Install Ollama 2) Run 'ollama pull mistral' 3) Start service.",
	"gemini":    "[MOCK] Gemini response: This would be a real response from Google Gemini. To enable: Set GEMINI_API_KEY environment variable.",
	"openai":    "[MOCK] OpenAI GPT-4 response: This would connect to OpenAI API in production.",
	"anthropic": "[MOCK] Anthropic Claude response: This would connect to Anthropic API in production.",
}

// Adapter answers for a single provider name without any I/O.
type Adapter struct {
	provider string
}

var _ provider.Adapter = (*Adapter)(nil)

// New returns a mock adapter answering as providerName.
func New(providerName string) *Adapter {
	return &Adapter{provider: providerName}
}

func (a *Adapter) Name() string {
	return a.provider
}

// Invoke never fails.
func (a *Adapter) Invoke(_ context.Context, call provider.Call) (*models.ChatResult, error) {
	res := Respond(a.provider, call.Model, call.Message)
	return &res, nil
}

// Content returns the canned sentence for providerName.
func Content(providerName string) string {
	if text, ok := templates[providerName]; ok {
		return text
	}
	return fmt.Sprintf("[MOCK] %s response", providerName)
}

// WordCount counts whitespace separated words.
func WordCount(message string) int {
	return len(strings.Fields(message))
}

// Respond is the pure mock answer for (providerName, model, message).
func Respond(providerName, model, message string) models.ChatResult {
	return models.ChatResult{
		Success:  true,
		Content:  Content(providerName),
		Model:    model,
		Provider: providerName,
		Mode:     models.ModeMock,
		Tokens:   models.ComputedUsage(WordCount(message), CompletionTokens),
	}
}
