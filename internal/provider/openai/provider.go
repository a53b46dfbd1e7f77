package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ai-router/internal/config"
	"ai-router/internal/models"
	"ai-router/internal/provider"
)

const (
	name      = "openai"
	keyEnvVar = "OPENAI_API_KEY"
)

// Provider implements the OpenAI chat completions API.
type Provider struct {
	apiKey  string
	headers map[string]string
	client  *http.Client
	chatURL string
}

var _ provider.Adapter = (*Provider)(nil)

// New creates a new OpenAI provider.
func New(cfg config.CloudConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		headers: cfg.Headers,
		client:  client,
		chatURL: baseURL + "/chat/completions",
	}, nil
}

func (p *Provider) Name() string {
	return name
}

// Configured reports whether an API key is present.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

func (p *Provider) Invoke(ctx context.Context, call provider.Call) (*models.ChatResult, error) {
	if !p.Configured() {
		return nil, provider.MissingCredentials(name, keyEnvVar)
	}

	payload := chatPayload{
		Model: call.Model,
		Messages: []chatMessage{
			{Role: "user", Content: call.Message},
		},
	}

	body, err := provider.PostJSON(ctx, p.client, name, p.chatURL, p.requestHeaders(), payload)
	if err != nil {
		return nil, describe(err)
	}

	var resp chatResponse
	if err := provider.DecodeJSON(name, body, &resp); err != nil {
		return nil, describe(err)
	}

	return resp.toResult(call.Model), nil
}

func (p *Provider) requestHeaders() map[string]string {
	headers := make(map[string]string, len(p.headers)+1)
	headers["Authorization"] = "Bearer " + p.apiKey
	for k, v := range p.headers {
		headers[k] = v
	}
	return headers
}

func describe(err error) error {
	var upstream *provider.UpstreamError
	if !errors.As(err, &upstream) {
		return err
	}
	if upstream.Kind == provider.FailureStatus {
		upstream.Reason = fmt.Sprintf("OpenAI error: %d", upstream.Status)
	} else {
		upstream.Reason = fmt.Sprintf("OpenAI error: %s", upstream.Reason)
	}
	return upstream
}

type chatPayload struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse fields are all optional: a missing choice yields empty
// content, missing or malformed usage counters yield 0.
type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   usageBlock   `json:"usage"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type usageBlock struct {
	PromptTokens     provider.Count `json:"prompt_tokens"`
	CompletionTokens provider.Count `json:"completion_tokens"`
	TotalTokens      provider.Count `json:"total_tokens"`
}

func (r chatResponse) toResult(model string) *models.ChatResult {
	var choice chatChoice
	if len(r.Choices) > 0 {
		choice = r.Choices[0]
	}

	return &models.ChatResult{
		Success:  true,
		Content:  choice.Message.Content,
		Model:    model,
		Provider: name,
		Mode:     models.ModeLive,
		Tokens: models.TokenUsage{
			Prompt:     r.Usage.PromptTokens.Int(),
			Completion: r.Usage.CompletionTokens.Int(),
			Total:      r.Usage.TotalTokens.Int(),
		},
		Metadata: map[string]any{
			"finish_reason": choice.FinishReason,
			"id":            r.ID,
		},
	}
}
