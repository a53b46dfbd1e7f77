package anthropic

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
	name      = "anthropic"
	keyEnvVar = "ANTHROPIC_API_KEY"
)

// Provider implements Anthropic Messages API interactions.
type Provider struct {
	apiKey    string
	version   string
	maxTokens int
	headers   map[string]string
	client    *http.Client
	messages  string
}

var _ provider.Adapter = (*Provider)(nil)

// New constructs an Anthropic provider instance.
func New(cfg config.AnthropicConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}
	if cfg.MaxTokens <= 0 {
		return nil, errors.New("max tokens must be positive")
	}

	return &Provider{
		apiKey:    cfg.APIKey,
		version:   cfg.Version,
		maxTokens: cfg.MaxTokens,
		headers:   cfg.Headers,
		client:    client,
		messages:  baseURL + "/v1/messages",
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

	payload := messagePayload{
		Model:     call.Model,
		MaxTokens: p.maxTokens,
		Messages: []message{
			{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: call.Message}},
			},
		},
	}

	body, err := provider.PostJSON(ctx, p.client, name, p.messages, p.requestHeaders(), payload)
	if err != nil {
		return nil, describe(err)
	}

	var resp messageResponse
	if err := provider.DecodeJSON(name, body, &resp); err != nil {
		return nil, describe(err)
	}

	return resp.toResult(call.Model), nil
}

func (p *Provider) requestHeaders() map[string]string {
	headers := make(map[string]string, len(p.headers)+2)
	headers["x-api-key"] = p.apiKey
	headers["anthropic-version"] = p.version
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
		upstream.Reason = fmt.Sprintf("Anthropic error: %d", upstream.Status)
	} else {
		upstream.Reason = fmt.Sprintf("Anthropic error: %s", upstream.Reason)
	}
	return upstream
}

type messagePayload struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messageResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	Usage      usageBlock     `json:"usage"`
	StopReason string         `json:"stop_reason"`
}

type usageBlock struct {
	InputTokens  provider.Count `json:"input_tokens"`
	OutputTokens provider.Count `json:"output_tokens"`
}

// toResult joins text blocks with one space and skips any other block type.
// Anthropic reports no total, so it is computed.
func (r messageResponse) toResult(model string) *models.ChatResult {
	texts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type != "text" {
			continue
		}
		texts = append(texts, block.Text)
	}

	return &models.ChatResult{
		Success:  true,
		Content:  strings.Join(texts, " "),
		Model:    model,
		Provider: name,
		Mode:     models.ModeLive,
		Tokens:   models.ComputedUsage(r.Usage.InputTokens.Int(), r.Usage.OutputTokens.Int()),
		Metadata: map[string]any{
			"stop_reason": r.StopReason,
			"id":          r.ID,
		},
	}
}
