package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ai-router/internal/config"
	"ai-router/internal/models"
	"ai-router/internal/provider"
)

const (
	name      = "gemini"
	keyEnvVar = "GEMINI_API_KEY"
)

// Provider implements the Gemini generateContent API.
type Provider struct {
	apiKey  string
	baseURL string
	headers map[string]string
	client  *http.Client
}

var _ provider.Adapter = (*Provider)(nil)

// New constructs a Gemini provider. An empty API key is accepted; every call
// then fails recoverably without touching the network.
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
		baseURL: baseURL,
		headers: cfg.Headers,
		client:  client,
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

	payload := generatePayload{
		Contents: []content{
			{Parts: []part{{Text: call.Message}}},
		},
	}

	body, err := provider.PostJSON(ctx, p.client, name, p.endpoint(call.Model), p.requestHeaders(), payload)
	if err != nil {
		return nil, describe(err)
	}

	var doc map[string]any
	if err := provider.DecodeJSON(name, body, &doc); err != nil {
		return nil, describe(err)
	}

	resp := decodeGenerateResponse(doc)
	return &models.ChatResult{
		Success:  true,
		Content:  resp.Text,
		Model:    call.Model,
		Provider: name,
		Mode:     models.ModeLive,
		Tokens: models.TokenUsage{
			Prompt:     resp.PromptTokens,
			Completion: resp.CandidatesTokens,
			Total:      resp.TotalTokens,
		},
		Metadata: map[string]any{
			"finish_reason":  resp.FinishReason,
			"safety_ratings": resp.SafetyRatings,
		},
	}, nil
}

func (p *Provider) endpoint(model string) string {
	return fmt.Sprintf("%s/v1/models/%s:generateContent", p.baseURL, url.PathEscape(model))
}

// The key travels in a header, never in the URL.
func (p *Provider) requestHeaders() map[string]string {
	headers := make(map[string]string, len(p.headers)+1)
	for k, v := range p.headers {
		headers[k] = v
	}
	headers["x-goog-api-key"] = p.apiKey
	return headers
}

func describe(err error) error {
	var upstream *provider.UpstreamError
	if !errors.As(err, &upstream) {
		return err
	}
	if upstream.Kind == provider.FailureStatus {
		upstream.Reason = fmt.Sprintf("Gemini error: %d", upstream.Status)
	} else {
		upstream.Reason = fmt.Sprintf("Gemini error: %s", upstream.Reason)
	}
	return upstream
}

type generatePayload struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}
