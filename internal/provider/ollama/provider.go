package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-router/internal/config"
	"ai-router/internal/models"
	"ai-router/internal/provider"
)

const (
	name        = "ollama"
	pingTimeout = 2 * time.Second
)

// Provider talks to a local Ollama daemon.
type Provider struct {
	client      *http.Client
	generateURL string
	tagsURL     string
}

var _ provider.Adapter = (*Provider)(nil)

// New constructs an Ollama provider instance.
func New(cfg config.OllamaConfig, client *http.Client) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Provider{
		client:      client,
		generateURL: baseURL + "/api/generate",
		tagsURL:     baseURL + "/api/tags",
	}, nil
}

func (p *Provider) Name() string {
	return name
}

func (p *Provider) Invoke(ctx context.Context, call provider.Call) (*models.ChatResult, error) {
	payload := generatePayload{
		Model:  call.Model,
		Prompt: call.Message,
		Stream: false,
	}

	body, err := provider.PostJSON(ctx, p.client, name, p.generateURL, nil, payload)
	if err != nil {
		return nil, describe(err, call.Model)
	}

	var resp generateResponse
	if err := provider.DecodeJSON(name, body, &resp); err != nil {
		return nil, describe(err, call.Model)
	}

	return resp.toResult(call.Model), nil
}

// Ping reports whether the daemon answers its tag listing.
func (p *Provider) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return provider.Get(ctx, p.client, p.tagsURL)
}

func describe(err error, model string) error {
	var upstream *provider.UpstreamError
	if !errors.As(err, &upstream) {
		return err
	}

	switch upstream.Kind {
	case provider.FailureUnreachable:
		if model == "" {
			model = "mistral"
		}
		upstream.Reason = fmt.Sprintf("Ollama not running. Start with: ollama run %s", model)
	case provider.FailureStatus:
		upstream.Reason = fmt.Sprintf("Ollama error: %d", upstream.Status)
	default:
		upstream.Reason = fmt.Sprintf("Ollama error: %s", upstream.Reason)
	}
	return upstream
}

type generatePayload struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse fields are all optional; absent or malformed counters
// decode as 0.
type generateResponse struct {
	Response        string         `json:"response"`
	PromptEvalCount provider.Count `json:"prompt_eval_count"`
	EvalCount       provider.Count `json:"eval_count"`
	TotalDuration   provider.Count `json:"total_duration"`
	LoadDuration    provider.Count `json:"load_duration"`
	EvalDuration    provider.Count `json:"eval_duration"`
}

func (r generateResponse) toResult(model string) *models.ChatResult {
	return &models.ChatResult{
		Success:  true,
		Content:  r.Response,
		Model:    model,
		Provider: name,
		Mode:     models.ModeLive,
		Tokens:   models.ComputedUsage(r.PromptEvalCount.Int(), r.EvalCount.Int()),
		Metadata: map[string]any{
			"total_duration": int64(r.TotalDuration),
			"load_duration":  int64(r.LoadDuration),
			"eval_duration":  int64(r.EvalDuration),
		},
	}
}
