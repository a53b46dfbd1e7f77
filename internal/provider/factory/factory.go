package factory

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ai-router/internal/catalogue"
	"ai-router/internal/config"
	"ai-router/internal/provider"
	anthropicProvider "ai-router/internal/provider/anthropic"
	geminiProvider "ai-router/internal/provider/gemini"
	ollamaProvider "ai-router/internal/provider/ollama"
	openaiProvider "ai-router/internal/provider/openai"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// Providers holds the constructed live adapters and the registry over them.
type Providers struct {
	Registry  *provider.Registry
	Ollama    *ollamaProvider.Provider
	Gemini    *geminiProvider.Provider
	OpenAI    *openaiProvider.Provider
	Anthropic *anthropicProvider.Provider
}

// Build constructs every live adapter from configuration and binds them to cat.
func Build(cfg config.Config, cat *catalogue.Catalogue) (*Providers, error) {
	out := &Providers{}
	var err error

	out.Ollama, err = ollamaProvider.New(cfg.Providers.Ollama, newHTTPClient(cfg.Upstream.Timeout))
	if err != nil {
		return nil, fmt.Errorf("initialise ollama provider: %w", err)
	}

	out.Gemini, err = geminiProvider.New(cfg.Providers.Gemini, newHTTPClient(cfg.Upstream.Timeout))
	if err != nil {
		return nil, fmt.Errorf("initialise gemini provider: %w", err)
	}

	out.OpenAI, err = openaiProvider.New(cfg.Providers.OpenAI, newHTTPClient(cfg.Upstream.Timeout))
	if err != nil {
		return nil, fmt.Errorf("initialise openai provider: %w", err)
	}

	out.Anthropic, err = anthropicProvider.New(cfg.Providers.Anthropic, newHTTPClient(cfg.Upstream.Timeout))
	if err != nil {
		return nil, fmt.Errorf("initialise anthropic provider: %w", err)
	}

	out.Registry, err = provider.NewRegistry(cat, provider.Adapters{
		Ollama:    out.Ollama,
		Gemini:    out.Gemini,
		OpenAI:    out.OpenAI,
		Anthropic: out.Anthropic,
	})
	if err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}

	return out, nil
}

// Status reports per-provider availability: a live ping for the local
// daemon, credential presence for cloud providers.
func (p *Providers) Status(ctx context.Context) map[string]bool {
	return map[string]bool{
		string(catalogue.Ollama):    p.Ollama.Ping(ctx),
		string(catalogue.Gemini):    p.Gemini.Configured(),
		string(catalogue.OpenAI):    p.OpenAI.Configured(),
		string(catalogue.Anthropic): p.Anthropic.Configured(),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
