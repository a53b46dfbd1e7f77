package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = 8080
	defaultTimeout          = 30 * time.Second
	defaultOllamaBaseURL    = "http://localhost:11434"
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicVersion = "2023-06-01"
	defaultAnthropicTokens  = 1024
)

// Config represents the application configuration. It is resolved once at
// startup and treated as immutable afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// UpstreamConfig bounds every live provider call.
type UpstreamConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ProvidersConfig catalogues upstream provider settings.
type ProvidersConfig struct {
	Ollama    OllamaConfig    `yaml:"ollama"`
	Gemini    CloudConfig     `yaml:"gemini"`
	OpenAI    CloudConfig     `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// OllamaConfig points at the local inference daemon.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// CloudConfig captures authentication and routing info for a hosted provider.
// An empty APIKey is valid: the adapter then always reports missing credentials.
type CloudConfig struct {
	APIKey  string  `yaml:"api_key"`
	BaseURL string  `yaml:"base_url"`
	Headers Headers `yaml:"headers"`
}

// AnthropicConfig extends CloudConfig with Messages API knobs.
type AnthropicConfig struct {
	CloudConfig `yaml:",inline"`
	Version     string `yaml:"version"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// Headers contains additional HTTP headers to send with a provider request.
type Headers map[string]string

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: defaultPort},
		Upstream: UpstreamConfig{Timeout: defaultTimeout},
		Providers: ProvidersConfig{
			Ollama: OllamaConfig{BaseURL: defaultOllamaBaseURL},
			Gemini: CloudConfig{BaseURL: defaultGeminiBaseURL},
			OpenAI: CloudConfig{BaseURL: defaultOpenAIBaseURL},
			Anthropic: AnthropicConfig{
				CloudConfig: CloudConfig{BaseURL: defaultAnthropicBaseURL},
				Version:     defaultAnthropicVersion,
				MaxTokens:   defaultAnthropicTokens,
			},
		},
	}
}

// Load reads optional YAML configuration from disk on top of the defaults,
// applies environment overrides and validates the result. An empty path
// skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays the process environment, read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PORT must be an integer, got %q", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("OLLAMA_BASE_URL"); ok && strings.TrimSpace(v) != "" {
		c.Providers.Ollama.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok && strings.TrimSpace(v) != "" {
		c.Providers.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && strings.TrimSpace(v) != "" {
		c.Providers.OpenAI.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("ANTHROPIC_API_KEY"); ok && strings.TrimSpace(v) != "" {
		c.Providers.Anthropic.APIKey = strings.TrimSpace(v)
	}
	return nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}

	if err := validateBaseURL("ollama", c.Providers.Ollama.BaseURL); err != nil {
		return err
	}

	cloud := map[string]CloudConfig{
		"gemini":    c.Providers.Gemini,
		"openai":    c.Providers.OpenAI,
		"anthropic": c.Providers.Anthropic.CloudConfig,
	}
	for name, provider := range cloud {
		if err := validateCloud(name, provider); err != nil {
			return err
		}
	}

	if c.Providers.Anthropic.MaxTokens <= 0 {
		return fmt.Errorf("provider anthropic: max_tokens must be positive, got %d", c.Providers.Anthropic.MaxTokens)
	}
	if strings.TrimSpace(c.Providers.Anthropic.Version) == "" {
		return fmt.Errorf("provider anthropic: version must be provided")
	}

	return nil
}

func validateCloud(name string, provider CloudConfig) error {
	if err := validateBaseURL(name, provider.BaseURL); err != nil {
		return err
	}

	for headerKey := range provider.Headers {
		if !isCanonicalHTTPHeader(headerKey) {
			return fmt.Errorf("provider %s: header %q is not a valid canonical HTTP header", name, headerKey)
		}
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("provider %s: base_url must be provided", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("provider %s: invalid base_url %q: %w", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("provider %s: base_url %q must use http or https", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("provider %s: base_url %q must include a host", name, raw)
	}
	return nil
}

func isCanonicalHTTPHeader(header string) bool {
	if header == "" {
		return false
	}

	for _, r := range header {
		if !(r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}
