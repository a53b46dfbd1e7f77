package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-router/internal/provider/mock"
)

const (
	defaultCompletionModel = "gpt-4"
	promptPreviewRunes     = 50
)

// CompletionRequest models the OpenAI-style /completions request payload.
type CompletionRequest struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// UnmarshalJSON tolerates a missing prompt and accepts string or string-array prompts.
func (r *CompletionRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Model     string          `json:"model"`
		Prompt    json.RawMessage `json:"prompt"`
		MaxTokens *int            `json:"max_tokens"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode completion request: %w", err)
	}

	prompt, err := extractPrompt(raw.Prompt)
	if err != nil {
		return err
	}

	r.Model = strings.TrimSpace(raw.Model)
	if r.Model == "" {
		r.Model = defaultCompletionModel
	}
	r.Prompt = prompt
	r.MaxTokens = 1024
	if raw.MaxTokens != nil {
		r.MaxTokens = *raw.MaxTokens
	}
	return nil
}

// CompletionResponse models the OpenAI completion response payload.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   CompletionUsage    `json:"usage"`
}

// CompletionChoice represents a single completion choice.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

// CompletionUsage mirrors the OpenAI usage block.
type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// MockCompletion answers a completion request without calling any provider.
func MockCompletion(req CompletionRequest, now time.Time) CompletionResponse {
	promptTokens := mock.WordCount(req.Prompt)

	return CompletionResponse{
		ID:      fmt.Sprintf("cmpl-%d", now.UnixMilli()),
		Object:  "text_completion",
		Created: now.Unix(),
		Model:   req.Model,
		Choices: []CompletionChoice{
			{
				Text:         fmt.Sprintf("Mock completion for: %s...", preview(req.Prompt)),
				Index:        0,
				FinishReason: "stop",
			},
		},
		Usage: CompletionUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: mock.CompletionTokens,
			TotalTokens:      promptTokens + mock.CompletionTokens,
		},
	}
}

func preview(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > promptPreviewRunes {
		runes = runes[:promptPreviewRunes]
	}
	return string(runes)
}

func extractPrompt(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var parts []string
	if err := json.Unmarshal(raw, &parts); err == nil {
		return strings.Join(parts, "\n"), nil
	}

	return "", errors.New("unsupported prompt type")
}
