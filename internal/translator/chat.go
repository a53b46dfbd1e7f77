package translator

import (
	"encoding/json"
	"errors"
	"fmt"

	"ai-router/internal/models"
)

var (
	errMessageType  = errors.New("'message' must be a string")
	errProviderType = errors.New("'provider' must be a string")
	errModelType    = errors.New("'model' must be a string")
)

// ChatRequest models the /chat request payload.
type ChatRequest struct {
	Message  string
	Provider string
	Model    string
}

// UnmarshalJSON accepts absent or null fields and rejects non-string values.
// Presence of a non-empty message is checked by the router, not here.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Message  json.RawMessage `json:"message"`
		Provider json.RawMessage `json:"provider"`
		Model    json.RawMessage `json:"model"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode chat request: %w", err)
	}

	var err error
	if r.Message, err = optionalString(raw.Message, errMessageType); err != nil {
		return err
	}
	if r.Provider, err = optionalString(raw.Provider, errProviderType); err != nil {
		return err
	}
	if r.Model, err = optionalString(raw.Model, errModelType); err != nil {
		return err
	}
	return nil
}

// ToUnified converts the wire request into the canonical format.
func (r ChatRequest) ToUnified() models.ChatRequest {
	return models.ChatRequest{
		Message:  r.Message,
		Provider: r.Provider,
		Model:    r.Model,
	}
}

// ChatExample is returned alongside validation errors.
var ChatExample = map[string]string{
	"message":  "What is AI?",
	"provider": "ollama",
	"model":    "mistral",
}

func optionalString(raw json.RawMessage, typeErr error) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", typeErr
	}
	return s, nil
}
