package models

// Response modes reported in ChatEnvelope.Response.Mode.
const (
	ModeLive = "live"
	ModeMock = "mock"
)

// ChatRequest is the canonical inbound chat request.
type ChatRequest struct {
	Message  string
	Provider string
	Model    string
}

// TokenUsage records token accounting information.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// ComputedUsage builds a TokenUsage whose total is the sum of its parts.
func ComputedUsage(prompt, completion int) TokenUsage {
	return TokenUsage{
		Prompt:     prompt,
		Completion: completion,
		Total:      prompt + completion,
	}
}

// FailureClass tells the fallback policy whether a failed result may be substituted.
type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureRecoverable
	FailureHard
)

// ChatResult is a provider response (or failure) in the unified schema.
type ChatResult struct {
	Success      bool
	Content      string
	Model        string
	Provider     string
	Mode         string
	Tokens       TokenUsage
	Metadata     map[string]any
	Error        string
	ErrorDetails string
	Failure      FailureClass
	FallbackUsed bool
}

// ChatEnvelope is the response every /chat caller receives.
type ChatEnvelope struct {
	Success      bool             `json:"success"`
	Request      EnvelopeRequest  `json:"request"`
	Response     EnvelopeResponse `json:"response"`
	Metadata     EnvelopeMetadata `json:"metadata"`
	Error        string           `json:"error,omitempty"`
	ErrorDetails string           `json:"error_details,omitempty"`
	FallbackUsed bool             `json:"fallback_used,omitempty"`
}

// EnvelopeRequest echoes what the caller asked for.
type EnvelopeRequest struct {
	Message  string `json:"message"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// EnvelopeResponse carries the (possibly substituted) answer.
type EnvelopeResponse struct {
	Content  string     `json:"content"`
	Model    string     `json:"model"`
	Provider string     `json:"provider"`
	Tokens   TokenUsage `json:"tokens"`
	Mode     string     `json:"mode"`
}

// EnvelopeMetadata holds the reserved metadata keys. Provider specific keys
// live under ProviderExtra so they can never shadow the reserved ones.
type EnvelopeMetadata struct {
	Timestamp     string         `json:"timestamp"`
	LatencyMS     int64          `json:"latency_ms"`
	RequestID     string         `json:"request_id"`
	ProviderExtra map[string]any `json:"provider_extra,omitempty"`
}
