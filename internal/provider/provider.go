package provider

import (
	"context"
	"errors"
	"fmt"

	"ai-router/internal/models"
)

// ErrInvalidRequest marks failures caused by the caller's input. They are
// never substituted with a mock answer.
var ErrInvalidRequest = errors.New("invalid request")

// ErrAdapterFault marks a programming error inside an adapter. Like
// ErrInvalidRequest it is never substituted with a mock answer.
var ErrAdapterFault = errors.New("adapter fault")

// ErrCredentialsMissing indicates a cloud provider has no API key configured.
var ErrCredentialsMissing = errors.New("credentials not configured")

// Call is a single normalized invocation of an adapter.
type Call struct {
	Message string
	Model   string
}

// Adapter knows how to call one provider family and translate its response.
// A returned error is recoverable unless IsHardFailure reports otherwise.
type Adapter interface {
	Name() string
	Invoke(ctx context.Context, call Call) (*models.ChatResult, error)
}

// FailureKind classifies recoverable upstream failures.
type FailureKind string

const (
	FailureUnreachable FailureKind = "unreachable"
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureStatus      FailureKind = "status"
	FailureCredentials FailureKind = "credentials"
	FailureDecode      FailureKind = "decode"
)

// UpstreamError describes a provider failure the caller should not see verbatim.
type UpstreamError struct {
	Provider string
	Kind     FailureKind
	Reason   string
	Details  string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Reason)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// MissingCredentials builds the error cloud adapters return before any network call.
func MissingCredentials(provider, envVar string) *UpstreamError {
	return &UpstreamError{
		Provider: provider,
		Kind:     FailureCredentials,
		Reason:   fmt.Sprintf("%s credentials not configured: set %s", provider, envVar),
		Err:      ErrCredentialsMissing,
	}
}

// IsHardFailure reports whether err must be propagated without fallback.
func IsHardFailure(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrAdapterFault)
}

// FailureReason extracts the human readable reason and raw details from err.
func FailureReason(err error) (reason, details string) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Reason, upstream.Details
	}
	return err.Error(), ""
}
