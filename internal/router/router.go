package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ai-router/internal/catalogue"
	"ai-router/internal/metrics"
	"ai-router/internal/models"
	"ai-router/internal/provider"
	"ai-router/internal/provider/mock"
)

// DefaultTimeout bounds every live adapter call unless overridden.
const DefaultTimeout = 30 * time.Second

const unknownProviderLabel = "unknown"

// ErrMissingMessage is returned when a request has no usable message.
var ErrMissingMessage = fmt.Errorf("%w: missing 'message' in request body", provider.ErrInvalidRequest)

// Router dispatches chat requests to the appropriate provider adapter and
// always answers with a ChatEnvelope unless the request itself is invalid.
type Router struct {
	registry *provider.Registry
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// Option customises a Router.
type Option func(*Router)

// WithTimeout overrides the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock sets the source of envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithIDGenerator sets the request identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(r *Router) {
		r.newID = newID
	}
}

// WithMetrics records every routed request on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithLogger sets the logger used for fallback and failure events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// New constructs a router backed by the provided registry.
func New(registry *provider.Registry, opts ...Option) (*Router, error) {
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}

	r := &Router{
		registry: registry,
		timeout:  DefaultTimeout,
		now:      time.Now,
		newID:    newRequestID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Route validates req, invokes the selected adapter under the deadline,
// normalizes the outcome, applies the fallback policy and assembles the
// envelope. The only error it returns is ErrMissingMessage.
func (r *Router) Route(ctx context.Context, req models.ChatRequest) (*models.ChatEnvelope, error) {
	if req.Message == "" {
		return nil, ErrMissingMessage
	}

	providerID := catalogue.Normalize(req.Provider)
	providerName := string(providerID)

	model := req.Model
	if model == "" {
		if def, ok := r.registry.Catalogue().DefaultModelFor(providerID); ok {
			model = def
		}
	}

	call := provider.Call{Message: req.Message, Model: model}
	requestID := r.newID()
	label := providerName

	start := time.Now()
	var normalized models.ChatResult
	if adapter, ok := r.registry.Lookup(providerID); ok {
		res, err := r.invoke(ctx, adapter, call)
		normalized = Normalize(res, err, model, providerName)
	} else {
		label = unknownProviderLabel
		res, err := mock.New(providerName).Invoke(ctx, call)
		normalized = Normalize(res, err, model, providerName)
	}
	latency := time.Since(start)

	final := ApplyFallback(normalized, providerName, model, req.Message)

	env := &models.ChatEnvelope{
		Success: final.Success,
		Request: models.EnvelopeRequest{
			Message:  req.Message,
			Model:    req.Model,
			Provider: providerName,
		},
		Response: models.EnvelopeResponse{
			Content:  final.Content,
			Model:    firstNonEmpty(final.Model, model),
			Provider: firstNonEmpty(final.Provider, providerName),
			Tokens:   final.Tokens,
			Mode:     firstNonEmpty(final.Mode, models.ModeLive),
		},
		Metadata: models.EnvelopeMetadata{
			Timestamp:     r.now().UTC().Format(time.RFC3339Nano),
			LatencyMS:     latency.Milliseconds(),
			RequestID:     requestID,
			ProviderExtra: cloneMetadata(final.Metadata),
		},
		FallbackUsed: final.FallbackUsed,
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case !final.Success:
		env.Error, env.ErrorDetails = final.Error, final.ErrorDetails
		outcome = metrics.OutcomeError
		r.logger.Error("provider failed without fallback",
			"provider", providerName,
			"model", model,
			"request_id", requestID,
			"reason", final.Error,
		)
	case final.FallbackUsed:
		env.Error, env.ErrorDetails = normalized.Error, normalized.ErrorDetails
		outcome = metrics.OutcomeFallback
		r.logger.Warn("provider unavailable, answered with mock",
			"provider", providerName,
			"model", model,
			"request_id", requestID,
			"reason", normalized.Error,
		)
	}

	r.metrics.ObserveRequest(label, env.Response.Mode, outcome, latency)
	return env, nil
}

// invoke runs adapter under the router deadline. The deadline is
// authoritative: a result arriving after it is discarded.
func (r *Router) invoke(ctx context.Context, adapter provider.Adapter, call provider.Call) (*models.ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		res *models.ChatResult
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%w: %s panicked: %v", provider.ErrAdapterFault, adapter.Name(), p)}
			}
		}()
		res, err := adapter.Invoke(ctx, call)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &provider.UpstreamError{
				Provider: adapter.Name(),
				Kind:     provider.FailureCanceled,
				Reason:   fmt.Sprintf("%s error: request cancelled by caller", adapter.Name()),
				Err:      ctx.Err(),
			}
		}
		return nil, &provider.UpstreamError{
			Provider: adapter.Name(),
			Kind:     provider.FailureTimeout,
			Reason:   fmt.Sprintf("%s error: no response within %s", adapter.Name(), r.timeout),
			Err:      ctx.Err(),
		}
	}
}

func newRequestID() string {
	return "req_" + uuid.NewString()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneMetadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
