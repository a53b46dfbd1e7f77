package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "ai-router/0.1"
	maxErrorBody    = 64 * 1024
	maxResponseBody = 8 << 20
)

// PostJSON sends payload to url and returns the body of a 2xx response.
// Every failure is returned as *UpstreamError with a generic reason; adapters
// rewrite the reason for their provider.
func PostJSON(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			raw = []byte(fmt.Sprintf("failed to read error body: %v", readErr))
		}
		return nil, &UpstreamError{
			Provider: providerName,
			Kind:     FailureStatus,
			Reason:   fmt.Sprintf("upstream error status %d", resp.StatusCode),
			Details:  strings.TrimSpace(string(raw)),
			Status:   resp.StatusCode,
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, classifyTransportError(ctx, providerName, err)
	}
	return raw, nil
}

// Get issues a GET and reports whether the upstream answered with 2xx.
func Get(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// DecodeJSON unmarshals a provider response body.
func DecodeJSON(providerName string, body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return &UpstreamError{
			Provider: providerName,
			Kind:     FailureDecode,
			Reason:   "decode provider response",
			Details:  truncate(string(body), maxErrorBody),
			Err:      err,
		}
	}
	return nil
}

func classifyTransportError(ctx context.Context, providerName string, err error) *UpstreamError {
	if isTimeout(ctx, err) {
		return &UpstreamError{
			Provider: providerName,
			Kind:     FailureTimeout,
			Reason:   "request timed out",
			Err:      err,
		}
	}
	return &UpstreamError{
		Provider: providerName,
		Kind:     FailureUnreachable,
		Reason:   "connection failed",
		Err:      err,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
