// Package provider holds the HTTP plumbing shared by the outbound
// collaborator clients (partner bank, customer directory).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
)

// JSONClient issues JSON requests and classifies failures as domain errors:
// transport errors become CONNECTION_FAILURE, deadlines TIMEOUT, 5xx and 429
// UPSTREAM_ERROR. Other non-2xx statuses are returned as *StatusError.
type JSONClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewJSONClient creates a JSONClient. A zero timeout means no client timeout;
// callers usually bound calls through the resilience pipeline instead.
func NewJSONClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *JSONClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// StatusError is a non-2xx response the caller may want to interpret.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// Do sends body (when non-nil) as JSON and decodes a 2xx response into out
// (when non-nil). headers are added to the request.
func (c *JSONClient) Do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn("upstream error", "method", method, "path", path, "status", resp.StatusCode)
			return domain.ErrUpstream.WithDetail("%s %s", method, path).Wrap(serr)
		}
		return serr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.ErrUpstream.WithDetail("failed to decode response of %s %s", method, path).Wrap(err)
	}
	return nil
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrTimeout.WithDetail("request timed out").Wrap(err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrTimeout.WithDetail("request timed out").Wrap(err)
	}
	return domain.ErrConnectionFailure.Wrap(err)
}

// IsStatus reports whether err is a *StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode == code
}
