package scryfall

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cardshed/pickwick/internal/errors"
)

// getJSON performs a rate-limited GET request with retries and exponential
// backoff, decoding the response body into target.
func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err

		var rateErr *errors.RateLimitError
		if stdErrors.As(err, &rateErr) {
			if attempt == c.retryAttempts {
				break
			}
			delay := rateErr.RetryAfter
			if delay <= 0 {
				delay = backoffDelay(attempt)
			}
			slog.Warn("Scryfall rate limited, waiting before retry",
				"delay", delay,
				"attempt", attempt,
				"max_attempts", c.retryAttempts)
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
			continue
		}

		if !isRetryable(err) || attempt == c.retryAttempts {
			return err
		}

		delay := backoffDelay(attempt)
		slog.Debug("Retrying Scryfall request",
			"endpoint", endpoint,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// doJSONRequest performs a single GET request and decodes the response.
// 404 maps to NotFoundError and 429 to RateLimitError carrying the
// server's Retry-After delay; any other non-2xx status becomes an APIError.
func (c *Client) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return &NotFoundError{}
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return errors.NewRateLimitErrorWithRetry("Scryfall rate limit exceeded", retryAfter)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorDetail extracts the details field from a Scryfall error body,
// falling back to the raw (truncated) body text.
func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return ""
	}

	var scryfallErr struct {
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &scryfallErr); err == nil && scryfallErr.Details != "" {
		return scryfallErr.Details
	}
	return strings.TrimSpace(string(body))
}

// parseRetryAfter reads a Retry-After header given as whole seconds.
// Returns zero for absent or unparseable values.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// isRetryable determines if an error is worth retrying: network timeouts,
// connection failures and server-side 5xx responses.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if stdErrors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	var urlErr *url.Error
	if stdErrors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		return strings.Contains(urlErr.Error(), "connection")
	}

	return false
}

// backoffDelay returns exponential backoff: 1s, 2s, 4s... capped at 10s.
func backoffDelay(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}
	return delay
}

// sleepContext waits for the delay or until the context is cancelled.
func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
