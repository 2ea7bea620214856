package manapool

import (
	"bytes"
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

// doJSON performs a rate-limited request with retries, encoding body as
// JSON when present and decoding the response into target when non-nil.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, target any) error {
	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doRequest(ctx, method, endpoint, body, target)
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
			slog.Warn("ManaPool rate limited, waiting before retry",
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
		slog.Debug("Retrying ManaPool request",
			"method", method,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// doRequest performs a single request. 401/403 become StopProcessingError
// (bad credentials fail every subsequent call, so the batch should stop),
// 429 becomes RateLimitError carrying the Retry-After delay, and any other
// non-2xx status becomes an APIError.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-ManaPool-Email", c.email)
	req.Header.Set("X-ManaPool-Access-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return errors.NewStopProcessingError(
			fmt.Sprintf("ManaPool authentication failed (status %d): check manapool.email and manapool.access_token", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return errors.NewRateLimitErrorWithRetry("ManaPool rate limit exceeded", retryAfter)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readErrorDetail extracts an error message from a seller API error body,
// falling back to the raw (truncated) body text.
func readErrorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return ""
	}

	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return apiErr.Error
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// parseRetryAfter reads a Retry-After header given as whole seconds.
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
// connection failures and server-side 5xx responses. Auth failures are
// never retried.
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
