// Package scryfall resolves card printings against the Scryfall API with
// SQLite-backed response caching, per-run memoization and polite rate
// limiting.
package scryfall

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cardshed/pickwick/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.scryfall.com"
	// Scryfall asks clients to stay at or below roughly 10 requests per second.
	defaultRequestsPerSecond = 10
	defaultRetryAttempts     = 3
	cacheTable               = "scryfall_cache"
	userAgent                = "pickwick/1.0"
)

// NotFoundError means Scryfall has no printing matching the lookup.
type NotFoundError struct {
	Name   string
	Set    string
	Number string
}

func (e *NotFoundError) Error() string {
	if e.Set != "" && e.Number != "" {
		return fmt.Sprintf("scryfall: no printing %s/%s (%s)", strings.ToLower(e.Set), e.Number, e.Name)
	}
	return fmt.Sprintf("scryfall: no card named %q", e.Name)
}

// IsNotFound reports whether err is a NotFoundError (even when wrapped).
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return stdErrors.As(err, &nfErr)
}

// APIError is a non-2xx Scryfall response other than 404 and 429.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("scryfall API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("scryfall API returned status %d: %s", e.StatusCode, e.Detail)
}

// HTTPDoer is the interface for making HTTP requests (allows mocking).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type memoEntry struct {
	card *Card
	err  error
}

// Client is a Scryfall API client. A single client memoizes lookups for its
// lifetime, so one client should live for the whole pipeline run.
type Client struct {
	baseURL       string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
	updateImages  bool

	mu   sync.Mutex
	memo map[string]memoEntry
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(httpClient HTTPDoer) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithBaseURL sets a custom API base URL (useful for testing).
func WithBaseURL(baseURL string) Option {
	return func(client *Client) {
		if baseURL != "" {
			client.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithRetryAttempts sets the number of attempts for failed requests.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithImageRefresh makes EnsureImage re-download images that already exist
// on disk. Maps the --update-images flag.
func WithImageRefresh(update bool) Option {
	return func(client *Client) {
		client.updateImages = update
	}
}

// NewClient creates a new Scryfall API client with default settings.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		rateLimiter:   ratelimit.New("Scryfall", defaultRequestsPerSecond),
		retryAttempts: defaultRetryAttempts,
		memo:          make(map[string]memoEntry),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// LookupKey builds the cache key for one printing lookup.
// Key format: printing_{set}_{number} when both are known,
// name_{normalized_name} otherwise.
func LookupKey(name, set, number string) string {
	set = strings.ToLower(strings.TrimSpace(set))
	number = strings.ToLower(strings.TrimSpace(number))
	if set != "" && number != "" {
		return fmt.Sprintf("printing_%s_%s", set, normalizeKey(number))
	}
	return "name_" + normalizeKey(name)
}

// normalizeKey normalizes a string for use in a cache key.
func normalizeKey(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, normalized)
	return normalized
}
