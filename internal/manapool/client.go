// Package manapool is a client for the ManaPool seller API: paginated order
// listing, order details and fulfillment updates. Authentication failures
// surface as StopProcessingError so batch jobs stop instead of hammering
// the API with bad credentials.
package manapool

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cardshed/pickwick/internal/ratelimit"
)

const (
	defaultBaseURL = "https://www.manapool.com/api/v1"
	// pageSize is the order list page size; a short page ends pagination.
	pageSize                 = 100
	defaultRequestsPerSecond = 5
	defaultRetryAttempts     = 3
	userAgent                = "pickwick/1.0"
)

// APIError is a non-2xx seller API response that is not an auth failure
// or a rate limit.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("manapool API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("manapool API returned status %d: %s", e.StatusCode, e.Detail)
}

// HTTPDoer is the interface for making HTTP requests (allows mocking).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a ManaPool seller API client.
type Client struct {
	baseURL       string
	email         string
	token         string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
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

// NewClient creates a seller API client with the given credentials.
func NewClient(email, token string, opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		email:         email,
		token:         token,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		rateLimiter:   ratelimit.New("ManaPool", defaultRequestsPerSecond),
		retryAttempts: defaultRetryAttempts,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewClientFromConfig builds a client from configured credentials.
// Checks manapool.email and manapool.access_token, which the config layer
// also binds to the MANAPOOL_EMAIL and MANAPOOL_ACCESS_TOKEN environment
// variables.
func NewClientFromConfig(opts ...Option) (*Client, error) {
	email := viper.GetString("manapool.email")
	token := viper.GetString("manapool.access_token")
	if email == "" || token == "" {
		return nil, fmt.Errorf("ManaPool credentials not found in config (set manapool.email and manapool.access_token, or the MANAPOOL_EMAIL and MANAPOOL_ACCESS_TOKEN environment variables)")
	}
	return NewClient(email, token, opts...), nil
}

// ListOrders pages through the seller's orders until a short page.
func (c *Client) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	var orders []OrderSummary

	for offset := 0; ; offset += pageSize {
		endpoint := fmt.Sprintf("%s/seller/orders?limit=%d&offset=%d", c.baseURL, pageSize, offset)

		var page struct {
			Orders []OrderSummary `json:"orders"`
		}
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list orders at offset %d: %w", offset, err)
		}

		orders = append(orders, page.Orders...)
		if len(page.Orders) < pageSize {
			break
		}
	}

	slog.Debug("Listed seller orders", "count", len(orders))
	return orders, nil
}

// GetOrder fetches full order details including line items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	endpoint := fmt.Sprintf("%s/seller/orders/%s", c.baseURL, url.PathEscape(orderID))

	var payload struct {
		Order *Order `json:"order"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", orderID, err)
	}
	if payload.Order == nil {
		return nil, fmt.Errorf("order %s missing from response", orderID)
	}
	return payload.Order, nil
}

// UpdateFulfillment sets the fulfillment status of one order.
func (c *Client) UpdateFulfillment(ctx context.Context, orderID string, update FulfillmentUpdate) error {
	endpoint := fmt.Sprintf("%s/seller/orders/%s/fulfillment", c.baseURL, url.PathEscape(orderID))

	if err := c.doJSON(ctx, http.MethodPut, endpoint, update, nil); err != nil {
		return fmt.Errorf("failed to update fulfillment for order %s: %w", orderID, err)
	}

	slog.Debug("Updated order fulfillment", "order", orderID, "status", update.Status)
	return nil
}
