package scryfall

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/cardshed/pickwick/internal/cache"
)

// cachedPrinting wraps a lookup result for caching. NotFound marks a
// negative entry, kept with the shorter negative-cache TTL so typos and
// unreleased cards get re-checked sooner.
type cachedPrinting struct {
	Card     *Card `json:"card"`
	NotFound bool  `json:"not_found"`
}

// GetPrinting resolves one printing, trying the exact set/collector-number
// endpoint first and falling back to a fuzzy name lookup. Results, including
// misses, are memoized for the lifetime of the client and persisted in the
// SQLite cache keyed by LookupKey.
func (c *Client) GetPrinting(ctx context.Context, name, set, number string) (*Card, error) {
	key := LookupKey(name, set, number)

	c.mu.Lock()
	if hit, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return hit.card, hit.err
	}
	c.mu.Unlock()

	card, err := c.getCachedPrinting(ctx, key, name, set, number)

	// Memoize resolved lookups so repeated identities cost one call per run.
	// Transient failures are not memoized; a later caller may succeed.
	if err == nil || IsNotFound(err) {
		c.mu.Lock()
		c.memo[key] = memoEntry{card: card, err: err}
		c.mu.Unlock()
	}

	return card, err
}

func (c *Client) getCachedPrinting(ctx context.Context, key, name, set, number string) (*Card, error) {
	result, fromCache, err := cache.GetOrFetchWithTTL(cacheTable, key, func() (*cachedPrinting, error) {
		card, fetchErr := c.fetchPrinting(ctx, name, set, number)
		if fetchErr != nil {
			if IsNotFound(fetchErr) {
				return &cachedPrinting{NotFound: true}, nil
			}
			return nil, fetchErr
		}
		return &cachedPrinting{Card: card}, nil
	}, cache.SelectNegativeCacheTTL(func(r *cachedPrinting) bool {
		return r == nil || r.NotFound
	}))
	if err != nil {
		return nil, err
	}

	if result == nil || result.NotFound {
		return nil, &NotFoundError{Name: name, Set: set, Number: number}
	}

	if fromCache {
		slog.Debug("Scryfall cache hit", "key", key)
	}
	return result.Card, nil
}

// fetchPrinting performs the actual API lookup.
func (c *Client) fetchPrinting(ctx context.Context, name, set, number string) (*Card, error) {
	if set != "" && number != "" {
		endpoint := fmt.Sprintf("%s/cards/%s/%s", c.baseURL, url.PathEscape(strings.ToLower(set)), url.PathEscape(number))

		var card Card
		err := c.getJSON(ctx, endpoint, &card)
		if err == nil {
			return &card, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
		slog.Debug("Exact printing lookup missed, trying fuzzy name",
			"name", name,
			"set", set,
			"number", number)
	}

	if name == "" {
		return nil, &NotFoundError{Name: name, Set: set, Number: number}
	}

	endpoint := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var card Card
	if err := c.getJSON(ctx, endpoint, &card); err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Name: name, Set: set, Number: number}
		}
		return nil, err
	}
	return &card, nil
}
