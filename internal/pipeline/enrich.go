package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cardshed/pickwick/internal/scryfall"
)

// defaultLookupWorkers bounds the concurrent metadata lookup phase.
const defaultLookupWorkers = 4

// MetadataSource resolves printing identities to card metadata.
// *scryfall.Client satisfies it; tests substitute fakes.
type MetadataSource interface {
	GetPrinting(ctx context.Context, name, set, number string) (*scryfall.Card, error)
	EnsureImage(ctx context.Context, card *scryfall.Card, dir string) (*scryfall.CardImage, error)
}

// LocationResolver maps a set code to a storage location.
// *locations.Mapping satisfies it.
type LocationResolver interface {
	Resolve(setCode string) string
}

// EnrichOptions configures the enrichment phase.
type EnrichOptions struct {
	// Workers bounds the concurrent lookup pool; <=0 uses the default.
	Workers int
	// DownloadImages enables the on-disk image cache.
	DownloadImages bool
	// ImageDir is where cached images live when DownloadImages is set.
	ImageDir string
}

// EnrichStats summarizes what happened during enrichment.
type EnrichStats struct {
	// LookupsFailed counts unique printing identities whose lookup failed.
	LookupsFailed int
	// Degraded counts records emitted with degraded metadata.
	Degraded int
	// Unassigned counts records whose set has no location assignment.
	Unassigned int
	// Warnings describes each failed lookup for the run summary.
	Warnings []string
}

// lookupResult is the outcome for one unique printing identity.
type lookupResult struct {
	meta CardMeta
	err  error
}

// Enrich resolves metadata and locations for every record. Lookups are
// deduplicated by printing identity and issued concurrently in a bounded
// pool; the Wait call is the single barrier before merging begins. Failed
// lookups degrade the affected records instead of dropping them.
func Enrich(ctx context.Context, records []RawItemRecord, source MetadataSource, resolver LocationResolver, opts EnrichOptions) ([]EnrichedRecord, EnrichStats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultLookupWorkers
	}

	// Phase 1: one lookup per unique identity.
	unique := uniqueKeys(records)
	results := make(map[PrintingKey]lookupResult, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, key := range unique {
		g.Go(func() error {
			result := lookupOne(gctx, source, key, opts)

			mu.Lock()
			results[key] = result
			mu.Unlock()

			// Lookup failures degrade records; only cancellation aborts.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, EnrichStats{}, err
	}

	// Phase 2: sequential merge and location resolution.
	var stats EnrichStats
	failed := make(map[PrintingKey]bool)
	enriched := make([]EnrichedRecord, 0, len(records))

	for _, record := range records {
		key := record.Key()
		result := results[key]

		merged := merge(record, result)
		merged.Location = resolver.Resolve(record.SetCode)

		if merged.Degraded {
			stats.Degraded++
			if !failed[key] {
				failed[key] = true
				stats.LookupsFailed++
				stats.Warnings = append(stats.Warnings,
					fmt.Sprintf("lookup failed for %s: %v", key, result.err))
			}
		}
		if merged.Location == unassignedLocation {
			stats.Unassigned++
		}

		enriched = append(enriched, merged)
	}

	slog.Debug("Enrichment complete",
		"records", len(enriched),
		"unique_printings", len(unique),
		"lookups_failed", stats.LookupsFailed)
	return enriched, stats, nil
}

// uniqueKeys collects the distinct printing identities in input order.
func uniqueKeys(records []RawItemRecord) []PrintingKey {
	seen := make(map[PrintingKey]bool, len(records))
	var keys []PrintingKey
	for _, record := range records {
		key := record.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// lookupOne resolves one printing and, when enabled, its cached image.
func lookupOne(ctx context.Context, source MetadataSource, key PrintingKey, opts EnrichOptions) lookupResult {
	card, err := source.GetPrinting(ctx, key.Name, key.Set, key.Number)
	if err != nil {
		return lookupResult{err: err}
	}

	meta := CardMeta{
		ImageURI: card.ImageURI(),
		Rarity:   strings.ToLower(card.Rarity),
		TypeLine: card.CardTypeLine(),
		Colors:   strings.Join(card.CardColors(), ""),
	}
	meta.Price, meta.PriceKnown = card.Prices.Price()

	if opts.DownloadImages {
		image, imgErr := source.EnsureImage(ctx, card, opts.ImageDir)
		if imgErr != nil {
			// A missing local image only affects the HTML report; the
			// remote URI still works.
			slog.Warn("Image download failed", "printing", key, "error", imgErr)
		} else if image != nil {
			meta.LocalImage = image.Path
			meta.LocalThumb = image.ThumbPath
		}
	}

	return lookupResult{meta: meta}
}

// merge combines a record with its lookup result. The record wins for order
// identity, quantity and condition; metadata wins for image, rarity, colors,
// type and price unless the lookup degraded, in which case the record's own
// supplied values are kept.
func merge(record RawItemRecord, result lookupResult) EnrichedRecord {
	enriched := EnrichedRecord{RawItemRecord: record}

	if result.err != nil {
		enriched.Degraded = true
		return enriched
	}

	meta := result.meta
	enriched.ImageURI = meta.ImageURI
	enriched.LocalImage = meta.LocalImage
	enriched.LocalThumb = meta.LocalThumb
	enriched.TypeLine = meta.TypeLine
	enriched.Colors = meta.Colors
	if meta.Rarity != "" {
		enriched.Rarity = meta.Rarity
	}
	if meta.PriceKnown {
		enriched.Price = meta.Price
		enriched.PriceKnown = true
	}

	return enriched
}
