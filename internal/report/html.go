package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/cardshed/pickwick/internal/pipeline"
)

//go:embed template.html
var htmlTemplate string

// HTMLEmitter writes the interactive pick sheet: a self-contained HTML
// document with location-grouped and order-grouped views, per-item progress
// checkboxes and high-value highlighting.
type HTMLEmitter struct {
	// Dir is the output directory.
	Dir string
	// Stem is the filename without extension.
	Stem string
	// Overwrite allows replacing an existing file of the same name.
	Overwrite bool
	// FilterLabel names the order filter for the page header.
	FilterLabel string
	// Threshold is the high-value highlight cutoff in dollars.
	Threshold float64
	// UseLocalImages switches the grid to locally cached images when the
	// record carries them.
	UseLocalImages bool
	// Now is injectable for tests; nil uses time.Now.
	Now func() time.Time
}

// Name implements pipeline.Emitter.
func (e *HTMLEmitter) Name() string { return "html" }

type htmlItem struct {
	ID         string
	Name       string
	Set        string
	Number     string
	Condition  string
	Finish     string
	Rarity     string
	TypeLine   string
	Quantity   int
	OrderID    string
	OrderLabel string
	Location   string
	Price      string
	HighValue  bool
	Degraded   bool
	ImageSrc   string
}

type htmlGroup struct {
	Key   string
	Items []htmlItem
	Total string
}

type htmlStats struct {
	TotalItems     int
	UniqueOrders   int
	TotalValue     string
	HighValueCount int
}

type htmlData struct {
	FilterLabel    string
	GeneratedAt    string
	Threshold      string
	Stem           string
	Stats          htmlStats
	LocationGroups []htmlGroup
	OrderGroups    []htmlGroup
}

// Emit renders the pick sheet and returns the file path.
func (e *HTMLEmitter) Emit(records []pipeline.EnrichedRecord) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %w", err)
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	data := htmlData{
		FilterLabel: e.FilterLabel,
		GeneratedAt: now().Format("January 2, 2006 at 3:04 PM"),
		Threshold:   fmt.Sprintf("%.0f", e.Threshold),
		Stem:        e.Stem,
		Stats:       e.buildStats(records),
	}
	items := e.buildItems(records)
	data.LocationGroups = groupBy(items, records, func(r pipeline.EnrichedRecord) string { return r.Location })
	data.OrderGroups = groupBy(items, records, func(r pipeline.EnrichedRecord) string {
		if r.OrderLabel != "" {
			return r.OrderLabel
		}
		return r.OrderID
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute report template: %w", err)
	}

	path := filepath.Join(e.Dir, e.Stem+".html")
	if err := writeArtifact(path, buf.Bytes(), e.Overwrite); err != nil {
		return "", fmt.Errorf("failed to write HTML report: %w", err)
	}
	return path, nil
}

func (e *HTMLEmitter) buildStats(records []pipeline.EnrichedRecord) htmlStats {
	orders := make(map[string]bool)
	var total float64
	stats := htmlStats{TotalItems: len(records)}

	for _, record := range records {
		orders[record.OrderID] = true
		if record.PriceKnown {
			total += record.Price * float64(record.Quantity)
		}
		if record.HighValue(e.Threshold) {
			stats.HighValueCount++
		}
	}

	stats.UniqueOrders = len(orders)
	stats.TotalValue = fmt.Sprintf("%.2f", total)
	return stats
}

func (e *HTMLEmitter) buildItems(records []pipeline.EnrichedRecord) []htmlItem {
	items := make([]htmlItem, len(records))
	for i, record := range records {
		items[i] = htmlItem{
			ID:         fmt.Sprintf("item-%d", i),
			Name:       record.Name,
			Set:        record.SetCode,
			Number:     record.Number,
			Condition:  record.Condition,
			Finish:     record.Finish,
			Rarity:     record.Rarity,
			TypeLine:   record.TypeLine,
			Quantity:   record.Quantity,
			OrderID:    record.OrderID,
			OrderLabel: record.OrderLabel,
			Location:   record.Location,
			Price:      formatPrice(record.Price, record.PriceKnown),
			HighValue:  record.HighValue(e.Threshold),
			Degraded:   record.Degraded,
			ImageSrc:   e.imageSrc(record),
		}
	}
	return items
}

// imageSrc picks the grid image: the cached thumbnail (relative to the
// report file so the document works offline), then the cached full image,
// then the remote URI.
func (e *HTMLEmitter) imageSrc(record pipeline.EnrichedRecord) string {
	if e.UseLocalImages {
		for _, local := range []string{record.LocalThumb, record.LocalImage} {
			if local == "" {
				continue
			}
			if rel, err := filepath.Rel(e.Dir, local); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return record.ImageURI
}

// groupBy splits the sorted items into sections keyed by keyFn, keeping the
// sorted order both across and within sections. Sections appear in order of
// first occurrence, so a location-sorted sequence yields one section per
// location in walk order.
func groupBy(items []htmlItem, records []pipeline.EnrichedRecord, keyFn func(pipeline.EnrichedRecord) string) []htmlGroup {
	index := make(map[string]int)
	var groups []htmlGroup
	totals := make(map[string]float64)

	for i, record := range records {
		key := keyFn(record)
		at, ok := index[key]
		if !ok {
			at = len(groups)
			index[key] = at
			groups = append(groups, htmlGroup{Key: key})
		}
		groups[at].Items = append(groups[at].Items, items[i])
		if record.PriceKnown {
			totals[key] += record.Price * float64(record.Quantity)
		}
	}

	for i := range groups {
		groups[i].Total = fmt.Sprintf("%.2f", totals[groups[i].Key])
	}
	return groups
}
