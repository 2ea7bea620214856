// Package pipeline implements the enrichment-and-reporting core: raw order
// or picklist rows are normalized, enriched with card metadata and storage
// locations, sorted, and handed to the report emitters. The pipeline returns
// a structured Result; printing and process exit belong to the CLI layer.
package pipeline

import (
	"strings"

	"github.com/cardshed/pickwick/internal/locations"
)

// Default values for optional record fields that arrive empty.
const (
	DefaultCondition = "Unknown"
	DefaultLanguage  = "English"
	DefaultFinish    = "Non-foil"
)

// unassignedLocation is the sentinel the location resolver returns for set
// codes without an assignment.
const unassignedLocation = locations.Unassigned

// PrintingKey identifies one physical printing of a card. Set codes are
// stored upper-cased and names trimmed so lookups for the same printing
// always collapse to one key.
type PrintingKey struct {
	Name   string
	Set    string
	Number string
}

// NewPrintingKey normalizes the identity fields into a PrintingKey.
func NewPrintingKey(name, set, number string) PrintingKey {
	return PrintingKey{
		Name:   strings.TrimSpace(name),
		Set:    strings.ToUpper(strings.TrimSpace(set)),
		Number: strings.TrimSpace(number),
	}
}

// String renders the key for logs and warnings.
func (k PrintingKey) String() string {
	if k.Number != "" {
		return k.Set + "/" + k.Number + " (" + k.Name + ")"
	}
	return k.Set + " (" + k.Name + ")"
}

// RawItemRecord is one line item as received from a source, immutable once
// parsed. Price carries the value the source supplied, which may be stale;
// PriceKnown is false when the source had no usable price.
type RawItemRecord struct {
	OrderID    string
	OrderLabel string
	Name       string
	SetCode    string
	Number     string
	Quantity   int
	Condition  string
	Language   string
	Finish     string
	Rarity     string
	Price      float64
	PriceKnown bool
	SKU        string
}

// Key returns the normalized printing identity for the record.
func (r RawItemRecord) Key() PrintingKey {
	return NewPrintingKey(r.Name, r.SetCode, r.Number)
}

// CardMeta holds the canonical attributes resolved for one printing.
// LocalImage and LocalThumb are only set when image caching is enabled.
type CardMeta struct {
	ImageURI   string
	LocalImage string
	LocalThumb string
	Rarity     string
	TypeLine   string
	Colors     string
	Price      float64
	PriceKnown bool
}

// EnrichedRecord is a RawItemRecord merged with resolved metadata and a
// storage location. Location is never empty: unresolved set codes carry the
// Unassigned sentinel. Degraded marks records whose metadata lookup failed;
// their metadata fields fall back to whatever the source supplied.
type EnrichedRecord struct {
	RawItemRecord

	Location   string
	ImageURI   string
	LocalImage string
	LocalThumb string
	TypeLine   string
	Colors     string
	Degraded   bool
}

// HighValue reports whether the record's price meets the given threshold.
// Records with unknown prices are never high value.
func (r EnrichedRecord) HighValue(threshold float64) bool {
	return r.PriceKnown && r.Price >= threshold
}
