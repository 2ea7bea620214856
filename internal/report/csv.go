package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/cardshed/pickwick/internal/pipeline"
)

// csvColumns is the fulfillment CSV column set, location near the front so
// the sheet reads in drawer-walk order.
var csvColumns = []string{
	"order_id", "order_label", "location", "quantity", "name", "set",
	"number", "condition", "finish", "rarity", "price", "tcgplayer_sku",
	"scryfall_image_uri",
}

// CSVEmitter writes the fulfillment list CSV. Output is deterministic for a
// given record set, so two runs over identical input with a warm cache
// produce byte-identical files.
type CSVEmitter struct {
	// Dir is the output directory.
	Dir string
	// Stem is the filename without extension.
	Stem string
	// Overwrite allows replacing an existing file of the same name.
	Overwrite bool
}

// Name implements pipeline.Emitter.
func (e *CSVEmitter) Name() string { return "csv" }

// Emit writes one row per enriched record and returns the file path.
func (e *CSVEmitter) Emit(records []pipeline.EnrichedRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvColumns); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.OrderID,
			record.OrderLabel,
			record.Location,
			strconv.Itoa(record.Quantity),
			record.Name,
			record.SetCode,
			record.Number,
			record.Condition,
			record.Finish,
			record.Rarity,
			formatPrice(record.Price, record.PriceKnown),
			record.SKU,
			record.ImageURI,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	path := filepath.Join(e.Dir, e.Stem+".csv")
	if err := writeArtifact(path, buf.Bytes(), e.Overwrite); err != nil {
		return "", fmt.Errorf("failed to write CSV report: %w", err)
	}
	return path, nil
}
