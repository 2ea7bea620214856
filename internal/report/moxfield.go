package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cardshed/pickwick/internal/pipeline"
)

// moxfieldColumns is Moxfield's collection import schema. The names and
// order are a compatibility contract with their importer; do not reorder.
var moxfieldColumns = []string{
	"Count", "Tradelist Count", "Name", "Edition", "Condition", "Language",
	"Foil", "Tags", "Last Modified", "Collector Number", "Alter", "Proxy",
	"Purchase Price",
}

// moxfieldConditions maps marketplace condition codes to the vocabulary
// Moxfield's importer accepts. Unknown codes export as-is.
var moxfieldConditions = map[string]string{
	"NM": "Near Mint",
	"LP": "Lightly Played",
	"MP": "Moderately Played",
	"HP": "Heavily Played",
	"DM": "Damaged",
	"D":  "Damaged",
}

// MoxfieldEmitter writes a CSV shaped for Moxfield's collection import.
// The mapping is lossy: order identity, location and imagery have no place
// in the target schema and are dropped.
type MoxfieldEmitter struct {
	Dir  string
	Stem string
	// Overwrite allows replacing an existing file of the same name.
	Overwrite bool
}

// Name implements pipeline.Emitter.
func (e *MoxfieldEmitter) Name() string { return "moxfield" }

// Emit writes the export and returns the file path.
func (e *MoxfieldEmitter) Emit(records []pipeline.EnrichedRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(moxfieldColumns); err != nil {
		return "", fmt.Errorf("failed to write Moxfield header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Quantity),
			"0",
			record.Name,
			strings.ToLower(record.SetCode),
			moxfieldCondition(record.Condition),
			record.Language,
			moxfieldFoil(record.Finish),
			"",
			"",
			record.Number,
			"FALSE",
			"FALSE",
			formatPrice(record.Price, record.PriceKnown),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write Moxfield row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush Moxfield export: %w", err)
	}

	path := filepath.Join(e.Dir, e.Stem+"_moxfield.csv")
	if err := writeArtifact(path, buf.Bytes(), e.Overwrite); err != nil {
		return "", fmt.Errorf("failed to write Moxfield export: %w", err)
	}
	return path, nil
}

func moxfieldCondition(condition string) string {
	if mapped, ok := moxfieldConditions[strings.ToUpper(strings.TrimSpace(condition))]; ok {
		return mapped
	}
	return condition
}

func moxfieldFoil(finish string) string {
	switch strings.ToLower(strings.TrimSpace(finish)) {
	case "foil", "etched":
		return "foil"
	default:
		return ""
	}
}
