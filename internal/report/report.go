// Package report renders the enriched, sorted record set into the pickwick
// artifacts: the fulfillment CSV, the interactive HTML pick sheet and the
// Moxfield-compatible inventory export. Each emitter writes one file and
// plugs into the pipeline through its Emitter interface.
package report

import (
	"fmt"
	"time"

	"github.com/cardshed/pickwick/internal/fileutil"
)

// Stem builds the timestamped filename stem shared by the artifacts of one
// run, e.g. "2024-03-09_1412_orders_unshipped" or "2024-03-09_1412_picklist".
func Stem(t time.Time, label string) string {
	return fmt.Sprintf("%s_%s", t.Format("2006-01-02_1504"), label)
}

// writeArtifact writes an artifact atomically, refusing to replace an
// existing file unless overwrite is set.
func writeArtifact(path string, data []byte, overwrite bool) error {
	written, err := fileutil.WriteFileWithOverwrite(path, data, 0644, overwrite)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("%s already exists, re-run with --overwrite to replace it", path)
	}
	return nil
}

// formatPrice renders a price cell: two decimals, empty when unknown.
func formatPrice(price float64, known bool) string {
	if !known {
		return ""
	}
	return fmt.Sprintf("%.2f", price)
}
