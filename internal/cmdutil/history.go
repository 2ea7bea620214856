package cmdutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/cardshed/pickwick/internal/datastore"
	"github.com/cardshed/pickwick/internal/pipeline"
)

// pickItemsSchema is the per-run history table. One row per enriched record
// per run; the run timestamp ties rows of the same run together.
const pickItemsSchema = `
CREATE TABLE IF NOT EXISTS pick_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_at TEXT NOT NULL,
	order_id TEXT,
	order_label TEXT,
	name TEXT,
	set_code TEXT,
	number TEXT,
	quantity INTEGER,
	condition TEXT,
	language TEXT,
	finish TEXT,
	rarity TEXT,
	price REAL,
	price_known INTEGER,
	sku TEXT,
	location TEXT,
	degraded INTEGER
);
`

// WriteHistory appends the run's enriched records to the local pick history
// database when history.enabled is set. The history exists for later
// inspection with any SQLite browser; failures here are the caller's to
// report, not to abort on.
func WriteHistory(records []pipeline.EnrichedRecord, runAt time.Time) error {
	if !viper.GetBool("history.enabled") || len(records) == 0 {
		return nil
	}

	dbPath := viper.GetString("history.dbfile")
	if dbPath == "" {
		return fmt.Errorf("history.dbfile not configured")
	}

	store := datastore.NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateTable(pickItemsSchema); err != nil {
		return err
	}

	stamp := runAt.UTC().Format(time.RFC3339)
	rows := make([]map[string]any, len(records))
	for i, record := range records {
		row := StructToMap(record, StructToMapOptions{
			OmitFields: map[string]bool{
				"ImageURI":   true,
				"LocalImage": true,
				"LocalThumb": true,
				"TypeLine":   true,
				"Colors":     true,
			},
		})
		row["run_at"] = stamp
		rows[i] = row
	}

	if err := store.BatchInsert("pick_items", rows); err != nil {
		return fmt.Errorf("failed to write pick history: %w", err)
	}

	slog.Debug("Pick history written", "rows", len(rows), "database", dbPath)
	return nil
}
