package cmdutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cardshed/pickwick/internal/pipeline"
)

func historyRecord(name, location string) pipeline.EnrichedRecord {
	return pipeline.EnrichedRecord{
		RawItemRecord: pipeline.RawItemRecord{
			OrderID:   "ord-1",
			Name:      name,
			SetCode:   "NEO",
			Quantity:  1,
			Condition: "NM",
			Language:  "English",
			Finish:    "Non-foil",
		},
		Location: location,
	}
}

func TestWriteHistoryDisabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("history.enabled", false)

	err := WriteHistory([]pipeline.EnrichedRecord{historyRecord("Opt", "A1")}, time.Now())
	require.NoError(t, err)
}

func TestWriteHistoryWritesRows(t *testing.T) {
	t.Cleanup(viper.Reset)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	viper.Set("history.enabled", true)
	viper.Set("history.dbfile", dbPath)

	runAt := time.Date(2024, 3, 9, 14, 12, 0, 0, time.UTC)
	records := []pipeline.EnrichedRecord{
		historyRecord("Opt", "A1"),
		historyRecord("Cultivate", "Unassigned"),
	}
	require.NoError(t, WriteHistory(records, runAt))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pick_items").Scan(&count))
	require.Equal(t, 2, count)

	var name, location, stamp string
	row := db.QueryRow("SELECT name, location, run_at FROM pick_items WHERE name = 'Cultivate'")
	require.NoError(t, row.Scan(&name, &location, &stamp))
	require.Equal(t, "Cultivate", name)
	require.Equal(t, "Unassigned", location)
	require.Equal(t, "2024-03-09T14:12:00Z", stamp)
}

func TestWriteHistoryMissingDBFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("history.enabled", true)
	viper.Set("history.dbfile", "")

	err := WriteHistory([]pipeline.EnrichedRecord{historyRecord("Opt", "A1")}, time.Now())
	require.Error(t, err)
}

func TestWriteHistoryAppendsAcrossRuns(t *testing.T) {
	t.Cleanup(viper.Reset)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	viper.Set("history.enabled", true)
	viper.Set("history.dbfile", dbPath)

	first := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	require.NoError(t, WriteHistory([]pipeline.EnrichedRecord{historyRecord("Opt", "A1")}, first))
	require.NoError(t, WriteHistory([]pipeline.EnrichedRecord{historyRecord("Opt", "A1")}, second))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var runs int
	require.NoError(t, db.QueryRow("SELECT COUNT(DISTINCT run_at) FROM pick_items").Scan(&runs))
	require.Equal(t, 2, runs)
}
