package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardshed/pickwick/internal/pipeline"
)

func sampleRecords() []pipeline.EnrichedRecord {
	return []pipeline.EnrichedRecord{
		{
			RawItemRecord: pipeline.RawItemRecord{
				OrderID:    "ord_1",
				OrderLabel: "MP-1001",
				Name:       "Cultivate",
				SetCode:    "M21",
				Number:     "183",
				Quantity:   2,
				Condition:  "NM",
				Language:   "English",
				Finish:     "Non-foil",
				Rarity:     "uncommon",
				Price:      1.5,
				PriceKnown: true,
				SKU:        "12345",
			},
			Location: "Drawer 4",
			ImageURI: "https://img.example/cultivate.jpg",
			TypeLine: "Sorcery",
			Colors:   "G",
		},
		{
			RawItemRecord: pipeline.RawItemRecord{
				OrderID:    "ord_2",
				OrderLabel: "MP-1002",
				Name:       "Opt, Reconsidered",
				SetCode:    "IKO",
				Number:     "1",
				Quantity:   1,
				Condition:  "LP",
				Language:   "English",
				Finish:     "Foil",
			},
			Location: "Unassigned",
			Degraded: true,
		},
	}
}

func TestCSVEmitter(t *testing.T) {
	emitter := &CSVEmitter{Dir: t.TempDir(), Stem: "2024-03-09_1412_orders_not-shipped"}

	path, err := emitter.Emit(sampleRecords())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "2024-03-09_1412_orders_not-shipped.csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t,
		"order_id,order_label,location,quantity,name,set,number,condition,finish,rarity,price,tcgplayer_sku,scryfall_image_uri",
		lines[0])
	assert.Equal(t,
		"ord_1,MP-1001,Drawer 4,2,Cultivate,M21,183,NM,Non-foil,uncommon,1.50,12345,https://img.example/cultivate.jpg",
		lines[1])

	// Commas in values get quoted, unknown prices stay empty.
	assert.Contains(t, lines[2], `"Opt, Reconsidered"`)
	assert.Contains(t, lines[2], ",Foil,,,")
}

func TestCSVEmitterDeterministic(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	first := &CSVEmitter{Dir: dir, Stem: "run-a"}
	second := &CSVEmitter{Dir: dir, Stem: "run-b"}

	pathA, err := first.Emit(records)
	require.NoError(t, err)
	pathB, err := second.Emit(records)
	require.NoError(t, err)

	a, err := os.ReadFile(pathA)
	require.NoError(t, err)
	b, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, a, b, "identical input yields byte-identical CSV output")
}

func TestCSVEmitterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	emitter := &CSVEmitter{Dir: dir, Stem: "clean"}

	_, err := emitter.Emit(sampleRecords())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clean.csv", entries[0].Name())
}

func TestCSVEmitterBadDirectory(t *testing.T) {
	file := t.TempDir() + "/blocker"
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	emitter := &CSVEmitter{Dir: file + "/sub", Stem: "out"}
	_, err := emitter.Emit(sampleRecords())
	require.Error(t, err)
}

func TestStem(t *testing.T) {
	stamp := time.Date(2024, 3, 9, 14, 12, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-09_1412_orders_unshipped", Stem(stamp, "orders_unshipped"))
	assert.Equal(t, "2024-03-09_1412_picklist", Stem(stamp, "picklist"))
}

func TestCSVEmitterRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/kept.csv"
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	emitter := &CSVEmitter{Dir: dir, Stem: "kept"}
	_, err := emitter.Emit(sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--overwrite")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data), "existing file must be kept")

	emitter.Overwrite = true
	emitted, err := emitter.Emit(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, path, emitted)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
}
