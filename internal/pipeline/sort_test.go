package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortSpec(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		want    SortSpec
		wantErr string
	}{
		{
			name: "bare fields default ascending",
			keys: []string{"location", "set", "name"},
			want: SortSpec{Keys: []SortKey{
				{Field: FieldLocation}, {Field: FieldSet}, {Field: FieldName},
			}},
		},
		{
			name: "explicit directions",
			keys: []string{"price:desc", "name:asc"},
			want: SortSpec{Keys: []SortKey{
				{Field: FieldPrice, Desc: true}, {Field: FieldName},
			}},
		},
		{
			name: "case insensitive fields",
			keys: []string{"Location", "PRICE:DESC"},
			want: SortSpec{Keys: []SortKey{
				{Field: FieldLocation}, {Field: FieldPrice, Desc: true},
			}},
		},
		{
			name:    "unknown field",
			keys:    []string{"artist"},
			wantErr: "unknown sort field",
		},
		{
			name:    "repeated field",
			keys:    []string{"name", "price", "name:desc"},
			wantErr: "repeats across levels",
		},
		{
			name:    "too many keys",
			keys:    []string{"location", "set", "name", "price"},
			wantErr: "at most 3 keys",
		},
		{
			name:    "bad direction",
			keys:    []string{"price:sideways"},
			wantErr: "invalid sort direction",
		},
		{
			name:    "empty spec",
			keys:    nil,
			wantErr: "at least one key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSortSpec(tt.keys)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func rec(name string, fields ...func(*EnrichedRecord)) EnrichedRecord {
	r := EnrichedRecord{RawItemRecord: RawItemRecord{Name: name, Quantity: 1}}
	for _, f := range fields {
		f(&r)
	}
	return r
}

func withLocation(loc string) func(*EnrichedRecord) {
	return func(r *EnrichedRecord) { r.Location = loc }
}

func withPrice(price float64) func(*EnrichedRecord) {
	return func(r *EnrichedRecord) { r.Price = price; r.PriceKnown = true }
}

func withRarity(rarity string) func(*EnrichedRecord) {
	return func(r *EnrichedRecord) { r.Rarity = rarity }
}

func withSet(set string) func(*EnrichedRecord) {
	return func(r *EnrichedRecord) { r.SetCode = set }
}

func withColorType(colors, typeLine string) func(*EnrichedRecord) {
	return func(r *EnrichedRecord) { r.Colors = colors; r.TypeLine = typeLine }
}

func names(records []EnrichedRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func mustSpec(t *testing.T, keys ...string) SortSpec {
	t.Helper()
	spec, err := ParseSortSpec(keys)
	require.NoError(t, err)
	return spec
}

func TestSortRecordsMultiKey(t *testing.T) {
	records := []EnrichedRecord{
		rec("b", withLocation("Drawer 2"), withSet("M21")),
		rec("a", withLocation("Drawer 1"), withSet("IKO")),
		rec("c", withLocation("Drawer 1"), withSet("IKO")),
		rec("d", withLocation("Drawer 1"), withSet("M21")),
	}

	SortRecords(records, mustSpec(t, "location", "set", "name"))
	assert.Equal(t, []string{"a", "c", "d", "b"}, names(records))
}

func TestSortRecordsStability(t *testing.T) {
	// Records equal on every active key keep input order.
	records := []EnrichedRecord{
		rec("first", withLocation("Drawer 1")),
		rec("second", withLocation("Drawer 1")),
		rec("third", withLocation("Drawer 1")),
	}

	SortRecords(records, mustSpec(t, "location"))
	assert.Equal(t, []string{"first", "second", "third"}, names(records))
}

func TestSortRecordsUnknownPriceGroupsAtOneEnd(t *testing.T) {
	build := func() []EnrichedRecord {
		return []EnrichedRecord{
			rec("cheap", withPrice(0.25)),
			rec("unknown"),
			rec("pricey", withPrice(12.50)),
		}
	}

	asc := build()
	SortRecords(asc, mustSpec(t, "price"))
	assert.Equal(t, []string{"unknown", "cheap", "pricey"}, names(asc),
		"unknown price sorts as the lowest value ascending")

	desc := build()
	SortRecords(desc, mustSpec(t, "price:desc"))
	assert.Equal(t, []string{"pricey", "cheap", "unknown"}, names(desc),
		"unknown price still groups at one end descending")
}

func TestSortRecordsUnassignedLocationAlwaysLast(t *testing.T) {
	build := func() []EnrichedRecord {
		return []EnrichedRecord{
			rec("lost", withLocation(unassignedLocation)),
			rec("boxed", withLocation("Box A")),
			rec("drawered", withLocation("Drawer 3")),
		}
	}

	asc := build()
	SortRecords(asc, mustSpec(t, "location"))
	assert.Equal(t, []string{"boxed", "drawered", "lost"}, names(asc))

	desc := build()
	SortRecords(desc, mustSpec(t, "location:desc"))
	assert.Equal(t, []string{"drawered", "boxed", "lost"}, names(desc),
		"Unassigned sorts after named locations regardless of direction")
}

func TestSortRecordsRarityByRank(t *testing.T) {
	records := []EnrichedRecord{
		rec("r", withRarity("rare")),
		rec("m", withRarity("mythic")),
		rec("c", withRarity("common")),
		rec("u", withRarity("uncommon")),
		rec("x", withRarity("")),
	}

	// Lexicographic would give c, m, r, u; rank order must win.
	SortRecords(records, mustSpec(t, "rarity"))
	assert.Equal(t, []string{"c", "u", "r", "m", "x"}, names(records))
}

func TestSortRecordsColorTypeNameScenario(t *testing.T) {
	records := []EnrichedRecord{
		rec("Wildwood Scourge", withColorType("G", "Creature")),
		rec("Cultivate", withColorType("G", "Creature")),
		rec("Garruk's Uprising", withColorType("G", "Creature")),
	}

	SortRecords(records, mustSpec(t, "color", "card_type", "name"))
	assert.Equal(t, []string{"Cultivate", "Garruk's Uprising", "Wildwood Scourge"}, names(records),
		"ties on color and card type fall through to name")
}

func TestSortRecordsCaseInsensitiveText(t *testing.T) {
	records := []EnrichedRecord{
		rec("zebra"),
		rec("Apple"),
		rec("mango"),
	}

	SortRecords(records, mustSpec(t, "name"))
	assert.Equal(t, []string{"Apple", "mango", "zebra"}, names(records))
}

func TestSortSpecString(t *testing.T) {
	spec := mustSpec(t, "price:desc", "name")
	assert.Equal(t, "price:desc,name", spec.String())
}
