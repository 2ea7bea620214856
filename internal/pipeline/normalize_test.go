package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardshed/pickwick/internal/csvutil"
	"github.com/cardshed/pickwick/internal/errors"
	"github.com/cardshed/pickwick/internal/manapool"
	"github.com/cardshed/pickwick/internal/testutil"
)

func TestDetectSchema(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    Schema
		wantErr bool
	}{
		{
			name:   "picklist layout",
			header: []string{"Order", "Card Name", "Set", "Set Code", "Collector Number", "Quantity", "Condition", "Language", "Finish", "Rarity"},
			want:   SchemaPicklist,
		},
		{
			name:   "picklist with collector hash column",
			header: []string{"Order", "Card Name", "Set", "Set Code", "Collector #", "Quantity", "Condition", "Language", "Finish", "Rarity"},
			want:   SchemaPicklist,
		},
		{
			name:   "shipstation layout",
			header: []string{"Order - Number", "Ship To - Name", "Item - SKU", "Item - Name", "Item - Qty", "Item - Unit Price"},
			want:   SchemaShipStation,
		},
		{
			name:    "unrecognized layout",
			header:  []string{"Title", "Author", "ISBN"},
			want:    SchemaUnknown,
			wantErr: true,
		},
		{
			name:    "picklist missing quantity",
			header:  []string{"Card Name", "Set Code"},
			want:    SchemaUnknown,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := DetectSchema(csvutil.NewHeader(tt.header))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, schema)
		})
	}
}

func TestLoadCSVPicklist(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("picklist.csv",
		"Order,Card Name,Set,Set Code,Collector Number,Quantity,Condition,Language,Finish,Rarity\n"+
			"MP-1001,Cultivate,Core Set 2021,m21,183,2,NM,English,Non-foil,Uncommon\n"+
			"MP-1001,Ketria Triome,Ikoria,iko,250,1,,,,\n"+
			"MP-1002,,iko,iko,1,1,NM,,,\n")

	records, rejects, err := LoadCSV(env.Path("picklist.csv"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, rejects, 1)
	assert.True(t, errors.IsValidationError(rejects[0]))

	first := records[0]
	assert.Equal(t, "MP-1001", first.OrderID)
	assert.Equal(t, "Cultivate", first.Name)
	assert.Equal(t, "M21", first.SetCode)
	assert.Equal(t, "183", first.Number)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, "NM", first.Condition)
	assert.Equal(t, "uncommon", first.Rarity)
	assert.False(t, first.PriceKnown)

	// Optional fields fall back to defaults.
	second := records[1]
	assert.Equal(t, DefaultCondition, second.Condition)
	assert.Equal(t, DefaultLanguage, second.Language)
	assert.Equal(t, DefaultFinish, second.Finish)
}

func TestLoadCSVEmptyQuantityRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("picklist.csv",
		"Order,Card Name,Set,Set Code,Collector Number,Quantity\n"+
			"MP-1001,Cultivate,Core Set 2021,m21,183,\n"+
			"MP-1001,Opt,Ixalan,xln,65,2\n")

	records, rejects, err := LoadCSV(env.Path("picklist.csv"))
	require.NoError(t, err)
	require.Len(t, records, 1, "row with an empty quantity cell is rejected")
	require.Len(t, rejects, 1)
	assert.True(t, errors.IsValidationError(rejects[0]))
	assert.Contains(t, rejects[0].Error(), "quantity is required")
	assert.Equal(t, "Opt", records[0].Name)
}

func TestLoadCSVShipStation(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("export.csv",
		"Order - Number,Item - SKU,Item - Name,Item - Qty,Item - Unit Price\n"+
			"100234,SKU-1,Cultivate [M21] #183,2,$1.25\n"+
			"100234,SKU-2,Lightning Bolt [2X2] #117 (Foil),1,3.50\n"+
			"100235,SKU-3,Mystery grab bag,1,5.00\n")

	records, rejects, err := LoadCSV(env.Path("export.csv"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Len(t, rejects, 1, "item without a set code in its name is rejected")

	assert.Equal(t, "100234", records[0].OrderID)
	assert.Equal(t, "Cultivate", records[0].Name)
	assert.Equal(t, "M21", records[0].SetCode)
	assert.Equal(t, "183", records[0].Number)
	assert.InDelta(t, 1.25, records[0].Price, 0.001)
	assert.True(t, records[0].PriceKnown)

	assert.Equal(t, "Lightning Bolt", records[1].Name)
	assert.Equal(t, "2X2", records[1].SetCode)
	assert.Equal(t, "Foil", records[1].Finish)
}

func TestLoadCSVUnknownSchema(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.csv", "Title,Author\nDune,Herbert\n")

	_, _, err := LoadCSV(env.Path("books.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized CSV schema")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestFromOrder(t *testing.T) {
	order := &manapool.Order{
		ID:    "ord_123",
		Label: "MP-1001",
		Items: []manapool.OrderItem{
			{
				Quantity:   2,
				PriceCents: 125,
				Product: manapool.Product{
					TCGPlayerSKU: "12345",
					Single: &manapool.Single{
						Name:        "Cultivate",
						Set:         "m21",
						Number:      "183",
						ConditionID: "NM",
						FinishID:    "nonfoil",
					},
				},
			},
			{
				// Sealed product without card details is rejected.
				Quantity: 1,
				Product:  manapool.Product{},
			},
		},
	}

	records, rejects := FromOrder(order)
	require.Len(t, records, 1)
	require.Len(t, rejects, 1)
	assert.True(t, errors.IsValidationError(rejects[0]))

	record := records[0]
	assert.Equal(t, "ord_123", record.OrderID)
	assert.Equal(t, "MP-1001", record.OrderLabel)
	assert.Equal(t, "M21", record.SetCode)
	assert.Equal(t, 2, record.Quantity)
	assert.InDelta(t, 1.25, record.Price, 0.001)
	assert.True(t, record.PriceKnown)
	assert.Equal(t, "12345", record.SKU)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		known bool
	}{
		{"1.25", 1.25, true},
		{"$1.25", 1.25, true},
		{"$1,234.56", 1234.56, true},
		{"€3.10", 3.10, true},
		{" 3.00 ", 3, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"-5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, known := ParsePrice(tt.input)
			assert.Equal(t, tt.known, known)
			if tt.known {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestPrintingKeyNormalization(t *testing.T) {
	a := NewPrintingKey(" Cultivate ", "m21", "183")
	b := NewPrintingKey("Cultivate", "M21", "183")
	assert.Equal(t, a, b)
}
