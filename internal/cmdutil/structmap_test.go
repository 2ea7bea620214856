package cmdutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":       "name",
		"OrderID":    "order_id",
		"SetCode":    "set_code",
		"PriceKnown": "price_known",
		"SKU":        "sku",
		"HTMLDir":    "html_dir",
	}
	for input, want := range tests {
		assert.Equal(t, want, toSnakeCase(input), "input %q", input)
	}
}

func TestStructToMapFlattensEmbedded(t *testing.T) {
	type Inner struct {
		Name     string
		Quantity int
	}
	type outer struct {
		Inner
		Location string
		Degraded bool
		Skipped  string
	}

	got := StructToMap(outer{
		Inner:    Inner{Name: "Opt", Quantity: 2},
		Location: "A1",
		Degraded: true,
		Skipped:  "drop me",
	}, StructToMapOptions{OmitFields: map[string]bool{"Skipped": true}})

	require.Equal(t, map[string]any{
		"name":     "Opt",
		"quantity": 2,
		"location": "A1",
		"degraded": true,
	}, got)
}
