package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cardshed/pickwick/internal/csvutil"
	"github.com/cardshed/pickwick/internal/errors"
	"github.com/cardshed/pickwick/internal/manapool"
)

// Schema identifies which CSV layout a picklist file carries. Detection is
// by header inspection, never by filename.
type Schema int

const (
	// SchemaUnknown means the header matched no recognized layout.
	SchemaUnknown Schema = iota
	// SchemaPicklist is the picklist export: Order, Card Name, Set, Set
	// Code, Collector Number (or Collector #), Quantity, Condition,
	// Language, Finish, Rarity.
	SchemaPicklist
	// SchemaShipStation is the ShipStation shipment export, with card
	// details packed into the "Item - Name" column.
	SchemaShipStation
)

func (s Schema) String() string {
	switch s {
	case SchemaPicklist:
		return "picklist"
	case SchemaShipStation:
		return "shipstation"
	default:
		return "unknown"
	}
}

// picklistRequired are the columns a picklist export must carry. The
// collector-number column is optional because both spellings exist in the
// wild and older exports omit it entirely.
var picklistRequired = []string{"Card Name", "Set Code", "Quantity"}

// shipstationRequired are the columns a ShipStation shipment export must
// carry for item rows to be usable.
var shipstationRequired = []string{"Order - Number", "Item - Name", "Item - Qty"}

// DetectSchema classifies a CSV header. Returns SchemaUnknown with an error
// naming the missing columns when neither layout matches.
func DetectSchema(header csvutil.Header) (Schema, error) {
	if header.HasAll(picklistRequired...) {
		return SchemaPicklist, nil
	}
	if header.HasAll(shipstationRequired...) {
		return SchemaShipStation, nil
	}
	return SchemaUnknown, fmt.Errorf(
		"unrecognized CSV schema: picklist layout missing %v, shipstation layout missing %v",
		header.Missing(picklistRequired...), header.Missing(shipstationRequired...))
}

// LoadCSV reads a picklist or ShipStation export into RawItemRecords.
// Rows missing required fields are rejected with ValidationErrors collected
// into rejects; the batch always continues.
func LoadCSV(path string) (records []RawItemRecord, rejects []error, err error) {
	header, err := csvutil.ReadHeader(path)
	if err != nil {
		return nil, nil, err
	}

	schema, err := DetectSchema(header)
	if err != nil {
		return nil, nil, err
	}

	parser := parsePicklistRow
	if schema == SchemaShipStation {
		parser = parseShipStationRow
	}

	records, err = csvutil.ProcessCSV(path, parser, csvutil.ProcessorOptions{
		SkipInvalid: true,
		OnInvalid:   func(rowErr error) { rejects = append(rejects, rowErr) },
	})
	if err != nil {
		return nil, nil, err
	}
	return records, rejects, nil
}

// parsePicklistRow maps one picklist-layout row to a RawItemRecord.
func parsePicklistRow(row csvutil.Row) (RawItemRecord, error) {
	record := RawItemRecord{
		OrderID:   row.Get("Order"),
		Name:      row.Get("Card Name"),
		SetCode:   strings.ToUpper(row.Get("Set Code")),
		Number:    row.GetAny("Collector Number", "Collector #"),
		Condition: row.Get("Condition"),
		Language:  row.Get("Language"),
		Finish:    row.Get("Finish"),
		Rarity:    strings.ToLower(row.Get("Rarity")),
	}
	record.OrderLabel = record.OrderID
	record.Price, record.PriceKnown = ParsePrice(row.Get("Price"))

	qty, err := parseQuantity(row.Get("Quantity"))
	if err != nil {
		return RawItemRecord{}, errors.NewValidationError(row.Num, "Quantity", err.Error())
	}
	record.Quantity = qty

	return validated(record, row.Num)
}

// itemNamePattern matches the card details ShipStation packs into the item
// name: "Cultivate [M21] #183" with the collector number optional.
var itemNamePattern = regexp.MustCompile(`^(.*?)\s*\[([A-Za-z0-9]{2,6})\]\s*(?:#(\S+))?`)

// parseShipStationRow maps one shipment-export item row to a RawItemRecord.
func parseShipStationRow(row csvutil.Row) (RawItemRecord, error) {
	itemName := row.Get("Item - Name")
	matches := itemNamePattern.FindStringSubmatch(itemName)
	if matches == nil {
		return RawItemRecord{}, errors.NewValidationError(row.Num, "Item - Name",
			fmt.Sprintf("no set code in item name %q", itemName))
	}

	record := RawItemRecord{
		OrderID:   row.Get("Order - Number"),
		Name:      strings.TrimSpace(matches[1]),
		SetCode:   strings.ToUpper(matches[2]),
		Number:    matches[3],
		Condition: row.Get("Item - Condition"),
		SKU:       row.Get("Item - SKU"),
	}
	record.OrderLabel = record.OrderID
	record.Price, record.PriceKnown = ParsePrice(row.Get("Item - Unit Price"))
	if strings.Contains(strings.ToLower(itemName), "(foil)") {
		record.Finish = "Foil"
	}

	qty, err := parseQuantity(row.Get("Item - Qty"))
	if err != nil {
		return RawItemRecord{}, errors.NewValidationError(row.Num, "Item - Qty", err.Error())
	}
	record.Quantity = qty

	return validated(record, row.Num)
}

// FromOrder flattens one ManaPool order into RawItemRecords. Items without
// card details (sealed product, bulk lots) are rejected, not dropped
// silently, so the summary accounts for them.
func FromOrder(order *manapool.Order) (records []RawItemRecord, rejects []error) {
	for i, item := range order.Items {
		single := item.Product.Single
		if single == nil {
			rejects = append(rejects, errors.NewValidationError(i+1, "product",
				fmt.Sprintf("order %s item has no card details", order.ID)))
			continue
		}

		record := RawItemRecord{
			OrderID:    order.ID,
			OrderLabel: order.Label,
			Name:       single.Name,
			SetCode:    strings.ToUpper(single.Set),
			Number:     single.Number,
			Quantity:   item.Quantity,
			Condition:  single.ConditionID,
			Finish:     single.FinishID,
			SKU:        item.Product.TCGPlayerSKU,
		}
		if item.PriceCents > 0 {
			record.Price = item.Price()
			record.PriceKnown = true
		}

		validRecord, err := validated(record, i+1)
		if err != nil {
			rejects = append(rejects, err)
			continue
		}
		records = append(records, validRecord)
	}
	return records, rejects
}

// validated checks required fields and fills optional defaults.
func validated(record RawItemRecord, row int) (RawItemRecord, error) {
	if record.Name == "" {
		return RawItemRecord{}, errors.NewValidationError(row, "name", "card name is required")
	}
	if record.SetCode == "" {
		return RawItemRecord{}, errors.NewValidationError(row, "set", "set code is required")
	}
	if record.Quantity <= 0 {
		return RawItemRecord{}, errors.NewValidationError(row, "quantity",
			fmt.Sprintf("quantity must be positive, got %d", record.Quantity))
	}

	if record.Condition == "" {
		record.Condition = DefaultCondition
	}
	if record.Language == "" {
		record.Language = DefaultLanguage
	}
	if record.Finish == "" {
		record.Finish = DefaultFinish
	}
	return record, nil
}

// parseQuantity parses a required quantity cell, tolerating surrounding
// whitespace. Schema detection guarantees the column exists, so an empty
// cell is a validation failure, not a default.
func parseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("quantity is required")
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return qty, nil
}

// priceCleaner strips currency symbols, thousands separators and whitespace
// before numeric parsing.
var priceCleaner = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "", " ", "")

// ParsePrice parses a price with tolerance for currency symbols and
// thousands separators. Unparsable input is unknown, never an error.
func ParsePrice(s string) (float64, bool) {
	cleaned := priceCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
