package pipeline

import "sort"

// Result is the structured outcome of one pipeline run. The pipeline never
// prints or exits; the CLI layer reads the counts and artifact paths from
// here.
type Result struct {
	// Processed counts records that made it into the reports.
	Processed int
	// Rejected counts input rows dropped by validation.
	Rejected int
	// Degraded counts emitted records whose metadata lookup failed.
	Degraded int
	// Unassigned counts records with no location assignment.
	Unassigned int
	// LookupsFailed counts unique printing identities that failed to resolve.
	LookupsFailed int

	// Artifacts lists the report files written, in emit order.
	Artifacts []string
	// Warnings collects validation and lookup problems for the summary.
	Warnings []string

	// Records holds the enriched, sorted records the artifacts were built
	// from, for follow-ups like the high-value reminder.
	Records []EnrichedRecord
}

// HighValueItems returns the records at or above the price threshold,
// ordered price-descending for the binder-retrieval reminder.
func (r *Result) HighValueItems(threshold float64) []EnrichedRecord {
	var items []EnrichedRecord
	for _, record := range r.Records {
		if record.HighValue(threshold) {
			items = append(items, record)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Price > items[j].Price
	})
	return items
}

// TotalValue sums the known prices of all emitted records.
func (r *Result) TotalValue() float64 {
	var total float64
	for _, record := range r.Records {
		if record.PriceKnown {
			total += record.Price * float64(record.Quantity)
		}
	}
	return total
}
