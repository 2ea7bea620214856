package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// SortField is one of the fixed set of sortable record fields.
type SortField string

// Sortable fields.
const (
	FieldLocation  SortField = "location"
	FieldSet       SortField = "set"
	FieldName      SortField = "name"
	FieldCondition SortField = "condition"
	FieldRarity    SortField = "rarity"
	FieldPrice     SortField = "price"
	FieldCardType  SortField = "card_type"
	FieldColor     SortField = "color"
)

// maxSortKeys caps how many keys a SortSpec may carry.
const maxSortKeys = 3

var validSortFields = map[SortField]bool{
	FieldLocation:  true,
	FieldSet:       true,
	FieldName:      true,
	FieldCondition: true,
	FieldRarity:    true,
	FieldPrice:     true,
	FieldCardType:  true,
	FieldColor:     true,
}

// rarityRank orders rarities by scarcity. Lexicographic ordering would put
// mythic before rare, so rarity always sorts by rank. Unknown rarities rank
// after mythic.
var rarityRank = map[string]int{
	"common":   0,
	"uncommon": 1,
	"rare":     2,
	"mythic":   3,
}

// SortKey is one (field, direction) level of a SortSpec.
type SortKey struct {
	Field SortField
	Desc  bool
}

// SortSpec is the ordered list of up to three sort keys applied to a report.
type SortSpec struct {
	Keys []SortKey
}

// ParseSortSpec builds a SortSpec from key strings of the form "field",
// "field:asc" or "field:desc". Unknown fields, repeated fields and more
// than three keys are configuration errors, reported before any record
// processing begins.
func ParseSortSpec(keys []string) (SortSpec, error) {
	if len(keys) == 0 {
		return SortSpec{}, fmt.Errorf("sort spec needs at least one key")
	}
	if len(keys) > maxSortKeys {
		return SortSpec{}, fmt.Errorf("sort spec allows at most %d keys, got %d", maxSortKeys, len(keys))
	}

	spec := SortSpec{Keys: make([]SortKey, 0, len(keys))}
	seen := make(map[SortField]bool, len(keys))

	for _, raw := range keys {
		field, direction, hasDirection := strings.Cut(strings.TrimSpace(raw), ":")
		key := SortKey{Field: SortField(strings.ToLower(field))}

		if !validSortFields[key.Field] {
			return SortSpec{}, fmt.Errorf("unknown sort field %q (valid: %s)", field, validFieldList())
		}
		if seen[key.Field] {
			return SortSpec{}, fmt.Errorf("sort field %q repeats across levels", key.Field)
		}
		seen[key.Field] = true

		if hasDirection {
			switch strings.ToLower(strings.TrimSpace(direction)) {
			case "asc":
			case "desc":
				key.Desc = true
			default:
				return SortSpec{}, fmt.Errorf("invalid sort direction %q for field %q (use asc or desc)", direction, key.Field)
			}
		}

		spec.Keys = append(spec.Keys, key)
	}

	return spec, nil
}

// String renders the spec in the form accepted by ParseSortSpec.
func (s SortSpec) String() string {
	parts := make([]string, len(s.Keys))
	for i, key := range s.Keys {
		parts[i] = string(key.Field)
		if key.Desc {
			parts[i] += ":desc"
		}
	}
	return strings.Join(parts, ",")
}

func validFieldList() string {
	fields := make([]string, 0, len(validSortFields))
	for field := range validSortFields {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)
	return strings.Join(fields, ", ")
}

// SortRecords orders records by the spec's keys in turn. The sort is stable:
// records equal on every active key keep their input order. Two sentinel
// policies hold regardless of direction, so the odd groups stay pinned to
// one end: unknown prices sort as the lowest value, and the Unassigned
// location sorts after every named location.
func SortRecords(records []EnrichedRecord, spec SortSpec) {
	if len(spec.Keys) == 0 {
		return
	}

	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range spec.Keys {
			var cmp int
			if key.Field == FieldLocation {
				// Location handles direction itself so the Unassigned
				// sentinel stays pinned after every named location.
				cmp = compareLocation(records[i], records[j], key.Desc)
			} else {
				cmp = compareField(records[i], records[j], key.Field)
				if key.Desc {
					cmp = -cmp
				}
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

// compareField compares two records on one field, ignoring direction.
func compareField(a, b EnrichedRecord, field SortField) int {
	switch field {
	case FieldPrice:
		return comparePrice(a, b)
	case FieldRarity:
		return compareRank(rank(a.Rarity), rank(b.Rarity))
	case FieldSet:
		return compareFold(a.SetCode, b.SetCode)
	case FieldName:
		return compareFold(a.Name, b.Name)
	case FieldCondition:
		return compareFold(a.Condition, b.Condition)
	case FieldCardType:
		return compareFold(a.TypeLine, b.TypeLine)
	case FieldColor:
		return compareFold(a.Colors, b.Colors)
	default:
		return 0
	}
}

// comparePrice orders numerically with the unknown sentinel as the lowest
// value, so unpriced records group at one end in either direction.
func comparePrice(a, b EnrichedRecord) int {
	switch {
	case !a.PriceKnown && !b.PriceKnown:
		return 0
	case !a.PriceKnown:
		return -1
	case !b.PriceKnown:
		return 1
	case a.Price < b.Price:
		return -1
	case a.Price > b.Price:
		return 1
	default:
		return 0
	}
}

// compareLocation orders named locations case-insensitively in the given
// direction. The Unassigned sentinel lands after every named location in
// either direction, keeping unresolved items visually separated at the end.
func compareLocation(a, b EnrichedRecord, desc bool) int {
	aUnassigned := a.Location == unassignedLocation
	bUnassigned := b.Location == unassignedLocation
	switch {
	case aUnassigned && bUnassigned:
		return 0
	case aUnassigned:
		return 1
	case bUnassigned:
		return -1
	}

	cmp := compareFold(a.Location, b.Location)
	if desc {
		cmp = -cmp
	}
	return cmp
}

func compareRank(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func rank(rarity string) int {
	if r, ok := rarityRank[strings.ToLower(rarity)]; ok {
		return r
	}
	return len(rarityRank)
}

// compareFold compares strings case-insensitively.
func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
