// Package locations maintains the set-code to physical-location mapping used
// to tell a picker which drawer or box holds a given set. The mapping is a
// single-owner object with an explicit load/assign/persist lifecycle; callers
// pass it where needed instead of reaching for a global.
package locations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/cardshed/pickwick/internal/errors"
	"github.com/cardshed/pickwick/internal/fileutil"
)

// Unassigned is the sentinel location for set codes with no assignment.
// It sorts after every named location so unresolved items stay grouped
// at the end of picking reports.
const Unassigned = "Unassigned"

// Mapping holds set-code location assignments keyed by upper-cased set code.
// Single-writer: Assign persists immediately, concurrent writers are not
// supported.
type Mapping struct {
	path    string
	entries map[string]string
}

// Load reads a mapping file. Both the flat {"SET": "Location"} form and the
// nested {"drawer_mapping": {...}} export form are accepted. A missing file
// yields an empty mapping, not an error.
func Load(path string) (*Mapping, error) {
	m := &Mapping{
		path:    path,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Location mapping file not found, starting with an empty mapping", "path", path)
			return m, nil
		}
		return nil, fmt.Errorf("failed to read location mapping: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse location mapping %s: %w", path, err)
	}

	if nested, ok := raw["drawer_mapping"]; ok {
		var inner map[string]string
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, fmt.Errorf("failed to parse drawer_mapping in %s: %w", path, err)
		}
		for set, loc := range inner {
			m.entries[strings.ToUpper(set)] = loc
		}
		slog.Debug("Loaded nested location mapping", "path", path, "sets", len(m.entries))
		return m, nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse location mapping %s: %w", path, err)
	}
	for set, loc := range flat {
		m.entries[strings.ToUpper(set)] = loc
	}
	slog.Debug("Loaded location mapping", "path", path, "sets", len(m.entries))
	return m, nil
}

// Path returns the file the mapping was loaded from and saves back to.
func (m *Mapping) Path() string {
	return m.path
}

// Len returns the number of assigned set codes.
func (m *Mapping) Len() int {
	return len(m.entries)
}

// Resolve returns the location for a set code, matched case-insensitively.
// Unknown or empty assignments resolve to the Unassigned sentinel.
func (m *Mapping) Resolve(setCode string) string {
	if loc, ok := m.entries[strings.ToUpper(strings.TrimSpace(setCode))]; ok && loc != "" {
		return loc
	}
	return Unassigned
}

// Assign inserts or overwrites an assignment and persists the mapping
// immediately.
func (m *Mapping) Assign(setCode, location string) error {
	set := strings.ToUpper(strings.TrimSpace(setCode))
	if set == "" {
		return errors.NewValidationError(0, "set", "set code cannot be empty")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return errors.NewValidationError(0, "location", "location cannot be empty")
	}

	m.entries[set] = location
	if err := m.Save(); err != nil {
		return err
	}

	slog.Info("Location assigned", "set", set, "location", location)
	return nil
}

// Save writes the mapping in the flat form with sorted keys and two-space
// indentation. The write is atomic so an interrupt never truncates the file.
func (m *Mapping) Save() error {
	if err := fileutil.WriteJSONFileAtomic(m.entries, m.path); err != nil {
		return fmt.Errorf("failed to save location mapping: %w", err)
	}
	return nil
}

// Sets returns the assigned set codes in sorted order.
func (m *Mapping) Sets() []string {
	sets := make([]string, 0, len(m.entries))
	for set := range m.entries {
		sets = append(sets, set)
	}
	sort.Strings(sets)
	return sets
}

// Labels returns the distinct location labels in natural sort order, so
// "Drawer 2" lists before "Drawer 10".
func (m *Mapping) Labels() []string {
	seen := make(map[string]bool, len(m.entries))
	var labels []string
	for _, loc := range m.entries {
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		labels = append(labels, loc)
	}
	sort.Slice(labels, func(i, j int) bool {
		return naturalLess(labels[i], labels[j])
	})
	return labels
}

// Missing returns the set codes from the input that have no assignment,
// upper-cased, deduplicated and sorted.
func (m *Mapping) Missing(sets []string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, set := range sets {
		upper := strings.ToUpper(strings.TrimSpace(set))
		if upper == "" || seen[upper] {
			continue
		}
		seen[upper] = true
		if loc, ok := m.entries[upper]; !ok || loc == "" {
			missing = append(missing, upper)
		}
	}
	sort.Strings(missing)
	return missing
}

// naturalLess compares strings with embedded numbers numerically and is
// case-insensitive for the text runs.
func naturalLess(a, b string) bool {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			// Compare the whole digit runs as numbers
			iStart, jStart := i, j
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			aNum := strings.TrimLeft(string(ar[iStart:i]), "0")
			bNum := strings.TrimLeft(string(br[jStart:j]), "0")
			if len(aNum) != len(bNum) {
				return len(aNum) < len(bNum)
			}
			if aNum != bNum {
				return aNum < bNum
			}
			continue
		}
		ac, bc := unicode.ToLower(ar[i]), unicode.ToLower(br[j])
		if ac != bc {
			return ac < bc
		}
		i++
		j++
	}
	return len(ar)-i < len(br)-j
}
