package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// builtinPresets are the sort presets available without a presets file.
// picking mirrors the drawer-walk order a picker actually follows; value
// surfaces the expensive cards first for binder retrieval.
var builtinPresets = map[string][]string{
	"picking": {"location", "set", "name"},
	"value":   {"price:desc", "name"},
	"orders":  {"name", "set"},
}

// DefaultPreset is used when no sort flag or config value is given.
const DefaultPreset = "picking"

// Presets holds named sort specs, merged from the built-ins and an optional
// YAML presets file. File entries override built-ins of the same name.
type Presets struct {
	specs map[string][]string
}

// LoadPresets reads a YAML presets file of the form
//
//	picking: [location, set, name]
//	value: ["price:desc", name]
//
// and merges it over the built-in presets. A missing file yields just the
// built-ins; a malformed file is a configuration error.
func LoadPresets(path string) (*Presets, error) {
	presets := &Presets{specs: make(map[string][]string, len(builtinPresets))}
	for name, keys := range builtinPresets {
		presets.specs[name] = keys
	}

	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("Sort presets file not found, using built-ins", "path", path)
			return presets, nil
		}
		return nil, fmt.Errorf("failed to read sort presets: %w", err)
	}

	var fromFile map[string][]string
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse sort presets %s: %w", path, err)
	}

	for name, keys := range fromFile {
		presets.specs[strings.ToLower(name)] = keys
	}
	slog.Debug("Loaded sort presets", "path", path, "presets", len(fromFile))
	return presets, nil
}

// Names returns the available preset names in sorted order.
func (p *Presets) Names() []string {
	names := make([]string, 0, len(p.specs))
	for name := range p.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec resolves a preset name to a parsed SortSpec. Parsing happens here so
// a bad preset fails at configuration time, before any records move.
func (p *Presets) Spec(name string) (SortSpec, error) {
	keys, ok := p.specs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return SortSpec{}, fmt.Errorf("unknown sort preset %q (available: %s)",
			name, strings.Join(p.Names(), ", "))
	}

	spec, err := ParseSortSpec(keys)
	if err != nil {
		return SortSpec{}, fmt.Errorf("invalid sort preset %q: %w", name, err)
	}
	return spec, nil
}
