// Package csvutil provides header-aware CSV reading for the pipeline's
// file-based input paths. Columns are addressed by name, so the same
// machinery handles every export schema the normalizer knows about.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Header maps column names to their positions in a CSV file. Lookups are
// case-insensitive and ignore surrounding whitespace.
type Header struct {
	names   []string
	indexes map[string]int
}

// NewHeader builds a Header from a raw header record.
func NewHeader(record []string) Header {
	h := Header{
		names:   make([]string, len(record)),
		indexes: make(map[string]int, len(record)),
	}
	for i, name := range record {
		if i == 0 {
			// Excel and ShipStation exports open with a UTF-8 BOM.
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		trimmed := strings.TrimSpace(name)
		h.names[i] = trimmed
		key := normalizeName(trimmed)
		if _, ok := h.indexes[key]; !ok {
			h.indexes[key] = i
		}
	}
	return h
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Names returns the column names in file order.
func (h Header) Names() []string {
	return h.names
}

// Index returns the position of the named column, or -1 when absent.
func (h Header) Index(name string) int {
	if i, ok := h.indexes[normalizeName(name)]; ok {
		return i
	}
	return -1
}

// HasAll reports whether every named column is present.
func (h Header) HasAll(names ...string) bool {
	return len(h.Missing(names...)) == 0
}

// Missing returns the subset of names absent from the header.
func (h Header) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if h.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Row is one CSV record paired with the header it was read under.
type Row struct {
	// Num is the 1-based position among the file's data rows; the header
	// row is not counted.
	Num    int
	header Header
	record []string
}

// Get returns the trimmed value of the named column, or "" when the column
// is absent.
func (r Row) Get(name string) string {
	i := r.header.Index(name)
	if i < 0 || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// GetAny returns the value of the first column present among names. Exports
// disagree on some column spellings, so callers list the variants.
func (r Row) GetAny(names ...string) string {
	for _, name := range names {
		if r.header.Index(name) >= 0 {
			return r.Get(name)
		}
	}
	return ""
}

// ReadHeader reads only the header row of a CSV file. Callers use it to
// detect which schema a file carries before parsing the rest.
func ReadHeader(filename string) (Header, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	record, err := csv.NewReader(file).Read()
	if err != nil {
		return Header{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	return NewHeader(record), nil
}

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid controls whether to skip invalid rows or return an error.
	SkipInvalid bool

	// OnInvalid, when set, receives the error for each skipped row instead
	// of the default log warning.
	OnInvalid func(err error)
}

// ProcessCSV reads a CSV file and parses each data row into type T.
// The parser function converts a Row (with header-based field access) into
// the target type. Returns a slice of parsed items or an error.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer func() { _ = csvFile.Close() }()

	// File existence check
	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(csvFile)

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}
	header := NewHeader(headerRecord)

	var items []T
	num := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		num++
		if err != nil {
			reportInvalid(opts, fmt.Errorf("row %d: %w", num, err))
			continue
		}

		item, err := parser(Row{Num: num, header: header, record: record})
		if err != nil {
			if opts.SkipInvalid {
				reportInvalid(opts, err)
				continue
			}
			return nil, fmt.Errorf("invalid record: %v", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func reportInvalid(opts ProcessorOptions, err error) {
	if opts.OnInvalid != nil {
		opts.OnInvalid(err)
		return
	}
	slog.Warn("Skipping invalid record", "error", err)
}
