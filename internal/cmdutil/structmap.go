package cmdutil

import (
	"reflect"
	"strings"
	"unicode"
)

// StructToMapOptions configures StructToMap.
type StructToMapOptions struct {
	// OmitFields lists struct field names (Go names, not snake_case keys)
	// to leave out of the result.
	OmitFields map[string]bool
}

// StructToMap flattens a struct into a map keyed by snake_case field names,
// descending into embedded structs. It backs the history writer, which needs
// record fields as database columns without hand-maintaining a field list.
func StructToMap[T any](value T, opts StructToMapOptions) map[string]any {
	result := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return result
		}
		v = v.Elem()
	}
	collectFields(v, result, opts)
	return result
}

func collectFields(v reflect.Value, result map[string]any, opts StructToMapOptions) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if opts.OmitFields[field.Name] {
			continue
		}

		value := v.Field(i)
		if field.Anonymous && value.Kind() == reflect.Struct {
			collectFields(value, result, opts)
			continue
		}
		if value.Kind() == reflect.Pointer {
			if value.IsNil() {
				result[toSnakeCase(field.Name)] = nil
				continue
			}
			value = value.Elem()
		}

		result[toSnakeCase(field.Name)] = value.Interface()
	}
}

// toSnakeCase turns Go field names into column names: OrderID becomes
// order_id, SKU becomes sku, PriceKnown becomes price_known.
func toSnakeCase(input string) string {
	runes := []rune(input)
	var builder strings.Builder
	builder.Grow(len(runes) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				builder.WriteRune('_')
			}
		}
		builder.WriteRune(unicode.ToLower(r))
	}

	return builder.String()
}
