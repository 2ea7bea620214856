package errors

import (
	stdErrors "errors"
	"fmt"
)

// ValidationError represents a rejected input row: a required field was
// missing or unusable. Rows with validation errors are skipped and counted;
// they never abort the batch.
type ValidationError struct {
	Row     int // 1-based data row number, 0 when the source has no row numbers
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given row and field.
func NewValidationError(row int, field, message string) *ValidationError {
	return &ValidationError{Row: row, Field: field, Message: message}
}

// IsValidationError reports whether err is a ValidationError (even when wrapped).
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return stdErrors.As(err, &vErr)
}
