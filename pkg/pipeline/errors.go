package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned by a job when the raw input handed to it does
// not have the expected shape. Field names the offending input field.
type ValidationError struct {
	Message string
	Field   string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validationf returns a new ValidationError for the given field.
func Validationf(field, format string, args ...interface{}) error {
	return ValidationError{
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	return errors.As(err, &ValidationError{})
}

// DuplicateJobError is returned when a job name is added twice to a definition.
type DuplicateJobError struct {
	Name string
}

func (e DuplicateJobError) Error() string {
	return fmt.Sprintf("job %s already exists in pipeline", e.Name)
}

// UnknownJobError is returned when a range boundary names a job the definition
// does not contain.
type UnknownJobError struct {
	Name      string
	Available []string
}

func (e UnknownJobError) Error() string {
	return fmt.Sprintf("unknown job %s, available jobs: %s", e.Name, strings.Join(e.Available, ", "))
}

// InvalidRangeError is returned when the start job comes after the stop job.
type InvalidRangeError struct {
	StartFrom  string
	StopAfter  string
	StartIndex int
	StopIndex  int
}

func (e InvalidRangeError) Error() string {
	return fmt.Sprintf("start job %s (index %d) must come before stop job %s (index %d)",
		e.StartFrom, e.StartIndex, e.StopAfter, e.StopIndex)
}
