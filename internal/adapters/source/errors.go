package source

import (
	"errors"
	"fmt"
)

// Sentinel kinds for data source errors.
var (
	ErrInputShape       = errors.New("input shape")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrUpstream         = errors.New("upstream request failed")
)

// InputShapeError reports an upstream record whose field is present but
// cannot be coerced to the expected type. Index is -1 for single records.
type InputShapeError struct {
	Kind  string
	Index int
	Field string
	Value any
	Err   error
}

func (e *InputShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s field %q has value %v: %v", ErrInputShape, e.Kind, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s[%d] field %q has value %v: %v", ErrInputShape, e.Kind, e.Index, e.Field, e.Value, e.Err)
}

// Unwrap lets errors.Is match ErrInputShape and the coercion cause.
func (e *InputShapeError) Unwrap() []error {
	return []error{ErrInputShape, e.Err}
}
