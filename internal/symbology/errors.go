package symbology

import (
	"errors"
	"fmt"
)

// ErrMalformedSymbology indicates a symbology value is present but has a
// shape that cannot be interpreted, such as a color that is not four numbers.
var ErrMalformedSymbology = errors.New("malformed symbology")

// SymbologyError records where in a layer's renderer tree a malformed value
// was found.
type SymbologyError struct {
	Layer string // layer display name, when known
	Field string // dotted path below the layer root
	Err   error
}

// Error returns the field path and the underlying cause.
func (e *SymbologyError) Error() string {
	if e.Layer != "" {
		return "layer " + e.Layer + ": " + e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *SymbologyError) Unwrap() error {
	return e.Err
}

func malformed(field, format string, args ...any) error {
	return &SymbologyError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrMalformedSymbology, fmt.Sprintf(format, args...)),
	}
}

// withLayer stamps the layer name onto a SymbologyError.
func withLayer(err error, name string) error {
	var se *SymbologyError
	if name != "" && errors.As(err, &se) && se.Layer == "" {
		se.Layer = name
	}
	return err
}
