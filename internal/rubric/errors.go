package rubric

import (
	"errors"
	"fmt"
)

// Sentinel errors for baseline loading and validation.
var (
	// ErrNoBaseline indicates the baseline file does not exist.
	ErrNoBaseline = errors.New("baseline file not found")
	// ErrInvalidCriterion indicates a criterion is incomplete or inconsistent.
	ErrInvalidCriterion = errors.New("invalid criterion")
)

// CriterionError records a validation problem with the criterion it was
// found in.
type CriterionError struct {
	Index int    // position in the criteria list
	ID    string // criterion id, may be empty
	Field string // offending field, may be empty
	Err   error
}

// Error returns a human-readable string including the criterion position
// and id.
func (e *CriterionError) Error() string {
	loc := fmt.Sprintf("criteria[%d]", e.Index)
	if e.ID != "" {
		loc += " (" + e.ID + ")"
	}
	if e.Field != "" {
		loc += ": " + e.Field
	}
	return loc + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *CriterionError) Unwrap() error {
	return e.Err
}

func invalid(i int, c Criterion, field, format string, args ...any) error {
	return &CriterionError{
		Index: i,
		ID:    c.ID,
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrInvalidCriterion, fmt.Sprintf(format, args...)),
	}
}
