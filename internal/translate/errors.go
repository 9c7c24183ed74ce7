package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnitFailure marks a unit that exhausted its retries or hit a permanent error.
	ErrUnitFailure = errors.New("translation unit failure")
	// ErrEmptyTranslation reports a backend that returned nothing for non-empty input.
	ErrEmptyTranslation = errors.New("backend returned empty translation")
)

// UnitError describes why one unit could not be translated.
type UnitError struct {
	Index    int
	Attempts int
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("translation unit %d failed after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
}

func (e *UnitError) Unwrap() []error {
	return []error{ErrUnitFailure, e.Err}
}
