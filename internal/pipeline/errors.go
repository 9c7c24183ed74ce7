package pipeline

import (
	"errors"
	"fmt"
)

// ErrTooManyUnitFailures reports a batch whose failed units exceed the policy.
var ErrTooManyUnitFailures = errors.New("too many failed translation units")

// Failure is returned by Run when a stage fails. Stage is the state the run
// was trying to reach.
type Failure struct {
	RunID string
	Stage State
	Cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("pipeline failed entering %s: %v", f.Stage, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}
