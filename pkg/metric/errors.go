package metric

import (
	"errors"
	"fmt"
)

// ErrInvalidObservation marks a recorded value that violates the
// instrument's constraint. Matched with errors.Is.
var ErrInvalidObservation = errors.New("invalid observation")

// ObservationError reports a rejected observation. It wraps
// ErrInvalidObservation and never affects prior aggregates.
type ObservationError struct {
	Instrument string
	Value      float64
}

// Error implements the error interface.
func (e *ObservationError) Error() string {
	return fmt.Sprintf("invalid observation %v for instrument %q", e.Value, e.Instrument)
}

// Unwrap returns ErrInvalidObservation.
func (e *ObservationError) Unwrap() error {
	return ErrInvalidObservation
}

// InstrumentError reports an instrument registration failure, such as
// re-registering a name with a different kind.
type InstrumentError struct {
	Name    string
	Op      string
	Message string
}

// Error implements the error interface.
func (e *InstrumentError) Error() string {
	return fmt.Sprintf("instrument error [%s] in %s: %s", e.Name, e.Op, e.Message)
}
