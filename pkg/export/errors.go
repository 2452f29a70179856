package export

import (
	"errors"
	"fmt"
)

// ErrShutdown is returned by Flush after the exporter was shut down.
var ErrShutdown = errors.New("exporter is shut down")

// ExporterError describes a failure inside the exporter.
type ExporterError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ExporterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exporter error in %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("exporter error in %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExporterError) Unwrap() error {
	return e.Err
}
