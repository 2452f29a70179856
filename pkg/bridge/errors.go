package bridge

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned by Enqueue when the job queue is at capacity.
var ErrQueueFull = errors.New("bridge queue is full")

// ErrNotRunning is returned by Enqueue before Start or after Shutdown.
var ErrNotRunning = errors.New("bridge is not running")

// JobError reports a failure of a background job.
type JobError struct {
	Job     string
	ID      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job error [%s %s]: %s: %v", e.Job, e.ID, e.Message, e.Err)
	}
	return fmt.Sprintf("job error [%s %s]: %s", e.Job, e.ID, e.Message)
}

// Unwrap returns the underlying error.
func (e *JobError) Unwrap() error {
	return e.Err
}
