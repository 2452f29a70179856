package bridge

import (
	"errors"
	"time"
)

// Config contains the bridge settings.
type Config struct {
	// Workers is the number of goroutines executing jobs.
	Workers int

	// QueueSize is the capacity of the job queue. A full queue rejects new
	// jobs with ErrQueueFull rather than blocking or silently evicting
	// user work.
	QueueSize int

	// ShutdownTimeout bounds the drain of in-flight jobs when Shutdown is
	// called with a context that has no deadline of its own.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default bridge configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:         4,
		QueueSize:       256,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("queue size must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
