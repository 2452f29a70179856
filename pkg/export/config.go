package export

import (
	"errors"
	"time"
)

// Config contains the batch exporter settings.
type Config struct {
	// BufferSize is the capacity of the span buffer. When full, the oldest
	// span is evicted and counted as a drop.
	BufferSize int

	// BatchSize is the maximum number of spans per export call; reaching it
	// also triggers an early drain.
	BatchSize int

	// Interval is the cadence of the background drain.
	Interval time.Duration

	// MaxRetries is the number of retries per failed batch before it is
	// dropped.
	MaxRetries int

	// RetryInitialInterval is the initial backoff delay between retries.
	RetryInitialInterval time.Duration

	// ShutdownTimeout bounds the final flush when Shutdown is called with a
	// context that has no deadline of its own.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize:           2048,
		BatchSize:            512,
		Interval:             5 * time.Second,
		MaxRetries:           3,
		RetryInitialInterval: 100 * time.Millisecond,
		ShutdownTimeout:      10 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.BatchSize > c.BufferSize {
		return errors.New("batch size cannot exceed buffer size")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.RetryInitialInterval <= 0 {
		return errors.New("retry initial interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
