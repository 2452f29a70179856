package export

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a BatchExporter.
type Option func(*BatchExporter)

// WithBufferSize sets the span buffer capacity.
func WithBufferSize(n int) Option {
	return func(e *BatchExporter) {
		e.cfg.BufferSize = n
	}
}

// WithBatchSize sets the maximum spans per export call.
func WithBatchSize(n int) Option {
	return func(e *BatchExporter) {
		e.cfg.BatchSize = n
	}
}

// WithInterval sets the background drain cadence.
func WithInterval(d time.Duration) Option {
	return func(e *BatchExporter) {
		e.cfg.Interval = d
	}
}

// WithMaxRetries sets the retries per failed batch.
func WithMaxRetries(n int) Option {
	return func(e *BatchExporter) {
		e.cfg.MaxRetries = n
	}
}

// WithRetryInitialInterval sets the initial backoff delay between retries.
func WithRetryInitialInterval(d time.Duration) Option {
	return func(e *BatchExporter) {
		e.cfg.RetryInitialInterval = d
	}
}

// WithShutdownTimeout bounds the final flush on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(e *BatchExporter) {
		e.cfg.ShutdownTimeout = d
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *BatchExporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}
