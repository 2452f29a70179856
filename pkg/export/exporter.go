package export

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/trace"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// BatchExporter buffers finished spans and flushes them to a Sink on an
// independent schedule, decoupling producer latency from export latency.
// Submission only ever takes the buffer lock; export failures are retried
// with backoff and then absorbed. Export is best-effort by contract: when
// the buffer is full the oldest spans are dropped and counted, never
// blocking the producer.
type BatchExporter struct {
	cfg    *Config
	sink   Sink
	logger *zap.Logger

	mu  sync.Mutex
	buf []trace.SpanData

	dropped atomic.Uint64
	stopped atomic.Bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a batch exporter draining into sink and starts its background
// drain loop.
func New(sink Sink, opts ...Option) (*BatchExporter, error) {
	if sink == nil {
		return nil, &ExporterError{Op: "new", Message: "sink cannot be nil"}
	}

	e := &BatchExporter{
		cfg:    DefaultConfig(),
		sink:   sink,
		logger: zap.NewNop(),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, &ExporterError{Op: "new", Message: "invalid configuration", Err: err}
	}

	e.buf = make([]trace.SpanData, 0, e.cfg.BufferSize)
	go e.loop()
	return e, nil
}

// OnEnd implements trace.SpanProcessor.
func (e *BatchExporter) OnEnd(sd trace.SpanData) {
	e.Submit(sd)
}

// Submit enqueues a finished span. It never blocks beyond the buffer lock:
// a full buffer evicts its oldest span, a stopped exporter drops the new
// one; both are counted.
func (e *BatchExporter) Submit(sd trace.SpanData) {
	e.mu.Lock()
	if e.stopped.Load() {
		e.mu.Unlock()
		e.dropped.Add(1)
		return
	}
	if len(e.buf) >= e.cfg.BufferSize {
		copy(e.buf, e.buf[1:])
		e.buf = e.buf[:len(e.buf)-1]
		e.dropped.Add(1)
	}
	e.buf = append(e.buf, sd)
	full := len(e.buf) >= e.cfg.BatchSize
	e.mu.Unlock()

	if full {
		select {
		case e.wake <- struct{}{}:
		default:
		}
	}
}

// Flush forces an immediate export of all buffered spans.
func (e *BatchExporter) Flush(ctx context.Context) error {
	if e.stopped.Load() {
		return ErrShutdown
	}
	e.export(ctx)
	return ctx.Err()
}

// Shutdown stops intake, drains the buffer one last time bounded by the
// context deadline (or the configured shutdown timeout), and counts any
// still-unflushed spans as drops. Safe to call more than once.
func (e *BatchExporter) Shutdown(ctx context.Context) error {
	e.shutdownOnce.Do(func() {
		e.stopped.Store(true)
		close(e.stop)
		<-e.done

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.cfg.ShutdownTimeout)
			defer cancel()
		}
		e.export(ctx)

		e.mu.Lock()
		if n := len(e.buf); n > 0 {
			e.dropped.Add(uint64(n))
			e.buf = nil
			e.shutdownErr = &ExporterError{
				Op:      "shutdown",
				Message: fmt.Sprintf("%d spans unflushed at deadline", n),
				Err:     ctx.Err(),
			}
		}
		e.mu.Unlock()
	})
	return e.shutdownErr
}

// DroppedSpans returns the number of spans lost to buffer eviction, failed
// exports, or shutdown.
func (e *BatchExporter) DroppedSpans() uint64 {
	return e.dropped.Load()
}

// Buffered returns the number of spans currently waiting for export.
func (e *BatchExporter) Buffered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buf)
}

func (e *BatchExporter) loop() {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
		case <-e.wake:
		}
		e.export(context.Background())
	}
}

// export drains the buffer in batches of at most BatchSize. Each batch is
// copied out under the lock so producers are only blocked for the swap.
func (e *BatchExporter) export(ctx context.Context) {
	for {
		e.mu.Lock()
		if len(e.buf) == 0 {
			e.mu.Unlock()
			return
		}
		n := len(e.buf)
		if n > e.cfg.BatchSize {
			n = e.cfg.BatchSize
		}
		batch := make([]trace.SpanData, n)
		copy(batch, e.buf[:n])
		e.buf = append(e.buf[:0], e.buf[n:]...)
		e.mu.Unlock()

		if err := e.exportBatch(ctx, batch); err != nil {
			e.dropped.Add(uint64(len(batch)))
			e.logger.Warn("dropping span batch after failed export",
				zap.Int("spans", len(batch)), zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (e *BatchExporter) exportBatch(ctx context.Context, batch []trace.SpanData) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.RetryInitialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(e.cfg.MaxRetries)), ctx)
	return backoff.Retry(func() error {
		return e.sink.ExportSpans(ctx, batch)
	}, policy)
}
