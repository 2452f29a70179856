package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/JailtonJunior94/tracekit-go/pkg/trace"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobFunc is a unit of background work. The context it receives carries the
// trace identity captured at enqueue time.
type JobFunc func(ctx context.Context) error

type job struct {
	id       string
	name     string
	detached trace.Detached
	fn       JobFunc
}

// Bridge schedules work that outlives the originating request. Jobs carry
// an explicit Detached handle captured at enqueue time; at execution the
// bridge re-attaches that identity before running the job, so every span
// the job opens parents under the original trace even though the request
// has long since returned and its spans may already be exported.
type Bridge struct {
	cfg    *Config
	logger *zap.Logger

	intakeMu sync.RWMutex
	jobs     chan job

	group   *errgroup.Group
	running atomic.Bool
	active  atomic.Int32
	done    atomic.Uint64
	failed  atomic.Uint64
	reject  atomic.Uint64

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(b *Bridge) {
		b.cfg.Workers = n
	}
}

// WithQueueSize sets the job queue capacity.
func WithQueueSize(n int) Option {
	return func(b *Bridge) {
		b.cfg.QueueSize = n
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge with the given options. Call Start before Enqueue.
func New(opts ...Option) (*Bridge, error) {
	b := &Bridge{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bridge: invalid configuration: %w", err)
	}

	b.jobs = make(chan job, b.cfg.QueueSize)
	return b, nil
}

// Start launches the worker pool. Workers inherit ctx as the base context
// for job execution; the trace identity from each job's detached handle is
// layered on top per job.
func (b *Bridge) Start(ctx context.Context) {
	if !b.running.CompareAndSwap(false, true) {
		return
	}

	b.group, _ = errgroup.WithContext(context.Background())
	for i := 0; i < b.cfg.Workers; i++ {
		b.group.Go(func() error {
			b.worker(ctx)
			return nil
		})
	}
}

// Enqueue schedules fn to run independently of the caller's lifetime and
// returns immediately with the job ID. A full queue rejects the job with
// ErrQueueFull; completion is not observable by the caller.
func (b *Bridge) Enqueue(detached trace.Detached, name string, fn JobFunc) (string, error) {
	if fn == nil {
		return "", &JobError{Job: name, Message: "job function cannot be nil"}
	}

	b.intakeMu.RLock()
	defer b.intakeMu.RUnlock()

	if !b.running.Load() {
		return "", ErrNotRunning
	}

	j := job{
		id:       ulid.Make().String(),
		name:     name,
		detached: detached,
		fn:       fn,
	}

	select {
	case b.jobs <- j:
		return j.id, nil
	default:
		b.reject.Add(1)
		return "", ErrQueueFull
	}
}

// Shutdown stops intake and drains queued and in-flight jobs, bounded by
// the context deadline or the configured shutdown timeout. Safe to call
// more than once.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.shutdownOnce.Do(func() {
		b.intakeMu.Lock()
		b.running.Store(false)
		close(b.jobs)
		b.intakeMu.Unlock()

		if b.group == nil {
			return
		}

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.cfg.ShutdownTimeout)
			defer cancel()
		}

		waited := make(chan struct{})
		go func() {
			_ = b.group.Wait()
			close(waited)
		}()

		select {
		case <-waited:
		case <-ctx.Done():
			b.shutdownErr = fmt.Errorf("bridge: shutdown deadline with %d active jobs: %w",
				b.active.Load(), ctx.Err())
		}
	})
	return b.shutdownErr
}

// ActiveJobs returns the number of jobs currently executing.
func (b *Bridge) ActiveJobs() int32 {
	return b.active.Load()
}

// CompletedJobs returns the number of jobs that finished, successfully or
// not.
func (b *Bridge) CompletedJobs() uint64 {
	return b.done.Load()
}

// FailedJobs returns the number of jobs that returned an error or panicked.
func (b *Bridge) FailedJobs() uint64 {
	return b.failed.Load()
}

// RejectedJobs returns the number of enqueues rejected by a full queue.
func (b *Bridge) RejectedJobs() uint64 {
	return b.reject.Load()
}

func (b *Bridge) worker(base context.Context) {
	for j := range b.jobs {
		b.runJob(base, j)
	}
}

func (b *Bridge) runJob(base context.Context, j job) {
	b.active.Add(1)
	defer b.active.Add(-1)
	defer b.done.Add(1)

	defer func() {
		if r := recover(); r != nil {
			b.failed.Add(1)
			b.logger.Error("background job panicked",
				zap.String("job", j.name), zap.String("job_id", j.id), zap.Any("panic", r))
		}
	}()

	ctx := j.detached.Attach(base)
	if err := j.fn(ctx); err != nil {
		b.failed.Add(1)
		b.logger.Warn("background job failed",
			zap.String("job", j.name), zap.String("job_id", j.id), zap.Error(err))
	}
}
