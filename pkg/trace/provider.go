package trace

import (
	"sync"
	"sync/atomic"

	"github.com/JailtonJunior94/tracekit-go/pkg/resource"

	"go.uber.org/zap"
)

const defaultIssuedCapacity = 8192

// TracerProvider is an explicitly constructed handle that creates tracers
// bound to one process resource. There is no ambient global provider; tests
// instantiate isolated providers per case.
type TracerProvider struct {
	res        *resource.Resource
	processors []SpanProcessor
	logger     *zap.Logger
	issued     *issuedSet

	usageWarnings atomic.Uint64
}

// ProviderOption configures a TracerProvider.
type ProviderOption func(*TracerProvider)

// WithResource sets the process resource attached to every exported span.
func WithResource(res *resource.Resource) ProviderOption {
	return func(p *TracerProvider) {
		p.res = res
	}
}

// WithSpanProcessor registers a processor receiving finished spans.
// Processors run in registration order on the ending goroutine, so they
// must only enqueue.
func WithSpanProcessor(sp SpanProcessor) ProviderOption {
	return func(p *TracerProvider) {
		if sp != nil {
			p.processors = append(p.processors, sp)
		}
	}
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger so
// telemetry can never fail the host application.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *TracerProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewTracerProvider creates a provider with the given options.
func NewTracerProvider(opts ...ProviderOption) *TracerProvider {
	p := &TracerProvider{
		res:    resource.Default(),
		logger: zap.NewNop(),
		issued: newIssuedSet(defaultIssuedCapacity),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tracer returns a named tracer for one logical component.
func (p *TracerProvider) Tracer(name string) *Tracer {
	return &Tracer{provider: p, name: name}
}

// Resource returns the provider's process resource.
func (p *TracerProvider) Resource() *resource.Resource {
	return p.res
}

// UsageWarnings returns the number of non-fatal contract violations
// observed so far (double End, mutation after End, unknown parent).
func (p *TracerProvider) UsageWarnings() uint64 {
	return p.usageWarnings.Load()
}

func (p *TracerProvider) usageWarning(msg string, fields ...zap.Field) {
	p.usageWarnings.Add(1)
	p.logger.Warn(msg, fields...)
}

func (p *TracerProvider) onEnd(sd SpanData) {
	for _, sp := range p.processors {
		sp.OnEnd(sd)
	}
}

// issuedSet remembers span IDs issued by this provider so referenced
// parents can be sanity-checked. Two generations rotate at a fixed
// capacity, keeping memory bounded in long-lived processes.
type issuedSet struct {
	mu       sync.Mutex
	capacity int
	cur      map[SpanID]struct{}
	prev     map[SpanID]struct{}
}

func newIssuedSet(capacity int) *issuedSet {
	return &issuedSet{
		capacity: capacity,
		cur:      make(map[SpanID]struct{}, capacity),
	}
}

func (s *issuedSet) add(id SpanID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cur) >= s.capacity {
		s.prev = s.cur
		s.cur = make(map[SpanID]struct{}, s.capacity)
	}
	s.cur[id] = struct{}{}
}

func (s *issuedSet) has(id SpanID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cur[id]; ok {
		return true
	}
	_, ok := s.prev[id]
	return ok
}
