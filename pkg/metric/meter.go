package metric

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/resource"

	"go.uber.org/zap"
)

const defaultMaxPoints = 16384

// Meter owns the instrument registry, the raw-observation buffer, and the
// aggregation state for one process. Like the tracer provider it is an
// explicitly constructed handle, never a global.
type Meter struct {
	res    *resource.Resource
	logger *zap.Logger

	regMu       sync.Mutex
	counters    map[string]*Counter
	histograms  map[string]*Histogram
	descriptors map[string]Descriptor

	bufMu         sync.Mutex
	points        []Point
	maxPoints     int
	droppedPoints atomic.Uint64

	aggMu       sync.Mutex
	series      map[string]*series
	windowStart time.Time
	windowEnd   time.Time
	snapshot    []Aggregate
}

// MeterOption configures a Meter.
type MeterOption func(*Meter)

// WithResource sets the process resource reported with aggregates.
func WithResource(res *resource.Resource) MeterOption {
	return func(m *Meter) {
		if res != nil {
			m.res = res
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) MeterOption {
	return func(m *Meter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMaxPoints bounds the raw-observation buffer. On overflow the oldest
// point is evicted and counted.
func WithMaxPoints(n int) MeterOption {
	return func(m *Meter) {
		if n > 0 {
			m.maxPoints = n
		}
	}
}

// NewMeter creates a meter with the given options.
func NewMeter(opts ...MeterOption) *Meter {
	m := &Meter{
		res:         resource.Default(),
		logger:      zap.NewNop(),
		counters:    make(map[string]*Counter),
		histograms:  make(map[string]*Histogram),
		descriptors: make(map[string]Descriptor),
		maxPoints:   defaultMaxPoints,
		series:      make(map[string]*series),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.points = make([]Point, 0, m.maxPoints)
	return m
}

// Resource returns the meter's process resource.
func (m *Meter) Resource() *resource.Resource {
	return m.res
}

// InstrumentOption configures an instrument at registration time.
type InstrumentOption func(*Descriptor)

// WithUnit sets the instrument unit (e.g. "ms").
func WithUnit(unit string) InstrumentOption {
	return func(d *Descriptor) {
		d.Unit = unit
	}
}

// WithDescription sets the instrument description.
func WithDescription(desc string) InstrumentOption {
	return func(d *Descriptor) {
		d.Description = desc
	}
}

// WithBuckets sets histogram bucket boundaries. Boundaries are sorted and
// immutable after registration; counters ignore them.
func WithBuckets(bounds ...float64) InstrumentOption {
	return func(d *Descriptor) {
		sorted := make([]float64, len(bounds))
		copy(sorted, bounds)
		sort.Float64s(sorted)
		d.Buckets = sorted
	}
}

// Counter registers or returns the counter with the given name. Registering
// an existing name returns the existing instrument; a kind conflict is an
// error. Options only apply on first registration.
func (m *Meter) Counter(name string, opts ...InstrumentOption) (*Counter, error) {
	if name == "" {
		return nil, &InstrumentError{Name: name, Op: "register", Message: "instrument name cannot be empty"}
	}

	m.regMu.Lock()
	defer m.regMu.Unlock()

	if existing, ok := m.descriptors[name]; ok {
		if existing.Kind != KindCounter {
			return nil, &InstrumentError{
				Name:    name,
				Op:      "register",
				Message: "already registered as " + existing.Kind.String(),
			}
		}
		return m.counters[name], nil
	}

	desc := Descriptor{Name: name, Kind: KindCounter}
	for _, opt := range opts {
		opt(&desc)
	}
	desc.Buckets = nil

	c := &Counter{meter: m, desc: desc}
	m.descriptors[name] = desc
	m.counters[name] = c
	return c, nil
}

// Histogram registers or returns the histogram with the given name. Bucket
// boundaries are fixed at first registration.
func (m *Meter) Histogram(name string, opts ...InstrumentOption) (*Histogram, error) {
	if name == "" {
		return nil, &InstrumentError{Name: name, Op: "register", Message: "instrument name cannot be empty"}
	}

	m.regMu.Lock()
	defer m.regMu.Unlock()

	if existing, ok := m.descriptors[name]; ok {
		if existing.Kind != KindHistogram {
			return nil, &InstrumentError{
				Name:    name,
				Op:      "register",
				Message: "already registered as " + existing.Kind.String(),
			}
		}
		return m.histograms[name], nil
	}

	desc := Descriptor{Name: name, Kind: KindHistogram, Buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(&desc)
	}
	if len(desc.Buckets) == 0 {
		desc.Buckets = DefaultBuckets
	}

	h := &Histogram{meter: m, desc: desc}
	m.descriptors[name] = desc
	m.histograms[name] = h
	return h, nil
}

// record appends a raw observation. The lock is held only for the append
// or the eviction; recording never blocks on aggregation.
func (m *Meter) record(p Point) {
	m.bufMu.Lock()
	var evicted bool
	if len(m.points) >= m.maxPoints {
		copy(m.points, m.points[1:])
		m.points = m.points[:len(m.points)-1]
		m.droppedPoints.Add(1)
		evicted = true
	}
	m.points = append(m.points, p)
	m.bufMu.Unlock()

	if evicted {
		m.logger.Warn("metric point buffer full, dropping oldest point",
			zap.String("instrument", p.Instrument), zap.Uint64("dropped", m.droppedPoints.Load()))
	}
}

// DroppedPoints returns the number of raw observations lost to buffer
// eviction.
func (m *Meter) DroppedPoints() uint64 {
	return m.droppedPoints.Load()
}

// Collect reduces all raw observations recorded since the previous pass
// into the cumulative aggregate set and returns the completed window. The
// raw buffer is taken with a copy-and-swap under its lock, so writers are
// never blocked for longer than the swap; observations recorded during the
// reduction land in the next window. A pull with no new observations
// returns the prior window unchanged, making repeated exposition
// idempotent.
func (m *Meter) Collect(now time.Time) []Aggregate {
	m.bufMu.Lock()
	pts := m.points
	m.points = make([]Point, 0, m.maxPoints)
	m.bufMu.Unlock()

	m.aggMu.Lock()
	defer m.aggMu.Unlock()

	if m.windowStart.IsZero() {
		m.windowStart = now
	}
	if len(pts) == 0 && m.snapshot != nil {
		return m.snapshot
	}

	for _, p := range pts {
		key := p.Instrument + "|" + p.Attributes.Key()
		s, ok := m.series[key]
		if !ok {
			m.regMu.Lock()
			desc, registered := m.descriptors[p.Instrument]
			m.regMu.Unlock()
			if !registered {
				// Points always originate from a registered instrument.
				m.logger.Warn("discarding point for unregistered instrument",
					zap.String("instrument", p.Instrument))
				continue
			}
			s = newSeries(desc, p.Attributes)
			m.series[key] = s
		}
		s.observe(p.Value)
	}
	m.windowEnd = now

	snapshot := make([]Aggregate, 0, len(m.series))
	for _, s := range m.series {
		snapshot = append(snapshot, s.aggregate(m.windowStart, m.windowEnd))
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Instrument != snapshot[j].Instrument {
			return snapshot[i].Instrument < snapshot[j].Instrument
		}
		return snapshot[i].Attributes.Key() < snapshot[j].Attributes.Key()
	})
	m.snapshot = snapshot
	return m.snapshot
}
