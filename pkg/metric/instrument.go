package metric

import (
	"math"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"
)

// Kind identifies the instrument type. It is fixed at first registration.
type Kind int

const (
	KindCounter Kind = iota + 1
	KindHistogram
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// DefaultBuckets are the histogram boundaries used when none are
// configured, sized for millisecond durations.
var DefaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Descriptor identifies an instrument. Identity is the name: registering
// the same name twice returns the existing instrument.
type Descriptor struct {
	Name        string
	Kind        Kind
	Unit        string
	Description string
	Buckets     []float64
}

// Counter records monotonically accumulating values per attribute set.
type Counter struct {
	meter *Meter
	desc  Descriptor
}

// Descriptor returns the instrument's descriptor.
func (c *Counter) Descriptor() Descriptor {
	return c.desc
}

// Add records a non-negative delta for the given attribute set. A negative
// or non-finite value is rejected with ErrInvalidObservation and leaves
// existing aggregates untouched. Add never blocks beyond the buffer lock.
func (c *Counter) Add(value float64, attrs ...attribute.KeyValue) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return &ObservationError{Instrument: c.desc.Name, Value: value}
	}
	c.meter.record(Point{
		Instrument: c.desc.Name,
		Kind:       KindCounter,
		Value:      value,
		Attributes: attribute.NewSet(attrs...),
		Time:       time.Now(),
	})
	return nil
}

// Histogram records scalar observations into configured buckets per
// attribute set.
type Histogram struct {
	meter *Meter
	desc  Descriptor
}

// Descriptor returns the instrument's descriptor.
func (h *Histogram) Descriptor() Descriptor {
	return h.desc
}

// Record records a value for the given attribute set. Non-finite values are
// rejected with ErrInvalidObservation. Record never blocks beyond the
// buffer lock.
func (h *Histogram) Record(value float64, attrs ...attribute.KeyValue) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ObservationError{Instrument: h.desc.Name, Value: value}
	}
	h.meter.record(Point{
		Instrument: h.desc.Name,
		Kind:       KindHistogram,
		Value:      value,
		Attributes: attribute.NewSet(attrs...),
		Time:       time.Now(),
	})
	return nil
}

// RecordDuration records an elapsed duration in milliseconds.
func (h *Histogram) RecordDuration(d time.Duration, attrs ...attribute.KeyValue) error {
	return h.Record(float64(d)/float64(time.Millisecond), attrs...)
}
