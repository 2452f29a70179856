package metric

import (
	"math"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"
)

// BucketCount is the number of observations that fell into one histogram
// bucket. UpperBound is inclusive; the final bucket has UpperBound +Inf.
type BucketCount struct {
	UpperBound float64
	Count      uint64
}

// Aggregate is the reduced, queryable form of one instrument+attribute-set
// series over an aggregation window. Counters carry Sum; histograms carry
// Sum, Count, and per-bucket counts. An Aggregate for a key+window replaces
// the prior one on each reduction pass.
type Aggregate struct {
	Instrument  string
	Kind        Kind
	Unit        string
	Description string
	Attributes  attribute.Set
	Sum         float64
	Count       uint64
	Buckets     []BucketCount
	WindowStart time.Time
	WindowEnd   time.Time
}

// series is the cumulative aggregation state for one instrument+attribute
// key.
type series struct {
	desc    Descriptor
	set     attribute.Set
	sum     float64
	count   uint64
	buckets []uint64 // len(desc.Buckets)+1, last is the +Inf bucket
}

func newSeries(desc Descriptor, set attribute.Set) *series {
	s := &series{desc: desc, set: set}
	if desc.Kind == KindHistogram {
		s.buckets = make([]uint64, len(desc.Buckets)+1)
	}
	return s
}

func (s *series) observe(value float64) {
	s.sum += value
	s.count++
	if s.desc.Kind != KindHistogram {
		return
	}
	idx := len(s.desc.Buckets)
	for i, bound := range s.desc.Buckets {
		if value <= bound {
			idx = i
			break
		}
	}
	s.buckets[idx]++
}

func (s *series) aggregate(windowStart, windowEnd time.Time) Aggregate {
	agg := Aggregate{
		Instrument:  s.desc.Name,
		Kind:        s.desc.Kind,
		Unit:        s.desc.Unit,
		Description: s.desc.Description,
		Attributes:  s.set,
		Sum:         s.sum,
		Count:       s.count,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	if s.desc.Kind == KindHistogram {
		agg.Buckets = make([]BucketCount, len(s.buckets))
		for i, c := range s.buckets {
			bound := math.Inf(1)
			if i < len(s.desc.Buckets) {
				bound = s.desc.Buckets[i]
			}
			agg.Buckets[i] = BucketCount{UpperBound: bound, Count: c}
		}
	}
	return agg
}
