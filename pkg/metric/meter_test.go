package metric

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func findAggregate(aggs []Aggregate, instrument string, attrs ...attribute.KeyValue) (Aggregate, bool) {
	key := attribute.NewSet(attrs...).Key()
	for _, a := range aggs {
		if a.Instrument == instrument && a.Attributes.Key() == key {
			return a, true
		}
	}
	return Aggregate{}, false
}

func TestCounter_SumsPerAttributeSet(t *testing.T) {
	m := NewMeter()
	c, err := m.Counter("requests.total")
	require.NoError(t, err)

	require.NoError(t, c.Add(1, attribute.String("route", "/items")))
	require.NoError(t, c.Add(1, attribute.String("route", "/items")))
	require.NoError(t, c.Add(5, attribute.String("route", "/health")))

	aggs := m.Collect(time.Now())

	items, ok := findAggregate(aggs, "requests.total", attribute.String("route", "/items"))
	require.True(t, ok)
	assert.Equal(t, 2.0, items.Sum)
	assert.Equal(t, uint64(2), items.Count)

	health, ok := findAggregate(aggs, "requests.total", attribute.String("route", "/health"))
	require.True(t, ok)
	assert.Equal(t, 5.0, health.Sum)
}

func TestHistogram_IndependentSeriesPerAttributeSet(t *testing.T) {
	m := NewMeter()
	h, err := m.Histogram("job.duration", WithUnit("ms"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Record(1200, attribute.String("type", "slow")))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, h.Record(200, attribute.String("type", "fast")))
	}

	aggs := m.Collect(time.Now())

	slow, ok := findAggregate(aggs, "job.duration", attribute.String("type", "slow"))
	require.True(t, ok)
	assert.Equal(t, uint64(3), slow.Count)
	assert.Equal(t, 3600.0, slow.Sum)

	fast, ok := findAggregate(aggs, "job.duration", attribute.String("type", "fast"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), fast.Count)
	assert.Equal(t, 400.0, fast.Sum)

	// 1200 falls in the (1000, 2500] bucket of the default boundaries.
	for _, b := range slow.Buckets {
		switch b.UpperBound {
		case 2500:
			assert.Equal(t, uint64(3), b.Count)
		default:
			if b.UpperBound < 2500 {
				assert.Zero(t, b.Count)
			}
		}
	}
}

func TestCounter_NegativeValueRejected(t *testing.T) {
	m := NewMeter()
	c, err := m.Counter("requests.total")
	require.NoError(t, err)

	require.NoError(t, c.Add(3))
	err = c.Add(-1)
	require.ErrorIs(t, err, ErrInvalidObservation)

	var obsErr *ObservationError
	require.ErrorAs(t, err, &obsErr)
	assert.Equal(t, "requests.total", obsErr.Instrument)

	agg, ok := findAggregate(m.Collect(time.Now()), "requests.total")
	require.True(t, ok)
	assert.Equal(t, 3.0, agg.Sum, "rejected observation must not change the aggregate")
}

func TestHistogram_NonFiniteValueRejected(t *testing.T) {
	m := NewMeter()
	h, err := m.Histogram("latency")
	require.NoError(t, err)

	assert.ErrorIs(t, h.Record(math.NaN()), ErrInvalidObservation)
	assert.ErrorIs(t, h.Record(math.Inf(1)), ErrInvalidObservation)
	assert.Empty(t, m.Collect(time.Now()))
}

func TestRegistration_SameNameReturnsExisting(t *testing.T) {
	m := NewMeter()

	first, err := m.Counter("requests.total", WithUnit("1"))
	require.NoError(t, err)
	second, err := m.Counter("requests.total")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = m.Histogram("requests.total")
	var instErr *InstrumentError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, "requests.total", instErr.Name)
}

func TestCollect_CumulativeAcrossWindows(t *testing.T) {
	m := NewMeter()
	c, err := m.Counter("requests.total")
	require.NoError(t, err)

	require.NoError(t, c.Add(2))
	first := m.Collect(time.Now())
	agg, ok := findAggregate(first, "requests.total")
	require.True(t, ok)
	assert.Equal(t, 2.0, agg.Sum)

	require.NoError(t, c.Add(3))
	second := m.Collect(time.Now())
	agg, ok = findAggregate(second, "requests.total")
	require.True(t, ok)
	assert.Equal(t, 5.0, agg.Sum, "aggregation is cumulative, not delta")
}

func TestCollect_IdempotentWithoutNewObservations(t *testing.T) {
	m := NewMeter()
	h, err := m.Histogram("latency")
	require.NoError(t, err)
	require.NoError(t, h.Record(42))

	first := m.Collect(time.Now())
	second := m.Collect(time.Now().Add(time.Minute))
	assert.Equal(t, first, second, "a pull without new observations returns the prior window")
}

func TestCollect_ConcurrentRecordingLosesNothing(t *testing.T) {
	m := NewMeter()
	c, err := m.Counter("ops.total")
	require.NoError(t, err)

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	stopCollect := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopCollect:
				return
			default:
				m.Collect(time.Now())
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = c.Add(1)
			}
		}()
	}
	wg.Wait()
	close(stopCollect)

	agg, ok := findAggregate(m.Collect(time.Now()), "ops.total")
	require.True(t, ok)
	assert.Equal(t, float64(workers*perWorker), agg.Sum)
	assert.Equal(t, uint64(workers*perWorker), agg.Count)
}

func TestHistogram_CustomBuckets(t *testing.T) {
	m := NewMeter()
	h, err := m.Histogram("queue.depth", WithBuckets(100, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 10, 100}, h.Descriptor().Buckets)

	require.NoError(t, h.Record(1))
	require.NoError(t, h.Record(7))
	require.NoError(t, h.Record(500))

	agg, ok := findAggregate(m.Collect(time.Now()), "queue.depth")
	require.True(t, ok)
	require.Len(t, agg.Buckets, 4)
	assert.Equal(t, uint64(1), agg.Buckets[0].Count) // <= 1
	assert.Equal(t, uint64(1), agg.Buckets[1].Count) // <= 10
	assert.Equal(t, uint64(0), agg.Buckets[2].Count) // <= 100
	assert.Equal(t, uint64(1), agg.Buckets[3].Count) // +Inf
}

func TestCounter_SeparatorValuesNeverMergeSeries(t *testing.T) {
	m := NewMeter()
	c, err := m.Counter("requests.total")
	require.NoError(t, err)

	// The raw forms of these two mappings would read identically without
	// canonical-key escaping.
	require.NoError(t, c.Add(1, attribute.String("a", "1,b=2")))
	require.NoError(t, c.Add(10, attribute.String("a", "1"), attribute.String("b", "2")))

	aggs := m.Collect(time.Now())
	require.Len(t, aggs, 2)

	merged, ok := findAggregate(aggs, "requests.total", attribute.String("a", "1,b=2"))
	require.True(t, ok)
	assert.Equal(t, 1.0, merged.Sum)

	split, ok := findAggregate(aggs, "requests.total",
		attribute.String("a", "1"), attribute.String("b", "2"))
	require.True(t, ok)
	assert.Equal(t, 10.0, split.Sum)
}

func TestMeter_EvictionIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewMeter(WithLogger(zap.New(core)), WithMaxPoints(1))
	c, err := m.Counter("ops.total")
	require.NoError(t, err)

	require.NoError(t, c.Add(1))
	require.NoError(t, c.Add(1))

	assert.Equal(t, 1, logs.FilterMessage("metric point buffer full, dropping oldest point").Len())
}

func TestMeter_BufferOverflowEvictsOldest(t *testing.T) {
	m := NewMeter(WithMaxPoints(4))
	c, err := m.Counter("ops.total")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, c.Add(1))
	}

	assert.Equal(t, uint64(2), m.DroppedPoints())
	agg, ok := findAggregate(m.Collect(time.Now()), "ops.total")
	require.True(t, ok)
	assert.Equal(t, 4.0, agg.Sum)
}
