package metric

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector adapts a Meter to the Prometheus collector interface so the
// same aggregates can be served by promhttp. Aggregation stays in the
// meter; the collector only reads the completed window.
type Collector struct {
	meter *Meter
}

// NewCollector creates a Prometheus collector reading from m.
func NewCollector(m *Meter) *Collector {
	return &Collector{meter: m}
}

// Describe implements prometheus.Collector. The metric set is dynamic, so
// the collector is unchecked.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, a := range c.meter.Collect(time.Now()) {
		keys := make([]string, 0, a.Attributes.Len())
		values := make([]string, 0, a.Attributes.Len())
		for _, kv := range a.Attributes.Attributes() {
			keys = append(keys, SanitizeName(kv.Key))
			values = append(values, kv.ValueString())
		}

		help := a.Description
		if help == "" {
			help = a.Instrument
		}
		desc := prometheus.NewDesc(SanitizeName(a.Instrument), help, keys, nil)

		var (
			m   prometheus.Metric
			err error
		)
		switch a.Kind {
		case KindCounter:
			m, err = prometheus.NewConstMetric(desc, prometheus.CounterValue, a.Sum, values...)
		case KindHistogram:
			buckets := make(map[float64]uint64, len(a.Buckets))
			var cumulative uint64
			for _, b := range a.Buckets {
				cumulative += b.Count
				if !math.IsInf(b.UpperBound, 1) {
					buckets[b.UpperBound] = cumulative
				}
			}
			m, err = prometheus.NewConstHistogram(desc, a.Count, a.Sum, buckets, values...)
		default:
			continue
		}
		if err != nil {
			continue
		}
		ch <- m
	}
}
