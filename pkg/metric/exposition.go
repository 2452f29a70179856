package metric

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"
)

// ExpositionHandler serves the current aggregate set in a textual
// key/value-per-line format. Each pull reflects the latest completed
// aggregation window, never partial in-flight data, and repeated pulls
// without new observations yield identical output.
type ExpositionHandler struct {
	meter *Meter
}

// NewExpositionHandler creates an http.Handler exposing the meter's
// aggregates.
func NewExpositionHandler(m *Meter) *ExpositionHandler {
	return &ExpositionHandler{meter: m}
}

// ServeHTTP implements http.Handler.
func (h *ExpositionHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	WriteAggregates(w, h.meter.Collect(time.Now()))
}

// WriteAggregates writes aggregates in exposition format, one series value
// per line. Histograms emit cumulative le-bucket lines plus _sum and
// _count, counters a single line with the cumulative sum.
func WriteAggregates(w io.Writer, aggs []Aggregate) {
	for _, a := range aggs {
		name := SanitizeName(a.Instrument)
		labels := renderLabels(a.Attributes, "", "")

		switch a.Kind {
		case KindCounter:
			fmt.Fprintf(w, "%s%s %s\n", name, labels, formatValue(a.Sum))
		case KindHistogram:
			var cumulative uint64
			for _, b := range a.Buckets {
				cumulative += b.Count
				le := "+Inf"
				if !isInf(b.UpperBound) {
					le = formatValue(b.UpperBound)
				}
				fmt.Fprintf(w, "%s_bucket%s %d\n", name, renderLabels(a.Attributes, "le", le), cumulative)
			}
			fmt.Fprintf(w, "%s_sum%s %s\n", name, labels, formatValue(a.Sum))
			fmt.Fprintf(w, "%s_count%s %d\n", name, labels, a.Count)
		}
	}
}

// SanitizeName rewrites an instrument name into exposition-safe form.
func SanitizeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func renderLabels(set attribute.Set, extraKey, extraValue string) string {
	kvs := set.Attributes()
	if len(kvs) == 0 && extraKey == "" {
		return ""
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, kv := range kvs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(SanitizeName(kv.Key))
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(kv.ValueString()))
		b.WriteByte('"')
	}
	if extraKey != "" {
		if len(kvs) > 0 {
			b.WriteByte(',')
		}
		b.WriteString(extraKey)
		b.WriteString(`="`)
		b.WriteString(escapeLabelValue(extraValue))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func isInf(v float64) bool {
	return v > 1e308
}
