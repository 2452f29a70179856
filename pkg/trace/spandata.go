package trace

import (
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"
	"github.com/JailtonJunior94/tracekit-go/pkg/resource"
)

// SpanData is the immutable snapshot of a finished span handed to span
// processors. It is self-describing: trace, span, and parent identifiers
// travel with it, so batches can arrive in any order and traces never need
// to be exported atomically.
type SpanData struct {
	Name          string
	SpanContext   SpanContext
	StartTime     time.Time
	EndTime       time.Time
	Attributes    []attribute.KeyValue
	Events        []Event
	Status        Status
	StatusMessage string
	Resource      *resource.Resource
	TracerName    string
}

// Duration returns the span's duration derived from its start and end
// timestamps, the single authoritative timing source.
func (sd SpanData) Duration() time.Duration {
	return sd.EndTime.Sub(sd.StartTime)
}

// SpanProcessor receives finished spans. Implementations must never block
// the ending code path beyond a buffer enqueue and must absorb their own
// failures.
type SpanProcessor interface {
	OnEnd(sd SpanData)
}
