package export

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/trace"
)

// Sink is the external collaborator receiving batches of finalized spans.
// Batch order is irrelevant; each span is self-describing. A sink may fail
// a whole batch; the exporter absorbs the failure, it never reaches the
// code that produced the spans. Sinks must accept spans whose trace was
// already partially exported.
type Sink interface {
	ExportSpans(ctx context.Context, batch []trace.SpanData) error
}

// spanRecord is the wire shape written by WriterSink.
type spanRecord struct {
	TraceID    string            `json:"traceId"`
	SpanID     string            `json:"spanId"`
	ParentID   string            `json:"parentSpanId,omitempty"`
	Name       string            `json:"name"`
	Tracer     string            `json:"tracer,omitempty"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    time.Time         `json:"endTime"`
	DurationMS float64           `json:"durationMs"`
	Status     string            `json:"status"`
	StatusMsg  string            `json:"statusMessage,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Resource   map[string]string `json:"resource,omitempty"`
}

// WriterSink writes spans as JSON lines to an io.Writer. Intended for
// development and tests, mirroring a stdout trace exporter.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// ExportSpans writes each span in the batch as one JSON line.
func (s *WriterSink) ExportSpans(_ context.Context, batch []trace.SpanData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sd := range batch {
		rec := spanRecord{
			TraceID:    sd.SpanContext.TraceID.String(),
			SpanID:     sd.SpanContext.SpanID.String(),
			Name:       sd.Name,
			Tracer:     sd.TracerName,
			StartTime:  sd.StartTime,
			EndTime:    sd.EndTime,
			DurationMS: float64(sd.Duration()) / float64(time.Millisecond),
			Status:     sd.Status.String(),
			StatusMsg:  sd.StatusMessage,
		}
		if sd.SpanContext.HasParent() {
			rec.ParentID = sd.SpanContext.Parent.String()
		}
		if len(sd.Attributes) > 0 {
			rec.Attributes = make(map[string]string, len(sd.Attributes))
			for _, kv := range sd.Attributes {
				rec.Attributes[kv.Key] = kv.ValueString()
			}
		}
		if sd.Resource != nil {
			rec.Resource = sd.Resource.Attributes()
		}
		if err := s.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// InMemorySink collects exported spans in memory for tests.
type InMemorySink struct {
	mu    sync.Mutex
	spans []trace.SpanData
	fail  error
}

// NewInMemorySink creates an empty in-memory sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

// ExportSpans appends the batch, or fails if FailWith was set.
func (s *InMemorySink) ExportSpans(_ context.Context, batch []trace.SpanData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.spans = append(s.spans, batch...)
	return nil
}

// Spans returns a copy of everything exported so far.
func (s *InMemorySink) Spans() []trace.SpanData {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trace.SpanData, len(s.spans))
	copy(out, s.spans)
	return out
}

// FailWith makes subsequent exports fail with err; nil restores success.
func (s *InMemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Reset discards collected spans.
func (s *InMemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = nil
}
