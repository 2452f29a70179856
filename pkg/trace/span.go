package trace

import (
	"sync"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"

	"go.uber.org/zap"
)

// Status is the canonical status of a span.
type Status int

const (
	StatusUnset Status = iota
	StatusOk
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Event is a timestamped annotation recorded on an open span.
type Event struct {
	Name       string
	Time       time.Time
	Attributes []attribute.KeyValue
}

// Span is a timed unit of work. It is owned exclusively by the code path
// that started it until End is called; after that it is immutable and its
// snapshot belongs to the exporter.
type Span struct {
	provider *TracerProvider
	tracer   string

	mu        sync.Mutex
	name      string
	sc        SpanContext
	start     time.Time
	end       time.Time
	attrs     []attribute.KeyValue
	events    []Event
	status    Status
	statusMsg string
	ended     bool
}

// SpanContext returns the span's immutable trace identity.
func (s *Span) SpanContext() SpanContext {
	return s.sc
}

// Name returns the span name.
func (s *Span) Name() string {
	return s.name
}

// IsRecording reports whether the span is still open and accepting mutations.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

// SetAttributes sets attributes on the open span. Calls after End are
// rejected and reported as a usage warning.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.provider.usageWarning("SetAttributes on ended span",
			zap.String("span", s.name), zap.String("span_id", s.sc.SpanID.String()))
		return
	}
	s.attrs = append(s.attrs, attrs...)
}

// AddEvent records a timestamped event on the open span.
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.provider.usageWarning("AddEvent on ended span",
			zap.String("span", s.name), zap.String("event", name))
		return
	}
	s.events = append(s.events, Event{Name: name, Time: time.Now(), Attributes: attrs})
}

// RecordError records err as an exception event and marks the span status
// as error. A nil error is ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.provider.usageWarning("RecordError on ended span",
			zap.String("span", s.name), zap.Error(err))
		return
	}
	s.events = append(s.events, Event{
		Name: "exception",
		Time: time.Now(),
		Attributes: []attribute.KeyValue{
			attribute.String("exception.message", err.Error()),
		},
	})
	s.status = StatusError
	s.statusMsg = err.Error()
}

// SetStatus sets the span status. StatusOk cannot be downgraded back to
// unset; an explicit error status always wins over the default.
func (s *Span) SetStatus(status Status, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.provider.usageWarning("SetStatus on ended span", zap.String("span", s.name))
		return
	}
	s.status = status
	s.statusMsg = msg
}

// End closes the span, fixes its end time, and hands an immutable snapshot
// to the provider's span processors. Ending an already-ended span is a
// no-op reported as a usage warning, never a duplicate export.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.provider.usageWarning("span ended twice",
			zap.String("span", s.name), zap.String("span_id", s.sc.SpanID.String()))
		return
	}
	s.ended = true
	s.end = time.Now()
	if s.end.Before(s.start) {
		s.end = s.start
	}
	if s.status == StatusUnset {
		s.status = StatusOk
	}
	data := s.snapshotLocked()
	s.mu.Unlock()

	s.provider.onEnd(data)
}

// snapshotLocked builds the immutable export snapshot. Caller holds s.mu.
func (s *Span) snapshotLocked() SpanData {
	attrs := make([]attribute.KeyValue, len(s.attrs))
	copy(attrs, s.attrs)
	events := make([]Event, len(s.events))
	copy(events, s.events)

	return SpanData{
		Name:          s.name,
		SpanContext:   s.sc,
		StartTime:     s.start,
		EndTime:       s.end,
		Attributes:    attrs,
		Events:        events,
		Status:        s.status,
		StatusMessage: s.statusMsg,
		Resource:      s.provider.res,
		TracerName:    s.tracer,
	}
}
