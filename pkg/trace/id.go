package trace

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// TraceID is a 128-bit identifier shared by every span in one trace.
type TraceID [16]byte

// SpanID is a 64-bit identifier unique within a trace.
type SpanID [8]byte

// NewTraceID generates a random trace ID.
func NewTraceID() TraceID {
	for {
		id := TraceID(uuid.New())
		if id.IsValid() {
			return id
		}
	}
}

// NewSpanID generates a random span ID.
func NewSpanID() SpanID {
	for {
		u := uuid.New()
		var id SpanID
		copy(id[:], u[:8])
		if id.IsValid() {
			return id
		}
	}
}

// IsValid reports whether the trace ID is non-zero.
func (t TraceID) IsValid() bool {
	return t != TraceID{}
}

// String returns the trace ID as lowercase hex.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// IsValid reports whether the span ID is non-zero.
func (s SpanID) IsValid() bool {
	return s != SpanID{}
}

// String returns the span ID as lowercase hex.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}
