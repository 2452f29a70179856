package trace

// SpanContext is the minimal unit of trace identity propagated across
// boundaries. It is a value type: copied, never mutated.
type SpanContext struct {
	TraceID TraceID
	SpanID  SpanID
	Parent  SpanID
	Sampled bool
}

// IsValid reports whether the context carries a usable trace identity.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID.IsValid() && sc.SpanID.IsValid()
}

// HasParent reports whether the context references a parent span.
func (sc SpanContext) HasParent() bool {
	return sc.Parent.IsValid()
}
