package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"

	"go.uber.org/zap"
)

// Tracer creates spans for one logical component, bound to its provider's
// fixed resource identity.
type Tracer struct {
	provider *TracerProvider
	name     string
}

// Name returns the tracer's component name.
func (t *Tracer) Name() string {
	return t.name
}

// Start creates a span and returns a context carrying it as current. If the
// context already carries a trace identity the new span joins that trace as
// a child; otherwise it becomes the root of a fresh trace.
//
// Every Start must be paired with an End on every exit path. Callers that
// want that pairing enforced should use WithSpan.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	sc := SpanContext{SpanID: NewSpanID(), Sampled: true}

	if parent, ok := SpanContextFromContext(ctx); ok {
		sc.TraceID = parent.TraceID
		sc.Parent = parent.SpanID
		sc.Sampled = parent.Sampled
		if !t.provider.issued.has(parent.SpanID) {
			// Contract violation only: the span is kept as-is, the caller
			// owns correct scoping.
			t.provider.usageWarning("parent span id was not issued by this provider",
				zap.String("span", name),
				zap.String("parent_span_id", parent.SpanID.String()))
		}
	} else {
		sc.TraceID = NewTraceID()
	}
	t.provider.issued.add(sc.SpanID)

	s := &Span{
		provider: t.provider,
		tracer:   t.name,
		name:     name,
		sc:       sc,
		start:    time.Now(),
		attrs:    append([]attribute.KeyValue(nil), attrs...),
	}

	return contextWithSpan(ctx, s), s
}

// WithSpan runs fn inside a span, guaranteeing End on every exit path:
// normal return, error, panic, and context cancellation. A cancelled
// context closes the span with an error status and a cancelled attribute
// so no open span is ever leaked.
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	spanCtx, span := t.Start(ctx, name, attrs...)

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(StatusError, fmt.Sprintf("panic: %v", r))
			span.End()
			panic(r)
		}
		if err := spanCtx.Err(); err != nil {
			span.SetAttributes(attribute.Bool("cancelled", true))
			span.SetStatus(StatusError, err.Error())
		}
		span.End()
	}()

	err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
