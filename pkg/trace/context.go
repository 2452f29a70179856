package trace

import "context"

type spanContextKey struct{}

type spanKey struct{}

// ContextWithSpanContext returns a new context carrying sc as the current
// trace identity. Because context.Context is an immutable value threaded
// explicitly through calls, the previous identity is restored on every exit
// path simply by the caller keeping its own ctx; concurrently scheduled
// goroutines sharing a thread can never observe each other's identity.
func ContextWithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanContextKey{}, sc)
}

// SpanContextFromContext returns the current trace identity, if any.
func SpanContextFromContext(ctx context.Context) (SpanContext, bool) {
	sc, ok := ctx.Value(spanContextKey{}).(SpanContext)
	return sc, ok && sc.IsValid()
}

// WithSpanContext runs fn with sc established as the current trace identity.
// The caller's context is untouched on every exit path, normal or not.
func WithSpanContext(ctx context.Context, sc SpanContext, fn func(context.Context) error) error {
	return fn(ContextWithSpanContext(ctx, sc))
}

// contextWithSpan attaches an open span and its identity to the context.
func contextWithSpan(ctx context.Context, s *Span) context.Context {
	ctx = context.WithValue(ctx, spanKey{}, s)
	return ContextWithSpanContext(ctx, s.SpanContext())
}

// SpanFromContext returns the span stored in the context, or nil. Spans are
// only present in contexts returned by Tracer.Start; a context re-attached
// from a Detached handle carries identity but no live span.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// Detached is an explicit handle capturing a trace identity so it can be
// handed to work that runs later, on a different schedule. This is the only
// legitimate way trace identity crosses a scheduling boundary.
type Detached struct {
	sc SpanContext
	ok bool
}

// Detach captures the current trace identity from ctx. The returned handle
// is valid even if ctx had no identity; attaching it is then a no-op.
func Detach(ctx context.Context) Detached {
	sc, ok := SpanContextFromContext(ctx)
	return Detached{sc: sc, ok: ok}
}

// SpanContext returns the captured identity.
func (d Detached) SpanContext() SpanContext {
	return d.sc
}

// IsValid reports whether the handle captured a usable identity.
func (d Detached) IsValid() bool {
	return d.ok
}

// Attach re-establishes the captured identity on ctx. Spans started under
// the returned context parent under the original trace even if that trace
// was already flushed and exported.
func (d Detached) Attach(ctx context.Context) context.Context {
	if !d.ok {
		return ctx
	}
	return ContextWithSpanContext(ctx, d.sc)
}
