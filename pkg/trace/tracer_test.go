package trace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/attribute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProcessor collects finished spans for assertions.
type recordingProcessor struct {
	mu    sync.Mutex
	spans []SpanData
}

func (p *recordingProcessor) OnEnd(sd SpanData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spans = append(p.spans, sd)
}

func (p *recordingProcessor) all() []SpanData {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SpanData, len(p.spans))
	copy(out, p.spans)
	return out
}

func newTestTracer() (*Tracer, *recordingProcessor, *TracerProvider) {
	rec := &recordingProcessor{}
	provider := NewTracerProvider(WithSpanProcessor(rec))
	return provider.Tracer("test"), rec, provider
}

func TestStart_RootSpan(t *testing.T) {
	tracer, _, _ := newTestTracer()

	ctx, span := tracer.Start(context.Background(), "root")
	defer span.End()

	sc := span.SpanContext()
	assert.True(t, sc.TraceID.IsValid())
	assert.True(t, sc.SpanID.IsValid())
	assert.False(t, sc.HasParent())

	current, ok := SpanContextFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, sc, current)
	assert.Same(t, span, SpanFromContext(ctx))
}

func TestStart_ChildInheritsTraceAndParent(t *testing.T) {
	tracer, _, _ := newTestTracer()

	ctx, root := tracer.Start(context.Background(), "root")
	childCtx, child := tracer.Start(ctx, "child")
	_, grand := tracer.Start(childCtx, "grandchild")

	assert.Equal(t, root.SpanContext().TraceID, child.SpanContext().TraceID)
	assert.Equal(t, root.SpanContext().TraceID, grand.SpanContext().TraceID)
	assert.Equal(t, root.SpanContext().SpanID, child.SpanContext().Parent)
	assert.Equal(t, child.SpanContext().SpanID, grand.SpanContext().Parent)

	// Sibling started from the root context parents under root, not the
	// previously opened child.
	_, sibling := tracer.Start(ctx, "sibling")
	assert.Equal(t, root.SpanContext().SpanID, sibling.SpanContext().Parent)

	grand.End()
	child.End()
	sibling.End()
	root.End()
}

func TestNesting_DeepChainParentsCorrectly(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	const depth = 5
	ctx, root := tracer.Start(context.Background(), "request")
	chain := []*Span{root}
	for i := 0; i < depth; i++ {
		childCtx, child := tracer.Start(ctx, "level")
		ctx = childCtx
		chain = append(chain, child)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].End()
	}

	spans := rec.all()
	require.Len(t, spans, depth+1)
	for i := 1; i < len(chain); i++ {
		assert.Equal(t, root.SpanContext().TraceID, chain[i].SpanContext().TraceID)
		assert.Equal(t, chain[i-1].SpanContext().SpanID, chain[i].SpanContext().Parent)
	}
}

func TestEnd_SetsEndTimeAndStatus(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	_, span := tracer.Start(context.Background(), "work")
	time.Sleep(5 * time.Millisecond)
	span.End()

	spans := rec.all()
	require.Len(t, spans, 1)
	sd := spans[0]
	assert.False(t, sd.EndTime.Before(sd.StartTime))
	assert.GreaterOrEqual(t, sd.Duration(), 5*time.Millisecond)
	assert.Equal(t, StatusOk, sd.Status)
}

func TestEnd_Idempotent(t *testing.T) {
	tracer, rec, provider := newTestTracer()

	_, span := tracer.Start(context.Background(), "work")
	span.End()
	span.End()

	assert.Len(t, rec.all(), 1, "double End must not export twice")
	assert.Equal(t, uint64(1), provider.UsageWarnings())
}

func TestMutationAfterEnd_Rejected(t *testing.T) {
	tracer, rec, provider := newTestTracer()

	_, span := tracer.Start(context.Background(), "work")
	span.End()

	span.SetAttributes(attribute.String("late", "value"))
	span.RecordError(errors.New("late error"))
	span.SetStatus(StatusError, "late")
	span.AddEvent("late event")

	spans := rec.all()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Attributes)
	assert.Empty(t, spans[0].Events)
	assert.Equal(t, StatusOk, spans[0].Status)
	assert.Equal(t, uint64(4), provider.UsageWarnings())
}

func TestRecordError_SetsErrorStatus(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	_, span := tracer.Start(context.Background(), "work")
	span.RecordError(errors.New("boom"))
	span.End()

	spans := rec.all()
	require.Len(t, spans, 1)
	assert.Equal(t, StatusError, spans[0].Status)
	assert.Equal(t, "boom", spans[0].StatusMessage)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestWithSpan_ErrorRecorded(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	wantErr := errors.New("db down")
	err := tracer.WithSpan(context.Background(), "db.query", func(context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	spans := rec.all()
	require.Len(t, spans, 1)
	assert.Equal(t, StatusError, spans[0].Status)
}

func TestWithSpan_PanicStillEndsSpan(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	assert.Panics(t, func() {
		_ = tracer.WithSpan(context.Background(), "work", func(context.Context) error {
			panic("kaboom")
		})
	})

	spans := rec.all()
	require.Len(t, spans, 1)
	assert.Equal(t, StatusError, spans[0].Status)
	assert.Contains(t, spans[0].StatusMessage, "kaboom")
}

func TestWithSpan_CancellationClosesSpanWithError(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	ctx, cancel := context.WithCancel(context.Background())
	err := tracer.WithSpan(ctx, "work", func(c context.Context) error {
		cancel()
		<-c.Done()
		return nil
	})
	require.NoError(t, err)

	spans := rec.all()
	require.Len(t, spans, 1)
	assert.Equal(t, StatusError, spans[0].Status)

	var cancelled bool
	for _, kv := range spans[0].Attributes {
		if kv.Key == "cancelled" {
			cancelled = true
		}
	}
	assert.True(t, cancelled, "cancelled attribute missing")
}

func TestContextIsolation_ConcurrentTasks(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	const tasks = 32
	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, root := tracer.Start(context.Background(), "task")
			// Yield a few times so goroutines interleave on shared
			// threads; each must keep seeing only its own context.
			for j := 0; j < 10; j++ {
				time.Sleep(time.Millisecond)
				current, ok := SpanContextFromContext(ctx)
				if !ok || current.SpanID != root.SpanContext().SpanID {
					t.Error("task observed a foreign span context")
					return
				}
				_, child := tracer.Start(ctx, "step")
				child.End()
			}
			root.End()
		}()
	}
	wg.Wait()

	// Every child belongs to exactly the trace of its own root.
	byTrace := make(map[TraceID][]SpanData)
	for _, sd := range rec.all() {
		byTrace[sd.SpanContext.TraceID] = append(byTrace[sd.SpanContext.TraceID], sd)
	}
	assert.Len(t, byTrace, tasks)
	for _, spans := range byTrace {
		var rootID SpanID
		for _, sd := range spans {
			if !sd.SpanContext.HasParent() {
				rootID = sd.SpanContext.SpanID
			}
		}
		for _, sd := range spans {
			if sd.SpanContext.HasParent() {
				assert.Equal(t, rootID, sd.SpanContext.Parent)
			}
		}
	}
}

func TestDetach_JobJoinsTraceAfterRootClosed(t *testing.T) {
	tracer, rec, _ := newTestTracer()

	ctx, root := tracer.Start(context.Background(), "request")
	detached := Detach(ctx)
	root.End()

	// The root is closed and exported; a late job still joins its trace.
	jobCtx := detached.Attach(context.Background())
	_, jobSpan := tracer.Start(jobCtx, "background.job")
	jobSpan.End()

	assert.Equal(t, root.SpanContext().TraceID, jobSpan.SpanContext().TraceID)
	assert.Equal(t, root.SpanContext().SpanID, jobSpan.SpanContext().Parent)
	assert.Len(t, rec.all(), 2)
}

func TestDetach_EmptyContextIsNoOp(t *testing.T) {
	detached := Detach(context.Background())
	assert.False(t, detached.IsValid())

	ctx := detached.Attach(context.Background())
	_, ok := SpanContextFromContext(ctx)
	assert.False(t, ok)
}

func TestWithSpanContext_RestoresCallerContext(t *testing.T) {
	tracer, _, _ := newTestTracer()

	outerCtx, outer := tracer.Start(context.Background(), "outer")
	defer outer.End()

	foreign := SpanContext{TraceID: NewTraceID(), SpanID: NewSpanID(), Sampled: true}
	err := WithSpanContext(outerCtx, foreign, func(inner context.Context) error {
		sc, ok := SpanContextFromContext(inner)
		require.True(t, ok)
		assert.Equal(t, foreign, sc)
		return nil
	})
	require.NoError(t, err)

	// The caller's context is untouched after the scope.
	sc, ok := SpanContextFromContext(outerCtx)
	require.True(t, ok)
	assert.Equal(t, outer.SpanContext(), sc)
}

func TestParentValidation_UnknownParentWarns(t *testing.T) {
	tracer, _, provider := newTestTracer()

	foreign := SpanContext{TraceID: NewTraceID(), SpanID: NewSpanID(), Sampled: true}
	ctx := ContextWithSpanContext(context.Background(), foreign)

	_, span := tracer.Start(ctx, "child")
	span.End()

	assert.Equal(t, uint64(1), provider.UsageWarnings())
	// The span is still kept with the caller's parent, uncorrected.
	assert.Equal(t, foreign.SpanID, span.SpanContext().Parent)
}

func TestIssuedSet_RotationKeepsRecentIDs(t *testing.T) {
	set := newIssuedSet(4)

	ids := make([]SpanID, 10)
	for i := range ids {
		ids[i] = NewSpanID()
		set.add(ids[i])
	}

	// The most recent IDs survive rotation.
	for _, id := range ids[len(ids)-4:] {
		assert.True(t, set.has(id))
	}
	// The oldest generation is gone.
	assert.False(t, set.has(ids[0]))
}
