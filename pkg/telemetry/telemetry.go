package telemetry

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/JailtonJunior94/tracekit-go/pkg/bridge"
	"github.com/JailtonJunior94/tracekit-go/pkg/export"
	"github.com/JailtonJunior94/tracekit-go/pkg/metric"
	"github.com/JailtonJunior94/tracekit-go/pkg/resource"
	"github.com/JailtonJunior94/tracekit-go/pkg/trace"

	"go.uber.org/zap"
)

// Telemetry wires the tracing and metrics pipeline into one explicitly
// constructed, passed-down handle: resource, tracer provider, batch
// exporter, meter, and background task bridge. There are no process
// globals, so tests can instantiate isolated instances per case.
type Telemetry struct {
	res      *resource.Resource
	logger   *zap.Logger
	sink     export.Sink
	provider *trace.TracerProvider
	exporter *export.BatchExporter
	meter    *metric.Meter
	bridge   *bridge.Bridge

	exporterOpts []export.Option
	meterOpts    []metric.MeterOption
	bridgeOpts   []bridge.Option
	processors   []trace.SpanProcessor
}

// Option configures a Telemetry instance.
type Option func(*Telemetry)

// WithResource sets the process resource.
func WithResource(res *resource.Resource) Option {
	return func(t *Telemetry) {
		if res != nil {
			t.res = res
		}
	}
}

// WithSink sets the exporter sink. Defaults to a JSON-lines writer on
// stdout.
func WithSink(sink export.Sink) Option {
	return func(t *Telemetry) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// WithLogger sets the diagnostics logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Telemetry) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithExporterOptions forwards options to the batch exporter.
func WithExporterOptions(opts ...export.Option) Option {
	return func(t *Telemetry) {
		t.exporterOpts = append(t.exporterOpts, opts...)
	}
}

// WithMeter uses a caller-constructed meter instead of building one, so
// instruments registered before New end up on the facade's meter.
func WithMeter(m *metric.Meter) Option {
	return func(t *Telemetry) {
		if m != nil {
			t.meter = m
		}
	}
}

// WithMeterOptions forwards options to the meter. Ignored when WithMeter
// supplies the meter.
func WithMeterOptions(opts ...metric.MeterOption) Option {
	return func(t *Telemetry) {
		t.meterOpts = append(t.meterOpts, opts...)
	}
}

// WithBridgeOptions forwards options to the background task bridge.
func WithBridgeOptions(opts ...bridge.Option) Option {
	return func(t *Telemetry) {
		t.bridgeOpts = append(t.bridgeOpts, opts...)
	}
}

// WithSpanProcessor registers an additional processor for finished spans,
// running after the batch exporter.
func WithSpanProcessor(sp trace.SpanProcessor) Option {
	return func(t *Telemetry) {
		if sp != nil {
			t.processors = append(t.processors, sp)
		}
	}
}

// New creates and starts a telemetry instance.
func New(opts ...Option) (*Telemetry, error) {
	t := &Telemetry{
		res:    resource.Default(),
		logger: zap.NewNop(),
		sink:   export.NewWriterSink(os.Stdout),
	}
	for _, opt := range opts {
		opt(t)
	}

	exporterOpts := append([]export.Option{export.WithLogger(t.logger)}, t.exporterOpts...)
	exporter, err := export.New(t.sink, exporterOpts...)
	if err != nil {
		return nil, err
	}
	t.exporter = exporter

	providerOpts := []trace.ProviderOption{
		trace.WithResource(t.res),
		trace.WithSpanProcessor(exporter),
		trace.WithLogger(t.logger),
	}
	for _, sp := range t.processors {
		providerOpts = append(providerOpts, trace.WithSpanProcessor(sp))
	}
	t.provider = trace.NewTracerProvider(providerOpts...)

	if t.meter == nil {
		meterOpts := append([]metric.MeterOption{
			metric.WithResource(t.res),
			metric.WithLogger(t.logger),
		}, t.meterOpts...)
		t.meter = metric.NewMeter(meterOpts...)
	}

	bridgeOpts := append([]bridge.Option{bridge.WithLogger(t.logger)}, t.bridgeOpts...)
	b, err := bridge.New(bridgeOpts...)
	if err != nil {
		_ = exporter.Shutdown(context.Background())
		return nil, err
	}
	t.bridge = b
	t.bridge.Start(context.Background())

	return t, nil
}

// Tracer returns a named tracer for one logical component.
func (t *Telemetry) Tracer(name string) *trace.Tracer {
	return t.provider.Tracer(name)
}

// TracerProvider returns the underlying provider.
func (t *Telemetry) TracerProvider() *trace.TracerProvider {
	return t.provider
}

// Meter returns the metric registry and aggregator.
func (t *Telemetry) Meter() *metric.Meter {
	return t.meter
}

// Bridge returns the background task bridge.
func (t *Telemetry) Bridge() *bridge.Bridge {
	return t.bridge
}

// Exporter returns the batch exporter.
func (t *Telemetry) Exporter() *export.BatchExporter {
	return t.exporter
}

// Resource returns the process resource.
func (t *Telemetry) Resource() *resource.Resource {
	return t.res
}

// Shutdown drains the bridge first so late jobs can still record spans,
// then flushes and stops the exporter. All components shut down even if one
// fails; the errors are joined.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if err := t.bridge.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.exporter.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ShutdownWithTimeout shuts down all components bounded by the timeout.
func (t *Telemetry) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.Shutdown(ctx)
}
