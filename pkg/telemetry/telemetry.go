package telemetry

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TryInit assembles a telemetry pipeline for the given collector
// configuration and installs it as the process-wide tracer provider. It
// returns a Guard whose release flushes and closes the pipeline.
//
// Installation is set-once: a second call fails with ErrAlreadyInstalled
// while the first guard stays valid. A failed call leaves no global state
// behind, and a later call may retry.
func TryInit(ctx context.Context, serviceName string, collector CollectorConfig, opts ...Option) (*Guard, error) {
	cfg, err := newConfig(serviceName, collector, opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.registry.claim(); err != nil {
		return nil, err
	}
	guard, err := install(ctx, cfg)
	if err != nil {
		cfg.registry.abort()
		return nil, err
	}
	cfg.registry.complete()
	return guard, nil
}

// Init installs a console pipeline and panics when that fails. It is meant
// for programs that treat missing telemetry as unrecoverable; use TryInit to
// handle errors.
func Init(serviceName string) *Guard {
	guard, err := TryInit(context.Background(), serviceName, ConsoleConfig{})
	if err != nil {
		panic(errors.WithMessage(err, "telemetry: init"))
	}
	return guard
}

func install(ctx context.Context, cfg config) (*Guard, error) {
	attrs := make([]attribute.KeyValue, 0, len(cfg.resourceAttrs)+1)
	attrs = append(attrs, semconv.ServiceName(cfg.serviceName))
	attrs = append(attrs, cfg.resourceAttrs...)
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The console exporter gets a simple processor so that spans appear in
	// emission order; remote collectors get batching off the hot path.
	var sp sdktrace.SpanProcessor
	if cfg.collector.Collector() == CollectorConsole {
		sp = sdktrace.NewSimpleSpanProcessor(exporter)
	} else {
		sp = sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithMaxQueueSize(cfg.batchQueueSize),
			sdktrace.WithBatchTimeout(cfg.batchTimeout),
			sdktrace.WithMaxExportBatchSize(cfg.maxBatchSize),
		)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(cfg.sampler),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sp),
	)

	guard := &Guard{
		tp:      tp,
		timeout: cfg.shutdownTimeout,
		logger:  cfg.logger,
	}

	if cfg.meter {
		stopMeter, err := installMeter(ctx, cfg, res)
		if err != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
			return nil, err
		}
		guard.stopMeter = stopMeter
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return guard, nil
}

func installMeter(ctx context.Context, cfg config, res *resource.Resource) (StopMeterProvider, error) {
	var (
		exporter MetricExporter
		err      error
	)
	switch collector := cfg.collector.(type) {
	case OTLPConfig:
		exporter, err = NewOTLPMetricExporter(ctx, collector)
	default:
		exporter, err = NewStdoutMetricExporter()
	}
	if err != nil {
		return nil, err
	}

	mp, stop, err := NewMeterProvider(
		WithMeterResource(res),
		WithMeterExporter(exporter),
	)
	if err != nil {
		return nil, err
	}
	SetGlobalMeterProvider(mp)
	return stop, nil
}

// Tracer returns a tracer from the installed provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
