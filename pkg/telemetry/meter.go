package telemetry

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/host"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/multierr"
	"google.golang.org/grpc/credentials"
)

// MetricExporter is the exporter consumed by NewMeterProvider.
type MetricExporter = metricsdk.Exporter

type meterProviderConfig struct {
	resource *resource.Resource
	exporter MetricExporter

	hostInstrumentation bool

	runtimeInstrumentation     bool
	runtimeInstrumentationOpts []runtime.Option
}

func newMeterProviderConfig(opts []MeterProviderOption) meterProviderConfig {
	cfg := meterProviderConfig{
		resource: resource.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MeterProviderOption is the interface that applies the value to a meter
// provider configuration.
type MeterProviderOption func(*meterProviderConfig)

// WithMeterResource sets the Resource of a MeterProvider.
func WithMeterResource(resource *resource.Resource) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.resource = resource
	}
}

// WithMeterExporter sets the exporter. A nil exporter yields a noop
// provider.
func WithMeterExporter(exporter MetricExporter) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.exporter = exporter
	}
}

// WithHostInstrumentation enables host instrumentation.
func WithHostInstrumentation() MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.hostInstrumentation = true
	}
}

// WithRuntimeInstrumentation enables runtime instrumentation.
func WithRuntimeInstrumentation(opts ...runtime.Option) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.runtimeInstrumentation = true
		cfg.runtimeInstrumentationOpts = opts
	}
}

// StopMeterProvider is the type for the stop function of a meter provider.
// It stops both the meter provider and the exporter.
type StopMeterProvider func(context.Context) error

// NewMeterProvider creates a new meter provider and its stop function.
func NewMeterProvider(opts ...MeterProviderOption) (metric.MeterProvider, StopMeterProvider, error) {
	cfg := newMeterProviderConfig(opts)

	stop := func(context.Context) error { return nil }

	if cfg.exporter == nil {
		mp := noopmetric.NewMeterProvider()
		return mp, stop, nil
	}

	reader := metricsdk.NewPeriodicReader(cfg.exporter)

	mp := metricsdk.NewMeterProvider(
		metricsdk.WithResource(cfg.resource),
		metricsdk.WithReader(reader),
	)

	if cfg.hostInstrumentation {
		if err := host.Start(host.WithMeterProvider(mp)); err != nil {
			return nil, stop, errors.WithStack(err)
		}
	}

	if cfg.runtimeInstrumentation {
		runtimeOpts := append(cfg.runtimeInstrumentationOpts, runtime.WithMeterProvider(mp))
		if err := runtime.Start(runtimeOpts...); err != nil {
			return nil, stop, errors.WithStack(err)
		}
	}

	stop = func(ctx context.Context) error {
		return multierr.Append(mp.Shutdown(ctx), cfg.exporter.Shutdown(ctx))
	}

	return mp, stop, nil
}

// NewStdoutMetricExporter creates an exporter that writes metrics to the
// standard output stream.
func NewStdoutMetricExporter(opts ...stdoutmetric.Option) (MetricExporter, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return exporter, nil
}

// NewOTLPMetricExporter creates an exporter that pushes metrics to the
// collector described by cfg, sharing its endpoint, credential, and
// timeout with the span pipeline.
func NewOTLPMetricExporter(ctx context.Context, cfg OTLPConfig) (MetricExporter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	target, insecure := cfg.dialTarget()
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(target),
		otlpmetricgrpc.WithTimeout(cfg.Timeout()),
	}
	if insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	} else {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(
			credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}),
		))
	}
	if !cfg.APIKey().Empty() {
		opts = append(opts, otlpmetricgrpc.WithHeaders(map[string]string{
			apiKeyHeader: cfg.APIKey().Reveal(),
		}))
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return exporter, nil
}

// SetGlobalMeterProvider installs the meter provider globally.
func SetGlobalMeterProvider(mp metric.MeterProvider) {
	otel.SetMeterProvider(mp)
}

// Meter returns a meter from the installed provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
