package flags

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kakao/otelboot/pkg/telemetry"
)

const (
	CategoryTelemetry = "Telemetry:"

	DefaultOTLPEndpoint    = "http://localhost:4317"
	DefaultExporterTimeout = 10 * time.Second
)

// Environment variable names recognized in addition to the library's own.
// They follow the OpenTelemetry SDK configuration convention.
const (
	EnvServiceName  = "OTEL_SERVICE_NAME"
	EnvCollector    = "OTEL_TRACES_EXPORTER"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

var (
	ServiceName = &cli.StringFlag{
		Name:     "service-name",
		Category: CategoryTelemetry,
		EnvVars:  []string{"SERVICE_NAME", EnvServiceName},
		Usage:    "Service name attached as a resource attribute to every span.",
	}
	TelemetryCollector = &cli.StringFlag{
		Name:     "telemetry-collector",
		Category: CategoryTelemetry,
		Aliases:  []string{"collector"},
		Usage:    fmt.Sprintf("Collector type: %s or %s.", telemetry.CollectorConsole, telemetry.CollectorOTLP),
		EnvVars:  []string{"TELEMETRY_COLLECTOR", EnvCollector},
		Value:    telemetry.CollectorConsole.String(),
		Action: func(_ *cli.Context, value string) error {
			if _, err := telemetry.ParseCollector(value); err != nil {
				return fmt.Errorf("invalid value %q for flag --telemetry-collector", value)
			}
			return nil
		},
	}
	TelemetryOTLPEndpoint = &cli.StringFlag{
		Name:     "telemetry-otlp-endpoint",
		Category: CategoryTelemetry,
		Usage:    "Endpoint URL for the OTLP collector. The scheme selects transport security: http and grpc are plaintext, https and grpcs use TLS.",
		EnvVars:  []string{"TELEMETRY_OTLP_ENDPOINT", EnvOTLPEndpoint},
		Value:    DefaultOTLPEndpoint,
	}
	TelemetryOTLPAPIKey = &cli.StringFlag{
		Name:     "telemetry-otlp-api-key",
		Category: CategoryTelemetry,
		Usage:    "API key sent to the OTLP collector.",
		EnvVars:  []string{"TELEMETRY_OTLP_API_KEY"},
	}
	TelemetryExporterTimeout = &cli.DurationFlag{
		Name:     "telemetry-exporter-timeout",
		Category: CategoryTelemetry,
		Usage:    "Timeout for exporting a batch of spans.",
		EnvVars:  []string{"TELEMETRY_EXPORTER_TIMEOUT"},
		Value:    DefaultExporterTimeout,
	}
	TelemetryStopTimeout = &cli.DurationFlag{
		Name:     "telemetry-stop-timeout",
		Category: CategoryTelemetry,
		Usage:    "Timeout for flushing and stopping the telemetry pipeline.",
		EnvVars:  []string{"TELEMETRY_STOP_TIMEOUT"},
		Value:    telemetry.DefaultShutdownTimeout,
	}
	TelemetryEventFormat = &cli.StringFlag{
		Name:     "trace-format",
		Category: CategoryTelemetry,
		Usage:    "Console span rendering: json, compact, or pretty. Only valid with the console collector.",
		EnvVars:  []string{"TRACE_FORMAT"},
		Action: func(_ *cli.Context, value string) error {
			if _, err := telemetry.ParseEventFormat(value); err != nil {
				return fmt.Errorf("invalid value %q for flag --trace-format", value)
			}
			return nil
		},
	}
	TelemetryHost = &cli.BoolFlag{
		Name:     "telemetry-host",
		Category: CategoryTelemetry,
		Usage:    "Export host metrics.",
		EnvVars:  []string{"TELEMETRY_HOST"},
	}
	TelemetryRuntime = &cli.BoolFlag{
		Name:     "telemetry-runtime",
		Category: CategoryTelemetry,
		Usage:    "Export runtime metrics.",
		EnvVars:  []string{"TELEMETRY_RUNTIME"},
	}
)

// TelemetryFlags lists every telemetry flag for app registration.
func TelemetryFlags() []cli.Flag {
	return []cli.Flag{
		ServiceName,
		TelemetryCollector,
		TelemetryOTLPEndpoint,
		TelemetryOTLPAPIKey,
		TelemetryExporterTimeout,
		TelemetryStopTimeout,
		TelemetryEventFormat,
		TelemetryHost,
		TelemetryRuntime,
	}
}

// ParseTelemetryFlags converts parsed CLI values into a collector
// configuration and pipeline options for telemetry.TryInit.
func ParseTelemetryFlags(c *cli.Context) (telemetry.CollectorConfig, []telemetry.Option, error) {
	collector, err := telemetry.ParseCollector(c.String(TelemetryCollector.Name))
	if err != nil {
		return nil, nil, err
	}

	opts := []telemetry.Option{
		telemetry.WithShutdownTimeout(c.Duration(TelemetryStopTimeout.Name)),
	}
	// Pass the format through for every collector so that TryInit rejects
	// the combination with a remote collector instead of ignoring the flag.
	if format := c.String(TelemetryEventFormat.Name); len(format) > 0 {
		f, err := telemetry.ParseEventFormat(format)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, telemetry.WithEventFormat(f))
	}

	var cfg telemetry.CollectorConfig
	switch collector {
	case telemetry.CollectorConsole:
		cfg = telemetry.ConsoleConfig{}
	case telemetry.CollectorOTLP:
		cfg, err = telemetry.NewOTLPConfig(
			c.String(TelemetryOTLPEndpoint.Name),
			telemetry.Secret(c.String(TelemetryOTLPAPIKey.Name)),
			c.Duration(TelemetryExporterTimeout.Name),
		)
		if err != nil {
			return nil, nil, err
		}
	}

	return cfg, opts, nil
}

// ParseMeterFlags converts parsed CLI values into meter provider options
// bound to the same collector as the span pipeline.
func ParseMeterFlags(ctx context.Context, c *cli.Context, serviceName string, cfg telemetry.CollectorConfig) ([]telemetry.MeterProviderOption, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}
	opts := []telemetry.MeterProviderOption{telemetry.WithMeterResource(res)}

	var exporter telemetry.MetricExporter
	switch collector := cfg.(type) {
	case telemetry.OTLPConfig:
		exporter, err = telemetry.NewOTLPMetricExporter(ctx, collector)
	default:
		exporter, err = telemetry.NewStdoutMetricExporter()
	}
	if err != nil {
		return nil, err
	}
	opts = append(opts, telemetry.WithMeterExporter(exporter))

	if c.Bool(TelemetryHost.Name) {
		opts = append(opts, telemetry.WithHostInstrumentation())
	}
	if c.Bool(TelemetryRuntime.Name) {
		opts = append(opts, telemetry.WithRuntimeInstrumentation())
	}
	return opts, nil
}
