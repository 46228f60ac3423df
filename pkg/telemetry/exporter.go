package telemetry

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// apiKeyHeader carries the collector credential on every OTLP request.
const apiKeyHeader = "x-api-key"

func newSpanExporter(ctx context.Context, cfg config) (sdktrace.SpanExporter, error) {
	if cfg.spanExporter != nil {
		return cfg.spanExporter, nil
	}
	switch collector := cfg.collector.(type) {
	case ConsoleConfig:
		return newConsoleSpanExporter(cfg)
	case OTLPConfig:
		return newOTLPSpanExporter(ctx, collector)
	default:
		return nil, errors.Errorf("telemetry: unknown collector config %T", cfg.collector)
	}
}

func newConsoleSpanExporter(cfg config) (sdktrace.SpanExporter, error) {
	var opts []stdouttrace.Option
	if cfg.consoleWriter != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.consoleWriter))
	}
	switch cfg.format {
	case FormatCompact:
		opts = append(opts, stdouttrace.WithoutTimestamps())
	case FormatPretty:
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return exporter, nil
}

// newOTLPSpanExporter builds the OTLP/gRPC exporter. The connection itself
// is deferred; no network round-trip happens here.
func newOTLPSpanExporter(ctx context.Context, collector OTLPConfig) (sdktrace.SpanExporter, error) {
	target, insecure := collector.dialTarget()
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(target),
		otlptracegrpc.WithTimeout(collector.Timeout()),
	}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(
			credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}),
		))
	}
	if !collector.APIKey().Empty() {
		opts = append(opts, otlptracegrpc.WithHeaders(map[string]string{
			apiKeyHeader: collector.APIKey().Reveal(),
		}))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return exporter, nil
}
