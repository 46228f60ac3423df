package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewConsoleSpanExporterFormats(t *testing.T) {
	tcs := []struct {
		name      string
		format    EventFormat
		multiline bool
	}{
		{name: "json", format: FormatJSON, multiline: false},
		{name: "compact", format: FormatCompact, multiline: false},
		{name: "pretty", format: FormatPretty, multiline: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg, err := newConfig("svc", ConsoleConfig{}, []Option{
				WithConsoleWriter(&buf),
				WithEventFormat(tc.format),
			})
			require.NoError(t, err)

			exporter, err := newConsoleSpanExporter(cfg)
			require.NoError(t, err)
			defer func() {
				require.NoError(t, exporter.Shutdown(context.Background()))
			}()

			stubs := tracetest.SpanStubs{{Name: "stub-span"}}
			require.NoError(t, exporter.ExportSpans(context.Background(), stubs.Snapshots()))

			out := strings.TrimRight(buf.String(), "\n")
			require.Contains(t, out, "stub-span")
			if tc.multiline {
				require.Greater(t, strings.Count(out, "\n"), 0)
			} else {
				require.Zero(t, strings.Count(out, "\n"))
			}
		})
	}
}

func TestNewSpanExporterInjected(t *testing.T) {
	injected := &fakeSpanExporter{}
	cfg, err := newConfig("svc", ConsoleConfig{}, []Option{WithSpanExporter(injected)})
	require.NoError(t, err)

	exporter, err := newSpanExporter(context.Background(), cfg)
	require.NoError(t, err)
	require.Same(t, injected, exporter)
}
