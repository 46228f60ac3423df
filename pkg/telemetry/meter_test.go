package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
)

func TestNewMeterProviderNoop(t *testing.T) {
	mp, stop, err := NewMeterProvider()
	require.NoError(t, err)
	require.NotNil(t, mp)

	counter, err := mp.Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, stop(context.Background()))
}

func TestNewMeterProviderStdout(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := NewStdoutMetricExporter(stdoutmetric.WithEncoder(json.NewEncoder(&buf)))
	require.NoError(t, err)

	mp, stop, err := NewMeterProvider(WithMeterExporter(exporter))
	require.NoError(t, err)

	counter, err := mp.Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 42)

	require.NoError(t, stop(context.Background()))
	require.Contains(t, buf.String(), "test.counter")
}

func TestNewMeterProviderStopIsIdempotentPerExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := NewStdoutMetricExporter(stdoutmetric.WithEncoder(json.NewEncoder(&buf)))
	require.NoError(t, err)

	_, stop, err := NewMeterProvider(WithMeterExporter(exporter))
	require.NoError(t, err)

	require.NoError(t, stop(context.Background()))
	// stopping again reports the already-shut-down reader, never panics
	_ = stop(context.Background())
}
