package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSpanExporter struct {
	mu        sync.Mutex
	exported  int
	shutdowns int32

	// unblock, when non-nil, stalls exports and shutdowns until it is
	// closed or the context expires.
	unblock chan struct{}
}

var _ sdktrace.SpanExporter = (*fakeSpanExporter)(nil)

func (e *fakeSpanExporter) stall(ctx context.Context) error {
	if e.unblock == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.unblock:
		return nil
	}
}

func (e *fakeSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if err := e.stall(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exported += len(spans)
	return nil
}

func (e *fakeSpanExporter) Shutdown(ctx context.Context) error {
	atomic.AddInt32(&e.shutdowns, 1)
	return e.stall(ctx)
}

func emitSpan(t *testing.T, name string, attrs ...attribute.KeyValue) {
	t.Helper()
	_, span := Tracer("test").Start(context.Background(), name, trace.WithAttributes(attrs...))
	span.End()
}

func TestTryInitConsoleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	guard, err := TryInit(context.Background(), "svc-a", ConsoleConfig{},
		WithConsoleWriter(&buf),
		WithRegistry(NewRegistry()),
	)
	require.NoError(t, err)

	emitSpan(t, "handle-request", attribute.String("k", "v"))
	guard.Release()

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, `"StartTime"`))
	require.Contains(t, out, "svc-a")
	require.Contains(t, out, `"k"`)
	require.Contains(t, out, `"v"`)
}

func TestTryInitConsoleEmissionOrder(t *testing.T) {
	var buf bytes.Buffer
	guard, err := TryInit(context.Background(), "svc-order", ConsoleConfig{},
		WithConsoleWriter(&buf),
		WithRegistry(NewRegistry()),
	)
	require.NoError(t, err)

	const spans = 5
	for i := 0; i < spans; i++ {
		emitSpan(t, fmt.Sprintf("span-%d", i))
	}
	guard.Release()

	out := buf.String()
	prev := -1
	for i := 0; i < spans; i++ {
		idx := strings.Index(out, fmt.Sprintf("span-%d", i))
		require.Greater(t, idx, prev)
		prev = idx
	}
}

func TestTryInitConsoleFormats(t *testing.T) {
	tcs := []struct {
		name   string
		format EventFormat
	}{
		{name: "json", format: FormatJSON},
		{name: "compact", format: FormatCompact},
		{name: "pretty", format: FormatPretty},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			guard, err := TryInit(context.Background(), "svc-fmt", ConsoleConfig{},
				WithConsoleWriter(&buf),
				WithEventFormat(tc.format),
				WithRegistry(NewRegistry()),
			)
			require.NoError(t, err)
			emitSpan(t, "formatted")
			guard.Release()
			require.Contains(t, buf.String(), "formatted")
		})
	}
}

func TestTryInitAlreadyInstalled(t *testing.T) {
	registry := NewRegistry()

	var buf bytes.Buffer
	guard, err := TryInit(context.Background(), "svc-first", ConsoleConfig{},
		WithConsoleWriter(&buf),
		WithRegistry(registry),
	)
	require.NoError(t, err)

	_, err = TryInit(context.Background(), "svc-second", ConsoleConfig{},
		WithRegistry(registry),
	)
	require.ErrorIs(t, err, ErrAlreadyInstalled)

	// the first pipeline keeps working
	emitSpan(t, "after-second-attempt")
	guard.Release()
	require.Contains(t, buf.String(), "after-second-attempt")
}

func TestTryInitInvalidConfigLeavesNoState(t *testing.T) {
	registry := NewRegistry()

	_, err := TryInit(context.Background(), "", ConsoleConfig{}, WithRegistry(registry))
	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
	require.False(t, registry.Installed())

	// a later call may retry
	guard, err := TryInit(context.Background(), "svc-retry", ConsoleConfig{},
		WithConsoleWriter(&bytes.Buffer{}),
		WithRegistry(registry),
	)
	require.NoError(t, err)
	require.True(t, registry.Installed())
	guard.Release()
}

func TestTryInitIncompatibleFormat(t *testing.T) {
	registry := NewRegistry()

	cfg, err := NewOTLPConfig("https://collector.example.com:4317", "key", time.Second)
	require.NoError(t, err)

	_, err = TryInit(context.Background(), "svc-b", cfg,
		WithEventFormat(FormatPretty),
		WithRegistry(registry),
	)
	require.ErrorIs(t, err, ErrIncompatibleFormat)
	require.False(t, registry.Installed())
}

func TestGuardReleaseIdempotent(t *testing.T) {
	exporter := &fakeSpanExporter{}
	guard, err := TryInit(context.Background(), "svc-idem", ConsoleConfig{},
		WithSpanExporter(exporter),
		WithRegistry(NewRegistry()),
	)
	require.NoError(t, err)

	emitSpan(t, "once")

	guard.Release()
	guard.Release()

	require.EqualValues(t, 1, atomic.LoadInt32(&exporter.shutdowns))
	require.NoError(t, guard.Err())
	require.NoError(t, guard.Close(context.Background()))
}

func TestGuardReleaseBounded(t *testing.T) {
	const bound = 150 * time.Millisecond

	cfg, err := NewOTLPConfig("http://127.0.0.1:4317", "", time.Second)
	require.NoError(t, err)

	exporter := &fakeSpanExporter{unblock: make(chan struct{})}
	guard, err := TryInit(context.Background(), "svc-slow", cfg,
		WithSpanExporter(exporter),
		WithShutdownTimeout(bound),
		WithRegistry(NewRegistry()),
	)
	require.NoError(t, err)

	emitSpan(t, "buffered")

	begin := time.Now()
	guard.Release()
	require.Less(t, time.Since(begin), bound+time.Second)

	var shutdownErr *ShutdownError
	require.True(t, errors.As(guard.Err(), &shutdownErr))

	// Let the drained export return so no background goroutine lingers.
	close(exporter.unblock)
}

func TestTryInitWithMeterProvider(t *testing.T) {
	guard, err := TryInit(context.Background(), "svc-meter", ConsoleConfig{},
		WithConsoleWriter(&bytes.Buffer{}),
		WithMeterProvider(),
		WithRegistry(NewRegistry()),
	)
	require.NoError(t, err)

	counter, err := Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	guard.Release()
	require.NoError(t, guard.Err())
}

func TestInitDefaultRegistry(t *testing.T) {
	guard := Init("svc-default")
	require.True(t, Installed())

	_, err := TryInit(context.Background(), "svc-default-second", ConsoleConfig{})
	require.ErrorIs(t, err, ErrAlreadyInstalled)

	require.Panics(t, func() {
		Init("svc-default-third")
	})

	guard.Release()
	require.True(t, Installed())
}
