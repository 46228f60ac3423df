package telemetry

import (
	"context"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Guard owns the installed pipeline. Releasing it flushes buffered spans
// within the configured bound and closes the exporter. Both Release and
// Close are idempotent: only the first call flushes, later calls are no-ops.
type Guard struct {
	tp        *sdktrace.TracerProvider
	stopMeter StopMeterProvider
	timeout   time.Duration
	logger    *zap.Logger

	once sync.Once
	mu   sync.Mutex
	err  error
}

// Close flushes and shuts the pipeline down, honoring the given context
// deadline. Spans emitted before the call are delivered or dropped and
// reported before it returns; it never blocks past the deadline.
func (g *Guard) Close(ctx context.Context) error {
	var err error
	first := false
	g.once.Do(func() {
		first = true
		err = g.shutdown(ctx)
		g.mu.Lock()
		g.err = err
		g.mu.Unlock()
	})
	if !first {
		return nil
	}
	return err
}

// Release closes the pipeline bounded by the configured shutdown timeout.
// Failures are reported through the logger and recorded for Err, never
// raised back into the caller's shutdown path.
func (g *Guard) Release() {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	if err := g.Close(ctx); err != nil {
		g.logger.Warn("telemetry shutdown failed, spans may be dropped", zap.Error(err))
	}
}

// Err returns the error recorded by the release, if any.
func (g *Guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Guard) shutdown(ctx context.Context) error {
	err := g.tp.Shutdown(ctx)
	if g.stopMeter != nil {
		err = multierr.Append(err, g.stopMeter(ctx))
	}
	if err != nil {
		return &ShutdownError{Err: err}
	}
	return nil
}
