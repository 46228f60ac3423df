package telemetry

import (
	"context"

	"github.com/puzpuzpuz/xsync/v2"
	"go.opentelemetry.io/otel/metric"
)

// Int64HistogramSet is a wrapper around OpenTelemetry's Int64Histogram that
// caches [metric.RecordOption] per key, avoiding redundant option
// construction on hot recording paths.
type Int64HistogramSet struct {
	histogram metric.Int64Histogram
	opts      *xsync.MapOf[string, []metric.RecordOption]
}

// NewInt64HistogramSet initializes a new Int64HistogramSet with the
// specified name and options.
func NewInt64HistogramSet(meter metric.Meter, name string, opts ...metric.Int64HistogramOption) (*Int64HistogramSet, error) {
	histogram, err := meter.Int64Histogram(name, opts...)
	if err != nil {
		return nil, err
	}
	return &Int64HistogramSet{
		histogram: histogram,
		opts:      xsync.NewMapOf[[]metric.RecordOption](),
	}, nil
}

// Record adds a value to the histogram for a specific key. It reuses cached
// [metric.RecordOption] if available or generates new options with getOpts.
func (hs *Int64HistogramSet) Record(ctx context.Context, key string, incr int64, getOpts func() []metric.RecordOption) {
	opts, _ := hs.opts.LoadOrCompute(key, getOpts)
	hs.histogram.Record(ctx, incr, opts...)
}
