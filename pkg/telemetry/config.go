package telemetry

import (
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	DefaultBatchQueueSize  = 2048
	DefaultBatchTimeout    = 5 * time.Second
	DefaultMaxBatchSize    = 512
	DefaultShutdownTimeout = 3 * time.Second
)

type config struct {
	serviceName string
	collector   CollectorConfig

	format    EventFormat
	formatSet bool

	consoleWriter io.Writer
	spanExporter  sdktrace.SpanExporter

	sampler        sdktrace.Sampler
	batchQueueSize int
	batchTimeout   time.Duration
	maxBatchSize   int
	resourceAttrs  []attribute.KeyValue

	shutdownTimeout    time.Duration
	shutdownTimeoutSet bool

	meter bool

	registry *Registry
	logger   *zap.Logger
}

func newConfig(serviceName string, collector CollectorConfig, opts []Option) (config, error) {
	cfg := config{
		serviceName:     serviceName,
		collector:       collector,
		sampler:         sdktrace.ParentBased(sdktrace.AlwaysSample()),
		batchQueueSize:  DefaultBatchQueueSize,
		batchTimeout:    DefaultBatchTimeout,
		maxBatchSize:    DefaultMaxBatchSize,
		shutdownTimeout: DefaultShutdownTimeout,
		registry:        defaultRegistry,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	// The hosted collector's export timeout bounds the shutdown flush
	// unless the caller overrides it.
	if otlp, ok := collector.(OTLPConfig); ok && !cfg.shutdownTimeoutSet {
		cfg.shutdownTimeout = otlp.Timeout()
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg config) validate() error {
	if len(cfg.serviceName) == 0 {
		return &ConfigError{Field: "service name", Reason: "empty"}
	}
	if cfg.collector == nil {
		return &ConfigError{Field: "collector", Reason: "not set"}
	}
	if err := cfg.collector.validate(); err != nil {
		return err
	}
	if cfg.formatSet && cfg.collector.Collector() != CollectorConsole {
		return ErrIncompatibleFormat
	}
	if cfg.batchQueueSize <= 0 {
		return &ConfigError{Field: "batch queue size", Reason: "must be positive"}
	}
	if cfg.batchTimeout <= 0 {
		return &ConfigError{Field: "batch timeout", Reason: "must be positive"}
	}
	if cfg.maxBatchSize <= 0 {
		return &ConfigError{Field: "max batch size", Reason: "must be positive"}
	}
	if cfg.shutdownTimeout <= 0 {
		return &ConfigError{Field: "shutdown timeout", Reason: "must be positive"}
	}
	if cfg.registry == nil {
		return &ConfigError{Field: "registry", Reason: "not set"}
	}
	if cfg.logger == nil {
		return &ConfigError{Field: "logger", Reason: "not set"}
	}
	return nil
}

// Option configures the pipeline assembled by TryInit.
type Option interface {
	apply(*config)
}

type funcOption struct {
	f func(*config)
}

func newFuncOption(f func(*config)) *funcOption {
	return &funcOption{f: f}
}

func (fo *funcOption) apply(cfg *config) {
	fo.f(cfg)
}

// WithLogger sets the logger used for non-fatal pipeline reports such as
// shutdown failures.
func WithLogger(logger *zap.Logger) Option {
	return newFuncOption(func(cfg *config) {
		cfg.logger = logger
	})
}

// WithEventFormat sets the console rendering. Combining it with a remote
// collector fails with ErrIncompatibleFormat.
func WithEventFormat(format EventFormat) Option {
	return newFuncOption(func(cfg *config) {
		cfg.format = format
		cfg.formatSet = true
	})
}

// WithConsoleWriter redirects console output away from stdout.
func WithConsoleWriter(w io.Writer) Option {
	return newFuncOption(func(cfg *config) {
		cfg.consoleWriter = w
	})
}

// WithSampler overrides the default ParentBased(AlwaysSample) sampler.
func WithSampler(sampler sdktrace.Sampler) Option {
	return newFuncOption(func(cfg *config) {
		cfg.sampler = sampler
	})
}

// WithBatchOptions tunes the batch span processor used for remote
// collectors.
func WithBatchOptions(queueSize int, batchTimeout time.Duration, maxBatchSize int) Option {
	return newFuncOption(func(cfg *config) {
		cfg.batchQueueSize = queueSize
		cfg.batchTimeout = batchTimeout
		cfg.maxBatchSize = maxBatchSize
	})
}

// WithResourceAttributes attaches attributes to the pipeline resource in
// addition to the service name.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return newFuncOption(func(cfg *config) {
		cfg.resourceAttrs = attrs
	})
}

// WithShutdownTimeout bounds the flush performed by Guard.Release.
func WithShutdownTimeout(timeout time.Duration) Option {
	return newFuncOption(func(cfg *config) {
		cfg.shutdownTimeout = timeout
		cfg.shutdownTimeoutSet = true
	})
}

// WithSpanExporter injects a span exporter, bypassing the exporter factory.
func WithSpanExporter(exporter sdktrace.SpanExporter) Option {
	return newFuncOption(func(cfg *config) {
		cfg.spanExporter = exporter
	})
}

// WithRegistry installs the pipeline into the given registry instead of the
// process-wide default.
func WithRegistry(registry *Registry) Option {
	return newFuncOption(func(cfg *config) {
		cfg.registry = registry
	})
}

// WithMeterProvider also assembles a meter provider bound to the same
// collector; its shutdown joins the guard.
func WithMeterProvider() Option {
	return newFuncOption(func(cfg *config) {
		cfg.meter = true
	})
}
