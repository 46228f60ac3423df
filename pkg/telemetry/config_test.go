package telemetry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tcs := []struct {
		name        string
		serviceName string
		opts        []Option
		field       string
	}{
		{
			name:        "empty_service_name",
			serviceName: "",
			field:       "service name",
		},
		{
			name:        "zero_queue_size",
			serviceName: "svc",
			opts:        []Option{WithBatchOptions(0, DefaultBatchTimeout, DefaultMaxBatchSize)},
			field:       "batch queue size",
		},
		{
			name:        "negative_batch_timeout",
			serviceName: "svc",
			opts:        []Option{WithBatchOptions(DefaultBatchQueueSize, -time.Second, DefaultMaxBatchSize)},
			field:       "batch timeout",
		},
		{
			name:        "zero_max_batch_size",
			serviceName: "svc",
			opts:        []Option{WithBatchOptions(DefaultBatchQueueSize, DefaultBatchTimeout, 0)},
			field:       "max batch size",
		},
		{
			name:        "zero_shutdown_timeout",
			serviceName: "svc",
			opts:        []Option{WithShutdownTimeout(0)},
			field:       "shutdown timeout",
		},
		{
			name:        "nil_registry",
			serviceName: "svc",
			opts:        []Option{WithRegistry(nil)},
			field:       "registry",
		},
		{
			name:        "nil_logger",
			serviceName: "svc",
			opts:        []Option{WithLogger(nil)},
			field:       "logger",
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := newConfig(tc.serviceName, ConsoleConfig{}, tc.opts)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			require.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestConfigShutdownTimeout(t *testing.T) {
	collector, err := NewOTLPConfig("https://otel.example.com", "key", 7*time.Second)
	require.NoError(t, err)

	cfg, err := newConfig("svc", collector, nil)
	require.NoError(t, err)
	require.Equal(t, 7*time.Second, cfg.shutdownTimeout)

	cfg, err = newConfig("svc", collector, []Option{WithShutdownTimeout(time.Second)})
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.shutdownTimeout)

	cfg, err = newConfig("svc", ConsoleConfig{}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
}
