package telemetry

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyInstalled is returned by TryInit when a pipeline has
	// already claimed the process-wide slot. The first guard remains
	// valid.
	ErrAlreadyInstalled = errors.New("telemetry: already installed")

	// ErrIncompatibleFormat is returned when an event format is set for a
	// collector that uses its own wire encoding.
	ErrIncompatibleFormat = errors.New("telemetry: event format incompatible with collector")
)

// ConfigError indicates an invalid collector configuration. It is raised at
// construction time, never while the pipeline is running.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("telemetry: invalid %s: %s", e.Field, e.Reason)
}

// ShutdownError reports that flushing or closing the pipeline failed or
// exceeded its bound. It is reportable but never fatal: buffered spans may
// have been dropped, yet the host process can continue shutting down.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("telemetry: shutdown: %s", e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
