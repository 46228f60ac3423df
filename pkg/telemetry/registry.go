package telemetry

import "sync"

type registryState int

const (
	stateUninitialized registryState = iota
	stateInstalling
	stateInstalled
)

// Registry is a set-once slot for the process-wide pipeline. Installation
// claims the slot atomically, so concurrent TryInit calls resolve to exactly
// one winner; the rest observe ErrAlreadyInstalled. There is no transition
// back to uninitialized once installed.
//
// The package-level facade uses a single default registry. Tests that need
// independent "processes" pass their own registry via WithRegistry.
type Registry struct {
	mu    sync.Mutex
	state registryState
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Installed reports whether a pipeline is installed in this registry.
func (r *Registry) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateInstalled
}

// claim moves the registry to installing. It fails if another installation
// is in flight or has completed.
func (r *Registry) claim() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateUninitialized {
		return ErrAlreadyInstalled
	}
	r.state = stateInstalling
	return nil
}

// abort returns a claimed slot after a failed installation so that a later
// call may retry.
func (r *Registry) abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateInstalling {
		r.state = stateUninitialized
	}
}

// complete marks the installation as finished.
func (r *Registry) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateInstalling {
		r.state = stateInstalled
	}
}

var defaultRegistry = NewRegistry()

// Installed reports whether the process-wide pipeline is installed.
func Installed() bool {
	return defaultRegistry.Installed()
}
