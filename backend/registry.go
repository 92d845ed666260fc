package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Backend names.
const (
	BackendWGPU      = "wgpu"
	BackendRecording = "recording"
)

// Factory creates a new device.
type Factory func() (Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendRecording}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a device from the named backend.
func Get(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory()
}

// Default creates a device from the best available backend.
// Priority order: wgpu > recording, then any other registered backend.
// Errors of backends that fail to initialize are skipped; if none
// succeeds, the last error is returned.
func Default() (Device, error) {
	registryMu.RLock()
	factories := make([]Factory, 0, len(backends))
	seen := make(map[string]bool, len(backendPriority))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			factories = append(factories, f)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		factories = append(factories, backends[name])
	}
	registryMu.RUnlock()

	err := ErrBackendNotAvailable
	for _, f := range factories {
		d, ferr := f()
		if ferr == nil && d != nil {
			return d, nil
		}
		if ferr != nil {
			err = fmt.Errorf("%w: %w", ErrBackendNotAvailable, ferr)
		}
	}
	return nil, err
}

// MustDefault returns the default device or panics.
func MustDefault() Device {
	d, err := Default()
	if err != nil {
		panic(err)
	}
	return d
}
