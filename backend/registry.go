package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/compositor"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first that can be created wins).
	priority = []string{NameWGPU, NameSoftware}

	sharedMu   sync.Mutex
	shared     compositor.Context
	sharedName string
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates a context of the named backend.
func Get(name string) (compositor.Context, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	ctx, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: create %q: %w", name, err)
	}
	return ctx, nil
}

// Default creates a context of the best available backend. Backends are
// tried in priority order (wgpu, then software), then the rest by name.
// The name of the backend used is returned with the context.
func Default() (compositor.Context, string, error) {
	var errs []error
	for _, name := range selectionOrder() {
		ctx, err := Get(name)
		if err == nil {
			return ctx, name, nil
		}
		compositor.Logger().Debug("backend: skipped", "name", name, "err", err)
		errs = append(errs, err)
	}
	return nil, "", errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}

// MustDefault returns the default context or panics.
func MustDefault() compositor.Context {
	ctx, _, err := Default()
	if err != nil {
		panic(err)
	}
	return ctx
}

// InitDefault returns a process-wide context of the best available backend,
// creating it on first use. Later calls return the same context.
func InitDefault() (compositor.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return shared, nil
	}
	ctx, name, err := Default()
	if err != nil {
		return nil, err
	}
	compositor.Logger().Info("backend: default selected", "name", name)
	shared, sharedName = ctx, name
	return shared, nil
}

// DefaultName returns the name of the backend chosen by InitDefault, or ""
// before it succeeded.
func DefaultName() string {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedName
}

func selectionOrder() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	order := make([]string, 0, len(factories))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			order = append(order, name)
		}
	}
	rest := make([]string, 0, len(factories))
	for name := range factories {
		if !slices.Contains(priority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}
