package recording

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Formatter writes a recording in some output format.
type Formatter interface {
	Format(w io.Writer, r *Recording) error
}

// FormatterFactory creates a new formatter instance.
// Factories are registered via Register() and called by NewFormatter().
type FormatterFactory func() Formatter

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	formatters = make(map[string]FormatterFactory)
)

// Register registers a formatter factory with the given name, following
// the database/sql driver pattern:
//
//	func init() {
//	    recording.Register("svg", func() recording.Formatter {
//	        return NewSVGFormatter()
//	    })
//	}
//
// Register panics if factory is nil or if a formatter with the same name is
// already registered.
func Register(name string, factory FormatterFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("recording: Register factory is nil")
	}
	if _, dup := formatters[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	formatters[name] = factory
}

// Unregister removes a formatter from the registry. It is a no-op for
// unknown names.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(formatters, name)
}

// NewFormatter creates a formatter by name.
func NewFormatter(name string) (Formatter, error) {
	registryMu.RLock()
	factory, ok := formatters[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("recording: unknown format %q (forgotten import?)", name)
	}
	return factory(), nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a formatter with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := formatters[name]
	return ok
}
