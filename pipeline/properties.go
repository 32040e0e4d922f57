package pipeline

import (
	"slices"
	"sync"
)

// Well-known property keys.
const (
	// PropertyDefaultApp holds the terminal handler used to seed Build.
	// Accepted values are owin.AppFunc, owin.Handler and
	// func(*owin.Environment) error.
	PropertyDefaultApp = "builder.DefaultApp"

	// PropertyCapabilities holds the Capabilities advertised by the server.
	PropertyCapabilities = "server.Capabilities"

	// PropertyTraceOutput holds the *slog.Logger used for configuration
	// diagnostics.
	PropertyTraceOutput = "host.TraceOutput"

	// PropertyAppName holds the application name reported in diagnostics.
	PropertyAppName = "host.AppName"
)

// Capabilities is the server capability sub-map stored under
// PropertyCapabilities.
type Capabilities map[string]any

// Properties is a key/value store shared by a builder and every builder
// derived from it with New. It is safe for concurrent use.
type Properties struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewProperties returns an empty property store.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// Get returns the value stored under key and whether it is present.
func (p *Properties) Get(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v, ok := p.values[key]
	return v, ok
}

// Set stores value under key, overwriting any previous value.
func (p *Properties) Set(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.values[key] = value
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores and returns value. The loaded result reports whether the value was
// already present.
func (p *Properties) LoadOrStore(key string, value any) (actual any, loaded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.values[key]; ok {
		return v, true
	}

	p.values[key] = value
	return value, false
}

// Delete removes the value stored under key.
func (p *Properties) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.values, key)
}

// Keys returns the sorted list of stored keys.
func (p *Properties) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Property returns the value stored under key as a T, or the zero value of
// T when the key is absent or holds a value of another type.
func Property[T any](p *Properties, key string) T {
	var zero T
	if p == nil {
		return zero
	}

	raw, ok := p.Get(key)
	if !ok {
		return zero
	}

	v, ok := raw.(T)
	if !ok {
		return zero
	}

	return v
}
