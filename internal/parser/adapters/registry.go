package adapters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds an adapter from the shared dependencies.
type Factory func(deps Deps) Adapter

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds an adapter factory under a unique lowercase name.
// Called from adapter package init; the all package imports every adapter
// for side effects.
func Register(name string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("adapters: empty name in Register")
	}
	if f == nil {
		panic("adapters: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("adapters: duplicate registration for " + n)
	}
	registry[n] = f
}

// FactoryByName looks up a registered factory.
func FactoryByName(name string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

// AvailableNames lists registered adapter names, sorted.
func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build instantiates the named adapters. Unknown names are an error so a
// config typo fails loudly at startup instead of silently dropping a source.
func Build(names []string, deps Deps) ([]Adapter, error) {
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		f, ok := FactoryByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown adapter %q (available: %v)", name, AvailableNames())
		}
		out = append(out, f(deps))
	}
	return out, nil
}
