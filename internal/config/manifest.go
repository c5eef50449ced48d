package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes, by name, the modules an injectorctl deployment wires
// together: which are enabled and in what order they load.
type Manifest struct {
	Modules map[string]ModuleEntry `yaml:"modules"`
}

// ModuleEntry is one named module's enablement and declared load order.
// Factory is documentation only: Go has no reflection-based call-by-name, so
// wiring the named function to this entry is the embedding application's
// responsibility (see ModuleRegistry).
type ModuleEntry struct {
	Factory  string `yaml:"factory"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}

// LoadManifest reads a module manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// EnabledInOrder returns the names of enabled modules sorted by ascending
// Priority, breaking ties by name for a stable result.
func (m *Manifest) EnabledInOrder() []string {
	names := make([]string, 0, len(m.Modules))
	for name, entry := range m.Modules {
		if entry.Enabled {
			names = append(names, name)
		}
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0; j-- {
			a, b := m.Modules[names[j-1]], m.Modules[names[j]]
			if a.Priority > b.Priority || (a.Priority == b.Priority && names[j-1] > names[j]) {
				names[j-1], names[j] = names[j], names[j-1]
			}
		}
	}
	return names
}

// ModuleFactory builds a *di.Module (typed as any here to avoid an import
// cycle with the public di package) for one named module.
type ModuleFactory func() any

// ModuleRegistry maps a manifest entry's Factory name to the Go function
// that actually builds it — explicit registration standing in for a
// dynamic name-based lookup, which Go's static typing has no equivalent of.
type ModuleRegistry struct {
	factories map[string]ModuleFactory
}

// NewModuleRegistry returns an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{factories: make(map[string]ModuleFactory)}
}

// Register binds name to factory.
func (r *ModuleRegistry) Register(name string, factory ModuleFactory) {
	r.factories[name] = factory
}

// Build looks up entry.Factory and invokes it, or reports an error naming
// every factory name the registry actually knows.
func (r *ModuleRegistry) Build(entry ModuleEntry) (any, error) {
	factory, ok := r.factories[entry.Factory]
	if !ok {
		known := make([]string, 0, len(r.factories))
		for name := range r.factories {
			known = append(known, name)
		}
		return nil, fmt.Errorf("config: no factory registered for %q; known factories: %s", entry.Factory, strings.Join(known, ", "))
	}
	return factory(), nil
}
