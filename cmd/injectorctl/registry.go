package main

import (
	"github.com/oja-gamez/oja-injection/di"
	"github.com/oja-gamez/oja-injection/internal/config"
)

// moduleRegistry lists the di.Module factories this binary knows how to
// build by name. An embedding application extends this (or builds its own
// main) to register its own modules; the reference binary ships empty so
// `injectorctl validate` against an empty manifest always succeeds.
func moduleRegistry() *config.ModuleRegistry {
	r := config.NewModuleRegistry()
	return r
}

func buildContainer(manifest *config.Manifest, registry *config.ModuleRegistry, opts ...di.ContainerOption) (*di.Container, error) {
	c := di.NewContainer(opts...)
	if manifest == nil {
		return c, nil
	}
	for _, name := range manifest.EnabledInOrder() {
		entry := manifest.Modules[name]
		built, err := registry.Build(entry)
		if err != nil {
			return nil, err
		}
		mod, ok := built.(*di.Module)
		if !ok {
			continue
		}
		if err := c.Use(mod); err != nil {
			return nil, err
		}
	}
	return c, nil
}
