package engine

import (
	"fmt"
	"strings"

	"github.com/oja-gamez/oja-injection/internal/regmodel"
)

// Validate walks every registration's declared dependencies and confirms
// each resolves to something registered in the container, without
// constructing anything. It accumulates every problem found into one
// returned error instead of failing at the first one, and is a no-op once it
// has already succeeded — re-running Use invalidates it again.
func (c *Container) Validate() error {
	if c.validated {
		return nil
	}

	var problems []string

	checkParams := func(key any, impl *regmodel.Constructor) {
		desc, _ := c.meta.Get(impl)
		for i := 0; i < impl.NumIn(); i++ {
			if desc != nil && desc.IsRuntime(i) {
				continue
			}
			var depKey any
			if desc != nil {
				if k, ok := desc.DependencyTokens[i]; ok {
					depKey = k
				}
			}
			if depKey == nil && desc != nil {
				if _, auto := desc.Dependencies[i]; auto {
					if k, ok := c.typeIndex[impl.ParamType(i)]; ok {
						depKey = k
					}
				}
			}
			if depKey == nil {
				problems = append(problems, fmt.Sprintf("%v: parameter %d of %s has no resolvable dependency key", key, i, impl))
				continue
			}
			if !c.hasKey(depKey) {
				problems = append(problems, fmt.Sprintf("%v: parameter %d of %s depends on unregistered key %v", key, i, impl, depKey))
			}
		}
	}

	for _, key := range c.order {
		reg := c.registrations[key]
		if reg.Implementation != nil {
			checkParams(key, reg.Implementation)
		}
	}
	for tok, mr := range c.multiRegs {
		for _, impl := range mr.Implementations {
			checkParams(tok, impl)
		}
	}
	for tok, kr := range c.keyedRegs {
		for _, impl := range kr.Entries {
			checkParams(tok, impl)
		}
	}

	if len(problems) > 0 {
		return newError(KindMissingRegistration, nil, nil, "validation failed:\n  "+strings.Join(problems, "\n  "))
	}
	c.validated = true
	return nil
}

func (c *Container) hasKey(key any) bool {
	if _, ok := c.registrations[key]; ok {
		return true
	}
	if _, ok := c.multiRegs[key]; ok {
		return true
	}
	if _, ok := c.keyedRegs[key]; ok {
		return true
	}
	return false
}
