package engine

import (
	"fmt"

	"github.com/oja-gamez/oja-injection/internal/capability"
	"github.com/oja-gamez/oja-injection/internal/lifetime"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
)

// resolveCtx carries the in-flight resolution chain (for cycle detection and
// error rendering) and, only at the outermost call, the caller-supplied
// runtime arguments consumed ascending by parameter index.
type resolveCtx struct {
	chain       []regmodel.Key
	runtimeArgs []any
	runtimeIdx  int
}

func (ctx *resolveCtx) push(key regmodel.Key) *resolveCtx {
	chain := make([]regmodel.Key, len(ctx.chain)+1)
	copy(chain, ctx.chain)
	chain[len(ctx.chain)] = key
	return &resolveCtx{chain: chain, runtimeArgs: ctx.runtimeArgs, runtimeIdx: ctx.runtimeIdx}
}

func containsKey(chain []regmodel.Key, key regmodel.Key) bool {
	for _, k := range chain {
		if k == key {
			return true
		}
	}
	return false
}

// resolve is the core resolution algorithm. scope is nil for root/
// container-only resolution.
func (c *Container) resolve(key regmodel.Key, ctx *resolveCtx, scope *Scope) (any, error) {
	if !isValidKey(key) {
		return nil, newError(KindInvalidToken, key, ctx.chain, "key is neither a token nor a constructor")
	}

	if mr, ok := c.multiRegs[key]; ok {
		return c.resolveMulti(key, mr, ctx, scope)
	}
	if kr, ok := c.keyedRegs[key]; ok {
		return c.makeKeyedFactory(kr, scope), nil
	}

	// Lookup precedence for scoped resolution: externals in this scope, then
	// this scope's own cache, before the container registration is even
	// consulted.
	if scope != nil {
		if v, ok := scope.externals[key]; ok {
			return v, nil
		}
		if v, ok := scope.scopedCache[key]; ok {
			return v, nil
		}
	}

	reg, ok := c.registrations[key]
	if !ok {
		if scope != nil && scope.parent != nil {
			return c.resolve(key, ctx, scope.parent)
		}
		return nil, newError(KindMissingRegistration, key, ctx.chain, "no registration for this key")
	}

	switch reg.Lifetime {
	case lifetime.Singleton:
		if v, ok := c.singletons[key]; ok {
			return v, nil
		}
		if containsKey(ctx.chain, key) {
			return nil, newError(KindCircularDependency, key, ctx.push(key).chain, "circular dependency")
		}
		inst, err := c.construct(reg.Implementation, key, ctx.push(key), scope, reg.Lifetime)
		if err != nil {
			return nil, err
		}
		c.singletons[key] = inst
		return inst, nil

	case lifetime.Scoped:
		if scope == nil {
			return nil, newError(KindLifetimeViolation, key, ctx.chain, "scoped lifetime requires a scope")
		}
		if containsKey(ctx.chain, key) {
			return nil, newError(KindCircularDependency, key, ctx.push(key).chain, "circular dependency")
		}
		inst, err := c.construct(reg.Implementation, key, ctx.push(key), scope, reg.Lifetime)
		if err != nil {
			return nil, err
		}
		scope.track(key, inst)
		return inst, nil

	case lifetime.Factory:
		if containsKey(ctx.chain, key) {
			return nil, newError(KindCircularDependency, key, ctx.push(key).chain, "circular dependency")
		}
		return c.construct(reg.Implementation, key, ctx.push(key), scope, reg.Lifetime)

	default:
		return nil, newError(KindLifetimeViolation, key, ctx.chain, fmt.Sprintf("unknown lifetime %v", reg.Lifetime))
	}
}

// resolveMulti builds, and caches forever, one instance per list element,
// preserving insertion order across every Multi call merged for this token.
func (c *Container) resolveMulti(key regmodel.Key, mr *regmodel.MultiRegistration, ctx *resolveCtx, scope *Scope) ([]any, error) {
	if cached, ok := c.multiCache[key]; ok {
		return cached, nil
	}
	out := make([]any, len(mr.Implementations))
	for i, impl := range mr.Implementations {
		elementKey := multiElementKey{token: key, index: i}
		if containsKey(ctx.chain, elementKey) {
			return nil, newError(KindCircularDependency, elementKey, ctx.push(elementKey).chain, "circular dependency")
		}
		inst, err := c.construct(impl, elementKey, ctx.push(elementKey), scope, lifetime.Singleton)
		if err != nil {
			return nil, err
		}
		out[i] = inst
	}
	c.multiCache[key] = out
	return out, nil
}

type multiElementKey struct {
	token regmodel.Key
	index int
}

func (k multiElementKey) String() string {
	return fmt.Sprintf("%v[%d]", k.token, k.index)
}

// KeyedFactory is what resolving a keyed-registration token produces: a
// callable that builds a fresh instance from a string key on every call.
type KeyedFactory func(key string) (any, error)

func (c *Container) makeKeyedFactory(kr *regmodel.KeyedRegistration, scope *Scope) KeyedFactory {
	return func(key string) (any, error) {
		impl, ok := kr.Entries[key]
		if !ok {
			return nil, newError(KindMissingRegistration, kr.Token, nil,
				fmt.Sprintf("no keyed entry %q; available keys: %v", key, kr.AvailableKeys()))
		}
		elementKey := keyedElementKey{token: kr.Token, key: key}
		return c.construct(impl, elementKey, &resolveCtx{chain: []regmodel.Key{elementKey}}, scope, lifetime.Factory)
	}
}

type keyedElementKey struct {
	token regmodel.Key
	key   string
}

func (k keyedElementKey) String() string {
	return fmt.Sprintf("%v[%q]", k.token, k.key)
}

// construct resolves impl's parameters and invokes it, wrapping any
// constructor failure exactly once.
func (c *Container) construct(impl *regmodel.Constructor, key regmodel.Key, ctx *resolveCtx, scope *Scope, forLifetime lifetime.Lifetime) (any, error) {
	desc, _ := c.meta.Get(impl)

	args := make([]any, impl.NumIn())
	for i := 0; i < impl.NumIn(); i++ {
		if desc != nil && desc.IsRuntime(i) {
			if ctx.runtimeIdx >= len(ctx.runtimeArgs) {
				return nil, newError(KindConstructorError, key, ctx.chain,
					fmt.Sprintf("no runtime argument supplied for parameter %d of %s", i, impl))
			}
			args[i] = ctx.runtimeArgs[ctx.runtimeIdx]
			ctx.runtimeIdx++
			continue
		}

		var depKey regmodel.Key
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
			return nil, newError(KindConstructorError, key, ctx.chain,
				fmt.Sprintf("no dependency key for parameter %d of %s", i, impl))
		}

		v, err := c.resolve(depKey, &resolveCtx{chain: ctx.chain}, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	inst, err := impl.Invoke(args)
	if err != nil {
		return nil, wrapConstructorError(key, ctx.chain, err)
	}

	if _, warms := inst.(capability.Warmer); warms && forLifetime != lifetime.Singleton {
		return nil, newError(KindLifetimeViolation, key, ctx.chain, "Warmup capability requires singleton lifetime")
	}

	return inst, nil
}
