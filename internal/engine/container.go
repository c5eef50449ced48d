// Package engine is the resolution and lifecycle core: the container's
// registry and singleton cache, the dependency-graph walk that detects
// cycles and enforces lifetime rules, the scope tree, and validation.
// Everything else in the repository (the builder DSL, metadata markers,
// CLI, diagnostics exporters) is a thin collaborator that feeds this
// package structured input.
package engine

import (
	"fmt"
	"log"
	"reflect"

	"github.com/oja-gamez/oja-injection/internal/lifetime"
	"github.com/oja-gamez/oja-injection/internal/meta"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
	"github.com/oja-gamez/oja-injection/internal/token"
	"github.com/oja-gamez/oja-injection/internal/tick"
)

// Container is the root registry of registrations, the singleton cache, the
// resolution algorithm and the validator.
type Container struct {
	meta   *meta.Store
	logger *log.Logger
	tick   *tick.Dispatcher

	registrations map[regmodel.Key]*regmodel.Registration
	order         []regmodel.Key // registration order, for Launch and error messages
	singletons    map[regmodel.Key]any

	multiRegs  map[regmodel.Key]*regmodel.MultiRegistration
	multiCache map[regmodel.Key][]any

	keyedRegs map[regmodel.Key]*regmodel.KeyedRegistration

	// typeIndex supports the "Dependencies" auto-wired parameter-type
	// fallback: the first registered key whose implementation's declared
	// return type matches a dependency's requested parameter type.
	typeIndex map[reflect.Type]regmodel.Key

	validated    bool
	scopeCounter int
}

// Option configures a Container at construction time.
type Option func(*Container)

// WithMetaStore overrides the metadata store a Container reads descriptors
// from. Defaults to meta.Default.
func WithMetaStore(s *meta.Store) Option {
	return func(c *Container) { c.meta = s }
}

// WithLogger overrides the *log.Logger used for non-fatal diagnostics
// (Destroy errors, tick-callback panics). Defaults to log.Default(). The
// tick dispatcher keeps the logger in effect when it is built, so a
// WithHost option applied before WithLogger logs tick-callback panics to
// the earlier logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithHost overrides the tick.Host the container's dispatcher subscribes
// to. Defaults to tick.NoopHost{}, suitable for headless tooling; an
// interactive deployment supplies tick.NewLocalHost or an equivalent.
func WithHost(h tick.Host) Option {
	return func(c *Container) { c.tick = tick.NewDispatcher(h, c.logger) }
}

// New returns an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		meta:          meta.Default,
		logger:        log.Default(),
		registrations: make(map[regmodel.Key]*regmodel.Registration),
		singletons:    make(map[regmodel.Key]any),
		multiRegs:     make(map[regmodel.Key]*regmodel.MultiRegistration),
		multiCache:    make(map[regmodel.Key][]any),
		keyedRegs:     make(map[regmodel.Key]*regmodel.KeyedRegistration),
		typeIndex:     make(map[reflect.Type]regmodel.Key),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tick == nil {
		c.tick = tick.NewDispatcher(tick.NoopHost{}, c.logger)
	}
	return c
}

// TickDispatcher returns the container's single shared tick dispatcher.
func (c *Container) TickDispatcher() *tick.Dispatcher {
	return c.tick
}

// Use merges module's registration records into the container. Duplicate
// single/scoped/factory keys are always fatal. Multi-registrations append
// across modules preserving order. Keyed-registrations merge by string key;
// last-write-wins within one module's Keyed call, but a key supplied by two
// different Use calls is a fatal collision.
func (c *Container) Use(m *regmodel.Module) error {
	for _, reg := range m.Registrations {
		if !isValidKey(reg.Key) {
			return newError(KindInvalidToken, reg.Key, nil, "registration key is neither a token nor a constructor")
		}
		if _, exists := c.registrations[reg.Key]; exists {
			return newError(KindDuplicateRegistration, reg.Key, nil, "a registration already exists for this key")
		}
		r := reg
		c.registrations[reg.Key] = &r
		c.order = append(c.order, reg.Key)
		if reg.Implementation != nil {
			rt := reg.Implementation.ResultType()
			if _, exists := c.typeIndex[rt]; !exists {
				c.typeIndex[rt] = reg.Key
			}
		}
	}

	for _, mr := range m.Multis {
		existing, ok := c.multiRegs[mr.Token]
		if !ok {
			cp := mr
			cp.Implementations = append([]*regmodel.Constructor{}, mr.Implementations...)
			c.multiRegs[mr.Token] = &cp
			continue
		}
		existing.Implementations = append(existing.Implementations, mr.Implementations...)
	}

	for _, kr := range m.Keyeds {
		existing, ok := c.keyedRegs[kr.Token]
		if !ok {
			cp := regmodel.KeyedRegistration{
				Token:   kr.Token,
				Entries: make(map[string]*regmodel.Constructor, len(kr.Entries)),
			}
			for _, k := range kr.Order {
				cp.Entries[k] = kr.Entries[k]
				cp.Order = append(cp.Order, k)
			}
			c.keyedRegs[kr.Token] = &cp
			continue
		}
		for _, k := range kr.Order {
			if _, collide := existing.Entries[k]; collide {
				return newError(KindDuplicateRegistration, kr.Token, nil,
					fmt.Sprintf("keyed registration collision: key %q for this token was already supplied by an earlier module", k))
			}
			existing.Entries[k] = kr.Entries[k]
			existing.Order = append(existing.Order, k)
		}
	}

	c.validated = false
	return nil
}

func isValidKey(k regmodel.Key) bool {
	if token.Is(k) {
		return true
	}
	_, ok := k.(*regmodel.Constructor)
	return ok
}

// Launch validates the container, then resolves every singleton whose
// implementation exposes capability.Starter, in registration order, and
// calls Start on each. Singletons without Start are never pre-instantiated.
func (c *Container) Launch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, key := range c.order {
		reg := c.registrations[key]
		if reg.Lifetime != lifetime.Singleton || reg.Implementation == nil {
			continue
		}
		if !isStarter(reg.Implementation) {
			continue
		}
		inst, err := c.resolve(key, &resolveCtx{}, nil)
		if err != nil {
			return err
		}
		if starter, ok := inst.(starterIface); ok {
			if err := starter.Start(); err != nil {
				return newError(KindConstructorError, key, nil, "Start failed").withWrapped(err)
			}
		}
	}
	return nil
}

type starterIface interface {
	Start() error
}

var starterType = reflect.TypeOf((*starterIface)(nil)).Elem()

func isStarter(c *regmodel.Constructor) bool {
	rt := c.ResultType()
	return rt != nil && rt.Implements(starterType)
}

// Resolve resolves key with no scope context: valid for singleton and
// factory lifetimes. Scoped keys fail with LifetimeViolation. args supplies
// the runtime-parameter values the implementation's descriptor declares,
// consumed in ascending parameter-index order; a dependency resolved during
// construction of key's own graph never sees args — only the outermost
// construct call for key does.
func (c *Container) Resolve(key regmodel.Key, args ...any) (any, error) {
	return c.resolve(key, &resolveCtx{runtimeArgs: args}, nil)
}

// CreateScope allocates a new root scope (no parent), copies sm's externals
// into it, resolves sm's root constructor if one was declared, and starts
// every instance created in the process.
func (c *Container) CreateScope(sm *regmodel.ScopeModule, id ...string) (*Scope, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	scopeID := fmt.Sprintf("scope-%d", c.scopeCounter)
	c.scopeCounter++
	if len(id) > 0 && id[0] != "" {
		scopeID = id[0]
	}
	s := newScope(c, nil, scopeID)
	for key, value := range sm.Externals {
		_ = s.provideExternal(key, value) // s is freshly created: never destroyed
	}
	if sm.Root != nil {
		inst, err := c.construct(sm.Root, sm.Root, &resolveCtx{}, s, lifetime.Scoped)
		if err != nil {
			return nil, err
		}
		s.track(sm.Root, inst)
	}
	s.startAll()
	return s, nil
}

// CreateChildScope allocates a scope whose parent is parent, inheriting its
// externals and cache on lookup miss per the scoped lookup precedence
// resolve implements.
func (c *Container) CreateChildScope(parent *Scope, id ...string) (*Scope, error) {
	return parent.createChildScope(id...)
}
