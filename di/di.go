// Package di is the public builder surface: the one package application
// code imports to create tokens, provide constructors, assemble modules, and
// drive a container through its lifecycle. Everything underneath
// internal/engine, internal/regmodel and internal/meta is reachable only
// through this package's types.
package di

import (
	"log"

	"github.com/oja-gamez/oja-injection/internal/engine"
	"github.com/oja-gamez/oja-injection/internal/lifetime"
	"github.com/oja-gamez/oja-injection/internal/meta"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
	"github.com/oja-gamez/oja-injection/internal/tick"
	"github.com/oja-gamez/oja-injection/internal/token"
)

// Key identifies a registration: either a Token or a *Constructor used as
// its own key.
type Key = regmodel.Key

// Lifetime is one of Singleton, Scoped or Factory.
type Lifetime = lifetime.Lifetime

const (
	Singleton = lifetime.Singleton
	Scoped    = lifetime.Scoped
	Factory   = lifetime.Factory
)

// Token is an opaque, identity-comparable registration key with no backing
// implementation of its own — the analogue of an interface binding.
type Token = token.Token

// NewToken allocates a Token described by description, used only in
// diagnostics and error messages.
func NewToken(description string) Token {
	return token.Create(description)
}

// IsToken reports whether v is a Token minted by NewToken.
func IsToken(v any) bool {
	return token.Is(v)
}

// Constructor is the handle Provide returns.
type Constructor = regmodel.Constructor

// KeyedFactory is what resolving a keyed-registration token returns: a
// callable that builds a fresh instance from a string key on every call.
type KeyedFactory = engine.KeyedFactory

type provideSpec struct {
	constructorOpts []regmodel.ConstructorOption
	deps            map[int]Key
	auto            map[int]struct{}
	runtime         []int
}

// ProvideOption configures a Provide call.
type ProvideOption func(*provideSpec)

// Extends marks parent as this constructor's metadata ancestor: a lookup
// that finds no descriptor on the new constructor walks parent's chain next.
func Extends(parent *Constructor) ProvideOption {
	return func(s *provideSpec) {
		s.constructorOpts = append(s.constructorOpts, regmodel.WithExtends(parent))
	}
}

// Named overrides the constructor's diagnostic name.
func Named(name string) ProvideOption {
	return func(s *provideSpec) {
		s.constructorOpts = append(s.constructorOpts, regmodel.WithName(name))
	}
}

// DependsOn declares that parameter paramIndex is resolved by looking up
// key, instead of being auto-wired by its Go type.
func DependsOn(paramIndex int, key Key) ProvideOption {
	return func(s *provideSpec) { s.deps[paramIndex] = key }
}

// AutoWired declares that parameter paramIndex is resolved by matching its
// declared Go type against a registered constructor's result type.
func AutoWired(paramIndex int) ProvideOption {
	return func(s *provideSpec) { s.auto[paramIndex] = struct{}{} }
}

// RuntimeParam declares that parameter paramIndex is supplied by the caller
// at resolve time rather than by the container. Runtime arguments are
// consumed in ascending parameter-index order regardless of declaration
// order here.
func RuntimeParam(paramIndex int) ProvideOption {
	return func(s *provideSpec) { s.runtime = append(s.runtime, paramIndex) }
}

// Provide wraps fn as a Constructor and stamps its dependency metadata into
// the process-wide metadata store. fn must return T or (T, error).
func Provide(fn any, opts ...ProvideOption) *Constructor {
	spec := &provideSpec{deps: make(map[int]Key), auto: make(map[int]struct{})}
	for _, opt := range opts {
		opt(spec)
	}

	c := regmodel.NewConstructor(fn, spec.constructorOpts...)
	meta.Default.Set(c, &meta.Descriptor{
		DependencyTokens: spec.deps,
		Dependencies:     spec.auto,
		RuntimeParams:    spec.runtime,
	})
	return c
}

// Module accumulates registrations before being merged into a Container with
// Use. A module has no resolution logic of its own.
type Module struct {
	inner *regmodel.Module
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{inner: regmodel.NewModule()}
}

// Single registers c with singleton lifetime: constructed once, on first
// resolution, and cached for the container's lifetime.
func (m *Module) Single(c *Constructor) *regmodel.Binding { return m.inner.Single(c) }

// Scoped registers c with scoped lifetime: constructed once per scope.
func (m *Module) Scoped(c *Constructor) *regmodel.Binding { return m.inner.Scoped(c) }

// Factory registers c with factory lifetime: constructed fresh on every
// resolution.
func (m *Module) Factory(c *Constructor) *regmodel.Binding { return m.inner.Factory(c) }

// Multi registers a list of implementations under one token; resolving the
// token returns every implementation's instance as a []any, in order.
func (m *Module) Multi(tok Key, impls ...*Constructor) {
	m.inner.Multi(tok, impls...)
}

// KeyedEntry pairs a string key with the implementation it should build.
type KeyedEntry = regmodel.KeyedEntry

// Entry is a convenience constructor for a KeyedEntry.
func Entry(key string, impl *Constructor) KeyedEntry {
	return KeyedEntry{Key: key, Impl: impl}
}

// Keyed registers a set of named implementations under one token; resolving
// the token returns a callable that builds an instance for a given key.
func (m *Module) Keyed(tok Key, entries ...KeyedEntry) {
	m.inner.Keyed(tok, entries...)
}

// ScopeModule declares what a scope provides when it is created: an
// optional root constructor resolved eagerly, and external values supplied
// by the caller.
type ScopeModule struct {
	inner *regmodel.ScopeModule
}

// NewScopeModule returns an empty scope module.
func NewScopeModule() *ScopeModule {
	return &ScopeModule{inner: regmodel.NewScopeModule()}
}

// WithRoot declares the constructor resolved eagerly when the scope is
// created.
func (s *ScopeModule) WithRoot(c *Constructor) *ScopeModule {
	s.inner.WithRoot(c)
	return s
}

// Provide captures value as an external bound to key for the lifetime of the
// scope.
func (s *ScopeModule) Provide(key Key, value any) *ScopeModule {
	s.inner.Provide(key, value)
	return s
}

// ScopeModuleFunc is a scope module definition parameterised by the runtime
// values the caller creating the scope supplies — a joining player's network
// connection, a save-file identity — a factory over parameters: invoking it
// captures the supplied parameters as externals to be provided later.
type ScopeModuleFunc func(params ...any) *ScopeModule

// RegisterModule returns definition's result: a documented entry point for
// declaring a module builder rather than an arbitrary function. Go needs no
// opaque handle type here since *Module is already the handle.
func RegisterModule(definition func() *Module) *Module {
	return definition()
}

// RegisterScopeModule returns definition, typed as a ScopeModuleFunc: the
// parameterised-factory entry point for declaring a scope module builder.
func RegisterScopeModule(definition func(params ...any) *ScopeModule) ScopeModuleFunc {
	return ScopeModuleFunc(definition)
}

// Container is the root registry, resolver and lifecycle driver.
type Container struct {
	inner *engine.Container
}

// ContainerOption configures a Container at construction.
type ContainerOption = engine.Option

// WithLogger overrides the logger used for non-fatal diagnostics.
func WithLogger(l *log.Logger) ContainerOption {
	return engine.WithLogger(l)
}

// WithHost binds the container's tick dispatcher to host instead of the
// default no-op host.
func WithHost(h tick.Host) ContainerOption {
	return engine.WithHost(h)
}

// NewContainer returns an empty container.
func NewContainer(opts ...ContainerOption) *Container {
	return &Container{inner: engine.New(opts...)}
}

// Use merges m's registrations into the container.
func (c *Container) Use(m *Module) error {
	return c.inner.Use(m.inner)
}

// Launch validates the container and starts every singleton that implements
// capability.Starter, in registration order.
func (c *Container) Launch() error {
	return c.inner.Launch()
}

// Validate checks that every declared dependency resolves to something
// registered, without constructing anything. Idempotent until the next Use.
func (c *Container) Validate() error {
	return c.inner.Validate()
}

// Resolve resolves key with no scope context. args supplies any
// runtime-parameter values key's implementation declares via RuntimeParam,
// consumed in ascending parameter-index order.
func (c *Container) Resolve(key Key, args ...any) (any, error) {
	return c.inner.Resolve(key, args...)
}

// CreateScope creates a new root scope from sm.
func (c *Container) CreateScope(sm *ScopeModule, id ...string) (*engine.Scope, error) {
	return c.inner.CreateScope(sm.inner, id...)
}

// CreateScopeFromFunc invokes fn with params to build a ScopeModule, then
// creates a scope from it exactly as CreateScope does — the entry point for
// a scope module declared with RegisterScopeModule, where params carries
// whatever the joining entity supplies (a connection, a save identity).
func (c *Container) CreateScopeFromFunc(fn ScopeModuleFunc, params []any, id ...string) (*engine.Scope, error) {
	return c.CreateScope(fn(params...), id...)
}

// TickDispatcher returns the container's single shared tick dispatcher.
func (c *Container) TickDispatcher() *tick.Dispatcher {
	return c.inner.TickDispatcher()
}

// Engine exposes the underlying engine.Container for collaborators (such as
// the diagnostics HTTP server) that need lower-level access than this
// package's builder surface provides.
func (c *Container) Engine() *engine.Container {
	return c.inner
}
