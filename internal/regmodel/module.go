package regmodel

import "github.com/oja-gamez/oja-injection/internal/lifetime"

// Module accumulates registration records produced by the builder DSL. It
// is a thin surface with no resolution logic of its own, only accumulation;
// the container does all the real work when Use merges a Module in.
type Module struct {
	Registrations []Registration
	Multis        []MultiRegistration
	Keyeds        []KeyedRegistration
}

// NewModule returns an empty accumulator.
func NewModule() *Module {
	return &Module{}
}

// Binding is the continuation returned by Single/Scoped/Factory: it lets the
// caller optionally bind an additional interface key to the same
// implementation and lifetime.
type Binding struct {
	module *Module
	impl   *Constructor
	life   lifetime.Lifetime
}

// As appends a second registration record mapping key to the same
// implementation and lifetime as the original Single/Scoped/Factory call.
func (b *Binding) As(key Key) *Binding {
	b.module.Registrations = append(b.module.Registrations, Registration{
		Key:            key,
		Implementation: b.impl,
		Lifetime:       b.life,
	})
	return b
}

func (m *Module) bind(c *Constructor, l lifetime.Lifetime) *Binding {
	m.Registrations = append(m.Registrations, Registration{Key: c, Implementation: c, Lifetime: l})
	return &Binding{module: m, impl: c, life: l}
}

// Single registers c as its own key with singleton lifetime and returns a
// continuation for binding additional interface keys to it.
func (m *Module) Single(c *Constructor) *Binding { return m.bind(c, lifetime.Singleton) }

// Scoped registers c as its own key with scoped lifetime.
func (m *Module) Scoped(c *Constructor) *Binding { return m.bind(c, lifetime.Scoped) }

// Factory registers c as its own key with factory lifetime.
func (m *Module) Factory(c *Constructor) *Binding { return m.bind(c, lifetime.Factory) }

// Multi appends a multi-registration: resolving tok returns every
// implementation's instance, in the order given here, preceded by whatever
// earlier Multi calls on the same token (across modules) already appended.
func (m *Module) Multi(tok Key, impls ...*Constructor) {
	m.Multis = append(m.Multis, MultiRegistration{Token: tok, Implementations: impls})
}

// Keyed appends a keyed-registration: resolving tok returns a callable that
// builds a fresh instance for a given string key. entries are recorded in
// the order passed, which is the order "available keys" are rendered in.
func (m *Module) Keyed(tok Key, entries ...KeyedEntry) {
	kr := KeyedRegistration{Token: tok, Entries: make(map[string]*Constructor, len(entries))}
	for _, e := range entries {
		if _, exists := kr.Entries[e.Key]; !exists {
			kr.Order = append(kr.Order, e.Key)
		}
		kr.Entries[e.Key] = e.Impl
	}
	m.Keyeds = append(m.Keyeds, kr)
}

// ScopeModule accumulates a scope's optional root constructor and the
// externally-provided values captured at scope-creation time. Package di's
// ScopeModuleFunc is a factory over parameters: it closes over whatever
// values are supplied when the scope is created and returns the
// ScopeModule they produce.
type ScopeModule struct {
	Root      *Constructor
	Externals map[Key]any
}

// NewScopeModule returns an empty scope module with no root and no
// externals.
func NewScopeModule() *ScopeModule {
	return &ScopeModule{Externals: make(map[Key]any)}
}

// WithRoot declares the constructor resolved eagerly when the scope is
// created.
func (s *ScopeModule) WithRoot(c *Constructor) *ScopeModule {
	s.Root = c
	return s
}

// Provide captures value as an external for key, to be copied into the
// scope's externals map when the scope is created.
func (s *ScopeModule) Provide(key Key, value any) *ScopeModule {
	s.Externals[key] = value
	return s
}
