package regmodel

import "github.com/oja-gamez/oja-injection/internal/lifetime"

// Key is either a token.Token or a *Constructor used as its own key (binding
// a concrete implementation to itself). Both underlying types are
// comparable, so Key works as a map key without a wrapper type.
type Key = any

// Registration is a single/scoped/factory binding: key maps to an
// implementation under one lifetime. A container holds at most one
// Registration per key; a second Use call for the same key is a fatal
// duplicate-registration error.
type Registration struct {
	Key            Key
	Implementation *Constructor
	Lifetime       lifetime.Lifetime
}

// MultiRegistration resolves a token to an ordered list of instances,
// preserving the order entries were appended across Multi calls.
type MultiRegistration struct {
	Token           Key
	Implementations []*Constructor
}

// KeyedEntry is one (string-key -> constructor) pair passed to Module.Keyed.
// KeyedRegistration stores the pairs in a map and keeps the keys' insertion
// order in its Order slice, since a Go map does not preserve it.
type KeyedEntry struct {
	Key  string
	Impl *Constructor
}

// KeyedRegistration resolves a token to a callable that builds an instance
// on demand from a string key, with factory semantics per call.
type KeyedRegistration struct {
	Token   Key
	Entries map[string]*Constructor
	Order   []string
}

// AvailableKeys returns the registered string keys in insertion order, for
// composing the "unknown key" error message.
func (k *KeyedRegistration) AvailableKeys() []string {
	out := make([]string, len(k.Order))
	copy(out, k.Order)
	return out
}
