// Package meta is the per-constructor property bag the container consults
// for dependency keys and runtime-parameter positions. Descriptor also
// carries a Lifetime field, which the container does not read: a
// registration's own lifetime decides caching. It is a
// weak-keyed map from *regmodel.Constructor handles to metadata (using the
// standard library's weak package for a literal weak-keyed map), with
// inheritance modeled by the handle's own Extends ancestor pointer: a lookup
// that misses on a constructor walks its ancestor chain before giving up.
package meta

import (
	"sync"
	"weak"

	"github.com/oja-gamez/oja-injection/internal/lifetime"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
)

// Descriptor is the per-constructor property bag: the dependency keys and
// runtime-parameter positions a constructor's parameters declare, set
// explicitly at registration time.
type Descriptor struct {
	Lifetime lifetime.Lifetime

	// DependencyTokens is the sparse positional list of injection keys: a
	// parameter index present here has an explicit key.
	DependencyTokens map[int]regmodel.Key

	// Dependencies is the auto-wired parameter-type fallback list: a
	// parameter index absent from DependencyTokens and RuntimeParams is
	// resolved by matching its declared Go type against a registered
	// constructor's result type.
	Dependencies map[int]struct{}

	// RuntimeParams is the ordered set of parameter indices supplied by the
	// caller at construction time rather than resolved from the container.
	// Runtime arguments are consumed in ascending parameter-index order,
	// regardless of the order RuntimeParams was declared in.
	RuntimeParams []int
}

// IsRuntime reports whether parameter i is caller-supplied.
func (d *Descriptor) IsRuntime(i int) bool {
	for _, idx := range d.RuntimeParams {
		if idx == i {
			return true
		}
	}
	return false
}

// Store is a metadata table. A Container defaults to the process-wide
// Default store but can be given its own via engine.WithMetaStore, which is
// how tests isolate their descriptors from one another without touching
// global state.
type Store struct {
	mu   sync.Mutex
	data map[weak.Pointer[regmodel.Constructor]]*Descriptor
}

// NewStore returns an empty metadata store.
func NewStore() *Store {
	return &Store{data: make(map[weak.Pointer[regmodel.Constructor]]*Descriptor)}
}

// Set stamps d onto c, overwriting any previous descriptor for c exactly
// (not its ancestors).
func (s *Store) Set(c *regmodel.Constructor, d *Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[weak.Make(c)] = d
}

func (s *Store) own(c *regmodel.Constructor) (*Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[weak.Make(c)]
	return d, ok
}

// Get walks c, then c.Extends, then its ancestor, and so on, returning the
// first descriptor found.
func (s *Store) Get(c *regmodel.Constructor) (*Descriptor, bool) {
	for cur := c; cur != nil; cur = cur.Extends {
		if d, ok := s.own(cur); ok {
			return d, true
		}
	}
	return nil, false
}

// Default is the process-wide store the public builder surface (package
// di's Provide) stamps descriptors into. Containers built without an
// explicit store use Default; tests that need isolation construct their own
// Store (or call ResetDefault) instead of relying on global state leaking
// between runs.
var Default = NewStore()

// ResetDefault replaces Default with an empty store.
func ResetDefault() {
	Default = NewStore()
}
