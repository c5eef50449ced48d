package engine

import (
	"errors"
	"testing"

	"github.com/oja-gamez/oja-injection/internal/lifetime"
	"github.com/oja-gamez/oja-injection/internal/meta"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
	"github.com/oja-gamez/oja-injection/internal/token"
)

type greeter struct{ name string }

func newGreeter() *greeter { return &greeter{name: "hi"} }

func newContainerWithStore() (*Container, *meta.Store) {
	store := meta.NewStore()
	return New(WithMetaStore(store)), store
}

func TestResolveSingletonCachesOneInstance(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	a, err := c.Resolve(impl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := c.Resolve(impl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.(*greeter) != b.(*greeter) {
		t.Fatal("expected the same singleton instance on repeat resolution")
	}
}

func TestResolveFactoryConstructsEveryTime(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Factory(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	a, _ := c.Resolve(impl)
	b, _ := c.Resolve(impl)
	if a.(*greeter) == b.(*greeter) {
		t.Fatal("expected distinct instances from a factory registration")
	}
}

func TestResolveScopedWithoutScopeFails(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Scoped(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	_, err := c.Resolve(impl)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindLifetimeViolation {
		t.Fatalf("expected LifetimeViolation, got %v", err)
	}
}

func TestResolveScopedIsolatesInstancesPerScope(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Scoped(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	sm := regmodel.NewScopeModule()
	s1, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	s2, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}

	a, err := s1.Resolve(impl)
	if err != nil {
		t.Fatalf("resolve in s1: %v", err)
	}
	b, err := s2.Resolve(impl)
	if err != nil {
		t.Fatalf("resolve in s2: %v", err)
	}
	if a.(*greeter) == b.(*greeter) {
		t.Fatal("expected distinct instances across sibling scopes")
	}

	c2, err := s1.Resolve(impl)
	if err != nil {
		t.Fatalf("resolve in s1 again: %v", err)
	}
	if a.(*greeter) != c2.(*greeter) {
		t.Fatal("expected the same instance on repeat resolution within one scope")
	}
}

func TestExternalOverridesBeatContainerRegistration(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("greeter")
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Scoped(impl).As(tok)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	override := &greeter{name: "override"}
	sm := regmodel.NewScopeModule().Provide(tok, override)
	s, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}

	got, err := s.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.(*greeter) != override {
		t.Fatal("expected the external override, not a freshly constructed instance")
	}
}

func TestKeyedFactoryBuildsByKeyAndRejectsUnknown(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("animal")
	cat := regmodel.NewConstructor(func() *greeter { return &greeter{name: "cat"} })
	dog := regmodel.NewConstructor(func() *greeter { return &greeter{name: "dog"} })

	m := regmodel.NewModule()
	m.Keyed(tok, regmodel.KeyedEntry{Key: "cat", Impl: cat}, regmodel.KeyedEntry{Key: "dog", Impl: dog})
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	factoryAny, err := c.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	factory := factoryAny.(KeyedFactory)

	inst, err := factory("cat")
	if err != nil {
		t.Fatalf("factory(cat): %v", err)
	}
	if inst.(*greeter).name != "cat" {
		t.Fatalf("expected a cat, got %v", inst)
	}

	_, err = factory("fish")
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindMissingRegistration {
		t.Fatalf("expected MissingRegistration for an unknown key, got %v", err)
	}
}

func TestCircularDependencyIsDetected(t *testing.T) {
	c, store := newContainerWithStore()

	tokA := token.Create("a")
	tokB := token.Create("b")

	implA := regmodel.NewConstructor(func(b *greeter) *greeter { return b })
	implB := regmodel.NewConstructor(func(a *greeter) *greeter { return a })

	store.Set(implA, &meta.Descriptor{DependencyTokens: map[int]regmodel.Key{0: tokB}})
	store.Set(implB, &meta.Descriptor{DependencyTokens: map[int]regmodel.Key{0: tokA}})

	m := regmodel.NewModule()
	m.Single(implA).As(tokA)
	m.Single(implB).As(tokB)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	_, err := c.Resolve(tokA)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindCircularDependency {
		t.Fatalf("expected CircularDependency, got %v", err)
	}
}

func TestMultiRegistrationPreservesOrderAcrossModules(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("handlers")

	one := regmodel.NewConstructor(func() *greeter { return &greeter{name: "one"} })
	two := regmodel.NewConstructor(func() *greeter { return &greeter{name: "two"} })
	three := regmodel.NewConstructor(func() *greeter { return &greeter{name: "three"} })

	m1 := regmodel.NewModule()
	m1.Multi(tok, one, two)
	if err := c.Use(m1); err != nil {
		t.Fatalf("Use m1: %v", err)
	}

	m2 := regmodel.NewModule()
	m2.Multi(tok, three)
	if err := c.Use(m2); err != nil {
		t.Fatalf("Use m2: %v", err)
	}

	got, err := c.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	list := got.([]any)
	if len(list) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(list))
	}
	names := []string{list[0].(*greeter).name, list[1].(*greeter).name, list[2].(*greeter).name}
	want := []string{"one", "two", "three"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}

func TestMultiRegistrationCachesEachElement(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("handlers")

	calls := 0
	impl := regmodel.NewConstructor(func() *greeter {
		calls++
		return &greeter{name: "handler"}
	})

	m := regmodel.NewModule()
	m.Multi(tok, impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	first, err := c.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := c.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the multi-registration element to be constructed once and cached, got %d constructions", calls)
	}
	if first.([]any)[0].(*greeter) != second.([]any)[0].(*greeter) {
		t.Fatal("expected the same multi-registration element instance across resolves")
	}
}

func TestDuplicateRegistrationIsFatal(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("shared")
	impl1 := regmodel.NewConstructor(newGreeter)
	impl2 := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Single(impl1).As(tok)
	m.Single(impl2).As(tok)

	err := c.Use(m)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindDuplicateRegistration {
		t.Fatalf("expected DuplicateRegistration, got %v", err)
	}
}

type destroyTracker struct{ destroyed *bool }

func (d destroyTracker) Tick(deltaTime float64) {}
func (d destroyTracker) Destroy() error {
	*d.destroyed = true
	return nil
}

func TestScopeDestroyUnregistersTickablesAndRunsDestroyers(t *testing.T) {
	c := New()

	destroyed := false
	impl := regmodel.NewConstructor(func() destroyTracker {
		return destroyTracker{destroyed: &destroyed}
	})

	m := regmodel.NewModule()
	m.Scoped(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	sm := regmodel.NewScopeModule()
	s, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	if _, err := s.Resolve(impl); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if info := c.TickDispatcher().DebugInfo(); info.LogicTickCount != 1 {
		t.Fatalf("expected 1 registered tickable, got %d", info.LogicTickCount)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !destroyed {
		t.Fatal("expected Destroy to be called on the tracked instance")
	}
	if info := c.TickDispatcher().DebugInfo(); info.LogicTickCount != 0 {
		t.Fatalf("expected tickable to be unregistered on scope destroy, got %d", info.LogicTickCount)
	}

	// Destroying twice must be a no-op, not a panic.
	if err := s.Destroy(); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
}

func TestMissingRegistrationListsNothingToGuess(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("nope")

	_, err := c.Resolve(tok)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindMissingRegistration {
		t.Fatalf("expected MissingRegistration, got %v", err)
	}
}

func TestWarmupRequiresSingletonLifetime(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(func() *warmingThing { return &warmingThing{} })

	m := regmodel.NewModule()
	m.Factory(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	_, err := c.Resolve(impl)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindLifetimeViolation {
		t.Fatalf("expected LifetimeViolation for a Warmer on a non-singleton lifetime, got %v", err)
	}
}

type warmingThing struct{}

func (w *warmingThing) Warmup() {}

func TestValidateCatchesMissingDependency(t *testing.T) {
	c, store := newContainerWithStore()
	tok := token.Create("missing")
	impl := regmodel.NewConstructor(func(g *greeter) *greeter { return g })
	store.Set(impl, &meta.Descriptor{DependencyTokens: map[int]regmodel.Key{0: tok}})

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to catch the unregistered dependency")
	}
}

func TestLaunchStartsSingletonsImplementingStarter(t *testing.T) {
	c := New()
	started := false
	impl := regmodel.NewConstructor(func() *starterThing { return &starterThing{started: &started} })

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	if err := c.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !started {
		t.Fatal("expected Launch to call Start on the singleton")
	}
}

func TestCheckLifetimeString(t *testing.T) {
	if lifetime.Singleton.String() != "Singleton" {
		t.Fatalf("unexpected Lifetime.String(): %s", lifetime.Singleton.String())
	}
}

type starterThing struct{ started *bool }

func (s *starterThing) Start() error {
	*s.started = true
	return nil
}

func TestLaunchTwiceConstructsEachSingletonOnce(t *testing.T) {
	c := New()
	constructions := 0
	started := false
	impl := regmodel.NewConstructor(func() *starterThing {
		constructions++
		return &starterThing{started: &started}
	})

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	if err := c.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := c.Launch(); err != nil {
		t.Fatalf("second Launch: %v", err)
	}
	if constructions != 1 {
		t.Fatalf("expected one construction across two launches, got %d", constructions)
	}
}

func TestScopeDestructionDoesNotEvictSingletons(t *testing.T) {
	c, _ := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	before, err := c.Resolve(impl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	s, err := c.CreateScope(regmodel.NewScopeModule())
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	after, err := c.Resolve(impl)
	if err != nil {
		t.Fatalf("Resolve after destroy: %v", err)
	}
	if before.(*greeter) != after.(*greeter) {
		t.Fatal("expected the singleton cache to survive scope destruction")
	}
}

func TestUseAfterValidateForcesRevalidation(t *testing.T) {
	c, store := newContainerWithStore()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Single(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missing := token.Create("missing")
	broken := regmodel.NewConstructor(func(g *greeter) *greeter { return g })
	store.Set(broken, &meta.Descriptor{DependencyTokens: map[int]regmodel.Key{0: missing}})

	m2 := regmodel.NewModule()
	m2.Single(broken)
	if err := c.Use(m2); err != nil {
		t.Fatalf("Use m2: %v", err)
	}

	if err := c.Validate(); err == nil {
		t.Fatal("expected Use to reset the validated bit and Validate to see the new problem")
	}
}

func TestDestroyedScopeRejectsFurtherOperations(t *testing.T) {
	c := New()
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Scoped(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	sm := regmodel.NewScopeModule()
	s, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if _, err := s.Resolve(impl); err == nil {
		t.Fatal("expected Resolve on a destroyed scope to fail")
	}
	if err := s.ProvideExternal(impl, &greeter{}); err == nil {
		t.Fatal("expected ProvideExternal on a destroyed scope to fail")
	}
	if _, err := s.CreateChildScope(); err == nil {
		t.Fatal("expected CreateChildScope on a destroyed scope to fail")
	}

	// A second Destroy remains the one operation that is a no-op, not a
	// failure.
	if err := s.Destroy(); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
}

func TestProvideExternalAfterCreationOverridesResolution(t *testing.T) {
	c, _ := newContainerWithStore()
	tok := token.Create("greeter")
	impl := regmodel.NewConstructor(newGreeter)

	m := regmodel.NewModule()
	m.Scoped(impl).As(tok)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	sm := regmodel.NewScopeModule()
	s, err := c.CreateScope(sm)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}

	override := &greeter{name: "late-bound"}
	if err := s.ProvideExternal(tok, override); err != nil {
		t.Fatalf("ProvideExternal: %v", err)
	}

	got, err := s.Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.(*greeter) != override {
		t.Fatal("expected the post-creation external override, not a freshly constructed instance")
	}
}

func TestRuntimeParameterIsSuppliedAtResolveTime(t *testing.T) {
	c, store := newContainerWithStore()
	impl := regmodel.NewConstructor(func(name string) *greeter { return &greeter{name: name} })
	store.Set(impl, &meta.Descriptor{RuntimeParams: []int{0}})

	m := regmodel.NewModule()
	m.Factory(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	got, err := c.Resolve(impl, "bjorn")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.(*greeter).name != "bjorn" {
		t.Fatalf("expected the runtime argument to reach the constructor, got %q", got.(*greeter).name)
	}
}

func TestRuntimeParameterMissingArgumentFailsConstruction(t *testing.T) {
	c, store := newContainerWithStore()
	impl := regmodel.NewConstructor(func(name string) *greeter { return &greeter{name: name} })
	store.Set(impl, &meta.Descriptor{RuntimeParams: []int{0}})

	m := regmodel.NewModule()
	m.Factory(impl)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	_, err := c.Resolve(impl)
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindConstructorError {
		t.Fatalf("expected ConstructorError for a missing runtime argument, got %v", err)
	}
}

func TestRuntimeParameterNotConsumedByNestedDependency(t *testing.T) {
	c, store := newContainerWithStore()

	leaf := regmodel.NewConstructor(func(name string) *greeter { return &greeter{name: name} })
	store.Set(leaf, &meta.Descriptor{RuntimeParams: []int{0}})

	root := regmodel.NewConstructor(func(g *greeter) *greeter { return g })
	store.Set(root, &meta.Descriptor{DependencyTokens: map[int]regmodel.Key{0: leaf}})

	m := regmodel.NewModule()
	m.Factory(leaf)
	m.Factory(root)
	if err := c.Use(m); err != nil {
		t.Fatalf("Use: %v", err)
	}

	// The runtime argument supplied to resolving root must not leak down to
	// leaf's own runtime parameter: leaf has no caller of its own to supply
	// one, so this must fail rather than silently consume root's argument.
	_, err := c.Resolve(root, "for-root-not-leaf")
	var derr *Error
	if !errors.As(err, &derr) || derr.Kind != KindConstructorError {
		t.Fatalf("expected ConstructorError, got %v", err)
	}
}
