// Package capability defines the marker interfaces the engine probes a
// resolved instance for — explicit Go interfaces in place of a duck-typed
// "exposes a Start/Tick/Destroy method" check, so the container can
// type-assert instead of reflecting over method names.
package capability

// Starter is resolved eagerly by Launch for every singleton that implements
// it, in registration order.
type Starter interface {
	Start() error
}

// Destroyer is called once, in an unspecified-but-complete order, when the
// scope that tracked the instance is destroyed. Errors are logged, never
// fatal.
type Destroyer interface {
	Destroy() error
}

// Tickable receives the host's logic/physics signal every frame a scope that
// tracks it is alive.
type Tickable interface {
	Tick(deltaTime float64)
}

// FixedTickable receives the same logic signal as Tickable but is dispatched
// after the Tickable list, for code that wants to run once physics for the
// frame has settled.
type FixedTickable interface {
	FixedTick(deltaTime float64)
}

// RenderTickable receives the host's pre-render signal, present only on
// rendering hosts.
type RenderTickable interface {
	RenderTick(deltaTime float64)
}

// Warmer marks an instance that performs eager initialization work at
// construction time. Only singletons may implement it; constructing one
// under any other lifetime is a LifetimeViolation.
type Warmer interface {
	Warmup()
}

// HealthChecker is an additive, observability-only capability the
// diagnostics HTTP surface polls; it has no effect on resolution.
type HealthChecker interface {
	HealthCheck() error
}
