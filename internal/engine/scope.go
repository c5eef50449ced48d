package engine

import (
	"fmt"
	"time"

	"github.com/oja-gamez/oja-injection/internal/capability"
	"github.com/oja-gamez/oja-injection/internal/regmodel"
)

// Scope is one node of the scope tree: its own cache of already-resolved
// scoped instances, the externals provided when it was created, and the set
// of tracked instances whose lifecycle (Tick/Destroy) this scope owns.
// Destroying a scope destroys every child scope first.
type Scope struct {
	id        string
	createdAt time.Time
	container *Container
	parent    *Scope

	children []*Scope

	scopedCache map[regmodel.Key]any
	externals   map[regmodel.Key]any

	destroyables []capability.Destroyer
	tickables    []capability.Tickable
	fixed        []capability.FixedTickable
	renderables  []capability.RenderTickable
	checkers     []namedHealthChecker

	destroyed bool
}

type namedHealthChecker struct {
	key     regmodel.Key
	checker capability.HealthChecker
}

func newScope(container *Container, parent *Scope, id string) *Scope {
	return &Scope{
		id:          id,
		createdAt:   now(),
		container:   container,
		parent:      parent,
		scopedCache: make(map[regmodel.Key]any),
		externals:   make(map[regmodel.Key]any),
	}
}

// now is isolated in one place so a future test clock can stub it; the
// engine itself never needs wall-clock precision, only creation ordering.
var now = time.Now

// errIfDestroyed reports a LifetimeViolation once destroyed is true: every
// scope operation other than a second Destroy call must fail immediately
// rather than touch torn-down state.
func (s *Scope) errIfDestroyed(op string) error {
	if s.destroyed {
		return newError(KindLifetimeViolation, s.id, nil, fmt.Sprintf("%s: scope %q is already destroyed", op, s.id))
	}
	return nil
}

// createChildScope allocates a new scope whose parent is s. An id is
// generated from the parent's if none is supplied.
func (s *Scope) createChildScope(id ...string) (*Scope, error) {
	if err := s.errIfDestroyed("createChildScope"); err != nil {
		return nil, err
	}
	childID := fmt.Sprintf("%s/%d", s.id, len(s.children))
	if len(id) > 0 && id[0] != "" {
		childID = id[0]
	}
	child := newScope(s.container, s, childID)
	s.children = append(s.children, child)
	return child, nil
}

// provideExternal registers value under key as an external of this scope,
// tracking it for lifecycle exactly as if it had been resolved here.
func (s *Scope) provideExternal(key regmodel.Key, value any) error {
	if err := s.errIfDestroyed("provideExternal"); err != nil {
		return err
	}
	s.externals[key] = value
	s.trackLifecycle(key, value)
	return nil
}

// track records inst as the scoped instance for key and enrolls it for
// lifecycle management.
func (s *Scope) track(key regmodel.Key, inst any) {
	s.scopedCache[key] = inst
	s.trackLifecycle(key, inst)
}

func (s *Scope) trackLifecycle(key regmodel.Key, inst any) {
	if d, ok := inst.(capability.Destroyer); ok {
		s.destroyables = append(s.destroyables, d)
	}
	if t, ok := inst.(capability.Tickable); ok {
		s.tickables = append(s.tickables, t)
		s.container.tick.RegisterTickable(t)
	}
	if f, ok := inst.(capability.FixedTickable); ok {
		s.fixed = append(s.fixed, f)
		s.container.tick.RegisterFixedTickable(f)
	}
	if r, ok := inst.(capability.RenderTickable); ok {
		s.renderables = append(s.renderables, r)
		s.container.tick.RegisterRenderTickable(r)
	}
	if h, ok := inst.(capability.HealthChecker); ok {
		s.checkers = append(s.checkers, namedHealthChecker{key: key, checker: h})
	}
}

// resolve resolves key within this scope's context.
func (s *Scope) resolve(key regmodel.Key, args ...any) (any, error) {
	if err := s.errIfDestroyed("resolve"); err != nil {
		return nil, err
	}
	return s.container.resolve(key, &resolveCtx{runtimeArgs: args}, s)
}

// Resolve resolves key within this scope, consulting this scope's externals
// and cache before the container's own registrations, and the parent scope
// only when no registration exists for key.
// args supplies runtime-parameter values for key's own construction; see
// Container.Resolve.
func (s *Scope) Resolve(key regmodel.Key, args ...any) (any, error) {
	return s.resolve(key, args...)
}

// CreateChildScope allocates a new scope whose parent is s. Fails if s has
// already been destroyed.
func (s *Scope) CreateChildScope(id ...string) (*Scope, error) {
	return s.createChildScope(id...)
}

// ProvideExternal binds value to key in this scope, as if it had been
// resolved here, usable after the scope's creation and not just via its
// originating ScopeModule. Fails if s has already been destroyed.
func (s *Scope) ProvideExternal(key regmodel.Key, value any) error {
	return s.provideExternal(key, value)
}

// Destroy tears this scope down, and every child scope with it. Idempotent.
func (s *Scope) Destroy() error {
	return s.destroy()
}

// Debug returns a snapshot of this scope's tracked services and children.
func (s *Scope) Debug() ScopeDebug {
	return s.debug()
}

// ID returns the scope's identifier.
func (s *Scope) ID() string {
	return s.id
}

// startAll calls Start on every scoped/external instance that implements
// capability.Starter. A failing Start is logged, not fatal: scope creation
// does not abort partway through an otherwise-valid graph.
func (s *Scope) startAll() {
	start := func(inst any) {
		if starter, ok := inst.(capability.Starter); ok {
			if err := starter.Start(); err != nil {
				s.container.logger.Printf("di: scope %s: Start failed: %v", s.id, err)
			}
		}
	}
	for _, inst := range s.scopedCache {
		start(inst)
	}
	for _, inst := range s.externals {
		start(inst)
	}
}

// destroy tears down this scope and, recursively, every child scope first.
// Idempotent: a second call is a no-op. Destroyer errors are logged, never
// returned: teardown always runs to completion on a best-effort basis.
func (s *Scope) destroy() error {
	if s.destroyed {
		return nil
	}
	for _, t := range s.tickables {
		s.container.tick.UnregisterTickable(t)
	}
	for _, f := range s.fixed {
		s.container.tick.UnregisterFixedTickable(f)
	}
	for _, r := range s.renderables {
		s.container.tick.UnregisterRenderTickable(r)
	}

	for _, child := range s.children {
		_ = child.destroy()
	}
	s.children = nil

	for _, d := range s.destroyables {
		if err := d.Destroy(); err != nil {
			s.container.logger.Printf("di: scope %s: Destroy failed: %v", s.id, err)
		}
	}

	s.scopedCache = nil
	s.externals = nil
	s.destroyables = nil
	s.tickables = nil
	s.fixed = nil
	s.renderables = nil
	s.checkers = nil
	s.destroyed = true
	return nil
}

// HealthReport is one HealthChecker instance's result, keyed by its
// registration key.
type HealthReport struct {
	Key     string
	Healthy bool
	Error   string
}

// CheckHealth calls HealthCheck on every tracked capability.HealthChecker
// instance in this scope and reports the result of each. A nil error from
// HealthCheck reports Healthy; a non-nil error reports unhealthy with its
// message, never aborting the rest of the sweep.
func (s *Scope) CheckHealth() []HealthReport {
	reports := make([]HealthReport, 0, len(s.checkers))
	for _, nc := range s.checkers {
		r := HealthReport{Key: fmt.Sprint(nc.key)}
		if err := nc.checker.HealthCheck(); err != nil {
			r.Error = err.Error()
		} else {
			r.Healthy = true
		}
		reports = append(reports, r)
	}
	return reports
}

// ScopeDebug is the diagnostics snapshot Scope.Debug returns.
type ScopeDebug struct {
	ScopeID           string
	CreatedAt         time.Time
	ParentScopeID     *string
	Services          []string
	ChildScopeCount   int
	TotalServiceCount int
}

func (s *Scope) debug() ScopeDebug {
	d := ScopeDebug{
		ScopeID:           s.id,
		CreatedAt:         s.createdAt,
		ChildScopeCount:   len(s.children),
		TotalServiceCount: len(s.scopedCache) + len(s.externals),
	}
	if s.parent != nil {
		parentID := s.parent.id
		d.ParentScopeID = &parentID
	}
	for key := range s.scopedCache {
		d.Services = append(d.Services, fmt.Sprint(key))
	}
	for key := range s.externals {
		d.Services = append(d.Services, fmt.Sprint(key))
	}
	return d
}
