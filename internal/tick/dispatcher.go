// Package tick implements the single shared subscriber to the host runtime's
// periodic signals, fanning callbacks out to every registered tickable
// instance regardless of how many scopes created them. Subscription count
// never exceeds two (logic, render) no matter how many tickables exist.
package tick

import (
	"fmt"
	"log"

	"github.com/oja-gamez/oja-injection/internal/capability"
)

// Host is the periodic-signal environment a dispatcher subscribes to: two
// periodic signals and a predicate for whether the process renders at all.
type Host interface {
	// IsRendering reports whether this host fires a render-tick signal.
	// Headless hosts return false and the dispatcher never subscribes to a
	// render signal.
	IsRendering() bool
	// SubscribeLogicTick registers fn to be called once per logic/physics
	// frame with the frame's delta time, and returns a function to cancel
	// the subscription.
	SubscribeLogicTick(fn func(deltaTime float64)) (unsubscribe func())
	// SubscribeRenderTick is SubscribeLogicTick's pre-render counterpart.
	// Hosts where IsRendering() is false need not implement it usefully.
	SubscribeRenderTick(fn func(deltaTime float64)) (unsubscribe func())
}

// DebugInfo is the snapshot tick.Dispatcher.DebugInfo returns.
type DebugInfo struct {
	LogicTickCount  int
	FixedTickCount  int
	RenderTickCount int
	Paused          bool
	LogicConnected  bool
	RenderConnected bool
}

// Dispatcher is the process-wide single subscriber: however many tickables
// register across however many scopes, the host sees at most one logic
// subscription and one render subscription. It is not safe for concurrent
// use, matching the single-threaded cooperative scheduling model the rest
// of this package assumes throughout.
type Dispatcher struct {
	host   Host
	logger *log.Logger

	logic  []capability.Tickable
	fixed  []capability.FixedTickable
	render []capability.RenderTickable

	paused bool

	logicUnsub  func()
	renderUnsub func()
}

// NewDispatcher returns a dispatcher bound to host. It holds no
// subscriptions until the first tickable of a given kind registers.
func NewDispatcher(host Host, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{host: host, logger: logger}
}

func (d *Dispatcher) ensureLogicSubscription() {
	if d.logicUnsub != nil {
		return
	}
	d.logicUnsub = d.host.SubscribeLogicTick(d.onLogicTick)
}

func (d *Dispatcher) ensureRenderSubscription() {
	if d.renderUnsub != nil || !d.host.IsRendering() {
		return
	}
	d.renderUnsub = d.host.SubscribeRenderTick(d.onRenderTick)
}

// RegisterTickable adds t to the logic-tick fan-out list.
func (d *Dispatcher) RegisterTickable(t capability.Tickable) {
	d.logic = append(d.logic, t)
	d.ensureLogicSubscription()
}

// RegisterFixedTickable adds t to the fixed-tick fan-out list, dispatched
// after the logic-tick list on the same signal.
func (d *Dispatcher) RegisterFixedTickable(t capability.FixedTickable) {
	d.fixed = append(d.fixed, t)
	d.ensureLogicSubscription()
}

// RegisterRenderTickable adds t to the render-tick fan-out list. No-op
// subscription-wise on a non-rendering host.
func (d *Dispatcher) RegisterRenderTickable(t capability.RenderTickable) {
	d.render = append(d.render, t)
	d.ensureRenderSubscription()
}

// UnregisterTickable removes t using unordered (swap-with-last) removal.
// Ordering across frames is not stable after any unregister.
func (d *Dispatcher) UnregisterTickable(t capability.Tickable) {
	d.logic = swapRemove(d.logic, t)
}

// UnregisterFixedTickable removes t from the fixed-tick list.
func (d *Dispatcher) UnregisterFixedTickable(t capability.FixedTickable) {
	d.fixed = swapRemove(d.fixed, t)
}

// UnregisterRenderTickable removes t from the render-tick list.
func (d *Dispatcher) UnregisterRenderTickable(t capability.RenderTickable) {
	d.render = swapRemove(d.render, t)
}

func swapRemove[T comparable](list []T, item T) []T {
	for i, v := range list {
		if v == item {
			last := len(list) - 1
			list[i] = list[last]
			return list[:last]
		}
	}
	return list
}

// Pause stops callback delivery without tearing down the host subscription.
func (d *Dispatcher) Pause() { d.paused = true }

// Resume re-enables callback delivery.
func (d *Dispatcher) Resume() { d.paused = false }

// DebugInfo reports subscriber counts and paused state.
func (d *Dispatcher) DebugInfo() DebugInfo {
	return DebugInfo{
		LogicTickCount:  len(d.logic),
		FixedTickCount:  len(d.fixed),
		RenderTickCount: len(d.render),
		Paused:          d.paused,
		LogicConnected:  d.logicUnsub != nil,
		RenderConnected: d.renderUnsub != nil,
	}
}

// Destroy disconnects both host subscriptions and clears every list.
func (d *Dispatcher) Destroy() {
	if d.logicUnsub != nil {
		d.logicUnsub()
		d.logicUnsub = nil
	}
	if d.renderUnsub != nil {
		d.renderUnsub()
		d.renderUnsub = nil
	}
	d.logic = nil
	d.fixed = nil
	d.render = nil
}

func (d *Dispatcher) onLogicTick(deltaTime float64) {
	if d.paused {
		return
	}
	for _, t := range d.logic {
		d.safeCall(func() { t.Tick(deltaTime) })
	}
	for _, t := range d.fixed {
		d.safeCall(func() { t.FixedTick(deltaTime) })
	}
}

func (d *Dispatcher) onRenderTick(deltaTime float64) {
	if d.paused {
		return
	}
	for _, t := range d.render {
		d.safeCall(func() { t.RenderTick(deltaTime) })
	}
}

func (d *Dispatcher) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("di: tick callback panicked, continuing: %v", r)
		}
	}()
	fn()
}

func (d *Dispatcher) String() string {
	info := d.DebugInfo()
	return fmt.Sprintf("tick.Dispatcher{logic=%d fixed=%d render=%d paused=%v}",
		info.LogicTickCount, info.FixedTickCount, info.RenderTickCount, info.Paused)
}
