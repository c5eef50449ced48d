package tick

import "time"

// LocalHost drives the two periodic signals from local time.Tickers. It is
// the default Host for an interactive, single-process deployment; a
// distributed or headless deployment supplies its own Host (see
// hostclock/natsclock for one driven by NATS JetStream messages instead).
type LocalHost struct {
	rendering bool

	logicInterval  time.Duration
	renderInterval time.Duration
}

// NewLocalHost returns a Host that fires the logic signal every
// logicInterval. If rendering is true it also fires the render signal every
// renderInterval.
func NewLocalHost(logicInterval, renderInterval time.Duration, rendering bool) *LocalHost {
	return &LocalHost{
		rendering:      rendering,
		logicInterval:  logicInterval,
		renderInterval: renderInterval,
	}
}

func (h *LocalHost) IsRendering() bool { return h.rendering }

func (h *LocalHost) SubscribeLogicTick(fn func(deltaTime float64)) func() {
	return subscribeTicker(h.logicInterval, fn)
}

func (h *LocalHost) SubscribeRenderTick(fn func(deltaTime float64)) func() {
	if !h.rendering {
		return func() {}
	}
	return subscribeTicker(h.renderInterval, fn)
}

func subscribeTicker(interval time.Duration, fn func(deltaTime float64)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				fn(dt)
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// NoopHost never fires either signal. It is the Host a headless tool (the
// CLI's validate command) binds a container to when there is no frame loop
// to subscribe to.
type NoopHost struct{}

func (NoopHost) IsRendering() bool { return false }

func (NoopHost) SubscribeLogicTick(func(deltaTime float64)) func() { return func() {} }

func (NoopHost) SubscribeRenderTick(func(deltaTime float64)) func() { return func() {} }
