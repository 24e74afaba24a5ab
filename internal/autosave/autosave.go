// Package autosave coalesces bursts of editor changes into a single save.
package autosave

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/clock"
)

// DefaultWindow is the quiescence period before a pending save runs.
const DefaultWindow = 5 * time.Second

// Signal is a UI change that may warrant an autosave.
type Signal string

const (
	// SignalVisibleEditors reports that the set of visible editors changed.
	SignalVisibleEditors Signal = "visible_editors"
	// SignalVisibleRanges reports that an editor scrolled.
	SignalVisibleRanges Signal = "visible_ranges"
	// SignalViewColumn reports that an editor moved to another pane.
	SignalViewColumn Signal = "view_column"
)

// Action is the deferred save.
type Action func(ctx context.Context) error

// Filter decides whether a signal schedules a save.
type Filter func(ctx context.Context, sig Signal) bool

// Options configures a Coordinator.
type Options struct {
	Clock  clock.Clock
	Window time.Duration
	Filter Filter
	Logger pslog.Logger
}

// Coordinator runs an action once the signals that urge it have been quiet
// for a full window. Every urge supersedes the pending one.
type Coordinator struct {
	action Action
	clock  clock.Clock
	window time.Duration
	filter Filter
	log    pslog.Logger

	mu         sync.Mutex
	generation uint64
	timer      *clock.Timer

	runMu sync.Mutex
}

// New returns a Coordinator for action.
func New(action Action, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	return &Coordinator{
		action: action,
		clock:  opts.Clock,
		window: opts.Window,
		filter: opts.Filter,
		log:    opts.Logger,
	}
}

// Urge schedules the action one window from now, replacing any pending
// schedule. The values of ctx are kept for the deferred run; its
// cancellation is not.
func (c *Coordinator) Urge(ctx context.Context) {
	runCtx := context.WithoutCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	current := c.generation
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.window, func() {
		c.fire(runCtx, current)
	})
}

func (c *Coordinator) fire(ctx context.Context, generation uint64) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	if err := c.execute(ctx); err != nil {
		c.log.Warn("autosave failed", "err", err)
	}
}

// ExecuteImmediately cancels any pending schedule and runs the action now.
func (c *Coordinator) ExecuteImmediately(ctx context.Context) error {
	c.cancelPending()
	return c.execute(ctx)
}

// Stop drops any pending schedule without running the action.
func (c *Coordinator) Stop() {
	c.cancelPending()
}

// Pending reports whether a run is scheduled.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Coordinator) cancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) execute(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.log.Trace("autosave run")
	return c.action(ctx)
}

// Run consumes signals until the channel closes or ctx ends. Signals that
// pass the filter urge the action.
func (c *Coordinator) Run(ctx context.Context, signals <-chan Signal) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if c.filter != nil && !c.filter(ctx, sig) {
				c.log.Trace("autosave signal filtered", "signal", sig)
				continue
			}
			c.Urge(ctx)
		}
	}
}
