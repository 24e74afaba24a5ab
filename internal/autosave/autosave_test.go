package autosave

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pkt.systems/tablayout/internal/clock"
)

func newCounting(t *testing.T, fake *clock.FakeClock, filter Filter) (*Coordinator, *int32) {
	t.Helper()
	var calls int32
	c := New(func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, Options{Clock: fake, Filter: filter})
	return c, &calls
}

func TestThreeSignalsWithinWindowSaveOnce(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	c, calls := newCounting(t, fake, nil)
	ctx := context.Background()

	c.Urge(ctx)
	fake.Advance(time.Second)
	c.Urge(ctx)
	fake.Advance(2 * time.Second)
	c.Urge(ctx)

	fake.Advance(DefaultWindow - time.Millisecond)
	if got := atomic.LoadInt32(calls); got != 0 {
		t.Fatalf("expected no save before the window elapsed, got %d", got)
	}
	fake.Advance(time.Millisecond)
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected exactly one save, got %d", got)
	}
	if c.Pending() {
		t.Fatalf("expected nothing pending after the save")
	}
	fake.Advance(time.Minute)
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected no further saves, got %d", got)
	}
}

func TestExecuteImmediatelyCancelsPending(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	c, calls := newCounting(t, fake, nil)
	ctx := context.Background()

	c.Urge(ctx)
	if !c.Pending() {
		t.Fatalf("expected a pending save")
	}
	if err := c.ExecuteImmediately(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected one save, got %d", got)
	}
	fake.Advance(DefaultWindow * 2)
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected cancelled timer not to fire, got %d", got)
	}
}

func TestExecuteImmediatelyReturnsActionError(t *testing.T) {
	boom := errors.New("boom")
	c := New(func(context.Context) error { return boom }, Options{Clock: clock.Fake(time.Unix(0, 0))})
	if err := c.ExecuteImmediately(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected action error, got %v", err)
	}
}

func TestStopDropsPending(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	c, calls := newCounting(t, fake, nil)
	c.Urge(context.Background())
	c.Stop()
	fake.Advance(DefaultWindow)
	if got := atomic.LoadInt32(calls); got != 0 {
		t.Fatalf("expected no save after stop, got %d", got)
	}
}

func TestUrgeSurvivesCancelledContext(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	var sawErr error
	c := New(func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	}, Options{Clock: fake})
	ctx, cancel := context.WithCancel(context.Background())
	c.Urge(ctx)
	cancel()
	fake.Advance(DefaultWindow)
	if sawErr != nil {
		t.Fatalf("expected deferred run to ignore cancellation, got %v", sawErr)
	}
}

func TestRunFiltersSignals(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	filter := func(_ context.Context, sig Signal) bool {
		return sig != SignalVisibleRanges
	}
	c, calls := newCounting(t, fake, filter)

	signals := make(chan Signal, 3)
	signals <- SignalVisibleRanges
	close(signals)
	if err := c.Run(context.Background(), signals); err != nil {
		t.Fatalf("run: %v", err)
	}
	if c.Pending() {
		t.Fatalf("expected filtered signal not to schedule a save")
	}

	signals = make(chan Signal, 3)
	signals <- SignalVisibleEditors
	signals <- SignalViewColumn
	signals <- SignalVisibleRanges
	close(signals)
	if err := c.Run(context.Background(), signals); err != nil {
		t.Fatalf("run: %v", err)
	}
	fake.Advance(DefaultWindow)
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected one save, got %d", got)
	}
}

func TestRunStopsOnContext(t *testing.T) {
	c, _ := newCounting(t, clock.Fake(time.Unix(0, 0)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, make(chan Signal)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancelled, got %v", err)
	}
}
