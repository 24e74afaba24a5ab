package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pkt.systems/tablayout/schema"
)

func TestAcquireRecordsOwner(t *testing.T) {
	g := New()
	if g.Owner() != "" {
		t.Fatalf("expected open gate")
	}
	if err := g.Acquire(context.Background(), schema.CommandLoad); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if g.Owner() != schema.CommandLoad {
		t.Fatalf("expected load owner, got %q", g.Owner())
	}
	g.Release()
	if g.Owner() != "" {
		t.Fatalf("expected owner cleared, got %q", g.Owner())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := New()
	g.Release()
	if err := g.Acquire(context.Background(), schema.CommandNew); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	g.Release()
	g.Release()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.Acquire(ctx, schema.CommandNew); err != nil {
		t.Fatalf("acquire after double release: %v", err)
	}
	g.Release()
}

func TestAcquireHonorsContext(t *testing.T) {
	g := New()
	if err := g.Acquire(context.Background(), schema.CommandSaveAs); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer g.Release()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx, schema.CommandDelete)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if g.Owner() != schema.CommandSaveAs {
		t.Fatalf("expected owner unchanged, got %q", g.Owner())
	}
}

func TestGateSerializesHolders(t *testing.T) {
	g := New()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background(), schema.CommandSaveAs); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer g.Release()
			n := atomic.AddInt32(&inside, 1)
			for {
				prev := atomic.LoadInt32(&maxInside)
				if n <= prev || atomic.CompareAndSwapInt32(&maxInside, prev, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
}
