// Package gate serializes mutating layout commands.
package gate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"pkt.systems/tablayout/schema"
)

// Gate admits one command at a time and remembers which command holds it.
type Gate struct {
	sem *semaphore.Weighted

	mu    sync.Mutex
	owner schema.CommandID
	held  bool
}

// New returns an open gate.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is free or ctx ends, then records owner.
func (g *Gate) Acquire(ctx context.Context, owner schema.CommandID) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.mu.Lock()
	g.owner = owner
	g.held = true
	g.mu.Unlock()
	return nil
}

// Release frees the gate. Releasing an open gate does nothing.
func (g *Gate) Release() {
	g.mu.Lock()
	if !g.held {
		g.mu.Unlock()
		return
	}
	g.held = false
	g.owner = ""
	g.mu.Unlock()
	g.sem.Release(1)
}

// Owner reports the command currently holding the gate, or "" when open.
func (g *Gate) Owner() schema.CommandID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owner
}
