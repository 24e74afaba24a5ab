package sessionprefs

import (
	"context"
	"sync"

	"pkt.systems/tablayout/schema"
)

// DefaultSort is the listing order before any sort command runs.
const DefaultSort = schema.SortByRecent

// Prefs captures per-session preferences.
type Prefs struct {
	mu     sync.Mutex
	sortBy schema.SortMethod
}

type prefsKey struct{}

// New returns a new Prefs instance with defaults applied.
func New() *Prefs {
	return &Prefs{sortBy: DefaultSort}
}

// SortBy returns the listing order.
func (p *Prefs) SortBy() schema.SortMethod {
	if p == nil {
		return DefaultSort
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sortBy == "" {
		return DefaultSort
	}
	return p.sortBy
}

// SetSortBy updates the listing order.
func (p *Prefs) SetSortBy(method schema.SortMethod) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.sortBy = method
	p.mu.Unlock()
}

// WithContext stores prefs in the context.
func WithContext(ctx context.Context, prefs *Prefs) context.Context {
	if ctx == nil || prefs == nil {
		return ctx
	}
	return context.WithValue(ctx, prefsKey{}, prefs)
}

// FromContext returns the prefs stored in the context, if any.
func FromContext(ctx context.Context) *Prefs {
	if ctx == nil {
		return nil
	}
	if value := ctx.Value(prefsKey{}); value != nil {
		if prefs, ok := value.(*Prefs); ok {
			return prefs
		}
	}
	return nil
}
