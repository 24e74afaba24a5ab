package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventLayoutsChanged signals that the set of stored layouts changed.
	EventLayoutsChanged EventType = "layouts"
	// EventActiveChanged signals a new active layout.
	EventActiveChanged EventType = "active"
)

// Event represents a change notification emitted by the layout service.
type Event struct {
	Type    EventType
	Layouts schema.LayoutsChangedEvent
	Active  schema.ActiveLayoutChangedEvent
}

// Bus fans events out to subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 64,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
// Cancel is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// OnLayoutsChanged publishes a layouts-changed event.
func (b *Bus) OnLayoutsChanged(event schema.LayoutsChangedEvent) {
	b.publish(Event{Type: EventLayoutsChanged, Layouts: event})
}

// OnActiveLayoutChanged publishes an active-changed event.
func (b *Bus) OnActiveLayoutChanged(event schema.ActiveLayoutChangedEvent) {
	b.publish(Event{Type: EventActiveChanged, Active: event})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
