package core

import "pkt.systems/tablayout/schema"

// EventSink receives change notifications from the core service.
type EventSink interface {
	OnLayoutsChanged(event schema.LayoutsChangedEvent)
	OnActiveLayoutChanged(event schema.ActiveLayoutChangedEvent)
}
