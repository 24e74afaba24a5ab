package tablayout

import (
	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnLayoutsChanged(event schema.LayoutsChangedEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnLayoutsChanged(event)
	}
}

func (f eventFanout) OnActiveLayoutChanged(event schema.ActiveLayoutChangedEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnActiveLayoutChanged(event)
	}
}

func fanout(sinks ...core.EventSink) core.EventSink {
	kept := make([]core.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return eventFanout{sinks: kept}
}
