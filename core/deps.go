package core

import (
	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/clock"
)

// KeyValue is workspace-scoped persistent state.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// StateProvider returns the key/value state of a workspace root.
type StateProvider func(root string) KeyValue

// ServiceDeps captures dependencies for the core service. Editor is required.
type ServiceDeps struct {
	Editor    EditorAdapter
	State     StateProvider
	EventSink EventSink
	Clock     clock.Clock
	Logger    pslog.Logger
}
