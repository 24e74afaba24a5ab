package schema

// LayoutsChangedEvent reports that the set of stored layouts changed.
type LayoutsChangedEvent struct {
	Workspace string
}

// ActiveLayoutChangedEvent reports a new active layout. An empty Name means
// no layout is active.
type ActiveLayoutChangedEvent struct {
	Workspace string
	Name      LayoutName
}
