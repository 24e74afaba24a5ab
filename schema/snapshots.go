package schema

// ViewColumn identifies an editor pane by its column number (1-based).
type ViewColumn int

// Orientation is the split direction of the root of an editor pane tree.
type Orientation int

const (
	// OrientationHorizontal lays out root groups side by side.
	OrientationHorizontal Orientation = 0
	// OrientationVertical stacks root groups on top of each other.
	OrientationVertical Orientation = 1
)

// LayoutSnapshot is a serializable capture of pane arrangement and open tabs.
type LayoutSnapshot struct {
	// Timestamp is the capture time in epoch milliseconds.
	Timestamp    int64              `json:"timestamp" yaml:"timestamp"`
	TabGroups    []TabGroupSnapshot `json:"tabGroups" yaml:"tabGroups"`
	EditorLayout EditorGroupLayout  `json:"editorLayout" yaml:"editorLayout"`
}

// TabGroupSnapshot captures the tabs of a single editor pane.
type TabGroupSnapshot struct {
	ViewColumn ViewColumn `json:"viewColumn" yaml:"viewColumn"`
	// ActiveTabIndex was valid at capture time; it may be stale later.
	ActiveTabIndex *int          `json:"activeTabIndex,omitempty" yaml:"activeTabIndex,omitempty"`
	Tabs           []TabSnapshot `json:"tabs" yaml:"tabs"`
}

// TabSnapshot captures a single tab.
type TabSnapshot struct {
	Input     TabInput
	IsPinned  bool
	IsPreview bool
}

// EditorGroupLayout is the recursive pane tree of the editor area.
type EditorGroupLayout struct {
	Orientation Orientation   `json:"orientation" yaml:"orientation"`
	Groups      []GroupLayout `json:"groups" yaml:"groups"`
}

// GroupLayout is one node of the pane tree. Children are laid out
// orthogonally to their parent. Size only applies between siblings.
type GroupLayout struct {
	Size   *float64      `json:"size,omitempty" yaml:"size,omitempty"`
	Groups []GroupLayout `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// LeafCount returns the number of panes described by the tree. An empty
// tree still describes a single pane.
func (l EditorGroupLayout) LeafCount() int {
	count := 0
	for _, group := range l.Groups {
		count += group.leafCount()
	}
	if count == 0 {
		return 1
	}
	return count
}

func (g GroupLayout) leafCount() int {
	if len(g.Groups) == 0 {
		return 1
	}
	count := 0
	for _, child := range g.Groups {
		count += child.leafCount()
	}
	return count
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
