// Package headless implements a file-backed editor for hosts without a UI.
// Each workspace root gets one JSON state file holding its pane tree and
// open tabs.
package headless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/internal/persist"
	"pkt.systems/tablayout/schema"
)

type stateFile struct {
	Root   string                   `json:"root"`
	Layout schema.EditorGroupLayout `json:"layout"`
	Groups []groupState             `json:"groups"`
}

type groupState struct {
	ViewColumn schema.ViewColumn    `json:"viewColumn"`
	Active     int                  `json:"active"`
	Tabs       []schema.TabSnapshot `json:"tabs"`
}

// Editor is a core.EditorAdapter persisted to disk.
type Editor struct {
	root string
	path string
	log  pslog.Logger
	mu   sync.Mutex
}

var _ core.EditorAdapter = (*Editor)(nil)

// New returns the editor of root with state kept under stateDir/editor.
// An empty root yields an editor with no workspace folders.
func New(stateDir, root string, logger pslog.Logger) (*Editor, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, errors.New("state directory is required")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		root = abs
	}
	dir := filepath.Join(stateDir, "editor")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Editor{
		root: root,
		path: filepath.Join(dir, persist.WorkspaceID(root)+".json"),
		log:  logger.With("editor_state", filepath.Base(dir)),
	}, nil
}

// Root returns the workspace root.
func (e *Editor) Root() string {
	return e.root
}

func (e *Editor) WorkspaceFolders(context.Context) ([]string, error) {
	if e.root == "" {
		return nil, nil
	}
	return []string{e.root}, nil
}

func (e *Editor) TabGroups(context.Context) ([]core.LiveTabGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.load()
	if err != nil {
		return nil, err
	}
	out := make([]core.LiveTabGroup, 0, len(state.Groups))
	for _, group := range state.Groups {
		live := core.LiveTabGroup{ViewColumn: group.ViewColumn, ActiveTab: group.Active, Tabs: make([]core.LiveTab, 0, len(group.Tabs))}
		for _, tab := range group.Tabs {
			live.Tabs = append(live.Tabs, core.LiveTab{
				Input:     liveInput(tab.Input),
				IsPinned:  tab.IsPinned,
				IsPreview: tab.IsPreview,
			})
		}
		out = append(out, live)
	}
	return out, nil
}

func (e *Editor) EditorLayout(context.Context) (schema.EditorGroupLayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.load()
	if err != nil {
		return schema.EditorGroupLayout{}, err
	}
	return state.Layout, nil
}

func (e *Editor) CloseAllEditors(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.load()
	if err != nil {
		return err
	}
	for i := range state.Groups {
		state.Groups[i].Tabs = nil
		state.Groups[i].Active = -1
	}
	e.log.Debug("editor close all")
	return e.save(state)
}

// SetEditorLayout applies the pane tree, keeping the tabs of panes that
// survive and dropping the rest.
func (e *Editor) SetEditorLayout(_ context.Context, layout schema.EditorGroupLayout) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.load()
	if err != nil {
		return err
	}
	state.Layout = layout
	state.Groups = resizeGroups(state.Groups, layout.LeafCount())
	e.log.Debug("editor layout set", "panes", len(state.Groups))
	return e.save(state)
}

// OpenText opens the document at uri. The file must exist.
func (e *Editor) OpenText(_ context.Context, uri string, opts core.OpenOptions) error {
	path, err := core.URIPath(uri)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return e.open(schema.TabSnapshot{Input: schema.TabInputText{URI: uri}, IsPreview: opts.Preview}, opts.ViewColumn)
}

// Open adds a tab of any kind to a pane without touching the filesystem.
func (e *Editor) Open(_ context.Context, tab schema.TabSnapshot, column schema.ViewColumn) error {
	return e.open(tab, column)
}

func (e *Editor) open(tab schema.TabSnapshot, column schema.ViewColumn) error {
	if column < 1 {
		return fmt.Errorf("invalid view column %d", column)
	}
	if tab.Input == nil {
		tab.Input = schema.TabInputUnknown{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.load()
	if err != nil {
		return err
	}
	if int(column) > len(state.Groups) {
		state.Groups = resizeGroups(state.Groups, int(column))
	}
	group := &state.Groups[column-1]
	key := tabKey(tab.Input)
	idx := -1
	for i, existing := range group.Tabs {
		if key != "" && tabKey(existing.Input) == key {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0:
		group.Tabs[idx].IsPreview = group.Tabs[idx].IsPreview && tab.IsPreview
		group.Tabs[idx].IsPinned = group.Tabs[idx].IsPinned || tab.IsPinned
	case tab.IsPreview:
		idx = previewIndex(group.Tabs)
		if idx >= 0 {
			group.Tabs[idx] = tab
		} else {
			group.Tabs = append(group.Tabs, tab)
			idx = len(group.Tabs) - 1
		}
	default:
		group.Tabs = append(group.Tabs, tab)
		idx = len(group.Tabs) - 1
	}
	group.Active = idx
	e.log.Trace("editor tab open", "view_column", column, "kind", tab.Input.Kind(), "tab_index", idx)
	return e.save(state)
}

func (e *Editor) load() (stateFile, error) {
	state := stateFile{Root: e.root}
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state.Layout = schema.EditorGroupLayout{Groups: []schema.GroupLayout{{}}}
			state.Groups = resizeGroups(nil, 1)
			return state, nil
		}
		e.log.Warn("editor state load failed", "err", err)
		return stateFile{}, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		e.log.Warn("editor state load failed", "err", err)
		return stateFile{}, err
	}
	if len(state.Groups) == 0 {
		state.Groups = resizeGroups(nil, state.Layout.LeafCount())
	}
	return state, nil
}

func (e *Editor) save(state stateFile) error {
	state.Root = e.root
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := persist.WriteFileAtomic(e.path, data, 0o600); err != nil {
		e.log.Warn("editor state save failed", "err", err)
		return err
	}
	return nil
}

func resizeGroups(groups []groupState, n int) []groupState {
	if n < 1 {
		n = 1
	}
	out := make([]groupState, n)
	for i := range out {
		out[i] = groupState{ViewColumn: schema.ViewColumn(i + 1), Active: -1}
		if i < len(groups) {
			out[i].Tabs = groups[i].Tabs
			out[i].Active = groups[i].Active
		}
	}
	return out
}

func previewIndex(tabs []schema.TabSnapshot) int {
	for i, tab := range tabs {
		if tab.IsPreview {
			return i
		}
	}
	return -1
}
