package core

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

// restorer replays a snapshot onto the editor.
type restorer struct {
	editor              EditorAdapter
	honorFirstTabActive bool
}

// restore closes every editor, applies the pane tree, then reopens tabs.
// Per-tab failures are logged and do not fail the call.
func (r *restorer) restore(ctx context.Context, root string, snapshot schema.LayoutSnapshot) error {
	log := pslog.Ctx(ctx)
	if err := r.editor.CloseAllEditors(ctx); err != nil {
		return fmt.Errorf("close editors: %w", err)
	}
	if err := r.editor.SetEditorLayout(ctx, snapshot.EditorLayout); err != nil {
		return fmt.Errorf("set editor layout: %w", err)
	}
	var groups errgroup.Group
	for _, group := range snapshot.TabGroups {
		groups.Go(func() error {
			r.restoreGroup(ctx, root, group)
			return nil
		})
	}
	err := groups.Wait()
	log.Debug("restore done", "groups", len(snapshot.TabGroups))
	return err
}

// restoreGroup opens the non-active tabs one after another in captured order,
// then opens the active tab so it takes focus.
func (r *restorer) restoreGroup(ctx context.Context, root string, group schema.TabGroupSnapshot) {
	active := r.activeIndex(group)
	for i, tab := range group.Tabs {
		if i == active {
			continue
		}
		r.openTab(ctx, root, group.ViewColumn, i, tab)
	}
	if active >= 0 {
		r.openTab(ctx, root, group.ViewColumn, active, group.Tabs[active])
	}
}

// activeIndex returns the tab to open last, or -1. Index zero counts as no
// active tab unless honorFirstTabActive is set.
func (r *restorer) activeIndex(group schema.TabGroupSnapshot) int {
	if group.ActiveTabIndex == nil {
		return -1
	}
	idx := *group.ActiveTabIndex
	if idx == 0 && !r.honorFirstTabActive {
		return -1
	}
	if idx < 0 || idx >= len(group.Tabs) {
		return -1
	}
	return idx
}

// openTab opens one tab and waits for the editor to accept it.
func (r *restorer) openTab(ctx context.Context, root string, column schema.ViewColumn, index int, tab schema.TabSnapshot) {
	log := pslog.Ctx(ctx).With("view_column", column, "tab_index", index)
	target := restoreTarget{root: root}
	schema.VisitTabInput(tab.Input, &target)
	if target.unsupported != "" {
		log.Debug("restore tab unsupported", "kind", target.unsupported)
		return
	}
	if target.uri == "" {
		log.Warn("restore tab skipped", "reason", "missing uri")
		return
	}
	opts := OpenOptions{ViewColumn: column, Preview: tab.IsPreview, PreserveFocus: true}
	if err := r.editor.OpenText(ctx, target.uri, opts); err != nil {
		log.Warn("restore tab failed", "uri", target.uri, "err", err)
		return
	}
	log.Trace("restore tab ok", "uri", target.uri)
}

// restoreTarget resolves what a tab reopens as. Only text tabs are reopened.
type restoreTarget struct {
	root        string
	uri         string
	unsupported schema.TabInputKind
}

func (t *restoreTarget) VisitText(in schema.TabInputText) {
	t.uri = in.URI
	if t.uri == "" && in.RelativePath != "" && t.root != "" {
		t.uri = FileURI(filepath.Join(t.root, filepath.FromSlash(in.RelativePath)))
	}
}

func (t *restoreTarget) VisitTextDiff(in schema.TabInputTextDiff) { t.unsupported = in.Kind() }
func (t *restoreTarget) VisitCustom(in schema.TabInputCustom)     { t.unsupported = in.Kind() }
func (t *restoreTarget) VisitWebview(in schema.TabInputWebview)   { t.unsupported = in.Kind() }
func (t *restoreTarget) VisitNotebook(in schema.TabInputNotebook) { t.unsupported = in.Kind() }
func (t *restoreTarget) VisitNotebookDiff(in schema.TabInputNotebookDiff) {
	t.unsupported = in.Kind()
}
func (t *restoreTarget) VisitTerminal(in schema.TabInputTerminal) { t.unsupported = in.Kind() }
func (t *restoreTarget) VisitUnknown(in schema.TabInputUnknown)   { t.unsupported = in.Kind() }
