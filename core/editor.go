package core

import (
	"context"

	"pkt.systems/tablayout/schema"
)

// EditorAdapter is the boundary to the live editing environment.
type EditorAdapter interface {
	// WorkspaceFolders returns the roots of the open workspace.
	WorkspaceFolders(ctx context.Context) ([]string, error)
	// TabGroups returns the live tab groups in pane order.
	TabGroups(ctx context.Context) ([]LiveTabGroup, error)
	// EditorLayout returns the live pane tree.
	EditorLayout(ctx context.Context) (schema.EditorGroupLayout, error)
	CloseAllEditors(ctx context.Context) error
	SetEditorLayout(ctx context.Context, layout schema.EditorGroupLayout) error
	// OpenText opens the text document at uri in the given pane.
	OpenText(ctx context.Context, uri string, opts OpenOptions) error
}

// OpenOptions controls how a document is shown.
type OpenOptions struct {
	ViewColumn    schema.ViewColumn
	Preview       bool
	PreserveFocus bool
}

// LiveTabGroup is a tab group as reported by the editor.
type LiveTabGroup struct {
	ViewColumn schema.ViewColumn
	// ActiveTab is the index of the active tab, or -1.
	ActiveTab int
	Tabs      []LiveTab
}

// LiveTab is a tab as reported by the editor. Input holds one of the live
// input types below; any other value is captured as an unknown tab.
type LiveTab struct {
	Input     any
	IsPinned  bool
	IsPreview bool
}

// TextInput is a live text editor input.
type TextInput struct {
	URI string
}

// TextDiffInput is a live text diff input.
type TextDiffInput struct {
	Original string
	Modified string
}

// CustomInput is a live custom editor input.
type CustomInput struct {
	URI      string
	ViewType string
}

// WebviewInput is a live webview input.
type WebviewInput struct {
	ViewType string
}

// NotebookInput is a live notebook input.
type NotebookInput struct {
	URI          string
	NotebookType string
}

// NotebookDiffInput is a live notebook diff input.
type NotebookDiffInput struct {
	Original     string
	Modified     string
	NotebookType string
}

// TerminalInput is a live terminal input.
type TerminalInput struct{}
