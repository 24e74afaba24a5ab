package schema

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// TabInputKind is the discriminator of a TabInput on the wire.
type TabInputKind string

const (
	// TabInputKindText is a plain text editor.
	TabInputKindText TabInputKind = "TabInputText"
	// TabInputKindTextDiff is a text diff editor.
	TabInputKindTextDiff TabInputKind = "TabInputTextDiff"
	// TabInputKindCustom is a custom editor.
	TabInputKindCustom TabInputKind = "TabInputCustom"
	// TabInputKindWebview is a webview panel.
	TabInputKindWebview TabInputKind = "TabInputWebview"
	// TabInputKindNotebook is a notebook editor.
	TabInputKindNotebook TabInputKind = "TabInputNotebook"
	// TabInputKindNotebookDiff is a notebook diff editor.
	TabInputKindNotebookDiff TabInputKind = "TabInputNotebookDiff"
	// TabInputKindTerminal is a terminal in the editor area.
	TabInputKindTerminal TabInputKind = "TabInputTerminal"
	// TabInputKindUnknown is anything else.
	TabInputKindUnknown TabInputKind = "unknown"
)

// TabInput is what a tab displays. The set of variants is closed; match on
// it with VisitTabInput.
type TabInput interface {
	Kind() TabInputKind
	accept(v TabInputVisitor)
}

// TabInputVisitor handles every TabInput variant. Adding a variant adds a
// method here, so every matcher stops compiling until it handles it.
type TabInputVisitor interface {
	VisitText(TabInputText)
	VisitTextDiff(TabInputTextDiff)
	VisitCustom(TabInputCustom)
	VisitWebview(TabInputWebview)
	VisitNotebook(TabInputNotebook)
	VisitNotebookDiff(TabInputNotebookDiff)
	VisitTerminal(TabInputTerminal)
	VisitUnknown(TabInputUnknown)
}

// VisitTabInput dispatches in to the matching visitor method. A nil input is
// visited as TabInputUnknown.
func VisitTabInput(in TabInput, v TabInputVisitor) {
	if in == nil {
		v.VisitUnknown(TabInputUnknown{})
		return
	}
	in.accept(v)
}

// TabInputText is a text document.
type TabInputText struct {
	URI          string
	RelativePath string
}

// TabInputTextDiff compares two text documents.
type TabInputTextDiff struct {
	Original             string
	OriginalRelativePath string
	Modified             string
	ModifiedRelativePath string
}

// TabInputCustom is a document opened in a custom editor.
type TabInputCustom struct {
	URI          string
	RelativePath string
	ViewType     string
}

// TabInputWebview is a webview panel.
type TabInputWebview struct {
	ViewType string
}

// TabInputNotebook is a notebook document.
type TabInputNotebook struct {
	URI          string
	RelativePath string
	NotebookType string
}

// TabInputNotebookDiff compares two notebook documents.
type TabInputNotebookDiff struct {
	Original             string
	OriginalRelativePath string
	Modified             string
	ModifiedRelativePath string
	NotebookType         string
}

// TabInputTerminal is a terminal.
type TabInputTerminal struct{}

// TabInputUnknown is a tab of unrecognised kind.
type TabInputUnknown struct{}

func (TabInputText) Kind() TabInputKind         { return TabInputKindText }
func (TabInputTextDiff) Kind() TabInputKind     { return TabInputKindTextDiff }
func (TabInputCustom) Kind() TabInputKind       { return TabInputKindCustom }
func (TabInputWebview) Kind() TabInputKind      { return TabInputKindWebview }
func (TabInputNotebook) Kind() TabInputKind     { return TabInputKindNotebook }
func (TabInputNotebookDiff) Kind() TabInputKind { return TabInputKindNotebookDiff }
func (TabInputTerminal) Kind() TabInputKind     { return TabInputKindTerminal }
func (TabInputUnknown) Kind() TabInputKind      { return TabInputKindUnknown }

func (in TabInputText) accept(v TabInputVisitor)         { v.VisitText(in) }
func (in TabInputTextDiff) accept(v TabInputVisitor)     { v.VisitTextDiff(in) }
func (in TabInputCustom) accept(v TabInputVisitor)       { v.VisitCustom(in) }
func (in TabInputWebview) accept(v TabInputVisitor)      { v.VisitWebview(in) }
func (in TabInputNotebook) accept(v TabInputVisitor)     { v.VisitNotebook(in) }
func (in TabInputNotebookDiff) accept(v TabInputVisitor) { v.VisitNotebookDiff(in) }
func (in TabInputTerminal) accept(v TabInputVisitor)     { v.VisitTerminal(in) }
func (in TabInputUnknown) accept(v TabInputVisitor)      { v.VisitUnknown(in) }

// tabInputWire is the flat, type-discriminated form persisted in layout files.
type tabInputWire struct {
	Type                 TabInputKind `json:"type" yaml:"type"`
	URI                  string       `json:"uri,omitempty" yaml:"uri,omitempty"`
	RelativePath         string       `json:"relativePath,omitempty" yaml:"relativePath,omitempty"`
	Original             string       `json:"original,omitempty" yaml:"original,omitempty"`
	OriginalRelativePath string       `json:"originalRelativePath,omitempty" yaml:"originalRelativePath,omitempty"`
	Modified             string       `json:"modified,omitempty" yaml:"modified,omitempty"`
	ModifiedRelativePath string       `json:"modifiedRelativePath,omitempty" yaml:"modifiedRelativePath,omitempty"`
	ViewType             string       `json:"viewType,omitempty" yaml:"viewType,omitempty"`
	NotebookType         string       `json:"notebookType,omitempty" yaml:"notebookType,omitempty"`
}

type tabSnapshotWire struct {
	Input     tabInputWire `json:"input" yaml:"input"`
	IsPinned  bool         `json:"isPinned" yaml:"isPinned"`
	IsPreview bool         `json:"isPreview" yaml:"isPreview"`
}

type wireEncoder struct {
	out tabInputWire
}

func (w *wireEncoder) VisitText(in TabInputText) {
	w.out = tabInputWire{Type: TabInputKindText, URI: in.URI, RelativePath: in.RelativePath}
}

func (w *wireEncoder) VisitTextDiff(in TabInputTextDiff) {
	w.out = tabInputWire{
		Type:                 TabInputKindTextDiff,
		Original:             in.Original,
		OriginalRelativePath: in.OriginalRelativePath,
		Modified:             in.Modified,
		ModifiedRelativePath: in.ModifiedRelativePath,
	}
}

func (w *wireEncoder) VisitCustom(in TabInputCustom) {
	w.out = tabInputWire{Type: TabInputKindCustom, URI: in.URI, RelativePath: in.RelativePath, ViewType: in.ViewType}
}

func (w *wireEncoder) VisitWebview(in TabInputWebview) {
	w.out = tabInputWire{Type: TabInputKindWebview, ViewType: in.ViewType}
}

func (w *wireEncoder) VisitNotebook(in TabInputNotebook) {
	w.out = tabInputWire{Type: TabInputKindNotebook, URI: in.URI, RelativePath: in.RelativePath, NotebookType: in.NotebookType}
}

func (w *wireEncoder) VisitNotebookDiff(in TabInputNotebookDiff) {
	w.out = tabInputWire{
		Type:                 TabInputKindNotebookDiff,
		Original:             in.Original,
		OriginalRelativePath: in.OriginalRelativePath,
		Modified:             in.Modified,
		ModifiedRelativePath: in.ModifiedRelativePath,
		NotebookType:         in.NotebookType,
	}
}

func (w *wireEncoder) VisitTerminal(TabInputTerminal) {
	w.out = tabInputWire{Type: TabInputKindTerminal}
}

func (w *wireEncoder) VisitUnknown(TabInputUnknown) {
	w.out = tabInputWire{Type: TabInputKindUnknown}
}

func encodeTabInput(in TabInput) tabInputWire {
	var enc wireEncoder
	VisitTabInput(in, &enc)
	return enc.out
}

func (w tabInputWire) decode() TabInput {
	switch w.Type {
	case TabInputKindText:
		return TabInputText{URI: w.URI, RelativePath: w.RelativePath}
	case TabInputKindTextDiff:
		return TabInputTextDiff{
			Original:             w.Original,
			OriginalRelativePath: w.OriginalRelativePath,
			Modified:             w.Modified,
			ModifiedRelativePath: w.ModifiedRelativePath,
		}
	case TabInputKindCustom:
		return TabInputCustom{URI: w.URI, RelativePath: w.RelativePath, ViewType: w.ViewType}
	case TabInputKindWebview:
		return TabInputWebview{ViewType: w.ViewType}
	case TabInputKindNotebook:
		return TabInputNotebook{URI: w.URI, RelativePath: w.RelativePath, NotebookType: w.NotebookType}
	case TabInputKindNotebookDiff:
		return TabInputNotebookDiff{
			Original:             w.Original,
			OriginalRelativePath: w.OriginalRelativePath,
			Modified:             w.Modified,
			ModifiedRelativePath: w.ModifiedRelativePath,
			NotebookType:         w.NotebookType,
		}
	case TabInputKindTerminal:
		return TabInputTerminal{}
	default:
		return TabInputUnknown{}
	}
}

func (t TabSnapshot) wire() tabSnapshotWire {
	return tabSnapshotWire{
		Input:     encodeTabInput(t.Input),
		IsPinned:  t.IsPinned,
		IsPreview: t.IsPreview,
	}
}

func (w tabSnapshotWire) snapshot() TabSnapshot {
	return TabSnapshot{
		Input:     w.Input.decode(),
		IsPinned:  w.IsPinned,
		IsPreview: w.IsPreview,
	}
}

// MarshalJSON encodes the tab with a type-discriminated input object.
func (t TabSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.wire())
}

// UnmarshalJSON decodes a tab; unrecognised input types become TabInputUnknown.
func (t *TabSnapshot) UnmarshalJSON(data []byte) error {
	var w tabSnapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = w.snapshot()
	return nil
}

// MarshalYAML encodes the tab with a type-discriminated input mapping.
func (t TabSnapshot) MarshalYAML() (any, error) {
	return t.wire(), nil
}

// UnmarshalYAML decodes a tab; unrecognised input types become TabInputUnknown.
func (t *TabSnapshot) UnmarshalYAML(node *yaml.Node) error {
	var w tabSnapshotWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*t = w.snapshot()
	return nil
}
