package headless

import (
	"pkt.systems/tablayout/core"
	"pkt.systems/tablayout/schema"
)

// liveConverter turns stored inputs back into the editor's live inputs.
type liveConverter struct {
	out any
}

func liveInput(in schema.TabInput) any {
	var c liveConverter
	schema.VisitTabInput(in, &c)
	return c.out
}

func (c *liveConverter) VisitText(in schema.TabInputText) {
	c.out = core.TextInput{URI: in.URI}
}

func (c *liveConverter) VisitTextDiff(in schema.TabInputTextDiff) {
	c.out = core.TextDiffInput{Original: in.Original, Modified: in.Modified}
}

func (c *liveConverter) VisitCustom(in schema.TabInputCustom) {
	c.out = core.CustomInput{URI: in.URI, ViewType: in.ViewType}
}

func (c *liveConverter) VisitWebview(in schema.TabInputWebview) {
	c.out = core.WebviewInput{ViewType: in.ViewType}
}

func (c *liveConverter) VisitNotebook(in schema.TabInputNotebook) {
	c.out = core.NotebookInput{URI: in.URI, NotebookType: in.NotebookType}
}

func (c *liveConverter) VisitNotebookDiff(in schema.TabInputNotebookDiff) {
	c.out = core.NotebookDiffInput{Original: in.Original, Modified: in.Modified, NotebookType: in.NotebookType}
}

func (c *liveConverter) VisitTerminal(schema.TabInputTerminal) {
	c.out = core.TerminalInput{}
}

func (c *liveConverter) VisitUnknown(schema.TabInputUnknown) {
	c.out = nil
}

// tabKey identifies a tab for de-duplication within a pane; "" never matches.
func tabKey(in schema.TabInput) string {
	var k keyer
	schema.VisitTabInput(in, &k)
	return k.key
}

type keyer struct {
	key string
}

func (k *keyer) VisitText(in schema.TabInputText) { k.key = "text:" + in.URI }
func (k *keyer) VisitTextDiff(in schema.TabInputTextDiff) {
	k.key = "diff:" + in.Original + "\x00" + in.Modified
}
func (k *keyer) VisitCustom(in schema.TabInputCustom) {
	k.key = "custom:" + in.ViewType + "\x00" + in.URI
}
func (k *keyer) VisitWebview(schema.TabInputWebview) {}
func (k *keyer) VisitNotebook(in schema.TabInputNotebook) {
	k.key = "notebook:" + in.URI
}
func (k *keyer) VisitNotebookDiff(in schema.TabInputNotebookDiff) {
	k.key = "notebookdiff:" + in.Original + "\x00" + in.Modified
}
func (k *keyer) VisitTerminal(schema.TabInputTerminal) {}
func (k *keyer) VisitUnknown(schema.TabInputUnknown)   {}
