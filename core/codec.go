package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"pkt.systems/tablayout/internal/clock"
	"pkt.systems/tablayout/schema"
)

// codec captures live editor state into snapshots.
type codec struct {
	editor EditorAdapter
	clock  clock.Clock

	mu   sync.Mutex
	last int64
}

func newCodec(editor EditorAdapter, clk clock.Clock) *codec {
	return &codec{editor: editor, clock: clk}
}

// capture reads tab groups and the pane tree and returns a snapshot.
// Relative paths are computed against root.
func (c *codec) capture(ctx context.Context, root string) (schema.LayoutSnapshot, error) {
	groups, err := c.editor.TabGroups(ctx)
	if err != nil {
		return schema.LayoutSnapshot{}, fmt.Errorf("read tab groups: %w", err)
	}
	layout, err := c.editor.EditorLayout(ctx)
	if err != nil {
		return schema.LayoutSnapshot{}, fmt.Errorf("read editor layout: %w", err)
	}
	snapshot := schema.LayoutSnapshot{
		Timestamp:    c.nextTimestamp(),
		TabGroups:    make([]schema.TabGroupSnapshot, 0, len(groups)),
		EditorLayout: layout,
	}
	for _, group := range groups {
		captured := schema.TabGroupSnapshot{
			ViewColumn: group.ViewColumn,
			Tabs:       make([]schema.TabSnapshot, 0, len(group.Tabs)),
		}
		if group.ActiveTab >= 0 && group.ActiveTab < len(group.Tabs) {
			captured.ActiveTabIndex = schema.IntPtr(group.ActiveTab)
		}
		for _, tab := range group.Tabs {
			captured.Tabs = append(captured.Tabs, schema.TabSnapshot{
				Input:     classifyInput(root, tab.Input),
				IsPinned:  tab.IsPinned,
				IsPreview: tab.IsPreview,
			})
		}
		snapshot.TabGroups = append(snapshot.TabGroups, captured)
	}
	return snapshot, nil
}

// nextTimestamp returns the clock time in epoch milliseconds, strictly
// greater than any value returned before.
func (c *codec) nextTimestamp() int64 {
	now := c.clock.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

func classifyInput(root string, input any) schema.TabInput {
	switch in := input.(type) {
	case TextInput:
		return schema.TabInputText{URI: in.URI, RelativePath: relativePath(root, in.URI)}
	case TextDiffInput:
		return schema.TabInputTextDiff{
			Original:             in.Original,
			OriginalRelativePath: relativePath(root, in.Original),
			Modified:             in.Modified,
			ModifiedRelativePath: relativePath(root, in.Modified),
		}
	case CustomInput:
		return schema.TabInputCustom{URI: in.URI, RelativePath: relativePath(root, in.URI), ViewType: in.ViewType}
	case WebviewInput:
		return schema.TabInputWebview{ViewType: in.ViewType}
	case NotebookInput:
		return schema.TabInputNotebook{URI: in.URI, RelativePath: relativePath(root, in.URI), NotebookType: in.NotebookType}
	case NotebookDiffInput:
		return schema.TabInputNotebookDiff{
			Original:             in.Original,
			OriginalRelativePath: relativePath(root, in.Original),
			Modified:             in.Modified,
			ModifiedRelativePath: relativePath(root, in.Modified),
			NotebookType:         in.NotebookType,
		}
	case TerminalInput:
		return schema.TabInputTerminal{}
	default:
		return schema.TabInputUnknown{}
	}
}

// relativePath returns the workspace-relative slash path of a file URI, or
// "" when the URI is not a file inside root.
func relativePath(root, uri string) string {
	if root == "" || uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.FromSlash(parsed.Path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// FileURI returns the file URI of path.
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIPath returns the local path of a file URI.
func URIPath(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", parsed.Scheme)
	}
	return filepath.FromSlash(parsed.Path), nil
}

// EncodeSnapshot serializes a snapshot. Output is deterministic for equal
// snapshots.
func EncodeSnapshot(format schema.LayoutFormat, snapshot schema.LayoutSnapshot) ([]byte, error) {
	switch format {
	case schema.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snapshot); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case schema.FormatJSON, "":
		return json.MarshalIndent(snapshot, "", "\t")
	default:
		return nil, fmt.Errorf("unsupported layout format %q", format)
	}
}

// DecodeSnapshot parses a snapshot.
func DecodeSnapshot(format schema.LayoutFormat, data []byte) (schema.LayoutSnapshot, error) {
	var snapshot schema.LayoutSnapshot
	switch format {
	case schema.FormatYAML:
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return schema.LayoutSnapshot{}, err
		}
	case schema.FormatJSON, "":
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return schema.LayoutSnapshot{}, err
		}
	default:
		return schema.LayoutSnapshot{}, fmt.Errorf("unsupported layout format %q", format)
	}
	return snapshot, nil
}
