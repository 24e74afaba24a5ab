package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/internal/clock"
	"pkt.systems/tablayout/schema"
)

type openCall struct {
	URI  string
	Opts OpenOptions
}

type fakeEditor struct {
	mu        sync.Mutex
	folders   []string
	groups    []LiveTabGroup
	layout    schema.EditorGroupLayout
	calls     []string
	opens     []openCall
	fail      map[string]error
	delay     map[string]time.Duration
	closeErr  error
	layoutErr error
}

func newFakeEditor(root string) *fakeEditor {
	return &fakeEditor{folders: []string{root}, fail: map[string]error{}, delay: map[string]time.Duration{}}
}

func (e *fakeEditor) WorkspaceFolders(context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.folders...), nil
}

func (e *fakeEditor) TabGroups(context.Context) ([]LiveTabGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LiveTabGroup, len(e.groups))
	for i, group := range e.groups {
		group.Tabs = append([]LiveTab(nil), group.Tabs...)
		out[i] = group
	}
	return out, nil
}

func (e *fakeEditor) EditorLayout(context.Context) (schema.EditorGroupLayout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout, nil
}

func (e *fakeEditor) CloseAllEditors(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "close")
	if e.closeErr != nil {
		return e.closeErr
	}
	for i := range e.groups {
		e.groups[i].Tabs = nil
		e.groups[i].ActiveTab = -1
	}
	return nil
}

func (e *fakeEditor) SetEditorLayout(_ context.Context, layout schema.EditorGroupLayout) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "layout")
	if e.layoutErr != nil {
		return e.layoutErr
	}
	e.layout = layout
	e.groups = make([]LiveTabGroup, layout.LeafCount())
	for i := range e.groups {
		e.groups[i] = LiveTabGroup{ViewColumn: schema.ViewColumn(i + 1), ActiveTab: -1}
	}
	return nil
}

func (e *fakeEditor) OpenText(_ context.Context, uri string, opts OpenOptions) error {
	e.mu.Lock()
	delay := e.delay[uri]
	e.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "open "+uri)
	e.opens = append(e.opens, openCall{URI: uri, Opts: opts})
	if err := e.fail[uri]; err != nil {
		return err
	}
	idx := int(opts.ViewColumn) - 1
	if idx < 0 || idx >= len(e.groups) {
		return fmt.Errorf("no pane %d", opts.ViewColumn)
	}
	group := &e.groups[idx]
	group.Tabs = append(group.Tabs, LiveTab{Input: TextInput{URI: uri}, IsPreview: opts.Preview})
	group.ActiveTab = len(group.Tabs) - 1
	return nil
}

func (e *fakeEditor) openOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.opens))
	for i, call := range e.opens {
		out[i] = call.URI
	}
	return out
}

type recordingSink struct {
	mu      sync.Mutex
	layouts int
	active  []schema.LayoutName
}

func (s *recordingSink) OnLayoutsChanged(schema.LayoutsChangedEvent) {
	s.mu.Lock()
	s.layouts++
	s.mu.Unlock()
}

func (s *recordingSink) OnActiveLayoutChanged(event schema.ActiveLayoutChangedEvent) {
	s.mu.Lock()
	s.active = append(s.active, event.Name)
	s.mu.Unlock()
}

func (s *recordingSink) counts() (int, []schema.LayoutName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layouts, append([]schema.LayoutName(nil), s.active...)
}

type testEnv struct {
	root   string
	editor *fakeEditor
	sink   *recordingSink
	clock  *clock.FakeClock
	svc    Service
}

func newTestEnv(t *testing.T, cfg schema.ServiceConfig) *testEnv {
	t.Helper()
	root := t.TempDir()
	if cfg.StateDir == "" {
		cfg.StateDir = t.TempDir()
	}
	env := &testEnv{
		root:   root,
		editor: newFakeEditor(root),
		sink:   &recordingSink{},
		clock:  clock.Fake(time.UnixMilli(1_700_000_000_000)),
	}
	svc, err := NewService(cfg, ServiceDeps{
		Editor:    env.editor,
		EventSink: env.sink,
		Clock:     env.clock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env.svc = svc
	return env
}

func (env *testEnv) uri(rel string) string {
	return FileURI(filepath.Join(env.root, filepath.FromSlash(rel)))
}

func (env *testEnv) textSnapshot(timestamp int64, uris ...string) schema.LayoutSnapshot {
	tabs := make([]schema.TabSnapshot, 0, len(uris))
	for _, uri := range uris {
		tabs = append(tabs, schema.TabSnapshot{Input: schema.TabInputText{URI: uri}})
	}
	return schema.LayoutSnapshot{
		Timestamp: timestamp,
		TabGroups: []schema.TabGroupSnapshot{{ViewColumn: 1, Tabs: tabs}},
		EditorLayout: schema.EditorGroupLayout{
			Groups: []schema.GroupLayout{{}},
		},
	}
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) Entries() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(c.buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		entry := logEntry{Fields: payload}
		if value, ok := payload["level"].(string); ok {
			entry.Level = value
		} else if value, ok := payload["lvl"].(string); ok {
			entry.Level = value
		}
		if value, ok := payload["message"].(string); ok {
			entry.Message = value
		} else if value, ok := payload["msg"].(string); ok {
			entry.Message = value
		}
		entries = append(entries, entry)
	}
	return entries
}

func (c *logCapture) has(message string) bool {
	for _, entry := range c.Entries() {
		if entry.Message == message {
			return true
		}
	}
	return false
}

func captureContext(capture *logCapture) context.Context {
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.TraceLevel,
	})
	return pslog.ContextWithLogger(context.Background(), logger)
}
