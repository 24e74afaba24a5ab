package command

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

type fakeService struct {
	mu          sync.Mutex
	unavailable bool
	root        string
	layouts     map[schema.LayoutName]schema.LayoutSnapshot
	order       []schema.LayoutName
	active      schema.LayoutName
	calls       []string
	snapshotFn  func(ctx context.Context) (schema.LayoutSnapshot, error)
	restoreFn   func(ctx context.Context, snapshot schema.LayoutSnapshot) error
	renameErr   error
	onCall      func(ctx context.Context, call string)
}

func newFakeService() *fakeService {
	return &fakeService{root: "/work", layouts: map[schema.LayoutName]schema.LayoutSnapshot{}}
}

func (f *fakeService) record(ctx context.Context, call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(ctx, call)
	}
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) Available(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unavailable
}

func (f *fakeService) WorkspaceRoot(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return "", schema.ErrUnavailable
	}
	return f.root, nil
}

func (f *fakeService) LayoutsDir(context.Context) (string, error) {
	return f.root + "/.vscode/layouts", nil
}

func (f *fakeService) TakeSnapshot(ctx context.Context) (schema.LayoutSnapshot, error) {
	f.record(ctx, "snapshot")
	if f.snapshotFn != nil {
		return f.snapshotFn(ctx)
	}
	return schema.LayoutSnapshot{Timestamp: 1}, nil
}

func (f *fakeService) RestoreLayout(ctx context.Context, snapshot schema.LayoutSnapshot) error {
	f.record(ctx, "restore")
	if f.restoreFn != nil {
		return f.restoreFn(ctx, snapshot)
	}
	return nil
}

func (f *fakeService) ActiveLayout(context.Context) (schema.LayoutName, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.active != ""
}

func (f *fakeService) SetActiveLayout(ctx context.Context, name schema.LayoutName) error {
	f.record(ctx, "active "+string(name))
	f.mu.Lock()
	f.active = name
	f.mu.Unlock()
	return nil
}

func (f *fakeService) Enabled(ctx context.Context) bool {
	_, ok := f.ActiveLayout(ctx)
	return ok
}

func (f *fakeService) ListLayouts(_ context.Context, sort schema.SortMethod) []schema.LayoutName {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]schema.LayoutName(nil), f.order...)
	if sort == schema.SortByName {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && out[j] < out[j-1]; j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	return out
}

func (f *fakeService) HasLayout(_ context.Context, name schema.LayoutName) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.layouts[name]
	return ok
}

func (f *fakeService) GetLayout(_ context.Context, name schema.LayoutName) (schema.LayoutSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.layouts[name]
	return snapshot, ok
}

func (f *fakeService) PutLayout(ctx context.Context, name schema.LayoutName, snapshot schema.LayoutSnapshot) error {
	f.record(ctx, "put "+string(name))
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.layouts[name]; !ok {
		f.order = append(f.order, name)
	}
	f.layouts[name] = snapshot
	return nil
}

func (f *fakeService) DeleteLayout(ctx context.Context, name schema.LayoutName) bool {
	f.record(ctx, "delete "+string(name))
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.layouts[name]; !ok {
		return false
	}
	delete(f.layouts, name)
	for i, existing := range f.order {
		if existing == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true
}

func (f *fakeService) RenameLayout(ctx context.Context, name, newName schema.LayoutName) error {
	f.record(ctx, "rename "+string(name)+" "+string(newName))
	if f.renameErr != nil {
		return f.renameErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.layouts[name]
	if !ok {
		return schema.ErrLayoutNotFound
	}
	delete(f.layouts, name)
	f.layouts[newName] = snapshot
	for i, existing := range f.order {
		if existing == name {
			f.order[i] = newName
		}
	}
	return nil
}

func (f *fakeService) seed(names ...schema.LayoutName) {
	for _, name := range names {
		_ = f.PutLayout(context.Background(), name, schema.LayoutSnapshot{Timestamp: 1})
	}
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

type fakePrompter struct {
	value    string
	ok       bool
	err      error
	requests []NamePrompt
}

func (p *fakePrompter) PromptName(_ context.Context, req NamePrompt) (string, bool, error) {
	p.requests = append(p.requests, req)
	return p.value, p.ok, p.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (n *fakeNotifier) ShowError(_ context.Context, message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func (n *fakeNotifier) ShowInfo(_ context.Context, message string) {
	n.mu.Lock()
	n.infos = append(n.infos, message)
	n.mu.Unlock()
}

type countingSink struct {
	mu      sync.Mutex
	layouts int
}

func (s *countingSink) OnLayoutsChanged(schema.LayoutsChangedEvent) {
	s.mu.Lock()
	s.layouts++
	s.mu.Unlock()
}

func (s *countingSink) OnActiveLayoutChanged(schema.ActiveLayoutChangedEvent) {}

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

func captureContext(capture *logCapture) context.Context {
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
		MinLevel:      pslog.TraceLevel,
	})
	return pslog.ContextWithLogger(context.Background(), logger)
}
