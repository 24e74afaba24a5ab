package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, dir string) (*Watcher, <-chan struct{}) {
	t.Helper()
	changes := make(chan struct{}, 64)
	w, err := New(dir, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, Options{Ext: "json"})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	w.Start()
	<-w.Ready()
	return w, changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for change notification")
	}
}

func drain(changes <-chan struct{}) {
	for {
		select {
		case <-changes:
		default:
			return
		}
	}
}

func TestWatcherReportsLayoutFiles(t *testing.T) {
	dir := t.TempDir()
	_, changes := newTestWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "work.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitChange(t, changes)
	drain(changes)

	if err := os.Rename(filepath.Join(dir, "work.json"), filepath.Join(dir, "home.json")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitChange(t, changes)
	drain(changes)

	if err := os.Remove(filepath.Join(dir, "home.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitChange(t, changes)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, changes := newTestWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".tmp-123"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-changes:
		t.Fatalf("unexpected notification for unrelated files")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherFollowsMissingDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".vscode", "layouts")
	w, changes := newTestWatcher(t, dir)
	if w.Watched() != root {
		t.Fatalf("expected ancestor %q to be watched, got %q", root, w.Watched())
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	waitChange(t, changes)
	deadline := time.Now().Add(5 * time.Second)
	for w.Watched() != dir {
		if time.Now().After(deadline) {
			t.Fatalf("expected watch to move to %q, got %q", dir, w.Watched())
		}
		time.Sleep(10 * time.Millisecond)
	}
	drain(changes)

	if err := os.WriteFile(filepath.Join(dir, "work.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitChange(t, changes)
}

func TestCloseWithoutStart(t *testing.T) {
	w, err := New(t.TempDir(), func() {}, Options{})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestIsAncestor(t *testing.T) {
	if !isAncestor("/a", "/a/b/c") {
		t.Fatalf("expected /a to be an ancestor")
	}
	if isAncestor("/a/b/c", "/a/b/c") {
		t.Fatalf("a path is not its own ancestor")
	}
	if isAncestor("/a/x", "/a/b/c") {
		t.Fatalf("sibling is not an ancestor")
	}
}
