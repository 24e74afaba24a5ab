package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/tablayout/schema"
)

func TestWithLayoutAddsField(t *testing.T) {
	capture := &logCapture{}
	logger := newTestLogger(capture)
	log := WithLayout(logger, "work")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["layout"] != "work" {
		t.Fatalf("expected layout field, got %+v", entry)
	}
}

func TestWithLayoutSkipsEmpty(t *testing.T) {
	capture := &logCapture{}
	logger := newTestLogger(capture)
	WithLayout(logger, "").Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["layout"]; ok {
		t.Fatalf("did not expect layout field for empty name")
	}
}

func TestWithCommandAddsFields(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newTestLogger(capture))
	log := WithCommand(ctx, schema.CommandLoad, "inv-1")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["command"] != string(schema.CommandLoad) {
		t.Fatalf("expected command field, got %+v", entry)
	}
	if entry["invocation"] != "inv-1" {
		t.Fatalf("expected invocation field, got %+v", entry)
	}
}

func TestWithWorkspaceDeduplicates(t *testing.T) {
	capture := &logCapture{}
	logger := newTestLogger(capture)
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	log := WithWorkspace(ctx, "/work")
	ctx = ContextWithWorkspaceLogger(ctx, log, "/work")
	WithWorkspace(ctx, "/work").Info("hello")

	line := capture.buf.String()
	if n := bytes.Count([]byte(line), []byte(`"workspace"`)); n != 1 {
		t.Fatalf("expected one workspace field, got %d in %s", n, line)
	}
}

func newTestLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
