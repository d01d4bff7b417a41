package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestTabAddsField(t *testing.T) {
	capture := &logCapture{}
	Tab(newCaptureLogger(capture), "home").Info("hello")

	entry := capture.firstEntry(t)
	if entry["tab"] != "home" {
		t.Fatalf("expected tab field, got %+v", entry)
	}
}

func TestScopeSkipsEmptyFields(t *testing.T) {
	capture := &logCapture{}
	Scope{Tab: "search"}.Apply(newCaptureLogger(capture)).Info("hello")

	entry := capture.firstEntry(t)
	for _, key := range []string{"user", "session"} {
		if _, ok := entry[key]; ok {
			t.Fatalf("did not expect %s field, got %+v", key, entry)
		}
	}
	if got := (Scope{}).Fields(); len(got) != 0 {
		t.Fatalf("expected no fields for empty scope, got %v", got)
	}
}

func TestCtxSkipsFieldsAlreadyOnContext(t *testing.T) {
	capture := &logCapture{}
	ctx := ContextWithScope(context.Background(), newCaptureLogger(capture), Scope{User: "alice", Session: "s1"})
	Ctx(ctx, Scope{User: "alice", Session: "s1", Tab: "home"}).Info("hello")

	line := capture.buf.String()
	for _, key := range []string{`"user"`, `"session"`, `"tab"`} {
		if n := bytes.Count([]byte(line), []byte(key)); n != 1 {
			t.Fatalf("expected a single %s field, got %d in %s", key, n, line)
		}
	}
}

func TestContextWithScopeNests(t *testing.T) {
	capture := &logCapture{}
	ctx := ContextWithScope(context.Background(), newCaptureLogger(capture), Scope{User: "alice"})
	ctx = ContextWithScope(ctx, pslog.Ctx(ctx), Scope{User: "alice", Session: "s1"})
	Ctx(ctx, Scope{User: "alice"}).Info("hello")

	entry := capture.firstEntry(t)
	if entry["user"] != "alice" || entry["session"] != "s1" {
		t.Fatalf("expected user and session fields, got %+v", entry)
	}
	if n := bytes.Count(capture.buf.Bytes(), []byte(`"user"`)); n != 1 {
		t.Fatalf("expected a single user field, got %d", n)
	}
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
