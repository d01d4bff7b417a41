package core

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

type fakeStack struct {
	ids   []schema.LocalID
	saved bool
	subs  map[int]func([]schema.LocalID)
	seq   int
}

func newFakeStack() *fakeStack {
	return &fakeStack{subs: map[int]func([]schema.LocalID){}}
}

func (s *fakeStack) IDs() []schema.LocalID { return append([]schema.LocalID(nil), s.ids...) }
func (s *fakeStack) Len() int              { return len(s.ids) }
func (s *fakeStack) StateSaved() bool      { return s.saved }

func (s *fakeStack) Pop() bool {
	if s.saved || len(s.ids) == 0 {
		return false
	}
	s.ids = s.ids[:len(s.ids)-1]
	s.notify()
	return true
}

func (s *fakeStack) push(ids ...schema.LocalID) {
	s.ids = append(s.ids, ids...)
	s.notify()
}

func (s *fakeStack) popN(n int) {
	s.ids = s.ids[:len(s.ids)-n]
	s.notify()
}

func (s *fakeStack) Subscribe(fn func([]schema.LocalID)) func() {
	s.seq++
	id := s.seq
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *fakeStack) notify() {
	for _, fn := range s.subs {
		fn(s.IDs())
	}
}

type fakeScreen struct {
	stack *fakeStack
}

func (s *fakeScreen) Stack() LocalStack { return s.stack }

type fakeHost struct {
	mounted  map[schema.TabID]Screen
	primary  *FocusToken
	attaches []schema.TabID
	detaches []schema.TabID
}

func newFakeHost() *fakeHost {
	return &fakeHost{mounted: map[schema.TabID]Screen{}}
}

func (h *fakeHost) Attach(tab schema.TabID, screen Screen) {
	h.mounted[tab] = screen
	h.attaches = append(h.attaches, tab)
}

func (h *fakeHost) Detach(tab schema.TabID, screen Screen) {
	delete(h.mounted, tab)
	h.detaches = append(h.detaches, tab)
}

func (h *fakeHost) SetPrimary(token *FocusToken) { h.primary = token }

type fakeDispatcher struct {
	handlers  []BackHandler
	defaults  int
	onDefault func()
}

func (d *fakeDispatcher) Register(h BackHandler) {
	for _, existing := range d.handlers {
		if existing == h {
			return
		}
	}
	d.handlers = append(d.handlers, h)
}

func (d *fakeDispatcher) Unregister(h BackHandler) {
	for i, existing := range d.handlers {
		if existing == h {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

func (d *fakeDispatcher) DispatchDefault(context.Context) {
	d.defaults++
	if d.onDefault != nil {
		d.onDefault()
	}
}

// back mirrors a host: claims first, then default handling.
func (d *fakeDispatcher) back(ctx context.Context) {
	if len(d.handlers) > 0 {
		d.handlers[len(d.handlers)-1].HandleBack(ctx)
		return
	}
	d.DispatchDefault(ctx)
}

type harness struct {
	nav        *Navigator
	host       *fakeHost
	dispatcher *fakeDispatcher
	screens    map[schema.TabID]*fakeScreen
	events     []schema.NavEvent
	logs       *logCapture
	// seed prefills the stack of a screen when the factory builds it.
	seed map[schema.TabID][]schema.LocalID
}

type harnessOption func(*NavigatorDeps)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		host:       newFakeHost(),
		dispatcher: &fakeDispatcher{},
		screens:    map[schema.TabID]*fakeScreen{},
		logs:       newLogCapture(t),
	}
	logger := pslog.NewWithOptions(h.logs, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.DebugLevel,
		VerboseFields: true,
	})
	deps := NavigatorDeps{
		Host:       h.host,
		Dispatcher: h.dispatcher,
		EventSink:  EventSinkFunc(func(ev schema.NavEvent) { h.events = append(h.events, ev) }),
		Logger:     logger,
		SessionID:  "test-session",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	nav, err := NewNavigator(deps)
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	h.nav = nav
	return h
}

func (h *harness) tabs(ids ...schema.TabID) []Tab {
	out := make([]Tab, 0, len(ids))
	for _, id := range ids {
		out = append(out, Tab{ID: id, Factory: h.factory})
	}
	return out
}

func (h *harness) factory(_ context.Context, id schema.TabID) (Screen, error) {
	screen := &fakeScreen{stack: newFakeStack()}
	screen.stack.ids = append(screen.stack.ids, h.seed[id]...)
	h.screens[id] = screen
	return screen, nil
}

func (h *harness) init(t *testing.T, cfg schema.Configuration, initial schema.TabID, ids ...schema.TabID) {
	t.Helper()
	if err := h.nav.InitNavigation(context.Background(), h.tabs(ids...), cfg, initial); err != nil {
		t.Fatalf("init navigation: %v", err)
	}
}

func (h *harness) selectTab(t *testing.T, id schema.TabID) {
	t.Helper()
	ok, err := h.nav.SelectTab(context.Background(), id)
	if err != nil {
		t.Fatalf("select %s: %v", id, err)
	}
	if !ok {
		t.Fatalf("select %s was vetoed", id)
	}
}

func (h *harness) stack(t *testing.T, id schema.TabID) *fakeStack {
	t.Helper()
	screen := h.screens[id]
	if screen == nil {
		t.Fatalf("tab %s has no screen", id)
	}
	return screen.stack
}

func (h *harness) eventsOf(kind schema.NavEventType) []schema.NavEvent {
	var out []schema.NavEvent
	for _, ev := range h.events {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

func assertHistory(t *testing.T, nav *Navigator, want ...schema.HistoryEntry) {
	t.Helper()
	got := nav.History()
	if len(got) != len(want) {
		t.Fatalf("expected history %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected history %v, got %v", want, got)
		}
	}
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type logCapture struct {
	t     *testing.T
	mu    sync.Mutex
	buf   bytes.Buffer
	lines []string
}

func newLogCapture(t *testing.T) *logCapture {
	t.Helper()
	return &logCapture{t: t}
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.buf.Write(p)
	for {
		data := c.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		c.lines = append(c.lines, string(data[:idx]))
		c.buf.Next(idx + 1)
	}
	return len(p), nil
}

func (c *logCapture) Entries() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]logEntry, 0, len(c.lines))
	for _, line := range c.lines {
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

func (c *logCapture) find(message string) (logEntry, bool) {
	for _, entry := range c.Entries() {
		if entry.Message == message {
			return entry, true
		}
	}
	return logEntry{}, false
}
