package sshserver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/schema"
)

func TestHostKeyCreatesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "host")
	first, err := HostKey(path, nil)
	if err != nil {
		t.Fatalf("create host key: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat host key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 host key, got %v", perm)
	}
	second, err := HostKey(path, nil)
	if err != nil {
		t.Fatalf("reload host key: %v", err)
	}
	if !bytes.Equal(first.PublicKey().Marshal(), second.PublicKey().Marshal()) {
		t.Fatalf("expected the same key after reload")
	}
	if _, err := HostKey(" ", nil); !errors.Is(err, ErrHostKeyPath) {
		t.Fatalf("expected ErrHostKeyPath, got %v", err)
	}
}

func TestHostKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := HostKey(path, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenSessionStartsOnHomeTab(t *testing.T) {
	users, err := auth.Open(filepath.Join(t.TempDir(), "users.json"), nil)
	if err != nil {
		t.Fatalf("open users: %v", err)
	}
	for _, acct := range []auth.Account{{Name: "alice", HomeTab: "search"}, {Name: "carol", HomeTab: "gone"}} {
		if err := users.Create(acct); err != nil {
			t.Fatalf("create %s: %v", acct.Name, err)
		}
	}
	srv := &Server{Backend: persist.NewMemoryBackend(), Users: users}
	srv.SetSettings(Settings{Tabs: []schema.TabInfo{{ID: "home"}, {ID: "search"}}, Navigation: schema.DefaultConfiguration()})

	cases := []struct {
		user schema.UserID
		want schema.TabID
	}{
		{user: "alice", want: "search"},
		{user: "carol", want: "home"},
		{user: "dave", want: "home"},
	}
	for _, tc := range cases {
		session, err := srv.openSession(context.Background(), tc.user, "s1")
		if err != nil {
			t.Fatalf("open session for %s: %v", tc.user, err)
		}
		if got := session.Nav.ActiveTab(); got != tc.want {
			t.Fatalf("%s: expected %s active, got %s", tc.user, tc.want, got)
		}
		session.Close()
	}

	if err := srv.Backend.Save(context.Background(), "alice", schema.NavSnapshot{ActiveTab: "home", History: []schema.HistoryEntry{}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	session, err := srv.openSession(context.Background(), "alice", "s2")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()
	if session.Nav.ActiveTab() != "home" {
		t.Fatalf("expected stored tab to win over home tab")
	}
}

func TestOpenSessionRestoresStoredState(t *testing.T) {
	backend := persist.NewMemoryBackend()
	ctx := pslog.ContextWithLogger(context.Background(), pslog.NewWithOptions(&bytes.Buffer{}, pslog.Options{Mode: pslog.ModeStructured, NoColor: true}))
	stored := schema.NavSnapshot{ActiveTab: "search", History: []schema.HistoryEntry{schema.SwitchEntry("home")}}
	if err := backend.Save(ctx, "alice", stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := &Server{Backend: backend, Metrics: metrics.New()}
	srv.SetSettings(Settings{
		Tabs:       []schema.TabInfo{{ID: "home"}, {ID: "search"}},
		Navigation: schema.NewConfiguration(false, true, false),
	})

	session, err := srv.openSession(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()
	if session.Nav.ActiveTab() != "search" || !session.Nav.IsIntercepting() {
		t.Fatalf("expected restored session")
	}

	session.Back(ctx)
	if err := srv.save(ctx, "alice", session.Nav.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, err := backend.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ActiveTab != "home" || len(got.History) != 0 {
		t.Fatalf("unexpected stored snapshot %+v", got)
	}
}

func TestOpenSessionFreshForNewUser(t *testing.T) {
	srv := &Server{Backend: persist.NewMemoryBackend()}
	srv.SetSettings(Settings{Tabs: []schema.TabInfo{{ID: "home"}}, Navigation: schema.DefaultConfiguration()})
	session, err := srv.openSession(context.Background(), "bob", "s2")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()
	if session.Nav.ActiveTab() != "home" {
		t.Fatalf("expected first tab active")
	}
}
