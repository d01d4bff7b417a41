package core

import (
	"context"
	"testing"

	"pkt.systems/tabstack/schema"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := schema.NewConfiguration(true, true, false)
	h := newHarness(t)
	h.init(t, cfg, home, home, search, settings)
	h.stack(t, home).push(1, 2)
	h.selectTab(t, search)
	h.stack(t, search).push(1)
	h.selectTab(t, settings)
	snap := h.nav.Snapshot()
	if snap.ActiveTab != settings || len(snap.History) != 5 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Stacks[home]) != 2 || len(snap.Stacks[search]) != 1 || len(snap.Stacks) != 2 {
		t.Fatalf("unexpected stacks %+v", snap.Stacks)
	}

	restored := newHarness(t)
	restored.seed = snap.Stacks
	restored.init(t, cfg, snap.ActiveTab, home, search, settings)
	restored.nav.Restore(context.Background(), snap)
	again := restored.nav.Snapshot()
	if again.ActiveTab != snap.ActiveTab {
		t.Fatalf("expected active tab %s, got %s", snap.ActiveTab, again.ActiveTab)
	}
	assertHistory(t, restored.nav, snap.History...)
	if !restored.nav.IsIntercepting() || len(restored.dispatcher.handlers) != 1 {
		t.Fatalf("expected restored switch tail to claim back")
	}
	if len(restored.eventsOf(schema.NavEventRestored)) != 1 {
		t.Fatalf("expected restored event")
	}

	restored.nav.Restore(context.Background(), again)
	assertHistory(t, restored.nav, snap.History...)
}

func TestSnapshotOmitsHistoryWhenDisabled(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(true, false, false), home, home, search)
	h.selectTab(t, search)
	snap := h.nav.Snapshot()
	if snap.History != nil || snap.ActiveTab != search {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: search,
		History:   []schema.HistoryEntry{schema.SwitchEntry(home)},
	})
	assertHistory(t, h.nav)
}

func TestSnapshotOfEmptyHistoryIsNotNil(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(false, true, false), home, home)
	if snap := h.nav.Snapshot(); snap.History == nil {
		t.Fatalf("expected empty non-nil history")
	}
}

func TestRestoreDropsUnknownTabs(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(false, true, false), home, home, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: home,
		History: []schema.HistoryEntry{
			schema.SwitchEntry(search),
			schema.SwitchEntry("gone"),
			schema.ScreenEntry(3, "gone"),
		},
	})
	assertHistory(t, h.nav, schema.SwitchEntry(search))
	entry, ok := h.logs.find("nav restore reconciled history")
	if !ok {
		t.Fatalf("expected stale restore log")
	}
	if dropped, _ := entry.Fields["dropped"].(float64); dropped != 2 {
		t.Fatalf("expected dropped=2, got %+v", entry.Fields)
	}
}

func TestRestoreNilHistoryClears(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(false, true, false), home, home, search)
	h.selectTab(t, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{ActiveTab: search})
	assertHistory(t, h.nav)
	if len(h.dispatcher.handlers) != 0 {
		t.Fatalf("expected claim withdrawn")
	}
}

func TestRestoreDropsScreensMissingFromStacks(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(true, true, false), search, home, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: search,
		History:   []schema.HistoryEntry{schema.ScreenEntry(1, home), schema.SwitchEntry(home)},
	})
	assertHistory(t, h.nav, schema.SwitchEntry(home))

	h.dispatcher.back(context.Background())
	if h.nav.ActiveTab() != home {
		t.Fatalf("expected switch back to %s", home)
	}
	h.dispatcher.back(context.Background())
	if h.dispatcher.defaults != 1 || h.nav.CanHandleBack() {
		t.Fatalf("expected fallthrough with nothing left, defaults=%d", h.dispatcher.defaults)
	}
	assertHistory(t, h.nav)
}

func TestRestoreRebuildsFromSeededStacks(t *testing.T) {
	h := newHarness(t)
	h.seed = map[schema.TabID][]schema.LocalID{home: {1}}
	h.init(t, schema.NewConfiguration(true, true, false), search, home, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: search,
		History:   []schema.HistoryEntry{schema.ScreenEntry(1, home), schema.SwitchEntry(home)},
		Stacks:    map[schema.TabID][]schema.LocalID{home: {1}},
	})
	assertHistory(t, h.nav, schema.ScreenEntry(1, home), schema.SwitchEntry(home))

	h.dispatcher.back(context.Background())
	h.stack(t, home).popN(1)
	assertHistory(t, h.nav)
	if len(h.eventsOf(schema.NavEventInvariant)) != 0 {
		t.Fatalf("unexpected invariant violation")
	}
}

func TestRestoreAppendsUnrecordedStackEntries(t *testing.T) {
	h := newHarness(t)
	h.seed = map[schema.TabID][]schema.LocalID{home: {1, 2}, search: {5}}
	h.init(t, schema.NewConfiguration(true, true, false), home, home, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: home,
		History:   []schema.HistoryEntry{schema.ScreenEntry(1, home)},
		Stacks:    map[schema.TabID][]schema.LocalID{home: {1, 2}, search: {5}},
	})
	assertHistory(t, h.nav,
		schema.ScreenEntry(1, home),
		schema.ScreenEntry(5, search),
		schema.ScreenEntry(2, home),
	)
	h.stack(t, home).popN(2)
	assertHistory(t, h.nav, schema.ScreenEntry(5, search))
}

func TestRestoreDiscardsTrailingSwitchToActiveTab(t *testing.T) {
	h := newHarness(t)
	h.init(t, schema.NewConfiguration(false, true, false), home, home, search)
	h.nav.Restore(context.Background(), schema.NavSnapshot{
		ActiveTab: "gone",
		History:   []schema.HistoryEntry{schema.SwitchEntry(search), schema.SwitchEntry(home)},
	})
	assertHistory(t, h.nav, schema.SwitchEntry(search))
	if !h.nav.IsIntercepting() {
		t.Fatalf("expected claim on remaining switch")
	}
}
