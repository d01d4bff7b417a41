package core

import (
	"context"

	"pkt.systems/tabstack/schema"
)

// Snapshot captures the active tab, the local stacks of materialised tabs
// and, when cross-tab history is enabled, the unified history.
func (n *Navigator) Snapshot() schema.NavSnapshot {
	snap := schema.NavSnapshot{ActiveTab: n.active}
	if n.cfg.CrossTabHistory {
		snap.History = n.history.Entries()
		if snap.History == nil {
			snap.History = []schema.HistoryEntry{}
		}
	}
	for _, id := range n.order {
		ids := n.observedStack(n.tabs[id])
		if len(ids) == 0 {
			continue
		}
		if snap.Stacks == nil {
			snap.Stacks = make(map[schema.TabID][]schema.LocalID)
		}
		snap.Stacks[id] = ids
	}
	return snap
}

// Restore replaces the unified history with the snapshot's history when
// cross-tab history is enabled. The active tab is left to the caller, which
// passes snap.ActiveTab to InitNavigation; the host is expected to have
// rebuilt the local stacks from snap.Stacks before this call.
//
// The restored history is reconciled against what the host actually holds:
// entries naming unregistered tabs are dropped, screen entries must match the
// owning tab's stack in order, a trailing switch to the active tab is
// discarded, and stack entries with no screen entry are appended so every
// tab's screen entries equal its stack.
func (n *Navigator) Restore(ctx context.Context, snap schema.NavSnapshot) {
	if !n.cfg.CrossTabHistory {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	matched := make(map[schema.TabID]int)
	stacks := make(map[schema.TabID][]schema.LocalID)
	kept := make([]schema.HistoryEntry, 0, len(snap.History))
	dropped := 0
	for _, entry := range snap.History {
		t, ok := n.tabs[entry.TabID]
		if !ok {
			dropped++
			continue
		}
		switch entry.Kind {
		case schema.EntrySwitch:
			kept = append(kept, entry)
		case schema.EntryScreen:
			if !n.cfg.RecordScreenPushes {
				dropped++
				continue
			}
			ids, seen := stacks[t.ID]
			if !seen {
				n.materialize(ctx, t)
				ids = n.observedStack(t)
				stacks[t.ID] = ids
			}
			next := matched[t.ID]
			if next >= len(ids) || ids[next] != entry.LocalID {
				dropped++
				continue
			}
			matched[t.ID] = next + 1
			kept = append(kept, entry)
		default:
			dropped++
		}
	}
	for len(kept) > 0 {
		last := kept[len(kept)-1]
		if !last.IsSwitch() || last.TabID != n.active {
			break
		}
		kept = kept[:len(kept)-1]
		dropped++
	}

	appended := 0
	if n.cfg.RecordScreenPushes {
		for _, id := range n.restoreOrder() {
			t := n.tabs[id]
			ids, seen := stacks[id]
			if !seen {
				if len(snap.Stacks[id]) > 0 {
					n.materialize(ctx, t)
				}
				ids = n.observedStack(t)
			}
			for _, local := range ids[matched[id]:] {
				kept = append(kept, schema.ScreenEntry(local, id))
				appended++
			}
		}
	}

	n.history = newUnifiedHistoryFromPersisted(kept)
	switch {
	case dropped > 0 || appended > 0:
		n.logger.Warn("nav restore reconciled history", "dropped", dropped, "appended", appended, "kept", len(kept))
	default:
		n.logger.Debug("nav history restored", "entries", len(kept))
	}
	n.emit(schema.NavEvent{Type: schema.NavEventRestored})
	n.updateClaim()
}

// restoreOrder lists tabs in registration order with the active tab last, so
// appended screen entries of the active tab end up at the tail.
func (n *Navigator) restoreOrder() []schema.TabID {
	out := make([]schema.TabID, 0, len(n.order))
	for _, id := range n.order {
		if id != n.active {
			out = append(out, id)
		}
	}
	return append(out, n.active)
}

// observedStack returns the tab's stack as last seen by its tracker, or as
// reported by the stack when the tab is not tracked.
func (n *Navigator) observedStack(t *tab) []schema.LocalID {
	if t == nil {
		return nil
	}
	if t.tracker != nil {
		return append([]schema.LocalID(nil), t.tracker.last...)
	}
	if t.screen == nil {
		return nil
	}
	stack := t.screen.Stack()
	if stack == nil {
		return nil
	}
	return stack.IDs()
}
