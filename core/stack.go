package core

import "pkt.systems/tabstack/schema"

// stackTracker diffs successive snapshots of one tab's local stack.
type stackTracker struct {
	tabID  schema.TabID
	last   []schema.LocalID
	cancel func()
}

// StackDelta splits the change between two stack snapshots into pushed ids
// (oldest first, taken from next) and popped ids (oldest first, taken from
// prev). Only the size difference is considered, matching how a stack
// reports changes.
func StackDelta(prev, next []schema.LocalID) (pushed, popped []schema.LocalID) {
	delta := len(next) - len(prev)
	switch {
	case delta > 0:
		pushed = append(pushed, next[len(next)-delta:]...)
	case delta < 0:
		popped = append(popped, prev[len(prev)+delta:]...)
	}
	return pushed, popped
}

func (n *Navigator) track(t *tab) {
	if t == nil || t.screen == nil || !n.cfg.RecordScreenPushes {
		return
	}
	stack := t.screen.Stack()
	if stack == nil {
		return
	}
	n.untrack(t)
	tracker := &stackTracker{tabID: t.ID, last: stack.IDs()}
	tracker.cancel = stack.Subscribe(func(ids []schema.LocalID) {
		n.applyStackChange(tracker, ids)
	})
	t.tracker = tracker
	n.logger.Trace("nav stack tracked", "tab", t.ID, "depth", len(tracker.last))
}

func (n *Navigator) untrack(t *tab) {
	if t == nil || t.tracker == nil {
		return
	}
	if t.tracker.cancel != nil {
		t.tracker.cancel()
	}
	t.tracker = nil
}

func (n *Navigator) applyStackChange(tracker *stackTracker, ids []schema.LocalID) {
	next := append([]schema.LocalID(nil), ids...)
	pushed, popped := StackDelta(tracker.last, next)
	tracker.last = next
	if len(pushed) == 0 && len(popped) == 0 {
		return
	}
	log := n.logger.With("tab", tracker.tabID)
	for _, id := range pushed {
		n.history.Append(schema.ScreenEntry(id, tracker.tabID))
		log.Trace("nav screen pushed", "local_id", id)
	}
	for _, id := range popped {
		entry := schema.ScreenEntry(id, tracker.tabID)
		if n.history.RemoveLastOccurrence(entry) {
			log.Trace("nav screen popped", "local_id", id)
			continue
		}
		log.Warn("nav history invariant violation", "err", schema.ErrInvariantViolation, "local_id", id, "history_len", n.history.Len())
		n.emit(schema.NavEvent{Type: schema.NavEventInvariant, From: tracker.tabID, Entry: &entry})
	}
	n.historyChanged()
}
