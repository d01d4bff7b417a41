package core

import "pkt.systems/tabstack/schema"

// unifiedHistory is the merged, chronologically ordered record of screen
// pushes and tab switches across all tabs.
type unifiedHistory struct {
	entries []schema.HistoryEntry
}

func newUnifiedHistory() *unifiedHistory {
	return &unifiedHistory{}
}

func newUnifiedHistoryFromPersisted(entries []schema.HistoryEntry) *unifiedHistory {
	h := newUnifiedHistory()
	if len(entries) == 0 {
		return h
	}
	h.entries = append([]schema.HistoryEntry(nil), entries...)
	return h
}

func (h *unifiedHistory) Append(entry schema.HistoryEntry) {
	if h == nil {
		return
	}
	h.entries = append(h.entries, entry)
}

// RemoveLastOccurrence deletes the most recent entry equal to entry. It
// reports false when no entry matches.
func (h *unifiedHistory) RemoveLastOccurrence(entry schema.HistoryEntry) bool {
	if h == nil {
		return false
	}
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i] != entry {
			continue
		}
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
		return true
	}
	return false
}

func (h *unifiedHistory) Last() (schema.HistoryEntry, bool) {
	if h == nil || len(h.entries) == 0 {
		return schema.HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h *unifiedHistory) PopLast() (schema.HistoryEntry, bool) {
	last, ok := h.Last()
	if !ok {
		return last, false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

func (h *unifiedHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

func (h *unifiedHistory) Clear() {
	if h == nil {
		return
	}
	h.entries = nil
}

func (h *unifiedHistory) Entries() []schema.HistoryEntry {
	if h == nil {
		return nil
	}
	return append([]schema.HistoryEntry(nil), h.entries...)
}
