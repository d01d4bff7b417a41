package schema

// NavSnapshot is the persistable navigation state. History is nil when
// cross-tab history was disabled at capture time. Stacks holds the local
// stack of every materialised tab that has one, bottom first.
type NavSnapshot struct {
	ActiveTab TabID               `json:"active_tab"`
	History   []HistoryEntry      `json:"history"`
	Stacks    map[TabID][]LocalID `json:"stacks,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s NavSnapshot) Clone() NavSnapshot {
	out := NavSnapshot{ActiveTab: s.ActiveTab}
	if s.History != nil {
		out.History = append(make([]HistoryEntry, 0, len(s.History)), s.History...)
	}
	if s.Stacks != nil {
		out.Stacks = make(map[TabID][]LocalID, len(s.Stacks))
		for tab, ids := range s.Stacks {
			out.Stacks[tab] = append([]LocalID(nil), ids...)
		}
	}
	return out
}
