package schema

import "fmt"

// EntryKind tags the variant of a HistoryEntry.
type EntryKind string

const (
	// EntryScreen records a push onto a tab's local stack.
	EntryScreen EntryKind = "screen"
	// EntrySwitch records that the active tab changed away from TabID.
	EntrySwitch EntryKind = "switch"
)

// HistoryEntry is one element of the unified history. It is a tagged union:
// screen entries carry LocalID and the owning TabID, switch entries carry the
// tab that was left in TabID and a zero LocalID. Entries are compared with ==.
type HistoryEntry struct {
	Kind    EntryKind `json:"kind"`
	LocalID LocalID   `json:"local_id,omitempty"`
	TabID   TabID     `json:"tab"`
}

// ScreenEntry returns the entry recording a push of id onto tab's stack.
func ScreenEntry(id LocalID, tab TabID) HistoryEntry {
	return HistoryEntry{Kind: EntryScreen, LocalID: id, TabID: tab}
}

// SwitchEntry returns the entry recording a switch away from tab.
func SwitchEntry(from TabID) HistoryEntry {
	return HistoryEntry{Kind: EntrySwitch, TabID: from}
}

// IsSwitch reports whether e is a switch entry.
func (e HistoryEntry) IsSwitch() bool { return e.Kind == EntrySwitch }

// IsScreen reports whether e is a screen entry.
func (e HistoryEntry) IsScreen() bool { return e.Kind == EntryScreen }

func (e HistoryEntry) String() string {
	switch e.Kind {
	case EntryScreen:
		return fmt.Sprintf("Screen(%d,%s)", e.LocalID, e.TabID)
	case EntrySwitch:
		return fmt.Sprintf("Switch(%s)", e.TabID)
	default:
		return fmt.Sprintf("Unknown(%s)", e.Kind)
	}
}
