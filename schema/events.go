package schema

// NavEventType describes a navigation change.
type NavEventType string

const (
	// NavEventSelected indicates a distinct tab became active.
	NavEventSelected NavEventType = "selected"
	// NavEventReselected indicates the active tab was selected again.
	NavEventReselected NavEventType = "reselected"
	// NavEventHistory indicates the unified history changed.
	NavEventHistory NavEventType = "history"
	// NavEventClaim indicates back-press interception eligibility flipped.
	NavEventClaim NavEventType = "claim"
	// NavEventBack indicates a back request was resolved.
	NavEventBack NavEventType = "back"
	// NavEventInvariant indicates a delta could not be reconciled with history.
	NavEventInvariant NavEventType = "invariant"
	// NavEventRestored indicates history was restored from a snapshot.
	NavEventRestored NavEventType = "restored"
)

// BackOutcome describes how a back request was resolved.
type BackOutcome string

const (
	// BackSwitchedTab means the navigator switched back to a previous tab.
	BackSwitchedTab BackOutcome = "switched"
	// BackDelegated means the request went to the host's default handling.
	BackDelegated BackOutcome = "delegated"
)

// NavEvent is emitted by a navigator after each observable change.
type NavEvent struct {
	SessionID    SessionID     `json:"session"`
	Type         NavEventType  `json:"type"`
	From         TabID         `json:"from,omitempty"`
	ActiveTab    TabID         `json:"active_tab"`
	HistoryLen   int           `json:"history_len"`
	Intercepting bool          `json:"intercepting"`
	Outcome      BackOutcome   `json:"outcome,omitempty"`
	Entry        *HistoryEntry `json:"entry,omitempty"`
}
