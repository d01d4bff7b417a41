package schema

// TabID identifies a tab registered with a navigator.
type TabID string

// LocalID identifies one entry of a tab's local stack. Only used for equality.
type LocalID int

// SessionID identifies a host session driving one navigator.
type SessionID string

// UserID identifies the user owning a persisted navigation state.
type UserID string

// TabInfo describes a tab for transports and renderers.
type TabInfo struct {
	ID     TabID  `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Active bool   `json:"active,omitempty" yaml:"-"`
	Depth  int    `json:"depth,omitempty" yaml:"-"`
}
