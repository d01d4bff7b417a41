package core

import "pkt.systems/tabstack/schema"

// FocusToken is the capability to intercept back presses ahead of the
// navigator. At most one token is valid at a time; the navigator revokes it
// when another tab becomes active.
type FocusToken struct {
	tab     schema.TabID
	screen  Screen
	revoked bool
}

// Tab returns the tab holding the token.
func (t *FocusToken) Tab() schema.TabID {
	if t == nil {
		return ""
	}
	return t.tab
}

// Screen returns the screen holding the token. It may be nil.
func (t *FocusToken) Screen() Screen {
	if t == nil {
		return nil
	}
	return t.screen
}

// Valid reports whether the token has not been revoked.
func (t *FocusToken) Valid() bool {
	return t != nil && !t.revoked
}

func (t *FocusToken) revoke() {
	if t != nil {
		t.revoked = true
	}
}
