package host

import (
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/schema"
)

// Headless is a Host without rendering. It tracks which screen is mounted
// and forwards the focus token to a Dispatcher.
type Headless struct {
	dispatcher *Dispatcher
	mounted    map[schema.TabID]core.Screen
	attaches   int
	detaches   int
}

// NewHeadless returns a host bound to dispatcher.
func NewHeadless(dispatcher *Dispatcher) *Headless {
	return &Headless{dispatcher: dispatcher, mounted: make(map[schema.TabID]core.Screen)}
}

func (h *Headless) Attach(tab schema.TabID, screen core.Screen) {
	h.mounted[tab] = screen
	h.attaches++
}

func (h *Headless) Detach(tab schema.TabID, screen core.Screen) {
	if h.mounted[tab] == screen {
		delete(h.mounted, tab)
	}
	h.detaches++
}

func (h *Headless) SetPrimary(token *core.FocusToken) {
	if h.dispatcher != nil {
		h.dispatcher.SetPrimary(token)
	}
}

// Mounted reports whether a screen for tab is attached.
func (h *Headless) Mounted(tab schema.TabID) bool {
	_, ok := h.mounted[tab]
	return ok
}

// MountedCount returns the number of attached screens.
func (h *Headless) MountedCount() int {
	return len(h.mounted)
}

// Counts returns the number of attach and detach calls seen so far.
func (h *Headless) Counts() (attaches, detaches int) {
	return h.attaches, h.detaches
}
