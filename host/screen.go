package host

import (
	"context"

	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/schema"
)

// Screen is the root screen of a tab together with its local stack.
type Screen struct {
	tab   schema.TabID
	stack *Stack
}

// NewScreen returns a screen for tab with an empty stack.
func NewScreen(tab schema.TabID) *Screen {
	return &Screen{tab: tab, stack: NewStack()}
}

// Tab returns the owning tab.
func (s *Screen) Tab() schema.TabID {
	return s.tab
}

// Stack implements core.Screen.
func (s *Screen) Stack() core.LocalStack {
	return s.stack
}

// Local returns the concrete stack for host-side mutations.
func (s *Screen) Local() *Stack {
	return s.stack
}

// ScreenFactory returns a factory producing a fresh Screen per tab. Every
// screen it built is reachable through Screens, keyed by tab.
type ScreenFactory struct {
	screens map[schema.TabID]*Screen
	seed    map[schema.TabID][]schema.LocalID
}

// NewScreenFactory constructs an empty ScreenFactory.
func NewScreenFactory() *ScreenFactory {
	return &ScreenFactory{screens: make(map[schema.TabID]*Screen)}
}

// Build implements core.ScreenFactory.
func (f *ScreenFactory) Build(_ context.Context, tab schema.TabID) (core.Screen, error) {
	screen := NewScreen(tab)
	screen.stack.Push(f.seed[tab]...)
	f.screens[tab] = screen
	return screen, nil
}

// Seed prefills the stacks of screens built afterwards, keyed by tab. It is
// how persisted stacks are rebuilt before a navigator restores its history.
func (f *ScreenFactory) Seed(stacks map[schema.TabID][]schema.LocalID) {
	if len(stacks) == 0 {
		return
	}
	if f.seed == nil {
		f.seed = make(map[schema.TabID][]schema.LocalID, len(stacks))
	}
	for tab, ids := range stacks {
		f.seed[tab] = append([]schema.LocalID(nil), ids...)
	}
}

// Screen returns the screen built for tab, if any.
func (f *ScreenFactory) Screen(tab schema.TabID) *Screen {
	return f.screens[tab]
}

// Tabs turns tab infos into core tab definitions sharing this factory.
func (f *ScreenFactory) Tabs(infos []schema.TabInfo) []core.Tab {
	out := make([]core.Tab, 0, len(infos))
	for _, info := range infos {
		out = append(out, core.Tab{ID: info.ID, Title: info.Title, Factory: f.Build})
	}
	return out
}
