package core

import "pkt.systems/tabstack/schema"

// tab tracks the state of a single registered destination.
type tab struct {
	ID      schema.TabID
	Title   string
	factory ScreenFactory
	screen  Screen
	tracker *stackTracker
}

// Info returns a transport-friendly view of the tab.
func (t *tab) Info(active bool) schema.TabInfo {
	info := schema.TabInfo{ID: t.ID, Title: t.Title, Active: active}
	if t.screen != nil {
		if stack := t.screen.Stack(); stack != nil {
			info.Depth = stack.Len()
		}
	}
	return info
}
