package format

import (
	"fmt"
	"strings"

	"pkt.systems/tabstack/schema"
)

// PlainRenderer formats navigation events as plain text.
type PlainRenderer struct{}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// Describe converts a NavEvent into a short user-facing line.
func (p *PlainRenderer) Describe(event schema.NavEvent) string {
	switch event.Type {
	case schema.NavEventSelected:
		if event.From == "" {
			return fmt.Sprintf("selected %s", event.ActiveTab)
		}
		return fmt.Sprintf("selected %s (from %s)", event.ActiveTab, event.From)
	case schema.NavEventReselected:
		return fmt.Sprintf("reselected %s", event.ActiveTab)
	case schema.NavEventBack:
		if event.Outcome == schema.BackSwitchedTab {
			return fmt.Sprintf("back to %s", event.ActiveTab)
		}
		return fmt.Sprintf("back %s", outcomeLabel(event.Outcome))
	case schema.NavEventClaim:
		if event.Intercepting {
			return "back claimed"
		}
		return "back released"
	case schema.NavEventInvariant:
		if event.Entry != nil {
			return fmt.Sprintf("history out of sync at %s", event.Entry)
		}
		return "history out of sync"
	case schema.NavEventRestored:
		return fmt.Sprintf("restored %d entries", event.HistoryLen)
	default:
		return fmt.Sprintf("%s (history %d)", event.Type, event.HistoryLen)
	}
}

// Fields renders every populated field of a NavEvent as key=value pairs.
func (p *PlainRenderer) Fields(event schema.NavEvent) string {
	parts := []string{string(event.Type)}
	if event.From != "" {
		parts = append(parts, "from="+string(event.From))
	}
	parts = append(parts,
		"active="+string(event.ActiveTab),
		fmt.Sprintf("history=%d", event.HistoryLen),
	)
	if event.Intercepting {
		parts = append(parts, "intercepting")
	}
	if event.Outcome != "" {
		parts = append(parts, "outcome="+string(event.Outcome))
	}
	if event.Entry != nil {
		parts = append(parts, "entry="+event.Entry.String())
	}
	return strings.Join(parts, " ")
}

func outcomeLabel(outcome schema.BackOutcome) string {
	if outcome == "" {
		return "unresolved"
	}
	return string(outcome)
}
