package core

import "pkt.systems/tabstack/schema"

// EventSink receives navigation events from a Navigator.
type EventSink interface {
	OnNavEvent(event schema.NavEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(event schema.NavEvent)

// OnNavEvent calls f.
func (f EventSinkFunc) OnNavEvent(event schema.NavEvent) { f(event) }
