package tabstack

import (
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnNavEvent(event schema.NavEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNavEvent(event)
	}
}

func joinSinks(sinks ...core.EventSink) core.EventSink {
	out := make([]core.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return eventFanout{sinks: out}
	}
}
