package host

import (
	"context"

	"pkt.systems/tabstack/core"
)

// Dispatcher routes back requests. Registered handlers win, most recent
// first. Without a claim the request goes to the screen holding the focus
// token, which pops its stack, and finally to the fallback.
type Dispatcher struct {
	handlers []core.BackHandler
	primary  *core.FocusToken
	fallback func(ctx context.Context)
}

// NewDispatcher constructs a Dispatcher. fallback runs when nothing else
// consumes a back request; it may be nil.
func NewDispatcher(fallback func(ctx context.Context)) *Dispatcher {
	return &Dispatcher{fallback: fallback}
}

// Register adds h unless it is already registered.
func (d *Dispatcher) Register(h core.BackHandler) {
	for _, existing := range d.handlers {
		if existing == h {
			return
		}
	}
	d.handlers = append(d.handlers, h)
}

// Unregister removes h if present.
func (d *Dispatcher) Unregister(h core.BackHandler) {
	for i, existing := range d.handlers {
		if existing == h {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

// Claimed reports whether any handler is registered.
func (d *Dispatcher) Claimed() bool {
	return len(d.handlers) > 0
}

// SetPrimary records the focus token that may pop its stack on back.
func (d *Dispatcher) SetPrimary(token *core.FocusToken) {
	d.primary = token
}

// Primary returns the current focus token.
func (d *Dispatcher) Primary() *core.FocusToken {
	return d.primary
}

// Dispatch handles a back request from the user.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	if n := len(d.handlers); n > 0 {
		d.handlers[n-1].HandleBack(ctx)
		return
	}
	d.DispatchDefault(ctx)
}

// DispatchDefault skips registered handlers.
func (d *Dispatcher) DispatchDefault(ctx context.Context) {
	if d.primary.Valid() {
		if screen := d.primary.Screen(); screen != nil {
			if stack := screen.Stack(); stack != nil && stack.Len() > 0 && stack.Pop() {
				return
			}
		}
	}
	if d.fallback != nil {
		d.fallback(ctx)
	}
}
