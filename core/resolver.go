package core

import (
	"context"

	"pkt.systems/tabstack/schema"
)

// IsIntercepting reports whether the navigator currently claims back
// requests: cross-tab history is on and the history tail is a switch.
func (n *Navigator) IsIntercepting() bool {
	if !n.cfg.CrossTabHistory {
		return false
	}
	last, ok := n.history.Last()
	return ok && last.IsSwitch()
}

// CanHandleBack reports whether a back request would be consumed without
// falling through to the host: either the focused tab has a non-empty stack
// or the unified history is not empty.
func (n *Navigator) CanHandleBack() bool {
	if n.cfg.TabFocusDelegation {
		if screen := n.SelectedScreen(); screen != nil {
			if stack := screen.Stack(); stack != nil && stack.Len() > 0 {
				return true
			}
		}
	}
	return n.cfg.CrossTabHistory && n.history.Len() > 0
}

// HandleBack resolves a back request. A switch at the history tail is undone
// by selecting the tab it left; anything else goes to the host's default
// handling. A tail switch naming the active tab is discarded and the request
// falls through. It never fails.
func (n *Navigator) HandleBack(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if n.IsIntercepting() {
		last, _ := n.history.Last()
		if last.TabID == n.active {
			n.logger.Warn("nav back dropped switch to active tab", "tab", last.TabID)
			n.history.PopLast()
			n.historyChanged()
			n.dispatcher.DispatchDefault(ctx)
			n.emit(schema.NavEvent{Type: schema.NavEventBack, Outcome: schema.BackDelegated})
			return
		}
		ok, err := n.SelectTab(ctx, last.TabID)
		if err == nil {
			if ok {
				n.emit(schema.NavEvent{Type: schema.NavEventBack, From: last.TabID, Outcome: schema.BackSwitchedTab})
			}
			return
		}
		n.logger.Warn("nav back switch failed", "err", err, "tab", last.TabID)
		n.history.PopLast()
		n.historyChanged()
	}
	n.updateClaim()
	n.dispatcher.DispatchDefault(ctx)
	n.emit(schema.NavEvent{Type: schema.NavEventBack, Outcome: schema.BackDelegated})
}

// updateClaim re-registers the navigator with the dispatcher when eligible.
func (n *Navigator) updateClaim() {
	eligible := n.IsIntercepting()
	n.dispatcher.Unregister(n)
	if eligible && n.attached {
		n.dispatcher.Register(n)
	}
	if eligible == n.claimed {
		return
	}
	n.claimed = eligible
	n.logger.Debug("nav back claim changed", "intercepting", eligible, "history_len", n.history.Len())
	n.emit(schema.NavEvent{Type: schema.NavEventClaim})
}
