package core

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/tabstack/internal/logx"
	"pkt.systems/tabstack/schema"
)

// SelectTab handles a selection from the tab bar, including reselection of
// the active tab. It reports false when the selection guard vetoed it.
func (n *Navigator) SelectTab(ctx context.Context, tabID schema.TabID) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	if !n.initialized {
		return false, schema.ErrNotInitialized
	}
	next := n.tabs[tabID]
	if next == nil {
		return false, fmt.Errorf("%w: %s", schema.ErrTabNotFound, tabID)
	}
	if tabID == n.active {
		n.reselect(next)
		return true, nil
	}
	from := n.active
	if n.guard != nil && !n.guard(from, tabID) {
		n.logger.Debug("nav selection vetoed", "from", from, "to", tabID)
		return false, nil
	}

	if prev := n.tabs[from]; prev != nil && prev.screen != nil {
		n.host.Detach(prev.ID, prev.screen)
	}
	n.materialize(ctx, next)
	if next.screen != nil {
		n.host.Attach(next.ID, next.screen)
	}
	n.active = tabID
	n.updateFocus(next)

	if n.cfg.CrossTabHistory {
		if last, ok := n.history.Last(); ok && last == schema.SwitchEntry(tabID) {
			n.history.PopLast()
		} else {
			n.history.Append(schema.SwitchEntry(from))
		}
		n.historyChanged()
	}

	logx.Tab(n.logger, tabID).Info("nav tab selected", "from", from, "history_len", n.history.Len())
	n.emit(schema.NavEvent{Type: schema.NavEventSelected, From: from})
	return true, nil
}

func (n *Navigator) reselect(t *tab) {
	log := logx.Tab(n.logger, t.ID)
	if n.cfg.ClearStackOnReselect && t.screen != nil {
		if stack := t.screen.Stack(); stack != nil {
			depth := stack.Len()
			for i := 0; i < depth; i++ {
				if stack.StateSaved() {
					continue
				}
				stack.Pop()
			}
			log.Debug("nav stack cleared", "depth", depth, "remaining", stack.Len())
		}
	}
	log.Debug("nav tab reselected")
	n.emit(schema.NavEvent{Type: schema.NavEventReselected, From: t.ID})
	if n.onReselect != nil {
		n.onReselect(t.ID)
	}
}

// updateFocus revokes the current token and, with focus delegation on,
// grants a new one to t.
func (n *Navigator) updateFocus(t *tab) {
	if n.focus != nil {
		n.focus.revoke()
		n.focus = nil
	}
	if !n.cfg.TabFocusDelegation || t == nil {
		n.host.SetPrimary(nil)
		return
	}
	n.focus = &FocusToken{tab: t.ID, screen: t.screen}
	n.host.SetPrimary(n.focus)
}
