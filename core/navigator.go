package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/logx"
	"pkt.systems/tabstack/schema"
)

// Navigator reconciles the local stacks of several tabs into one unified
// history and resolves back requests against it.
//
// A Navigator is not safe for concurrent use. Drive it from a single
// goroutine: host callbacks such as LocalStack.Pop re-enter it synchronously.
type Navigator struct {
	host       Host
	dispatcher BackDispatcher
	sink       EventSink
	logger     pslog.Logger
	session    schema.SessionID
	guard      func(from, to schema.TabID) bool
	onReselect func(tabID schema.TabID)

	cfg         schema.Configuration
	tabs        map[schema.TabID]*tab
	order       []schema.TabID
	active      schema.TabID
	history     *unifiedHistory
	focus       *FocusToken
	claimed     bool
	attached    bool
	initialized bool
}

// NewNavigator constructs a Navigator. Host and Dispatcher are required.
func NewNavigator(deps NavigatorDeps) (*Navigator, error) {
	if deps.Host == nil {
		return nil, errors.New("navigator host is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("navigator back dispatcher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Navigator{
		host:       deps.Host,
		dispatcher: deps.Dispatcher,
		sink:       deps.EventSink,
		logger:     logx.Scope{Session: deps.SessionID}.Apply(logger),
		session:    deps.SessionID,
		guard:      deps.SelectionGuard,
		onReselect: deps.OnReselect,
		tabs:       make(map[schema.TabID]*tab),
		history:    newUnifiedHistory(),
		attached:   true,
	}, nil
}

// InitNavigation registers tabs, applies the normalised cfg, clears the unified history and
// activates initial (or the first tab when initial is empty). Calling it again
// replaces the previous registration.
func (n *Navigator) InitNavigation(ctx context.Context, tabs []Tab, cfg schema.Configuration, initial schema.TabID) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if len(tabs) == 0 {
		return schema.ErrNoTabs
	}
	cfg = cfg.Normalize()
	registry := make(map[schema.TabID]*tab, len(tabs))
	order := make([]schema.TabID, 0, len(tabs))
	for _, def := range tabs {
		id := schema.TabID(strings.TrimSpace(string(def.ID)))
		if id == "" {
			return schema.ErrInvalidTab
		}
		if _, exists := registry[id]; exists {
			return fmt.Errorf("%w: %s", schema.ErrDuplicateTab, id)
		}
		title := def.Title
		if strings.TrimSpace(title) == "" {
			title = string(id)
		}
		registry[id] = &tab{ID: id, Title: title, factory: def.Factory}
		order = append(order, id)
	}
	if initial == "" {
		initial = order[0]
	}
	if _, ok := registry[initial]; !ok {
		return fmt.Errorf("%w: %s", schema.ErrTabNotFound, initial)
	}

	n.teardown()
	n.cfg = cfg
	n.tabs = registry
	n.order = order
	n.active = initial
	n.history.Clear()
	n.initialized = true

	current := n.tabs[initial]
	n.materialize(ctx, current)
	if current.screen != nil {
		n.host.Attach(current.ID, current.screen)
	}
	n.updateFocus(current)
	n.updateClaim()

	log := logx.Tab(n.logger, initial)
	log.Info("nav initialized", "tabs", len(order), "focus_delegation", cfg.TabFocusDelegation, "cross_tab_history", cfg.CrossTabHistory, "record_pushes", cfg.RecordScreenPushes, "clear_on_reselect", cfg.ClearStackOnReselect)
	n.emit(schema.NavEvent{Type: schema.NavEventSelected})
	return nil
}

// ActiveTab returns the currently selected tab.
func (n *Navigator) ActiveTab() schema.TabID {
	return n.active
}

// SelectedScreen returns the screen of the active tab, if materialised.
func (n *Navigator) SelectedScreen() Screen {
	if t := n.tabs[n.active]; t != nil {
		return t.screen
	}
	return nil
}

// Configuration returns the policy applied by the last InitNavigation.
func (n *Navigator) Configuration() schema.Configuration {
	return n.cfg
}

// Tabs lists the registered tabs in registration order.
func (n *Navigator) Tabs() []schema.TabInfo {
	out := make([]schema.TabInfo, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.tabs[id].Info(id == n.active))
	}
	return out
}

// History returns a copy of the unified history, oldest first.
func (n *Navigator) History() []schema.HistoryEntry {
	return n.history.Entries()
}

// Focus returns the live focus token, or nil when focus delegation is off.
func (n *Navigator) Focus() *FocusToken {
	if n.focus.Valid() {
		return n.focus
	}
	return nil
}

// Detach stops observing local stacks and withdraws the back claim. The
// history is kept.
func (n *Navigator) Detach() {
	if !n.attached {
		return
	}
	for _, t := range n.tabs {
		n.untrack(t)
	}
	n.dispatcher.Unregister(n)
	n.attached = false
	n.logger.Debug("nav detached")
}

// Attach resumes observing local stacks with fresh baselines and re-derives
// the back claim.
func (n *Navigator) Attach() {
	if n.attached {
		return
	}
	n.attached = true
	for _, id := range n.order {
		n.track(n.tabs[id])
	}
	n.claimed = false
	n.updateClaim()
	n.logger.Debug("nav attached")
}

// Close detaches the navigator and revokes the focus token.
func (n *Navigator) Close() {
	n.teardown()
	n.initialized = false
}

func (n *Navigator) teardown() {
	for _, t := range n.tabs {
		n.untrack(t)
		if t.screen != nil && t.ID == n.active {
			n.host.Detach(t.ID, t.screen)
		}
	}
	n.dispatcher.Unregister(n)
	n.claimed = false
	if n.focus != nil {
		n.focus.revoke()
		n.focus = nil
		n.host.SetPrimary(nil)
	}
}

// materialize builds the tab's screen on first use. Factory failures are
// contained: the tab stays without a screen.
func (n *Navigator) materialize(ctx context.Context, t *tab) {
	if t == nil || t.screen != nil || t.factory == nil {
		return
	}
	screen, err := t.factory(ctx, t.ID)
	if err != nil {
		logx.Tab(n.logger, t.ID).Warn("nav screen create failed", "err", err)
		return
	}
	t.screen = screen
	logx.Tab(n.logger, t.ID).Debug("nav screen created")
	if n.attached {
		n.track(t)
	}
}

func (n *Navigator) emit(event schema.NavEvent) {
	if n.sink == nil {
		return
	}
	event.SessionID = n.session
	event.ActiveTab = n.active
	event.HistoryLen = n.history.Len()
	event.Intercepting = n.IsIntercepting()
	n.sink.OnNavEvent(event)
}

func (n *Navigator) historyChanged() {
	n.emit(schema.NavEvent{Type: schema.NavEventHistory})
	n.updateClaim()
}
