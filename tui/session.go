package tui

import (
	"context"
	"errors"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/host"
	"pkt.systems/tabstack/schema"
)

// SessionOptions configures a navigation session.
type SessionOptions struct {
	SessionID schema.SessionID
	Tabs      []schema.TabInfo
	Config    schema.Configuration
	// Initial is the first tab shown; unknown ids fall back to the first tab
	// and a restored active tab takes precedence.
	Initial   schema.TabID
	// Restore seeds the session from a persisted snapshot.
	Restore   *schema.NavSnapshot
	EventSink core.EventSink
	Logger    pslog.Logger
}

// Session couples a navigator with the reference host it drives.
type Session struct {
	ID         schema.SessionID
	Nav        *core.Navigator
	Dispatcher *host.Dispatcher
	Factory    *host.ScreenFactory
	Host       *host.Headless

	exitRequested bool
}

// NewSession builds and initialises a navigator. A back request nothing else
// consumes marks the session for exit.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if len(opts.Tabs) == 0 {
		return nil, schema.ErrNoTabs
	}
	s := &Session{ID: opts.SessionID, Factory: host.NewScreenFactory()}
	s.Dispatcher = host.NewDispatcher(func(context.Context) { s.exitRequested = true })
	s.Host = host.NewHeadless(s.Dispatcher)
	nav, err := core.NewNavigator(core.NavigatorDeps{
		Host:       s.Host,
		Dispatcher: s.Dispatcher,
		EventSink:  opts.EventSink,
		Logger:     opts.Logger,
		SessionID:  opts.SessionID,
	})
	if err != nil {
		return nil, err
	}
	s.Nav = nav

	initial := opts.Initial
	if initial != "" && !knownTab(opts.Tabs, initial) {
		initial = ""
	}
	if opts.Restore != nil && opts.Restore.ActiveTab != "" && knownTab(opts.Tabs, opts.Restore.ActiveTab) {
		initial = opts.Restore.ActiveTab
	}
	if opts.Restore != nil {
		s.Factory.Seed(opts.Restore.Stacks)
	}
	if err := nav.InitNavigation(ctx, s.Factory.Tabs(opts.Tabs), opts.Config, initial); err != nil {
		return nil, err
	}
	if opts.Restore != nil {
		nav.Restore(ctx, *opts.Restore)
	}
	return s, nil
}

func knownTab(tabs []schema.TabInfo, id schema.TabID) bool {
	for _, tab := range tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}

// Push opens a new screen on the active tab.
func (s *Session) Push() (schema.LocalID, error) {
	screen := s.Factory.Screen(s.Nav.ActiveTab())
	if screen == nil {
		return 0, errors.New("active tab has no screen")
	}
	return screen.Local().Open(), nil
}

// Back dispatches a back request and reports whether the session should exit.
func (s *Session) Back(ctx context.Context) bool {
	s.exitRequested = false
	s.Dispatcher.Dispatch(ctx)
	return s.exitRequested
}

// ActiveStack returns the ids on the active tab's stack.
func (s *Session) ActiveStack() []schema.LocalID {
	screen := s.Factory.Screen(s.Nav.ActiveTab())
	if screen == nil {
		return nil
	}
	return screen.Local().IDs()
}

// Close releases the navigator.
func (s *Session) Close() {
	s.Nav.Close()
}
