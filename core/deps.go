package core

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

// Screen is the root content of a tab. It owns the tab's local stack.
type Screen interface {
	Stack() LocalStack
}

// LocalStack is a tab's own navigation stack. The navigator observes it
// through Subscribe and only mutates it when clearing on reselect.
type LocalStack interface {
	IDs() []schema.LocalID
	Len() int
	Pop() bool
	// StateSaved reports that the host state is currently immutable.
	StateSaved() bool
	// Subscribe registers fn to receive the full id list after every change.
	Subscribe(fn func(ids []schema.LocalID)) (cancel func())
}

// ScreenFactory builds the root screen of a tab on first activation.
type ScreenFactory func(ctx context.Context, tabID schema.TabID) (Screen, error)

// Tab registers one navigation destination.
type Tab struct {
	ID      schema.TabID
	Title   string
	Factory ScreenFactory
}

// Host mounts screens and receives the focus capability.
type Host interface {
	Attach(tabID schema.TabID, screen Screen)
	Detach(tabID schema.TabID, screen Screen)
	// SetPrimary hands the back-press capability to the token's tab, or to
	// nobody when token is nil.
	SetPrimary(token *FocusToken)
}

// BackHandler claims back requests.
type BackHandler interface {
	HandleBack(ctx context.Context)
}

// BackDispatcher routes back requests to registered handlers first.
type BackDispatcher interface {
	Register(h BackHandler)
	Unregister(h BackHandler)
	// DispatchDefault runs the host's default back handling.
	DispatchDefault(ctx context.Context)
}

// NavigatorDeps captures the collaborators of a Navigator.
type NavigatorDeps struct {
	Host       Host
	Dispatcher BackDispatcher
	EventSink  EventSink
	Logger     pslog.Logger
	SessionID  schema.SessionID
	// SelectionGuard may veto a distinct tab selection by returning false.
	SelectionGuard func(from, to schema.TabID) bool
	// OnReselect is called after the active tab was selected again.
	OnReselect func(tabID schema.TabID)
}
