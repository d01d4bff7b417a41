package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/schema"
)

// Scope names the navigation context a log line belongs to. Empty fields are
// left off the logger.
type Scope struct {
	User    schema.UserID
	Session schema.SessionID
	Tab     schema.TabID
}

// Fields returns the non-empty scope fields as key/value pairs.
func (s Scope) Fields() []any {
	fields := make([]any, 0, 6)
	if s.User != "" {
		fields = append(fields, "user", s.User)
	}
	if s.Session != "" {
		fields = append(fields, "session", s.Session)
	}
	if s.Tab != "" {
		fields = append(fields, "tab", s.Tab)
	}
	return fields
}

// Apply returns log annotated with the scope fields.
func (s Scope) Apply(log pslog.Logger) pslog.Logger {
	if fields := s.Fields(); len(fields) > 0 {
		return log.With(fields...)
	}
	return log
}

// without drops the fields base already carries with the same value.
func (s Scope) without(base Scope) Scope {
	if s.User == base.User {
		s.User = ""
	}
	if s.Session == base.Session {
		s.Session = ""
	}
	if s.Tab == base.Tab {
		s.Tab = ""
	}
	return s
}

func (s Scope) merge(over Scope) Scope {
	if over.User != "" {
		s.User = over.User
	}
	if over.Session != "" {
		s.Session = over.Session
	}
	if over.Tab != "" {
		s.Tab = over.Tab
	}
	return s
}

type scopeKey struct{}

func scopeOf(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

// ContextWithScope attaches log, annotated with the parts of scope ctx does
// not already carry, and records the combined scope on the returned context.
func ContextWithScope(ctx context.Context, log pslog.Logger, scope Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	current := scopeOf(ctx)
	ctx = pslog.ContextWithLogger(ctx, scope.without(current).Apply(log))
	return context.WithValue(ctx, scopeKey{}, current.merge(scope))
}

// Ctx returns the context logger annotated with the parts of scope that the
// context has not attached yet.
func Ctx(ctx context.Context, scope Scope) pslog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return scope.without(scopeOf(ctx)).Apply(pslog.Ctx(ctx))
}

// Tab annotates log with a tab id.
func Tab(log pslog.Logger, tab schema.TabID) pslog.Logger {
	return Scope{Tab: tab}.Apply(log)
}
