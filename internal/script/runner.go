package script

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/host"
	"pkt.systems/tabstack/schema"
)

// ErrExpectationFailed is returned when an expect step does not hold.
var ErrExpectationFailed = errors.New("expectation failed")

// StepResult records navigator state after one step.
type StepResult struct {
	Index        int
	Step         string
	Active       schema.TabID
	History      []string
	Intercepting bool
	Depth        int
}

// Result is the outcome of a replay.
type Result struct {
	Steps     []StepResult
	Snapshot  schema.NavSnapshot
	Fallbacks int
}

// Options tune a replay.
type Options struct {
	SessionID schema.SessionID
	EventSink core.EventSink
	// Restore seeds the navigator from a snapshot before the first step.
	Restore *schema.NavSnapshot
}

// Run replays s against a headless host and returns the per-step trace.
// The trace up to a failing step is returned together with the error.
func Run(ctx context.Context, s Script, opts Options) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	var result Result
	dispatcher := host.NewDispatcher(func(context.Context) { result.Fallbacks++ })
	headless := host.NewHeadless(dispatcher)
	factory := host.NewScreenFactory()
	logger := pslog.Ctx(ctx)
	if s.Name != "" {
		logger = logger.With("script", s.Name)
	}
	nav, err := core.NewNavigator(core.NavigatorDeps{
		Host:       headless,
		Dispatcher: dispatcher,
		EventSink:  opts.EventSink,
		Logger:     logger,
		SessionID:  opts.SessionID,
	})
	if err != nil {
		return Result{}, err
	}
	defer nav.Close()

	initial := schema.TabID(s.Initial)
	if opts.Restore != nil {
		if opts.Restore.ActiveTab != "" && s.HasTab(string(opts.Restore.ActiveTab)) {
			initial = opts.Restore.ActiveTab
		}
		factory.Seed(opts.Restore.Stacks)
	}
	if err := nav.InitNavigation(ctx, factory.Tabs(s.TabInfos()), s.Configuration(), initial); err != nil {
		return Result{}, err
	}
	if opts.Restore != nil {
		nav.Restore(ctx, *opts.Restore)
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := apply(ctx, nav, dispatcher, factory, step, &result); err != nil {
			return result, fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		result.Steps = append(result.Steps, capture(i+1, step, nav))
		logger.Debug("script step", "step", i+1, "action", step.String(), "active", nav.ActiveTab(), "history_len", len(nav.History()))
	}
	result.Snapshot = nav.Snapshot()
	return result, nil
}

func apply(ctx context.Context, nav *core.Navigator, dispatcher *host.Dispatcher, factory *host.ScreenFactory, step Step, result *Result) error {
	switch {
	case step.Select != "":
		if _, err := nav.SelectTab(ctx, schema.TabID(step.Select)); err != nil {
			return err
		}
	case step.Push > 0:
		stack := activeStack(nav, factory)
		if stack == nil {
			return fmt.Errorf("active tab %s has no screen", nav.ActiveTab())
		}
		for i := 0; i < step.Push; i++ {
			stack.Open()
		}
	case step.Pop > 0:
		stack := activeStack(nav, factory)
		if stack == nil {
			return fmt.Errorf("active tab %s has no screen", nav.ActiveTab())
		}
		stack.PopN(step.Pop)
	case step.Back > 0:
		for i := 0; i < step.Back; i++ {
			dispatcher.Dispatch(ctx)
		}
	case step.Freeze != nil:
		if stack := activeStack(nav, factory); stack != nil {
			stack.SetStateSaved(*step.Freeze)
		}
	case step.Expect != nil:
		return check(nav, factory, *step.Expect, result.Fallbacks)
	}
	return nil
}

func activeStack(nav *core.Navigator, factory *host.ScreenFactory) *host.Stack {
	screen := factory.Screen(nav.ActiveTab())
	if screen == nil {
		return nil
	}
	return screen.Local()
}

func check(nav *core.Navigator, factory *host.ScreenFactory, want Expect, fallbacks int) error {
	var problems []string
	if want.Active != "" && nav.ActiveTab() != schema.TabID(want.Active) {
		problems = append(problems, fmt.Sprintf("active %s, want %s", nav.ActiveTab(), want.Active))
	}
	got := renderHistory(nav.History())
	if want.History != nil && !slices.Equal(got, want.History) {
		problems = append(problems, fmt.Sprintf("history %v, want %v", got, want.History))
	}
	if want.EmptyHistory && len(got) != 0 {
		problems = append(problems, fmt.Sprintf("history %v, want empty", got))
	}
	if want.Intercepting != nil && nav.IsIntercepting() != *want.Intercepting {
		problems = append(problems, fmt.Sprintf("intercepting %t, want %t", nav.IsIntercepting(), *want.Intercepting))
	}
	if want.Depth != nil {
		depth := 0
		if stack := activeStack(nav, factory); stack != nil {
			depth = stack.Len()
		}
		if depth != *want.Depth {
			problems = append(problems, fmt.Sprintf("depth %d, want %d", depth, *want.Depth))
		}
	}
	if want.Fallbacks != nil && fallbacks != *want.Fallbacks {
		problems = append(problems, fmt.Sprintf("fallbacks %d, want %d", fallbacks, *want.Fallbacks))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectationFailed, strings.Join(problems, "; "))
	}
	return nil
}

func capture(index int, step Step, nav *core.Navigator) StepResult {
	out := StepResult{
		Index:        index,
		Step:         step.String(),
		Active:       nav.ActiveTab(),
		History:      renderHistory(nav.History()),
		Intercepting: nav.IsIntercepting(),
	}
	if screen := nav.SelectedScreen(); screen != nil {
		out.Depth = screen.Stack().Len()
	}
	return out
}

func renderHistory(entries []schema.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.String())
	}
	return out
}
