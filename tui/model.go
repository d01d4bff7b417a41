package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/tabstack/internal/format"
	"pkt.systems/tabstack/schema"
)

const eventLogSize = 6

var renderer = format.NewPlainRenderer()

// Options configures the interactive model.
type Options struct {
	Session *Session
	// Events is the session's event stream, typically from the event bus.
	Events <-chan schema.NavEvent
	// Save hands a snapshot to the persistence layer after each navigation
	// change. It runs on the update loop and must not block; an error is the
	// outcome of an earlier save.
	Save func(schema.NavSnapshot) error
}

// Model is the bubbletea model hosting a navigation session.
type Model struct {
	session *Session
	events  <-chan schema.NavEvent
	save    func(schema.NavSnapshot) error

	width    int
	height   int
	log      []string
	status   string
	quitting bool
}

type navEventMsg struct {
	event schema.NavEvent
}

// New constructs a Model.
func New(opts Options) Model {
	return Model{session: opts.Session, events: opts.Events, save: opts.Save}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return navEventMsg{event: event}
	}
}

func (m *Model) persist() {
	if m.save == nil {
		return
	}
	if err := m.save(m.session.Nav.Snapshot()); err != nil {
		m.status = "save failed: " + err.Error()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case navEventMsg:
		m.log = append(m.log, renderer.Describe(msg.event))
		if len(m.log) > eventLogSize {
			m.log = m.log[len(m.log)-eventLogSize:]
		}
		return m, m.waitForEvent()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	nav := m.session.Nav
	m.status = ""
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		m.quitting = true
		m.persist()
		return m, tea.Quit
	case "enter", "n", "+":
		if _, err := m.session.Push(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.persist()
		return m, nil
	case "esc", "backspace", "b":
		exit := m.session.Back(ctx)
		m.persist()
		if exit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case "tab", "right", "l":
		return m.selectOffset(1)
	case "shift+tab", "left", "h":
		return m.selectOffset(-1)
	default:
		if idx, err := strconv.Atoi(key); err == nil {
			tabs := nav.Tabs()
			if idx >= 1 && idx <= len(tabs) {
				return m.selectTab(tabs[idx-1].ID)
			}
		}
	}
	return m, nil
}

func (m Model) selectOffset(delta int) (tea.Model, tea.Cmd) {
	tabs := m.session.Nav.Tabs()
	if len(tabs) == 0 {
		return m, nil
	}
	current := 0
	for i, tab := range tabs {
		if tab.Active {
			current = i
			break
		}
	}
	next := (current + delta + len(tabs)) % len(tabs)
	return m.selectTab(tabs[next].ID)
}

func (m Model) selectTab(id schema.TabID) (tea.Model, tea.Cmd) {
	ok, err := m.session.Nav.SelectTab(context.Background(), id)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	if !ok {
		m.status = fmt.Sprintf("selection of %s was refused", id)
		return m, nil
	}
	m.persist()
	return m, nil
}

// Quitting reports whether the model has asked the program to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	nav := m.session.Nav
	var b strings.Builder

	tabs := nav.Tabs()
	cells := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tab.Title)
		if tab.Depth > 0 {
			label += fmt.Sprintf(" (%d)", tab.Depth)
		}
		if tab.Active {
			cells = append(cells, tabActiveStyle.Render(label))
		} else {
			cells = append(cells, tabInactiveStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	if m.width > 0 {
		bar = tabBarStyle.Width(m.width).Render(bar)
	} else {
		bar = tabBarStyle.Render(bar)
	}
	b.WriteString(bar)
	b.WriteString("\n")

	crumbs := []string{string(nav.ActiveTab())}
	for _, id := range m.session.ActiveStack() {
		crumbs = append(crumbs, fmt.Sprintf("#%d", id))
	}
	body := crumbStyle.Render(strings.Join(crumbs, " › "))
	history := nav.History()
	parts := make([]string, 0, len(history))
	for _, entry := range history {
		parts = append(parts, entry.String())
	}
	body += "\n" + dimStyle.Render("history: "+strings.Join(parts, " "))
	if nav.IsIntercepting() {
		body += "\n" + claimStyle.Render("back returns to the previous tab")
	}
	b.WriteString(contentStyle.Render(body))
	b.WriteString("\n")

	for _, line := range m.log {
		b.WriteString(dimStyle.Render(line))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(claimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("1-9 tab  tab/←/→ cycle  enter push  esc back  q quit"))
	return b.String()
}
