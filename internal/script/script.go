package script

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
	"pkt.systems/tabstack/schema"
)

// ErrInvalidScript is returned for scripts that cannot be replayed.
var ErrInvalidScript = errors.New("invalid script")

// Script is a replayable navigation scenario.
type Script struct {
	Name       string     `yaml:"name"`
	Tabs       []TabDef   `yaml:"tabs"`
	Initial    string     `yaml:"initial"`
	Navigation Navigation `yaml:"navigation"`
	Steps      []Step     `yaml:"steps"`
}

// TabDef registers a tab. A bare string is accepted as the id.
type TabDef struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// UnmarshalYAML accepts either a scalar id or a mapping.
func (t *TabDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.ID = node.Value
		return nil
	}
	type plain TabDef
	return node.Decode((*plain)(t))
}

// Navigation mirrors the navigation policy switches.
type Navigation struct {
	TabFocusDelegation   bool `yaml:"tab_focus_delegation"`
	CrossTabHistory      bool `yaml:"cross_tab_history"`
	ClearStackOnReselect bool `yaml:"clear_stack_on_reselect"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	Select string  `yaml:"select,omitempty"`
	Push   int     `yaml:"push,omitempty"`
	Pop    int     `yaml:"pop,omitempty"`
	Back   int     `yaml:"back,omitempty"`
	Freeze *bool   `yaml:"freeze,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect asserts navigator state at a point in the script.
type Expect struct {
	Active       string   `yaml:"active,omitempty"`
	History      []string `yaml:"history,omitempty"`
	EmptyHistory bool     `yaml:"empty_history,omitempty"`
	Intercepting *bool    `yaml:"intercepting,omitempty"`
	Depth        *int     `yaml:"depth,omitempty"`
	Fallbacks    *int     `yaml:"fallbacks,omitempty"`
}

// Parse decodes and validates a script.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// ParseFile reads and parses a script from disk.
func ParseFile(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	return Parse(data)
}

// Validate checks tab references and step shapes.
func (s Script) Validate() error {
	if len(s.Tabs) == 0 {
		return fmt.Errorf("%w: no tabs", ErrInvalidScript)
	}
	ids := s.tabIDs()
	if s.Initial != "" {
		if err := checkTab(ids, s.Initial); err != nil {
			return fmt.Errorf("initial: %w", err)
		}
	}
	for i, step := range s.Steps {
		if n := step.actions(); n != 1 {
			return fmt.Errorf("%w: step %d sets %d actions, want 1", ErrInvalidScript, i+1, n)
		}
		if step.Push < 0 || step.Pop < 0 || step.Back < 0 {
			return fmt.Errorf("%w: step %d has a negative count", ErrInvalidScript, i+1)
		}
		if step.Select != "" {
			if err := checkTab(ids, step.Select); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if step.Expect != nil && step.Expect.Active != "" {
			if err := checkTab(ids, step.Expect.Active); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Configuration returns the script's navigation policy.
func (s Script) Configuration() schema.Configuration {
	return schema.NewConfiguration(s.Navigation.TabFocusDelegation, s.Navigation.CrossTabHistory, s.Navigation.ClearStackOnReselect)
}

// TabInfos converts the script's tab list.
func (s Script) TabInfos() []schema.TabInfo {
	out := make([]schema.TabInfo, 0, len(s.Tabs))
	for _, tab := range s.Tabs {
		title := tab.Title
		if title == "" {
			title = tab.ID
		}
		out = append(out, schema.TabInfo{ID: schema.TabID(tab.ID), Title: title})
	}
	return out
}

// HasTab reports whether id is one of the script's tabs.
func (s Script) HasTab(id string) bool {
	return slices.Contains(s.tabIDs(), id)
}

func (s Script) tabIDs() []string {
	out := make([]string, 0, len(s.Tabs))
	for _, tab := range s.Tabs {
		out = append(out, strings.TrimSpace(tab.ID))
	}
	return out
}

func (st Step) actions() int {
	n := 0
	if st.Select != "" {
		n++
	}
	if st.Push > 0 {
		n++
	}
	if st.Pop > 0 {
		n++
	}
	if st.Back > 0 {
		n++
	}
	if st.Freeze != nil {
		n++
	}
	if st.Expect != nil {
		n++
	}
	return n
}

// String renders the step the way the replay log prints it.
func (st Step) String() string {
	switch {
	case st.Select != "":
		return "select " + st.Select
	case st.Push > 0:
		return fmt.Sprintf("push %d", st.Push)
	case st.Pop > 0:
		return fmt.Sprintf("pop %d", st.Pop)
	case st.Back > 0:
		return fmt.Sprintf("back %d", st.Back)
	case st.Freeze != nil:
		return fmt.Sprintf("freeze %t", *st.Freeze)
	case st.Expect != nil:
		return "expect"
	default:
		return "noop"
	}
}
