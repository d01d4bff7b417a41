package schema

// Back-press behaviour bits, matching the original flag encoding.
const (
	BackNone              = 1
	BackPopSelectedStack  = 1 << 1
	BackSelectPreviousTab = 1 << 2
)

// Reselect behaviour bits.
const (
	ReselectNone       = 1
	ReselectClearStack = 2
)

// Configuration is the navigation policy resolved once per InitNavigation.
type Configuration struct {
	// TabFocusDelegation lets the active tab's top screen intercept back
	// presses ahead of the navigator.
	TabFocusDelegation bool
	// CrossTabHistory records tab switches in the unified history.
	CrossTabHistory bool
	// RecordScreenPushes records per-tab pushes in the unified history.
	// Only true when both of the above are enabled.
	RecordScreenPushes bool
	// ClearStackOnReselect clears the active tab's stack when it is selected again.
	ClearStackOnReselect bool
}

// Normalize clears RecordScreenPushes unless both focus delegation and
// cross-tab history are enabled.
func (c Configuration) Normalize() Configuration {
	c.RecordScreenPushes = c.RecordScreenPushes && c.TabFocusDelegation && c.CrossTabHistory
	return c
}

// NewConfiguration builds a Configuration from independent switches.
func NewConfiguration(focusDelegation, crossTabHistory, clearOnReselect bool) Configuration {
	return Configuration{
		TabFocusDelegation:   focusDelegation,
		CrossTabHistory:      crossTabHistory,
		RecordScreenPushes:   focusDelegation && crossTabHistory,
		ClearStackOnReselect: clearOnReselect,
	}
}

// ConfigurationFromFlags builds a Configuration from the bit encoding.
// Screen pushes are recorded only for the exact combination
// BackPopSelectedStack|BackSelectPreviousTab.
func ConfigurationFromFlags(backBehaviour, reselectBehaviour int) Configuration {
	return Configuration{
		TabFocusDelegation:   backBehaviour&BackPopSelectedStack == BackPopSelectedStack,
		CrossTabHistory:      backBehaviour&BackSelectPreviousTab == BackSelectPreviousTab,
		RecordScreenPushes:   backBehaviour == BackPopSelectedStack|BackSelectPreviousTab,
		ClearStackOnReselect: reselectBehaviour&ReselectClearStack == ReselectClearStack,
	}
}

// DefaultConfiguration mirrors the original defaults: delegate focus, no
// cross-tab history, no clear on reselect.
func DefaultConfiguration() Configuration {
	return ConfigurationFromFlags(BackPopSelectedStack, ReselectNone)
}
