package schema

import "testing"

func TestConfigurationFromFlags(t *testing.T) {
	tests := []struct {
		name     string
		back     int
		reselect int
		want     Configuration
	}{
		{
			name:     "defaults",
			back:     BackPopSelectedStack,
			reselect: ReselectNone,
			want:     Configuration{TabFocusDelegation: true},
		},
		{
			name:     "history only",
			back:     BackSelectPreviousTab,
			reselect: ReselectNone,
			want:     Configuration{CrossTabHistory: true},
		},
		{
			name:     "both records pushes",
			back:     BackPopSelectedStack | BackSelectPreviousTab,
			reselect: ReselectClearStack,
			want:     Configuration{TabFocusDelegation: true, CrossTabHistory: true, RecordScreenPushes: true, ClearStackOnReselect: true},
		},
		{
			name:     "none bit blocks push recording",
			back:     BackNone | BackPopSelectedStack | BackSelectPreviousTab,
			reselect: ReselectNone,
			want:     Configuration{TabFocusDelegation: true, CrossTabHistory: true},
		},
	}
	for _, tc := range tests {
		if got := ConfigurationFromFlags(tc.back, tc.reselect); got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestNewConfigurationDerivesPushRecording(t *testing.T) {
	if cfg := NewConfiguration(true, false, false); cfg.RecordScreenPushes {
		t.Fatalf("expected no push recording without history: %+v", cfg)
	}
	if cfg := NewConfiguration(false, true, false); cfg.RecordScreenPushes {
		t.Fatalf("expected no push recording without focus delegation: %+v", cfg)
	}
	if cfg := NewConfiguration(true, true, true); !cfg.RecordScreenPushes || !cfg.ClearStackOnReselect {
		t.Fatalf("expected push recording and reselect clear: %+v", cfg)
	}
}

func TestNormalizeClearsPushRecording(t *testing.T) {
	tests := []struct {
		in   Configuration
		want bool
	}{
		{in: Configuration{RecordScreenPushes: true}, want: false},
		{in: Configuration{RecordScreenPushes: true, TabFocusDelegation: true}, want: false},
		{in: Configuration{RecordScreenPushes: true, CrossTabHistory: true}, want: false},
		{in: Configuration{RecordScreenPushes: true, TabFocusDelegation: true, CrossTabHistory: true}, want: true},
		{in: Configuration{TabFocusDelegation: true, CrossTabHistory: true}, want: false},
	}
	for _, tc := range tests {
		if got := tc.in.Normalize(); got.RecordScreenPushes != tc.want {
			t.Fatalf("normalize %+v: record=%v, want %v", tc.in, got.RecordScreenPushes, tc.want)
		}
	}
}

func TestHistoryEntryEquality(t *testing.T) {
	if ScreenEntry(1, "home") != ScreenEntry(1, "home") {
		t.Fatalf("expected equal screen entries")
	}
	if ScreenEntry(1, "home") == ScreenEntry(1, "search") {
		t.Fatalf("expected tab to participate in equality")
	}
	if SwitchEntry("home") == (HistoryEntry{Kind: EntryScreen, TabID: "home"}) {
		t.Fatalf("expected kind to participate in equality")
	}
	if got := SwitchEntry("home").String(); got != "Switch(home)" {
		t.Fatalf("unexpected string %q", got)
	}
}
