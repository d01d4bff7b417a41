package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/tabstack/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int              `mapstructure:"config_version" yaml:"config_version"`
	StateDSN      string           `mapstructure:"state_dsn" yaml:"state_dsn"`
	Tabs          []TabConfig      `mapstructure:"tabs" yaml:"tabs"`
	Navigation    NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	SSH           SSHConfig        `mapstructure:"ssh" yaml:"ssh"`
	HTTP          HTTPConfig       `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// TabConfig registers one tab.
type TabConfig struct {
	ID    string `mapstructure:"id" yaml:"id"`
	Title string `mapstructure:"title" yaml:"title"`
}

// NavigationConfig holds the navigation policy switches.
type NavigationConfig struct {
	TabFocusDelegation   bool `mapstructure:"tab_focus_delegation" yaml:"tab_focus_delegation"`
	CrossTabHistory      bool `mapstructure:"cross_tab_history" yaml:"cross_tab_history"`
	ClearStackOnReselect bool `mapstructure:"clear_stack_on_reselect" yaml:"clear_stack_on_reselect"`
}

// SSHConfig configures the SSH server. An empty UsersFile admits any key.
type SSHConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath string `mapstructure:"host_key_path" yaml:"host_key_path"`
	UsersFile   string `mapstructure:"users_file" yaml:"users_file"`
}

// HTTPConfig configures the HTTP server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// BasePath mounts every route below a prefix such as "/tabstack".
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// Configuration returns the navigation policy.
func (c NavigationConfig) Configuration() schema.Configuration {
	return schema.NewConfiguration(c.TabFocusDelegation, c.CrossTabHistory, c.ClearStackOnReselect)
}

// TabInfos converts the configured tabs.
func (c Config) TabInfos() []schema.TabInfo {
	out := make([]schema.TabInfo, 0, len(c.Tabs))
	for _, tab := range c.Tabs {
		out = append(out, schema.TabInfo{ID: schema.TabID(tab.ID), Title: tab.Title})
	}
	return out
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDSN:      "sqlite://" + filepath.Join(home, ".tabstack", "state.db"),
		Tabs: []TabConfig{
			{ID: "home", Title: "Home"},
			{ID: "search", Title: "Search"},
			{ID: "profile", Title: "Profile"},
		},
		Navigation: NavigationConfig{
			TabFocusDelegation:   true,
			CrossTabHistory:      true,
			ClearStackOnReselect: true,
		},
		SSH: SSHConfig{
			Addr:        ":27522",
			HostKeyPath: filepath.Join(home, ".tabstack", "ssh_host_key"),
			UsersFile:   filepath.Join(home, ".tabstack", "users.json"),
		},
		HTTP: HTTPConfig{
			Addr: ":27580",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabstack", "config.yaml"), nil
}
