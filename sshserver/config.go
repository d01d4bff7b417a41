package sshserver

import "pkt.systems/tabstack/schema"

// Settings are the navigation settings applied to new SSH sessions.
type Settings struct {
	Tabs       []schema.TabInfo
	Navigation schema.Configuration
}

// Config defines SSH listener settings.
type Config struct {
	Addr        string
	HostKeyPath string
	// UsersFile restricts logins to the keys it lists. Empty admits any key.
	UsersFile   string
}
