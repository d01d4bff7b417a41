package httpapi

import (
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/internal/eventbus"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
)

// Config defines HTTP API settings.
type Config struct {
	Addr string
	// BasePath mounts every route below a prefix such as /tabstack.
	BasePath string
}

// Deps are the collaborators the HTTP API serves from.
type Deps struct {
	Backend persist.Backend
	Metrics *metrics.Metrics
	Bus     *eventbus.Bus
	// Accounts verifies bearer tokens on the state routes. Without it the
	// state routes refuse every request.
	Accounts *auth.Store
}
