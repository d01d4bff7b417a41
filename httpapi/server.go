package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/internal/eventbus"
	"pkt.systems/tabstack/internal/logx"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/internal/version"
	"pkt.systems/tabstack/schema"
)

const maxSnapshotBytes = 1 << 20

// Server serves health, metrics, stored navigation state and live session events.
type Server struct {
	cfg      Config
	backend  persist.Backend
	metrics  *metrics.Metrics
	bus      *eventbus.Bus
	accounts *auth.Store
	prefix   string
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, deps Deps) *Server {
	return &Server{
		cfg:      cfg,
		backend:  deps.Backend,
		metrics:  deps.Metrics,
		bus:      deps.Bus,
		accounts: deps.Accounts,
		prefix:   mountPrefix(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /api/state/{user}", s.requireToken(s.handleGetState))
	mux.HandleFunc("PUT /api/state/{user}", s.requireToken(s.handlePutState))
	mux.HandleFunc("GET /api/events/{session}", s.handleEvents)
	return withAccessLog(mountAt(s.prefix, mux))
}

// mountPrefix turns a configured base path into "" or "/a/b".
func mountPrefix(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return path.Clean("/" + base)
}

// mountAt serves h below prefix and redirects the bare prefix to prefix/.
func mountAt(prefix string, h http.Handler) http.Handler {
	if prefix == "" {
		return h
	}
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, h))
	root.Handle(prefix, http.RedirectHandler(prefix+"/", http.StatusTemporaryRedirect))
	return root
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"build":   version.Build(),
		"streams": s.bus.Sessions(),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, userID schema.UserID) {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("state backend not configured"))
		return
	}
	snap, found, err := s.backend.Load(r.Context(), userID)
	if err != nil {
		logx.Ctx(r.Context(), logx.Scope{User: userID}).Warn("http state load failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("no state for user %q", userID))
		return
	}
	noteFields(r.Context(), "active_tab", snap.ActiveTab, "history_len", len(snap.History))
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request, userID schema.UserID) {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("state backend not configured"))
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := persist.Validate(data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var snap schema.NavSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	noteFields(r.Context(), "active_tab", snap.ActiveTab, "history_len", len(snap.History))
	err = s.backend.Save(r.Context(), userID, snap)
	s.metrics.SnapshotSaved(err)
	if err != nil {
		logx.Ctx(r.Context(), logx.Scope{User: userID}).Warn("http state save failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(strings.TrimSpace(r.PathValue("session")))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("session is required"))
		return
	}
	if s.bus == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("event stream not configured"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	noteFields(r.Context(), "session", sessionID)
	events, cancel := s.bus.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEvent(w, event); err != nil {
				pslog.Ctx(ctx).Warn("http event write failed", "session", sessionID, "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event schema.NavEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event.Type)
	_, err = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return err
}
