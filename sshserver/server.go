package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gliderssh "github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"pkt.systems/pslog"
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/internal/eventbus"
	"pkt.systems/tabstack/internal/logx"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/schema"
	"pkt.systems/tabstack/tui"
)

const saveTimeout = 5 * time.Second

// Server runs one navigation session per SSH connection.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Backend     persist.Backend
	EventBus    *eventbus.Bus
	EventSink   core.EventSink
	Metrics     *metrics.Metrics
	// Users restricts logins and supplies home tabs when set.
	Users       *auth.Store

	mu       sync.RWMutex
	settings Settings
	logger   pslog.Logger
}

// SetSettings replaces the settings used for sessions opened from now on.
func (s *Server) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = Settings{
		Tabs:       append([]schema.TabInfo(nil), settings.Tabs...),
		Navigation: settings.Navigation,
	}
}

func (s *Server) currentSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if len(s.currentSettings().Tabs) == 0 {
		return errors.New("ssh server requires at least one tab")
	}

	signer, err := HostKey(s.HostKeyPath, s.logger)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("ssh listening", "addr", s.Addr)

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

// handlePublicKey checks the key against the users file. Without one any key
// is admitted and state is keyed by the SSH user name alone.
func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	userID := schema.UserID(ctx.User())
	fingerprint := ssh.FingerprintSHA256(key)
	if err := schema.ValidateUserID(userID); err != nil {
		log.Warn("ssh pubkey rejected", "reason", "invalid user", "user", ctx.User(), "remote", remoteAddr(ctx))
		return false
	}
	if s.Users != nil {
		ok, err := s.Users.Authorized(userID, key)
		if err != nil {
			log.Warn("ssh pubkey check failed", "user", userID, "remote", remoteAddr(ctx), "err", err)
			return false
		}
		if !ok {
			log.Warn("ssh pubkey rejected", "reason", "unknown key", "user", userID, "remote", remoteAddr(ctx), "fingerprint", fingerprint)
			return false
		}
	}
	log.Info("ssh pubkey accepted", "user", userID, "remote", remoteAddr(ctx), "fingerprint", fingerprint)
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	userID := schema.UserID(sess.User())
	if userID == "" {
		log.Info("ssh session rejected", "reason", "missing user", "remote", sess.RemoteAddr().String())
		_, _ = io.WriteString(sess, "missing user\n")
		return
	}
	sessionID := schema.SessionID(uuid.NewString())
	ctx := logx.ContextWithScope(sess.Context(), log.With("remote", sess.RemoteAddr().String()), logx.Scope{User: userID, Session: sessionID})
	log = pslog.Ctx(ctx)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		return
	}

	var events <-chan schema.NavEvent
	if s.EventBus != nil {
		var unsubscribe func()
		events, unsubscribe = s.EventBus.Subscribe(sessionID)
		defer unsubscribe()
	}
	session, err := s.openSession(ctx, userID, sessionID)
	if err != nil {
		log.Warn("ssh session failed", "err", err)
		_, _ = fmt.Fprintf(sess, "session failed: %v\n", err)
		return
	}
	defer session.Close()
	s.Metrics.SessionStarted()
	defer s.Metrics.SessionEnded()
	logx.Ctx(ctx, logx.Scope{Tab: session.Nav.ActiveTab()}).Info("ssh session opened", "term", pty.Term)

	// Saves outlive the connection so the final snapshot lands after a disconnect.
	writer := persist.NewWriter(context.WithoutCancel(ctx), func(ctx context.Context, snap schema.NavSnapshot) error {
		return s.save(ctx, userID, snap)
	}, log)
	model := tui.New(tui.Options{
		Session: session,
		Events:  events,
		Save:    writer.Submit,
	})
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(sess),
		tea.WithOutput(sess),
		tea.WithAltScreen(),
	)
	go func() {
		program.Send(tea.WindowSizeMsg{Width: pty.Window.Width, Height: pty.Window.Height})
		for win := range winCh {
			program.Send(tea.WindowSizeMsg{Width: win.Width, Height: win.Height})
		}
	}()
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		log.Warn("ssh session program failed", "err", err)
	}
	final := session.Nav.Snapshot()
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*saveTimeout)
	defer cancel()
	if err := writer.Close(closeCtx, &final); err != nil {
		log.Warn("ssh session final save failed", "err", err)
	}
	log.Info("ssh session closed")
}

// openSession builds a navigation session seeded from the user's stored
// snapshot. Load failures fall back to a fresh state that starts on the
// account's home tab when one is set.
func (s *Server) openSession(ctx context.Context, userID schema.UserID, sessionID schema.SessionID) (*tui.Session, error) {
	settings := s.currentSettings()
	log := pslog.Ctx(ctx)
	var home schema.TabID
	if s.Users != nil {
		acct, err := s.Users.Account(userID)
		switch {
		case errors.Is(err, auth.ErrUnknownAccount):
		case err != nil:
			log.Warn("ssh account lookup failed", "err", err)
		default:
			home = acct.HomeTab
		}
	}
	var restore *schema.NavSnapshot
	if s.Backend != nil {
		snap, ok, err := s.Backend.Load(ctx, userID)
		switch {
		case err != nil:
			log.Warn("ssh state load failed", "err", err)
		case ok:
			restore = &snap
		}
	}
	return tui.NewSession(ctx, tui.SessionOptions{
		SessionID: sessionID,
		Tabs:      settings.Tabs,
		Config:    settings.Navigation,
		Initial:   home,
		Restore:   restore,
		EventSink: s.EventSink,
		Logger:    log,
	})
}

func (s *Server) save(ctx context.Context, userID schema.UserID, snap schema.NavSnapshot) error {
	if s.Backend == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	err := s.Backend.Save(ctx, userID, snap)
	s.Metrics.SnapshotSaved(err)
	return err
}
