package tabstack

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/httpapi"
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/internal/eventbus"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/sshserver"
)

// Server composes the HTTP and SSH services.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Reload applies new navigation settings to sessions opened afterwards.
	Reload(settings sshserver.Settings)
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	HTTP     httpapi.Config
	SSH      sshserver.Config
	Settings sshserver.Settings
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	Backend   persist.Backend
	Metrics   *metrics.Metrics
	EventSink core.EventSink
	Logger    pslog.Logger
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableSSH  bool
}

// WithHTTP enables the HTTP API server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH server.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// New constructs a composable tabstack server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	if deps.Backend == nil {
		return nil, errors.New("state backend is required")
	}
	if options.enableSSH && len(cfg.Settings.Tabs) == 0 {
		return nil, errors.New("at least one tab is required")
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	bus := eventbus.New(deps.Logger)

	// One accounts store admits SSH logins and HTTP state tokens.
	var users *auth.Store
	if cfg.SSH.UsersFile != "" {
		store, err := auth.Open(cfg.SSH.UsersFile, deps.Logger)
		if err != nil {
			return nil, err
		}
		users = store
	}

	var httpSrv *httpapi.Server
	var sshSrv *sshserver.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, httpapi.Deps{
			Backend:  deps.Backend,
			Metrics:  m,
			Bus:      bus,
			Accounts: users,
		})
	}
	if options.enableSSH {
		sshSrv = &sshserver.Server{
			Addr:        cfg.SSH.Addr,
			HostKeyPath: cfg.SSH.HostKeyPath,
			Backend:     deps.Backend,
			EventBus:    bus,
			EventSink:   joinSinks(deps.EventSink, bus, m),
			Metrics:     m,
			Users:       users,
		}
		sshSrv.SetSettings(cfg.Settings)
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		httpSrv: httpSrv,
		sshSrv:  sshSrv,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	httpSrv *httpapi.Server
	sshSrv  *sshserver.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"ssh_addr", s.cfg.SSH.Addr,
		"tabs", len(s.cfg.Settings.Tabs),
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.options.enableSSH && s.sshSrv != nil {
		go func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}

func (s *compositeServer) Reload(settings sshserver.Settings) {
	s.mu.Lock()
	s.cfg.Settings = settings
	log := s.logger
	s.mu.Unlock()
	if s.sshSrv != nil {
		s.sshSrv.SetSettings(settings)
	}
	if log != nil {
		log.Info("server settings reloaded", "tabs", len(settings.Tabs))
	}
}
