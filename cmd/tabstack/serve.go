package main

import (
	"context"
	"net/url"
	"strings"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstack"
	"pkt.systems/tabstack/httpapi"
	"pkt.systems/tabstack/internal/appconfig"
	"pkt.systems/tabstack/internal/metrics"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/sshserver"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SSH and HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			backend, err := persist.Open(cfg.StateDSN, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := backend.Close(); err != nil {
					logger.Warn("state backend close failed", "err", err)
				}
			}()
			logger.Info("state backend opened", "dsn", redactDSN(cfg.StateDSN))

			options := []tabstack.ServerOption{tabstack.WithSSH()}
			if cfg.HTTP.Addr != "" {
				options = append(options, tabstack.WithHTTP())
			}
			server, err := tabstack.New(tabstack.ServerConfig{
				HTTP:     httpapi.Config{Addr: cfg.HTTP.Addr, BasePath: cfg.HTTP.BasePath},
				SSH:      sshserver.Config{Addr: cfg.SSH.Addr, HostKeyPath: cfg.SSH.HostKeyPath, UsersFile: cfg.SSH.UsersFile},
				Settings: settingsFromConfig(cfg),
			}, tabstack.ServerDeps{
				Backend: backend,
				Metrics: metrics.New(),
				Logger:  logger,
			}, options...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if !noWatch {
				go func() {
					err := appconfig.Watch(ctx, cfgPath, func(next appconfig.Config) {
						server.Reload(settingsFromConfig(next))
					})
					if err != nil {
						logger.Warn("config watch failed", "err", err)
					}
				}()
			}
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload navigation settings when the config changes")
	return cmd
}

func settingsFromConfig(cfg appconfig.Config) sshserver.Settings {
	return sshserver.Settings{
		Tabs:       cfg.TabInfos(),
		Navigation: cfg.Navigation.Configuration(),
	}
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsn
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "<invalid>"
	}
	return parsed.Redacted()
}
