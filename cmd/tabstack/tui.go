package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/appconfig"
	"pkt.systems/tabstack/internal/eventbus"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/schema"
	"pkt.systems/tabstack/tui"
)

func newTUICmd() *cobra.Command {
	var cfgPath string
	var user string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run a navigation session in the local terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if user == "" {
				user = os.Getenv("USER")
			}
			userID := schema.UserID(user)
			if err := schema.ValidateUserID(userID); err != nil {
				return fmt.Errorf("user %q: %w", user, err)
			}
			backend, err := persist.Open(cfg.StateDSN, logger)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			var restore *schema.NavSnapshot
			if snap, ok, err := backend.Load(ctx, userID); err != nil {
				logger.Warn("tui state load failed", "err", err)
			} else if ok {
				restore = &snap
			}

			sessionID := schema.SessionID(uuid.NewString())
			bus := eventbus.New(logger)
			events, unsubscribe := bus.Subscribe(sessionID)
			defer unsubscribe()
			session, err := tui.NewSession(ctx, tui.SessionOptions{
				SessionID: sessionID,
				Tabs:      cfg.TabInfos(),
				Config:    cfg.Navigation.Configuration(),
				Restore:   restore,
				EventSink: bus,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			writer := persist.NewWriter(context.WithoutCancel(ctx), func(ctx context.Context, snap schema.NavSnapshot) error {
				return backend.Save(ctx, userID, snap)
			}, logger)
			model := tui.New(tui.Options{
				Session: session,
				Events:  events,
				Save:    writer.Submit,
			})
			program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
			_, runErr := program.Run()
			final := session.Nav.Snapshot()
			if err := writer.Close(context.WithoutCancel(ctx), &final); err != nil {
				return err
			}
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user whose state is loaded and saved (default $USER)")
	return cmd
}
