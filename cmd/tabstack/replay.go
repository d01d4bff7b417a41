package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/core"
	"pkt.systems/tabstack/internal/format"
	"pkt.systems/tabstack/internal/persist"
	"pkt.systems/tabstack/internal/script"
	"pkt.systems/tabstack/schema"
)

type replayOptions struct {
	stateDSN   string
	user       string
	showEvents bool
	jsonOutput bool
}

func (o *replayOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.stateDSN, "state", "", "state DSN to restore from and save to (requires --user)")
	cmd.Flags().StringVar(&o.user, "user", "", "user whose stored state seeds the replay")
	cmd.Flags().BoolVar(&o.showEvents, "events", false, "print navigation events")
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "print the result as JSON")
}

func newReplayCmd() *cobra.Command {
	var opts replayOptions
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a navigation script against a headless host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.ParseFile(args[0])
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), s, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func newDemoCmd() *cobra.Command {
	var opts replayOptions
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Replay the built-in navigation walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Demo()
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), cmd.OutOrStdout(), s, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runReplay(ctx context.Context, out io.Writer, s script.Script, opts replayOptions) error {
	logger := pslog.Ctx(ctx)
	if (opts.stateDSN == "") != (opts.user == "") {
		return fmt.Errorf("--state and --user must be set together")
	}
	runOpts := script.Options{SessionID: schema.SessionID(uuid.NewString())}
	if opts.showEvents {
		renderer := format.NewPlainRenderer()
		runOpts.EventSink = core.EventSinkFunc(func(event schema.NavEvent) {
			_, _ = fmt.Fprintf(out, "  event %s\n", renderer.Fields(event))
		})
	}

	var backend persist.Backend
	userID := schema.UserID(opts.user)
	if opts.stateDSN != "" {
		var err error
		backend, err = persist.Open(opts.stateDSN, logger)
		if err != nil {
			return err
		}
		defer func() { _ = backend.Close() }()
		snap, ok, err := backend.Load(ctx, userID)
		if err != nil {
			return err
		}
		if ok {
			runOpts.Restore = &snap
			logger.Info("replay restored state", "user", userID, "active_tab", snap.ActiveTab, "history_len", len(snap.History))
		}
	}

	result, runErr := script.Run(ctx, s, runOpts)
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(out, s, result)
	}
	if runErr != nil {
		return runErr
	}
	if backend != nil {
		if err := backend.Save(ctx, userID, result.Snapshot); err != nil {
			return err
		}
		logger.Info("replay saved state", "user", userID)
	}
	return nil
}

func printResult(out io.Writer, s script.Script, result script.Result) {
	if s.Name != "" {
		_, _ = fmt.Fprintf(out, "# %s\n", s.Name)
	}
	for _, step := range result.Steps {
		marker := " "
		if step.Intercepting {
			marker = "*"
		}
		_, _ = fmt.Fprintf(out, "%3d %s %-24s active=%-10s depth=%d history=[%s]\n",
			step.Index, marker, step.Step, step.Active, step.Depth, strings.Join(step.History, " "))
	}
	_, _ = fmt.Fprintf(out, "fallbacks=%d final=%s\n", result.Fallbacks, result.Snapshot.ActiveTab)
}
