package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstack/internal/appconfig"
	"pkt.systems/tabstack/internal/auth"
	"pkt.systems/tabstack/schema"
)

func newUsersCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts, login keys, API tokens and home tabs",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newUsersListCmd(&cfgPath))
	cmd.AddCommand(newUsersAddCmd(&cfgPath))
	cmd.AddCommand(newUsersDeleteCmd(&cfgPath))
	cmd.AddCommand(newUsersAddKeyCmd(&cfgPath))
	cmd.AddCommand(newUsersKeysCmd(&cfgPath))
	cmd.AddCommand(newUsersRemoveKeyCmd(&cfgPath))
	cmd.AddCommand(newUsersTokenCmd(&cfgPath))
	cmd.AddCommand(newUsersRevokeTokenCmd(&cfgPath))
	cmd.AddCommand(newUsersHomeCmd(&cfgPath))

	return cmd
}

// openAccounts opens the users file together with the configured tabs, which
// home tab changes are checked against.
func openAccounts(cmd *cobra.Command, cfgPath string) (*auth.Store, appconfig.Config, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	if strings.TrimSpace(cfg.SSH.UsersFile) == "" {
		return nil, cfg, fmt.Errorf("ssh.users_file is not set; logins are unrestricted and the state api is disabled")
	}
	store, err := auth.Open(cfg.SSH.UsersFile, pslog.Ctx(cmd.Context()))
	return store, cfg, err
}

func newUsersListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			accounts, err := store.Accounts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, acct := range accounts {
				token := "no"
				if acct.HasToken() {
					token = "yes"
				}
				home := string(acct.HomeTab)
				if home == "" {
					home = "-"
				}
				_, _ = fmt.Fprintf(out, "%s\t%d keys\ttoken=%s\thome=%s\n", acct.Name, len(acct.LoginKeys), token, home)
			}
			return nil
		},
	}
}

func newUsersAddCmd(cfgPath *string) *cobra.Command {
	var keyFile string
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			acct := auth.Account{Name: schema.UserID(args[0])}
			if keyFile != "" {
				key, err := readPubKey(keyFile)
				if err != nil {
					return err
				}
				acct.LoginKeys = []string{key}
			}
			return store.Create(acct)
		},
	}
	cmd.Flags().StringVar(&keyFile, "key", "", "authorized_keys line or file to add as the first login key")
	return cmd
}

func newUsersDeleteCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			return store.Remove(schema.UserID(args[0]))
		},
	}
}

func newUsersAddKeyCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "addkey <username> <pubkey-or-file>",
		Short: "Add a login public key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			key, err := readPubKey(args[1])
			if err != nil {
				return err
			}
			index, err := store.AddLoginKey(schema.UserID(args[0]), key)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added key %d\n", index)
			return err
		},
	}
}

func newUsersKeysCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <username>",
		Short: "List login public keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			acct, err := store.Account(schema.UserID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, key := range acct.LoginKeys {
				_, _ = fmt.Fprintf(out, "%d\t%s\n", i+1, key)
			}
			return nil
		},
	}
}

func newUsersRemoveKeyCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rmkey <username> <index>",
		Short: "Remove a login public key by index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid key index %q", args[1])
			}
			return store.RemoveLoginKey(schema.UserID(args[0]), index)
		},
	}
}

func newUsersTokenCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a state API token, replacing the previous one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			token, err := store.IssueToken(schema.UserID(args[0]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}

func newUsersRevokeTokenCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-token <username>",
		Short: "Revoke the state API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			return store.RevokeToken(schema.UserID(args[0]))
		},
	}
}

func newUsersHomeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "home <username> [tab]",
		Short: "Set the tab new sessions open on; omit the tab to clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openAccounts(cmd, *cfgPath)
			if err != nil {
				return err
			}
			var tab schema.TabID
			if len(args) == 2 {
				tab = schema.TabID(strings.TrimSpace(args[1]))
				if !configuredTab(cfg, tab) {
					return fmt.Errorf("%w: %s", schema.ErrTabNotFound, tab)
				}
			}
			return store.SetHomeTab(schema.UserID(args[0]), tab)
		},
	}
}

func configuredTab(cfg appconfig.Config, tab schema.TabID) bool {
	for _, info := range cfg.TabInfos() {
		if info.ID == tab {
			return true
		}
	}
	return false
}

// readPubKey accepts an authorized_keys line or a path to a file holding one.
func readPubKey(value string) (string, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "ssh-") || strings.HasPrefix(value, "ecdsa-") {
		return value, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return "", fmt.Errorf("read pubkey: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
