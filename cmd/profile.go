package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gmcli/internal/profile"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles",
		Long: `A profile names a Google OAuth client credentials file. Profiles are
stored in config.json inside the config directory ($GMCLI_CONFIG_DIR, or the
user config directory joined with "gmcli"); each keeps its own token.`,
	}
	cmd.AddCommand(newProfileListCmd(a), newProfileAddCmd(a))
	return cmd
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured profiles",
		Args:  cobra.NoArgs,
		RunE: a.run("profile.list", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			store, err := a.profileStore()
			if err != nil {
				return err
			}
			names, err := store.Names()
			var missing *profile.ConfigMissingError
			if errors.As(err, &missing) {
				names = nil
			} else if err != nil {
				return err
			}

			w := out(cmd)
			active := a.activeProfile()
			if a.jsonOutput {
				return printJSON(w, map[string]any{"active": active, "profiles": names})
			}
			if len(names) == 0 {
				fmt.Fprintf(w, "No profiles configured. Add one with 'gmcli profile add <name> --credentials <file>'.\n")
				return nil
			}
			for _, name := range names {
				marker := " "
				if name == active {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\n", marker, name)
			}
			return nil
		}),
	}
}

func newProfileAddCmd(a *app) *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a profile",
		Args:  cobra.ExactArgs(1),
		RunE: a.run("profile.add", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			store, err := a.profileStore()
			if err != nil {
				return err
			}
			if err := store.Add(args[0], credentials); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Profile %q saved to %s\n", args[0], store.ConfigPath())
			return nil
		}),
	}

	cmd.Flags().StringVar(&credentials, "credentials", "", "Path to the Google OAuth client JSON file")
	_ = cmd.MarkFlagRequired("credentials")
	return cmd
}
