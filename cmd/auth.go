package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gmcli/internal/google"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google authorization of the active profile",
	}
	cmd.AddCommand(newAuthLoginCmd(a), newAuthLogoutCmd(a), newAuthStatusCmd(a))
	return cmd
}

func newAuthLoginCmd(a *app) *cobra.Command {
	var (
		noBrowser bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize gmcli to access Gmail",
		Long: fmt.Sprintf(`Start the OAuth2 authorization-code flow for the active profile.

A local listener on http://localhost:%d%s receives the redirect from
Google; register that URL as an authorized redirect URI of the OAuth client.
The authorization URL is printed and, unless --no-browser is given, opened
in the default browser. By default the command waits for the browser until
interrupted; --timeout bounds the wait.`, google.DefaultCallbackPort, google.CallbackPath),
		Args: cobra.NoArgs,
		RunE: a.run("auth.login", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			manager, err := a.manager()
			if err != nil {
				return err
			}

			w := out(cmd)
			info, err := manager.Login(ctx, google.LoginOptions{
				OpenBrowser: !noBrowser,
				Timeout:     timeout,
				OnAuthURL: func(url string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in your browser to authorize gmcli:\n\n  %s\n\nWaiting for authorization...\n", url)
				},
			})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return printJSON(w, info)
			}
			printLogin(w, manager.Profile(), info)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL without opening a browser")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting for the browser after this long (0 waits forever)")
	return cmd
}

// printLogin reports a completed login. The account lookup may fail after
// the token was saved, in which case Email is empty.
func printLogin(w io.Writer, profileName string, info *google.AccountInfo) {
	if info.Email == "" {
		fmt.Fprintf(w, "Logged in to profile %q (account lookup failed)\n", profileName)
	} else {
		fmt.Fprintf(w, "Logged in to profile %q as %s\n", profileName, info.Email)
	}
	if len(info.Scopes) > 0 {
		fmt.Fprintf(w, "Scopes: %s\n", strings.Join(info.Scopes, " "))
	}
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored token of the active profile",
		Args:  cobra.NoArgs,
		RunE: a.run("auth.logout", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			manager, err := a.manager()
			if err != nil {
				return err
			}
			removed, err := manager.Logout()
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(out(cmd), "Logged out of profile %q\n", manager.Profile())
			} else {
				fmt.Fprintf(out(cmd), "Profile %q is not currently logged in\n", manager.Profile())
			}
			return nil
		}),
	}
}

func newAuthStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the active profile is authenticated",
		Args:  cobra.NoArgs,
		RunE: a.run("auth.status", func(ctx context.Context, cmd *cobra.Command, args []string) error {
			manager, err := a.manager()
			if err != nil {
				return err
			}
			st, err := manager.Status(ctx)
			if err != nil {
				return err
			}

			w := out(cmd)
			if a.jsonOutput {
				return printJSON(w, st)
			}
			fmt.Fprintf(w, "Profile: %s\n", st.Profile)
			switch {
			case !st.Authenticated:
				fmt.Fprintln(w, "Status:  not authenticated (run 'gmcli auth login')")
			case !st.Valid:
				fmt.Fprintf(w, "Status:  %s (run 'gmcli auth login' again)\n", st.Reason)
			default:
				fmt.Fprintln(w, "Status:  authenticated")
				fmt.Fprintf(w, "Account: %s\n", st.Account.Email)
				fmt.Fprintf(w, "Scopes:  %s\n", strings.Join(st.Account.Scopes, " "))
				if !st.Account.Expiry.IsZero() {
					fmt.Fprintf(w, "Expires: %s\n", st.Account.Expiry.Format(time.RFC3339))
				}
			}
			return nil
		}),
	}
}
