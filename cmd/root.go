package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/google"
	"github.com/teemow/gmcli/internal/instrumentation"
	"github.com/teemow/gmcli/internal/logging"
	"github.com/teemow/gmcli/internal/profile"
	"github.com/teemow/gmcli/internal/session"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI.
func SetVersion(v string) {
	version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.teardown()
	if err != nil {
		os.Exit(1)
	}
}

// app carries the per-invocation state shared by all commands: the global
// flags and the logger and instrumentation provider built from them.
type app struct {
	profileFlag string
	logLevel    string
	logFormat   string
	jsonOutput  bool

	logger   *slog.Logger
	provider *instrumentation.Provider
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gmcli",
		Short: "Command-line client for Gmail",
		Long: `gmcli searches, reads, sends and organizes Gmail messages from the terminal.

Each profile pairs a Google OAuth client with its own stored token, so
several accounts can be used side by side. Select one with --profile or
GMCLI_PROFILE; run 'gmcli auth login' once per profile.

It can also run as an MCP (Model Context Protocol) server for AI assistants.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "gmcli version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&a.profileFlag, "profile", "p", "", "Profile to use (default: $"+profile.EnvProfile+" or '"+profile.DefaultProfile+"')")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newAuthCmd(a),
		newProfileCmd(a),
		newSearchCmd(a),
		newReadCmd(a),
		newSendCmd(a),
		newReplyCmd(a),
		newLabelsCmd(a),
		newAttachmentsCmd(a),
		newServeCmd(a),
		newGenerateDocsCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	a.logger = logging.New(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
	slog.SetDefault(a.logger)

	config := instrumentation.DefaultConfig()
	config.ServiceVersion = version

	provider, err := instrumentation.NewProvider(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a.provider = provider
	return nil
}

// teardown flushes instrumentation. It runs after the command whether or
// not it failed.
func (a *app) teardown() {
	if a.provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
	a.provider = nil
}

func (a *app) metrics() *instrumentation.Metrics {
	if a.provider == nil {
		return nil
	}
	return a.provider.Metrics()
}

func (a *app) profileStore() (*profile.Store, error) {
	dir, err := profile.DefaultDir()
	if err != nil {
		return nil, err
	}
	return profile.NewStore(dir), nil
}

// activeProfile returns the name selected by --profile or the environment.
func (a *app) activeProfile() string {
	return profile.Resolve(a.profileFlag)
}

func (a *app) manager() (*google.Manager, error) {
	store, err := a.profileStore()
	if err != nil {
		return nil, err
	}
	p, err := store.Load(a.activeProfile())
	if err != nil {
		return nil, err
	}
	return google.FromProfile(p,
		google.WithMetrics(a.metrics()),
		google.WithLogger(a.logger),
	)
}

func (a *app) session() (*session.Session, error) {
	manager, err := a.manager()
	if err != nil {
		return nil, err
	}
	return session.New(manager,
		gmail.WithMetrics(a.metrics()),
		gmail.WithLogger(logging.WithProfile(a.logger, manager.Profile())),
	), nil
}

// gmailClient opens the session and returns its client.
func (a *app) gmailClient(ctx context.Context) (*gmail.Client, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	return sess.Gmail(ctx)
}

// run wraps a command body with a span and the command metrics.
func (a *app) run(name string, fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, span := instrumentation.StartCommandSpan(cmd.Context(), name)
		defer span.End()

		start := time.Now()
		err := fn(ctx, cmd, args)
		a.metrics().RecordCommand(ctx, name, instrumentation.StatusFor(err), time.Since(start))
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		return err
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
