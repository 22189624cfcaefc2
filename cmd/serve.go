package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmcli/internal/logging"
	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/gmail_tools"
)

func newServeCmd(a *app) *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol (MCP) server on standard input/output,
exposing the active profile's mailbox as tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (sending, replying, label changes and
  saving attachments to disk).

Logs go to stderr so they never mix with the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			return runServe(a, sess, !yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (sending email, modifying labels, etc.). Default is read-only mode.")
	return cmd
}

// newMCPServer creates the MCP server with all tools registered.
func newMCPServer(a *app, sess *session.Session, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("gmcli", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := gmail_tools.RegisterGmailTools(mcpSrv, sess, a.logger, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register Gmail tools: %w", err)
	}
	return mcpSrv, nil
}

func runServe(a *app, sess *session.Session, readOnly bool) error {
	mcpSrv, err := newMCPServer(a, sess, readOnly)
	if err != nil {
		return err
	}

	a.logger.Info("starting MCP server",
		logging.Profile(sess.Manager().Profile()),
		"read_only", readOnly,
		"transport", "stdio",
	)
	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
