package gmail_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/common"
)

// registry adds tools to the server through the instrumentation wrapper.
type registry struct {
	s      *mcpserver.MCPServer
	sess   *session.Session
	logger *slog.Logger
}

func (r *registry) add(tool mcp.Tool, handler func(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error)) {
	r.s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, r.sess.Manager().Metrics(), r.logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, request, r.sess)
		}))
}

// RegisterGmailTools registers all Gmail tools with the MCP server. Tools
// that change the mailbox or the local filesystem are skipped when
// readOnly is set.
func RegisterGmailTools(s *mcpserver.MCPServer, sess *session.Session, logger *slog.Logger, readOnly bool) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &registry{s: s, sess: sess, logger: logger}

	registerReadTools(r)
	registerAttachmentTools(r, readOnly)
	if !readOnly {
		registerEmailTools(r)
		registerLabelTools(r)
	}
	return nil
}

// gmailClient returns the session's client or a tool error result explaining
// why it could not be created.
func gmailClient(ctx context.Context, sess *session.Session) (*gmail.Client, *mcp.CallToolResult) {
	client, err := sess.Gmail(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client: %v", err))
	}
	return client, nil
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
