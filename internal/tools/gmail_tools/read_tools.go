package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/batch"
	"github.com/teemow/gmcli/internal/tools/common"
)

func registerReadTools(r *registry) {
	r.add(mcp.NewTool("gmail_auth_status",
		mcp.WithDescription("Report whether the active profile holds a valid Gmail authorization"),
	), handleAuthStatus)

	r.add(mcp.NewTool("gmail_search",
		mcp.WithDescription("Search Gmail messages and return their headers and snippets"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com is:unread')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of messages to return (default: %d)", gmail.DefaultSearchLimit)),
		),
	), handleSearch)

	r.add(mcp.NewTool("gmail_read",
		mcp.WithDescription("Read one or more Gmail messages including headers, bodies and attachment metadata"),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs"),
		),
	), handleRead)

	r.add(mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List the labels of the mailbox"),
		mcp.WithBoolean("refresh",
			mcp.Description("Bypass the label cache (default: false)"),
		),
	), handleListLabels)
}

func handleAuthStatus(ctx context.Context, _ mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	st, err := sess.Manager().Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check authentication: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", st.Profile)
	switch {
	case !st.Authenticated:
		b.WriteString("Status: not authenticated. Run 'gmcli auth login' to authorize access.")
	case !st.Valid:
		fmt.Fprintf(&b, "Status: authenticated, but %s. Run 'gmcli auth login' again.", st.Reason)
	default:
		fmt.Fprintf(&b, "Status: authenticated\nAccount: %s\nScopes: %s",
			st.Account.Email, strings.Join(st.Account.Scopes, ", "))
		if !st.Account.Expiry.IsZero() {
			fmt.Fprintf(&b, "\nExpires: %s", st.Account.Expiry.Format("2006-01-02 15:04:05 MST"))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := common.RequiredStringArg(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := common.IntArg(args, "maxResults", gmail.DefaultSearchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	messages, err := client.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages found for query: %s", query)), nil
	}
	return jsonResult(messages)
}

func handleRead(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	if len(ids) == 1 {
		detail, err := client.ReadMessage(ctx, ids[0])
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read message: %v", err)), nil
		}
		return jsonResult(detail)
	}

	var out readResult
	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		detail, err := client.ReadMessage(ctx, id)
		if err != nil {
			return "", err
		}
		out.Messages = append(out.Messages, detail)
		return detail.Subject, nil
	})
	out.BatchResult = batch.Summarize(results)
	return jsonResult(out)
}

// readResult reports a multi-message read: the per-ID outcomes followed by
// the messages that could be read.
type readResult struct {
	batch.BatchResult
	Messages []*gmail.MessageDetail `json:"messages"`
}

func handleListLabels(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	refresh := common.BoolArg(request.GetArguments(), "refresh")

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	labels, err := client.Labels().Labels(ctx, refresh)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}

	type labelInfo struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type,omitempty"`
	}
	out := make([]labelInfo, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelInfo{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return jsonResult(out)
}
