package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/common"
)

func registerEmailTools(r *registry) {
	r.add(mcp.NewTool("gmail_send",
		mcp.WithDescription("Send an email through Gmail, or save it as a draft"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Description("Plain text body"),
		),
		mcp.WithString("html",
			mcp.Description("HTML body; sent as an alternative to the plain text body when both are given"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithString("attachments",
			mcp.Description("Local file path(s) to attach, comma-separated or an array"),
		),
		mcp.WithBoolean("draft",
			mcp.Description("Save as a draft instead of sending (default: false)"),
		),
	), handleSend)

	r.add(mcp.NewTool("gmail_reply",
		mcp.WithDescription("Reply to a Gmail message within its thread"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message being replied to"),
		),
		mcp.WithString("body",
			mcp.Description("Plain text reply"),
		),
		mcp.WithString("html",
			mcp.Description("HTML reply"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address(es), comma-separated"),
		),
		mcp.WithString("attachments",
			mcp.Description("Local file path(s) to attach, comma-separated or an array"),
		),
		mcp.WithBoolean("quote",
			mcp.Description("Quote the original message below the reply (default: false)"),
		),
		mcp.WithBoolean("draft",
			mcp.Description("Save as a draft instead of sending (default: false)"),
		),
	), handleReply)
}

func handleSend(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	toStr, err := common.RequiredStringArg(args, "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subject, err := common.RequiredStringArg(args, "subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body := common.StringArg(args, "body")
	html := common.StringArg(args, "html")
	if body == "" && html == "" {
		return mcp.NewToolResultError("either body or html is required"), nil
	}
	attachments, err := common.ListArg(args, "attachments")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg := &gmail.OutgoingMessage{
		To:          common.SplitList(toStr),
		Cc:          common.SplitList(common.StringArg(args, "cc")),
		Bcc:         common.SplitList(common.StringArg(args, "bcc")),
		Subject:     subject,
		Text:        body,
		HTML:        html,
		Attachments: attachments,
	}
	draft := common.BoolArg(args, "draft")

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	res, err := client.SendEmail(ctx, msg, draft)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}

	text := describeResult(res, draft) + fmt.Sprintf("\nTo: %s\nSubject: %s", strings.Join(msg.To, ", "), subject)
	if len(msg.Cc) > 0 {
		text += fmt.Sprintf("\nCC: %s", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		text += fmt.Sprintf("\nBCC: %s", strings.Join(msg.Bcc, ", "))
	}
	return mcp.NewToolResultText(text), nil
}

func handleReply(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, err := common.RequiredStringArg(args, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := &gmail.ReplyRequest{
		MessageID: messageID,
		Text:      common.StringArg(args, "body"),
		HTML:      common.StringArg(args, "html"),
		Cc:        common.SplitList(common.StringArg(args, "cc")),
		Bcc:       common.SplitList(common.StringArg(args, "bcc")),
		Quote:     common.BoolArg(args, "quote"),
		Draft:     common.BoolArg(args, "draft"),
	}
	if req.Text == "" && req.HTML == "" {
		return mcp.NewToolResultError("either body or html is required"), nil
	}
	if req.Attachments, err = common.ListArg(args, "attachments"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	res, err := client.ReplyToEmail(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to reply: %v", err)), nil
	}
	return mcp.NewToolResultText(describeResult(res, req.Draft)), nil
}

func describeResult(res *gmail.SendResult, draft bool) string {
	if draft {
		return fmt.Sprintf("Draft saved successfully!\nDraft ID: %s\nMessage ID: %s\nThread ID: %s\nURL: %s",
			res.DraftID, res.ID, res.ThreadID, res.URL)
	}
	return fmt.Sprintf("Email sent successfully!\nMessage ID: %s\nThread ID: %s", res.ID, res.ThreadID)
}
