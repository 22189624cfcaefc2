package gmail_tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/common"
)

func registerAttachmentTools(r *registry, readOnly bool) {
	r.add(mcp.NewTool("gmail_list_attachments",
		mcp.WithDescription("List all attachments in a Gmail message"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the Gmail message"),
		),
	), handleListAttachments)

	r.add(mcp.NewTool("gmail_get_attachment",
		mcp.WithDescription("Get the content of an attachment"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the Gmail message"),
		),
		mcp.WithString("attachmentId",
			mcp.Required(),
			mcp.Description("The ID of the attachment"),
		),
		mcp.WithString("encoding",
			mcp.Description("Encoding format: 'base64' (default) or 'text'"),
		),
	), handleGetAttachment)

	if readOnly {
		return
	}

	r.add(mcp.NewTool("gmail_download_attachments",
		mcp.WithDescription("Save the attachments of a Gmail message to a local directory"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the Gmail message"),
		),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory to write the files to; created if missing"),
		),
		mcp.WithString("filter",
			mcp.Description("Only download attachments whose filename or attachment ID is listed, comma-separated or an array"),
		),
	), handleDownloadAttachments)
}

func handleListAttachments(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	messageID, err := common.RequiredStringArg(request.GetArguments(), "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	attachments, err := client.ListAttachments(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list attachments: %v", err)), nil
	}
	if len(attachments) == 0 {
		return mcp.NewToolResultText("No attachments found in this message"), nil
	}
	return jsonResult(attachments)
}

func handleGetAttachment(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, err := common.RequiredStringArg(args, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attachmentID, err := common.RequiredStringArg(args, "attachmentId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoding := strings.ToLower(common.StringArg(args, "encoding"))
	if encoding == "" {
		encoding = "base64"
	}
	if encoding != "base64" && encoding != "text" {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid encoding: %s (must be 'base64' or 'text')", encoding)), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	data, err := client.GetAttachment(ctx, messageID, attachmentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get attachment: %v", err)), nil
	}

	if encoding == "text" {
		if !utf8.Valid(data) {
			return mcp.NewToolResultError("Attachment is not valid UTF-8 text; use encoding 'base64'"), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return mcp.NewToolResultText(fmt.Sprintf("Attachment content (base64, %d bytes):\n%s", len(data), encoded)), nil
}

func handleDownloadAttachments(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	messageID, err := common.RequiredStringArg(args, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := common.RequiredStringArg(args, "dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter, err := common.ListArg(args, "filter")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	paths, err := client.DownloadAttachments(ctx, messageID, dir, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to download attachments: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("No matching attachments found"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %d attachment(s):\n%s", len(paths), strings.Join(paths, "\n"))), nil
}
