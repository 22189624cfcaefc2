package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gmcli/internal/session"
	"github.com/teemow/gmcli/internal/tools/batch"
	"github.com/teemow/gmcli/internal/tools/common"
)

func registerLabelTools(r *registry) {
	r.add(mcp.NewTool("gmail_modify_labels",
		mcp.WithDescription("Add or remove labels on one or more Gmail messages. Labels may be given by name, ID or superstar name (e.g. 'red-star')"),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs"),
		),
		mcp.WithString("add",
			mcp.Description("Label(s) to add, comma-separated or an array"),
		),
		mcp.WithString("remove",
			mcp.Description("Label(s) to remove, comma-separated or an array"),
		),
	), handleModifyLabels)
}

func handleModifyLabels(ctx context.Context, request mcp.CallToolRequest, sess *session.Session) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	add, err := common.ListArg(args, "add")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remove, err := common.ListArg(args, "remove")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(add) == 0 && len(remove) == 0 {
		return mcp.NewToolResultError("at least one of add or remove is required"), nil
	}

	client, errResult := gmailClient(ctx, sess)
	if errResult != nil {
		return errResult, nil
	}

	if err := client.ModifyLabels(ctx, ids, add, remove); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to modify labels: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated labels on %d message(s)", len(ids))), nil
}
