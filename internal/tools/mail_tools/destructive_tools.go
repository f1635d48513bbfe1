package mail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openmailtools/applemail-mcp/internal/gate"
	"github.com/openmailtools/applemail-mcp/internal/server"
	"github.com/openmailtools/applemail-mcp/internal/tools/common"
)

// RegisterDestructiveTools registers the destructive tools with the MCP server.
// These tools require a confirmation token on every call and are rate limited.
func RegisterDestructiveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Delete messages tool
	deleteMessagesTool := mcp.NewTool("mail_delete_messages",
		mcp.WithDescription("Delete one or more messages. The first call returns a confirmation token; repeat the call with the token in 'confirm' to execute."),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Message ID or array of message IDs"),
		),
		mcp.WithBoolean("permanent",
			mcp.Description("Permanently erase instead of moving to Trash (default: false)"),
		),
		mcp.WithString("confirm",
			mcp.Description("Confirmation token from a previous call with the same arguments"),
		),
	)

	s.AddTool(deleteMessagesTool, common.GatedToolHandler("mail_delete_messages", gate.OpDeleteMessages, sc,
		func(ctx context.Context, norm map[string]any) (any, error) {
			deleted, err := sc.MailClient().DeleteMessages(ctx,
				common.NormMessageIDs(norm, "ids"),
				common.NormBool(norm, "permanent"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"deleted": deleted}, nil
		}))

	return nil
}
