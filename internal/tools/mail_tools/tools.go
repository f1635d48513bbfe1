package mail_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/openmailtools/applemail-mcp/internal/server"
)

// RegisterMailTools registers all Apple Mail tools with the MCP server.
// When readOnly is true, only the read tools are registered; write and
// destructive tools are left out entirely rather than rejecting at call
// time, so a read-only server never advertises them.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register read tools: %w", err)
	}

	if readOnly {
		return nil
	}

	if err := RegisterWriteTools(s, sc); err != nil {
		return fmt.Errorf("failed to register write tools: %w", err)
	}

	if err := RegisterDestructiveTools(s, sc); err != nil {
		return fmt.Errorf("failed to register destructive tools: %w", err)
	}

	return nil
}
