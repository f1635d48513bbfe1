package common

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openmailtools/applemail-mcp/internal/gate"
)

// Response is the JSON envelope every tool returns. ErrorType carries the
// stable error class so callers can branch without parsing message text.
type Response struct {
	Success   bool   `json:"success"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// SuccessResponse wraps a result value in the envelope.
func SuccessResponse(result any) Response {
	return Response{Success: true, Result: result}
}

// ErrorResponse builds a failure envelope from a classified error. The
// message and class come from the gate's error taxonomy; raw backend
// diagnostics never reach the caller.
func ErrorResponse(err error) Response {
	return Response{
		Success:   false,
		Error:     gate.UserMessage(err),
		ErrorType: string(gate.ClassOf(err)),
	}
}

// ConfirmationResponse builds the requires-confirmation envelope. It is a
// failure envelope plus the token the caller must echo back.
func ConfirmationResponse(token string) Response {
	return Response{
		Success:   false,
		Error:     "confirmation required",
		ErrorType: string(gate.ClassConfirmationRequired),
		Result:    map[string]any{"confirm": token},
	}
}

// ToolResult marshals an envelope into an MCP tool result. Envelope
// marshalling cannot fail for the types the tools put in Result, but a
// failure still yields a well-formed error payload rather than a panic.
func ToolResult(resp Response) *mcp.CallToolResult {
	data, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(`{"success":false,"error":"failed to encode response","error_type":"backend_error"}`)
	}
	if resp.Success {
		return mcp.NewToolResultText(string(data))
	}
	return mcp.NewToolResultError(string(data))
}
