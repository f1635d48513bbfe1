package common

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmailtools/applemail-mcp/internal/gate"
)

func decodeEnvelope(t *testing.T, resp Response) map[string]any {
	t.Helper()
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestSuccessResponse(t *testing.T) {
	resp := SuccessResponse(map[string]any{"count": 3})
	out := decodeEnvelope(t, resp)

	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "error_type")
	result := out["result"].(map[string]any)
	assert.Equal(t, float64(3), result["count"])
}

func TestErrorResponse_Classified(t *testing.T) {
	resp := ErrorResponse(gate.NewValidationError([]string{"subject is required"}))
	out := decodeEnvelope(t, resp)

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "subject is required", out["error"])
	assert.Equal(t, "validation_error", out["error_type"])
}

func TestErrorResponse_Unclassified(t *testing.T) {
	resp := ErrorResponse(errors.New("osascript: execution error: -1728"))
	out := decodeEnvelope(t, resp)

	assert.Equal(t, false, out["success"])
	// Raw diagnostics must never leak into the envelope.
	assert.NotContains(t, out["error"], "osascript")
	assert.Equal(t, "backend_error", out["error_type"])
}

func TestConfirmationResponse(t *testing.T) {
	resp := ConfirmationResponse("a1b2c3d4e5f60718")
	out := decodeEnvelope(t, resp)

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "confirmation required", out["error"])
	assert.Equal(t, "confirmation_required", out["error_type"])
	result := out["result"].(map[string]any)
	assert.Equal(t, "a1b2c3d4e5f60718", result["confirm"])
}

func TestToolResult_SuccessAndError(t *testing.T) {
	ok := ToolResult(SuccessResponse("fine"))
	require.NotNil(t, ok)
	assert.False(t, ok.IsError)

	bad := ToolResult(ErrorResponse(gate.NewPolicyDenied("rate limit exceeded")))
	require.NotNil(t, bad)
	assert.True(t, bad.IsError)
}
