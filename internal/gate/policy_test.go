package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passedValidation(op Operation, args map[string]any) ValidationResult {
	vr := NewSanitizer(DefaultLimits()).Validate(NewToolRequest(op, args))
	if !vr.OK {
		panic("test arguments failed validation: " + vr.Violations[0])
	}
	return vr
}

func TestAuthorize_ReadOnlyAllowed(t *testing.T) {
	p := NewPolicy(PolicyConfig{})
	req := NewToolRequest(OpListAccounts, nil)

	d := p.Authorize(req, passedValidation(OpListAccounts, map[string]any{}))
	assert.Equal(t, EffectAllow, d.Effect)
	assert.Equal(t, RiskReadOnly, d.Risk)
}

func TestAuthorize_ReversibleWriteAllowed(t *testing.T) {
	p := NewPolicy(PolicyConfig{})
	args := map[string]any{"ids": "1", "read": true}
	req := NewToolRequest(OpMarkAsRead, args)

	d := p.Authorize(req, passedValidation(OpMarkAsRead, args))
	assert.Equal(t, EffectAllow, d.Effect)
	assert.Equal(t, RiskReversibleWrite, d.Risk)
	assert.Empty(t, d.ConfirmToken)
}

func TestAuthorize_DestructiveRequiresConfirmation(t *testing.T) {
	p := NewPolicy(PolicyConfig{})
	args := map[string]any{"ids": []any{float64(1), float64(2)}}
	req := NewToolRequest(OpDeleteMessages, args)
	vr := passedValidation(OpDeleteMessages, args)

	d := p.Authorize(req, vr)
	assert.Equal(t, EffectRequiresConfirmation, d.Effect)
	assert.Equal(t, RiskDestructive, d.Risk)
	require.Len(t, d.ConfirmToken, 16)

	// Echoing the token allows the follow-up call.
	args["confirm"] = d.ConfirmToken
	d = p.Authorize(NewToolRequest(OpDeleteMessages, args), vr)
	assert.Equal(t, EffectAllow, d.Effect)
}

func TestAuthorize_WrongTokenStillHeld(t *testing.T) {
	p := NewPolicy(PolicyConfig{})
	args := map[string]any{"ids": "1", "confirm": "0000000000000000"}
	req := NewToolRequest(OpDeleteMessages, args)

	d := p.Authorize(req, passedValidation(OpDeleteMessages, args))
	assert.Equal(t, EffectRequiresConfirmation, d.Effect)
}

func TestAuthorize_BulkEscalation(t *testing.T) {
	p := NewPolicy(PolicyConfig{BulkEscalationThreshold: 3})

	small := make([]any, 3)
	large := make([]any, 4)
	for i := range large {
		large[i] = float64(i + 1)
		if i < len(small) {
			small[i] = float64(i + 1)
		}
	}

	// At the threshold a move stays reversible.
	args := map[string]any{"ids": small, "mailbox": "Archive", "account": "Work"}
	d := p.Authorize(NewToolRequest(OpMoveMessages, args), passedValidation(OpMoveMessages, args))
	assert.Equal(t, EffectAllow, d.Effect)
	assert.Equal(t, RiskReversibleWrite, d.Risk)

	// One past it the bulk write is treated as destructive.
	args = map[string]any{"ids": large, "mailbox": "Archive", "account": "Work"}
	d = p.Authorize(NewToolRequest(OpMoveMessages, args), passedValidation(OpMoveMessages, args))
	assert.Equal(t, EffectRequiresConfirmation, d.Effect)
	assert.Equal(t, RiskDestructive, d.Risk)
}

func TestAuthorize_BypassConfirmation(t *testing.T) {
	p := NewPolicy(PolicyConfig{BypassConfirmation: true})
	args := map[string]any{"ids": "1"}

	d := p.Authorize(NewToolRequest(OpDeleteMessages, args), passedValidation(OpDeleteMessages, args))
	assert.Equal(t, EffectAllow, d.Effect)
}

func TestAuthorize_RateLimitDenies(t *testing.T) {
	p := NewPolicy(PolicyConfig{DestructiveLimit: 2, BypassConfirmation: true})
	args := map[string]any{"ids": "1"}
	vr := passedValidation(OpDeleteMessages, args)
	req := NewToolRequest(OpDeleteMessages, args)

	assert.Equal(t, EffectAllow, p.Authorize(req, vr).Effect)
	assert.Equal(t, EffectAllow, p.Authorize(req, vr).Effect)

	d := p.Authorize(req, vr)
	assert.Equal(t, EffectDeny, d.Effect)
	assert.Equal(t, "rate limit exceeded", d.Reason)
}

func TestRiskOf_UnknownOperationFailsSafe(t *testing.T) {
	assert.Equal(t, RiskDestructive, RiskOf(Operation("something_new")))
}

func TestConfirmationToken(t *testing.T) {
	norm := map[string]any{"ids": []int64{3, 1, 2}}
	token := ConfirmationToken(OpDeleteMessages, norm)
	require.Len(t, token, 16)

	// Same messages in a different order yield the same token.
	assert.Equal(t, token, ConfirmationToken(OpDeleteMessages, map[string]any{"ids": []int64{1, 2, 3}}))

	// A different message set, operation, or the permanent flag invalidates it.
	assert.NotEqual(t, token, ConfirmationToken(OpDeleteMessages, map[string]any{"ids": []int64{1, 2}}))
	assert.NotEqual(t, token, ConfirmationToken(OpMoveMessages, norm))
	assert.NotEqual(t, token, ConfirmationToken(OpDeleteMessages, map[string]any{
		"ids": []int64{3, 1, 2}, "permanent": true,
	}))
}
