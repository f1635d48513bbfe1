package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Risk classifies an operation's blast radius.
type Risk string

const (
	RiskReadOnly        Risk = "read-only"
	RiskReversibleWrite Risk = "reversible-write"
	RiskDestructive     Risk = "destructive"
)

// Effect is a policy verdict.
type Effect string

const (
	EffectAllow                Effect = "allow"
	EffectDeny                 Effect = "deny"
	EffectRequiresConfirmation Effect = "requires-confirmation"
)

// PolicyDecision is the gate's verdict for one request. When the effect is
// requires-confirmation, ConfirmToken carries the token the caller must echo
// back in the follow-up call.
type PolicyDecision struct {
	Effect       Effect
	Risk         Risk
	Reason       string
	ConfirmToken string
}

// riskTable is the static operation → risk class mapping. Unknown operations
// are rejected by the sanitizer before policy runs, so absence here means
// deny-by-default.
var riskTable = map[Operation]Risk{
	OpListAccounts:    RiskReadOnly,
	OpListMailboxes:   RiskReadOnly,
	OpSearchMessages:  RiskReadOnly,
	OpGetMessage:      RiskReadOnly,
	OpListAttachments: RiskReadOnly,

	OpSendEmail:       RiskReversibleWrite,
	OpCreateDraft:     RiskReversibleWrite,
	OpReplyToMessage:  RiskReversibleWrite,
	OpForwardMessage:  RiskReversibleWrite,
	OpMarkAsRead:      RiskReversibleWrite,
	OpMoveMessages:    RiskReversibleWrite,
	OpFlagMessages:    RiskReversibleWrite,
	OpCreateMailbox:   RiskReversibleWrite,
	OpSaveAttachments: RiskReversibleWrite,

	OpDeleteMessages: RiskDestructive,
}

// RiskOf returns the risk class for an operation, defaulting to destructive
// for anything unknown so that a table gap fails safe.
func RiskOf(op Operation) Risk {
	if r, ok := riskTable[op]; ok {
		return r
	}
	return RiskDestructive
}

// PolicyConfig tunes the policy gate.
type PolicyConfig struct {
	// DestructiveLimit and DestructiveWindow configure the rolling rate
	// limit on destructive operations. Zero values use the defaults.
	DestructiveLimit  int
	DestructiveWindow time.Duration

	// BulkEscalationThreshold promotes reversible bulk operations (move,
	// flag, mark) touching more than this many messages to the destructive
	// class. Zero uses DefaultBulkEscalationThreshold.
	BulkEscalationThreshold int

	// BypassConfirmation skips the confirmation handshake for destructive
	// operations. Set only by the server's explicit skip-confirmation flag;
	// enabling write tools alone never sets it.
	BypassConfirmation bool
}

// DefaultBulkEscalationThreshold is the batch size above which a reversible
// bulk write is treated as destructive.
const DefaultBulkEscalationThreshold = 50

// Policy authorizes validated requests: risk classification, destructive-op
// confirmation, and rate limiting. The limiter is the only mutable state and
// guards itself; Policy is safe for concurrent use.
type Policy struct {
	limiter       *DestructiveLimiter
	bulkThreshold int
	bypassConfirm bool
}

// NewPolicy creates a policy gate from the config.
func NewPolicy(cfg PolicyConfig) *Policy {
	threshold := cfg.BulkEscalationThreshold
	if threshold <= 0 {
		threshold = DefaultBulkEscalationThreshold
	}
	return &Policy{
		limiter:       NewDestructiveLimiter(cfg.DestructiveLimit, cfg.DestructiveWindow),
		bulkThreshold: threshold,
		bypassConfirm: cfg.BypassConfirmation,
	}
}

// Authorize decides whether a validated request may proceed. The validation
// result must be a pass; callers enforce the order.
func (p *Policy) Authorize(req ToolRequest, vr ValidationResult) PolicyDecision {
	risk := p.effectiveRisk(req.Op, vr)

	if risk != RiskDestructive {
		return PolicyDecision{Effect: EffectAllow, Risk: risk, Reason: "operation permitted"}
	}

	if !p.bypassConfirm {
		token := ConfirmationToken(req.Op, vr.Normalized)
		supplied, _ := vr.Normalized["confirm"].(string)
		if supplied == "" {
			supplied, _ = req.Args["confirm"].(string)
		}
		if supplied != token {
			return PolicyDecision{
				Effect:       EffectRequiresConfirmation,
				Risk:         risk,
				Reason:       "destructive operation requires confirmation",
				ConfirmToken: token,
			}
		}
	}

	if !p.limiter.Allow() {
		return PolicyDecision{
			Effect: EffectDeny,
			Risk:   risk,
			Reason: "rate limit exceeded",
		}
	}

	return PolicyDecision{Effect: EffectAllow, Risk: risk, Reason: "confirmed destructive operation"}
}

// effectiveRisk applies the bulk escalation rule on top of the static table:
// reversible bulk writes above the threshold, and anything flagged
// permanent, count as destructive.
func (p *Policy) effectiveRisk(op Operation, vr ValidationResult) Risk {
	risk := RiskOf(op)
	if risk != RiskReversibleWrite {
		return risk
	}
	if ids, ok := vr.Normalized["ids"].([]int64); ok && len(ids) > p.bulkThreshold {
		return RiskDestructive
	}
	return risk
}

// ConfirmationToken derives the token a destructive request must carry to be
// executed. It is a deterministic digest of the operation and its message
// IDs, so the token returned by a requires-confirmation response is only
// valid for a follow-up call naming exactly the same messages.
func ConfirmationToken(op Operation, normalized map[string]any) string {
	h := sha256.New()
	h.Write([]byte(op))
	h.Write([]byte{'|'})

	if ids, ok := normalized["ids"].([]int64); ok {
		sorted := append([]int64(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		parts := make([]string, len(sorted))
		for i, id := range sorted {
			parts[i] = strconv.FormatInt(id, 10)
		}
		h.Write([]byte(strings.Join(parts, ",")))
	}
	if permanent, ok := normalized["permanent"].(bool); ok && permanent {
		h.Write([]byte("|permanent"))
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
