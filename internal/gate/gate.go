package gate

import (
	"log/slog"

	"github.com/openmailtools/applemail-mcp/internal/logging"
)

// Gate wires the sanitizer, policy, and audit recorder into the single
// pipeline every tool call passes through. It owns the audit invariant:
// exactly one record per gated call, written either at rejection time or
// once the backend outcome is known.
type Gate struct {
	sanitizer *Sanitizer
	policy    *Policy
	recorder  *Recorder
	logger    *slog.Logger
}

// NewGate assembles a gate. recorder may be nil, in which case calls are not
// audited (used by tests only; the server always configures a recorder).
func NewGate(sanitizer *Sanitizer, policy *Policy, recorder *Recorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{sanitizer: sanitizer, policy: policy, recorder: recorder, logger: logger}
}

// Sanitizer exposes the configured sanitizer for filesystem-level checks
// that run after authorization (attachment existence and size).
func (g *Gate) Sanitizer() *Sanitizer {
	return g.sanitizer
}

// Check runs validation and authorization for a request. On a pass it
// returns the validation result and decision and writes no audit record yet;
// the caller must invoke RecordOutcome after the backend call. On any
// rejection the audit record is written here and a classified error is
// returned.
func (g *Gate) Check(req ToolRequest) (ValidationResult, PolicyDecision, error) {
	vr := g.sanitizer.Validate(req)
	if !vr.OK {
		g.record(req, vr, PolicyDecision{}, OutcomeDeniedValidation, "")
		g.logger.Warn("request rejected by sanitizer",
			logging.Operation(string(req.Op)),
			slog.Any("violations", vr.Violations))
		return vr, PolicyDecision{}, NewValidationError(vr.Violations)
	}

	decision := g.policy.Authorize(req, vr)
	switch decision.Effect {
	case EffectDeny:
		g.record(req, vr, decision, OutcomeDeniedPolicy, "")
		g.logger.Warn("request denied by policy",
			logging.Operation(string(req.Op)),
			logging.Decision(string(decision.Effect)),
			slog.String("reason", decision.Reason))
		return vr, decision, NewPolicyDenied(decision.Reason)
	case EffectRequiresConfirmation:
		g.record(req, vr, decision, OutcomeConfirmationRequired, "")
		g.logger.Info("destructive request awaiting confirmation",
			logging.Operation(string(req.Op)),
			logging.Decision(string(decision.Effect)))
		return vr, decision, NewConfirmationRequired()
	}

	return vr, decision, nil
}

// RecordOutcome writes the single audit record for a call that the gate
// allowed, after the backend reported its result.
func (g *Gate) RecordOutcome(req ToolRequest, vr ValidationResult, decision PolicyDecision, backendErr error) {
	outcome := OutcomeSuccess
	errText := ""
	if backendErr != nil {
		outcome = OutcomeFailure
		errText = UserMessage(backendErr)
	}
	g.record(req, vr, decision, outcome, errText)
}

func (g *Gate) record(req ToolRequest, vr ValidationResult, decision PolicyDecision, outcome, errText string) {
	if g.recorder == nil {
		return
	}
	g.recorder.Record(AuditRecord{
		Op:       string(req.Op),
		Risk:     string(decision.Risk),
		Decision: string(decision.Effect),
		Outcome:  outcome,
		Params:   summarizeParams(req, vr),
		Error:    errText,
	})
}
