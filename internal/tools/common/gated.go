package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openmailtools/applemail-mcp/internal/applescript"
	"github.com/openmailtools/applemail-mcp/internal/gate"
	"github.com/openmailtools/applemail-mcp/internal/instrumentation"
	"github.com/openmailtools/applemail-mcp/internal/server"
)

// GatedHandler is the domain half of a tool: it receives the normalized
// arguments from a passed validation and returns the result value for the
// response envelope.
type GatedHandler func(ctx context.Context, norm map[string]any) (any, error)

// GatedToolHandler wraps a domain handler with the full request pipeline:
// gate check (sanitize, authorize, audit on rejection), execution, outcome
// audit, metrics, and the operational audit stream.
//
// Gate rejections and backend failures are returned as error envelopes with
// a nil Go error; the MCP layer treats handler errors as protocol failures,
// which these are not.
//
// Usage:
//
//	s.AddTool(myTool, common.GatedToolHandler("mail_send_email", gate.OpSendEmail, sc, handler))
func GatedToolHandler(
	toolName string,
	op gate.Operation,
	sc *server.ServerContext,
	handler GatedHandler,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		args := request.GetArguments()
		greq := gate.NewToolRequest(op, args)

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		account, _ := args["account"].(string)
		ctx, span := instrumentation.StartToolSpan(ctx,
			toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithOperation(string(op)).
				WithAccount(account).
				Build()...)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithAccount(account)

		vr, decision, gateErr := sc.Gate().Check(greq)
		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
			WithRisk(string(decision.Risk)).
			WithDecision(string(decision.Effect)).
			Build()...)
		if metrics != nil && decision.Effect != "" {
			metrics.RecordPolicyDecision(ctx, string(op), string(decision.Risk), string(decision.Effect))
		}
		if gateErr != nil {
			instrumentation.SetSpanError(span, gateErr)
			invocation.WithPolicy(string(decision.Risk), string(decision.Effect)).
				CompleteWithError(gateErr)
			if metrics != nil {
				metrics.RecordToolInvocation(ctx, toolName, instrumentation.StatusError, time.Since(start))
			}
			if auditLogger != nil {
				auditLogger.LogToolInvocation(invocation)
			}
			if decision.Effect == gate.EffectRequiresConfirmation {
				instrumentation.AddSpanEvent(span, "confirmation_required")
				return ToolResult(ConfirmationResponse(decision.ConfirmToken)), nil
			}
			return ToolResult(ErrorResponse(gateErr)), nil
		}

		invocation.WithPolicy(string(decision.Risk), string(decision.Effect))
		if ids := NormMessageIDs(vr.Normalized, "ids"); len(ids) > 0 {
			invocation.WithBatchSize(len(ids))
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
				WithMessageCount(len(ids)).
				Build()...)
		}

		mailCtx, mailSpan := instrumentation.StartMailSpan(ctx, string(op))
		result, err := handler(mailCtx, vr.Normalized)
		if err != nil {
			instrumentation.SetSpanError(mailSpan, err)
		} else {
			instrumentation.SetSpanSuccess(mailSpan)
		}
		mailSpan.End()
		if err != nil {
			// Classify raw backend failures so the envelope and audit trail
			// carry the curated message, not osascript stderr.
			var ge *gate.Error
			if !errors.As(err, &ge) {
				err = gate.ClassifyBackend(err)
			}
		}
		sc.Gate().RecordOutcome(greq, vr, decision, err)

		duration := time.Since(start)
		status := instrumentation.StatusSuccess
		var resp Response
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			invocation.CompleteWithError(err)
			resp = ErrorResponse(err)
			if metrics != nil && errors.Is(err, applescript.ErrTimeout) {
				metrics.RecordScriptTimeout(ctx, string(op))
			}
		} else {
			instrumentation.SetSpanSuccess(span)
			invocation.CompleteSuccess()
			resp = SuccessResponse(result)
		}

		if metrics != nil {
			metrics.RecordToolInvocationWithAccount(ctx, toolName, status, account, duration)
		}
		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return ToolResult(resp), nil
	}
}
