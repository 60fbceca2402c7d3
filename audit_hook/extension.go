// Package audithook bridges escrow lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit product. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/settlement"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnInvoiceCreated     = (*Extension)(nil)
	_ plugin.OnInvoiceFunded      = (*Extension)(nil)
	_ plugin.OnInvoiceReleased    = (*Extension)(nil)
	_ plugin.OnInvoiceRefunded    = (*Extension)(nil)
	_ plugin.OnDisputeRaised      = (*Extension)(nil)
	_ plugin.OnDisputeResolved    = (*Extension)(nil)
	_ plugin.OnTransitionRejected = (*Extension)(nil)
	_ plugin.OnTransferFailed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges escrow lifecycle events to an audit trail backend.
type Extension struct {
	recorder   Recorder
	enabled    map[string]bool // nil = all actions
	categories map[string]bool // nil = all categories
	logger     *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryEscrow, nil,
		"payer", string(inv.Payer),
		"payee", string(inv.Payee),
		"arbiter", string(inv.Arbiter),
		"token_contract", inv.TokenContract,
		"amount", int64(inv.Amount),
		"expiration", int64(inv.Expiration),
	)
}

// OnInvoiceFunded implements plugin.OnInvoiceFunded.
func (e *Extension) OnInvoiceFunded(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceFunded, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryEscrow, nil,
		"amount", int64(inv.Amount),
	)
}

// OnInvoiceReleased implements plugin.OnInvoiceReleased.
func (e *Extension) OnInvoiceReleased(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) error {
	return e.record(ctx, ActionInvoiceReleased, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategorySettlement, nil,
		settlementPairs(s)...,
	)
}

// OnInvoiceRefunded implements plugin.OnInvoiceRefunded.
func (e *Extension) OnInvoiceRefunded(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) error {
	return e.record(ctx, ActionInvoiceRefunded, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategorySettlement, nil,
		settlementPairs(s)...,
	)
}

// ──────────────────────────────────────────────────
// Dispute hooks
// ──────────────────────────────────────────────────

// OnDisputeRaised implements plugin.OnDisputeRaised.
func (e *Extension) OnDisputeRaised(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) error {
	return e.record(ctx, ActionDisputeRaised, SeverityWarning, OutcomeSuccess,
		ResourceDispute, d.ID.String(), CategoryDispute, nil,
		"invoice_id", inv.ID.String(),
		"raised_by", string(d.RaisedBy),
		"dispute_reason", d.Reason,
	)
}

// OnDisputeResolved implements plugin.OnDisputeResolved.
func (e *Extension) OnDisputeResolved(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) error {
	return e.record(ctx, ActionDisputeResolved, SeverityInfo, OutcomeSuccess,
		ResourceDispute, d.ID.String(), CategoryDispute, nil,
		"invoice_id", inv.ID.String(),
		"outcome", string(d.Outcome),
		"resolved_by", string(d.ResolvedBy),
	)
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnTransitionRejected implements plugin.OnTransitionRejected. Authorization
// denials are filed under the access category.
func (e *Extension) OnTransitionRejected(ctx context.Context, op string, invID invoice.ID, err error) error {
	severity, category := SeverityInfo, CategoryEscrow
	if escrow.IsNotAuthorized(err) {
		severity, category = SeverityWarning, CategoryAccess
	}
	return e.record(ctx, ActionTransitionRejected, severity, OutcomeFailure,
		ResourceInvoice, invID.String(), category, err,
		"operation", op,
		"code", int(escrow.CodeOf(err)),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, inv *invoice.Invoice, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceInvoice, inv.ID.String(), CategorySettlement, err,
		"token_contract", inv.TokenContract,
		"amount", int64(inv.Amount),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func settlementPairs(s *settlement.Settlement) []any {
	return []any{
		"settlement_id", s.ID.String(),
		"from", s.From,
		"to", string(s.To),
		"amount", int64(s.Amount),
		"token_contract", s.TokenContract,
	}
}

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and swallowed.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}
	if e.categories != nil && !e.categories[category] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
