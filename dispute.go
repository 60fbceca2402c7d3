package escrow

import (
	"context"
	"fmt"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/types"
)

// RaiseDispute freezes a funded invoice until the arbiter resolves it. The
// payer or the payee may raise; reason is stored verbatim.
func (e *Escrow) RaiseDispute(ctx context.Context, caller types.Address, invID invoice.ID, reason string) (*invoice.Invoice, error) {
	if err := e.validate.Var(reason, fmt.Sprintf("max=%d", dispute.MaxReasonLength)); err != nil {
		return nil, e.reject(ctx, OpRaise, invID, ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("exceeds %d characters", dispute.MaxReasonLength),
		})
	}

	return e.mutate(ctx, OpRaise, caller, invID, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if err := authorize(OpRaise, caller, inv, 0); err != nil {
			return nil, err
		}
		if err := requireState(inv, invoice.StateFunded); err != nil {
			return nil, err
		}

		d := &dispute.Dispute{
			ID:        id.NewDisputeID(),
			InvoiceID: inv.ID,
			RaisedBy:  caller,
			Reason:    reason,
			RaisedAt:  now(),
		}

		next := inv.Clone()
		next.State = invoice.StateDisputed
		next.DisputeReason = reason
		next.Touch()

		if err := e.store.ApplyTransition(ctx, &store.Transition{
			Invoice:     next,
			From:        inv.State,
			OpenDispute: d,
		}); err != nil {
			return nil, err
		}

		e.plugins.EmitDisputeRaised(ctx, next.Clone(), d)
		return next, nil
	})
}

// ResolveDispute settles a disputed invoice per the arbiter's outcome. The
// decision is final.
func (e *Escrow) ResolveDispute(ctx context.Context, caller types.Address, invID invoice.ID, outcome dispute.Outcome) (*invoice.Invoice, error) {
	if !outcome.Valid() {
		return nil, e.reject(ctx, OpResolve, invID, ValidationError{
			Field:   "outcome",
			Message: fmt.Sprintf("must be %q or %q, got %q", dispute.OutcomeRelease, dispute.OutcomeRefund, outcome),
		})
	}

	return e.mutate(ctx, OpResolve, caller, invID, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if err := authorize(OpResolve, caller, inv, 0); err != nil {
			return nil, err
		}
		if err := requireState(inv, invoice.StateDisputed); err != nil {
			return nil, err
		}

		open, err := e.store.GetOpenDispute(ctx, inv.ID)
		if err != nil {
			return nil, fmt.Errorf("load open dispute: %w", err)
		}
		resolvedAt := now()
		open.Outcome = outcome
		open.ResolvedBy = caller
		open.ResolvedAt = &resolvedAt

		kind := settlement.KindRelease
		if outcome == dispute.OutcomeRefund {
			kind = settlement.KindRefund
		}

		next, st, err := e.settle(ctx, inv, kind, open)
		if err != nil {
			return nil, err
		}

		e.plugins.EmitDisputeResolved(ctx, next.Clone(), open)
		if kind == settlement.KindRefund {
			e.plugins.EmitInvoiceRefunded(ctx, next.Clone(), st)
		} else {
			e.plugins.EmitInvoiceReleased(ctx, next.Clone(), st)
		}
		return next, nil
	})
}
