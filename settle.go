package escrow

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/token"
	"github.com/xraph/escrow/types"
)

// settle moves the invoice amount out of escrow and commits the terminal
// transition. Either both happen or, as far as the ledger allows, neither:
// a failed transfer commits nothing, and a failed commit is followed by a
// compensating transfer back into escrow.
func (e *Escrow) settle(
	ctx context.Context,
	inv *invoice.Invoice,
	kind settlement.Kind,
	resolved *dispute.Dispute,
) (*invoice.Invoice, *settlement.Settlement, error) {
	to, target := inv.Payee, invoice.StateReleased
	if kind == settlement.KindRefund {
		to, target = inv.Payer, invoice.StateRefunded
	}
	if !invoice.CanTransition(inv.State, target) {
		return nil, nil, fmt.Errorf("%w: %s cannot move to %s", ErrInvalidState, inv.State, target)
	}

	ledger, err := e.tokens.Resolve(inv.TokenContract)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransferFailed, err)
		e.plugins.EmitTransferFailed(ctx, inv.Clone(), err)
		return nil, nil, err
	}

	from := e.EscrowAccount(inv.ID)
	if err := ledger.Transfer(ctx, inv.Amount, from, string(to)); err != nil {
		e.logger.Warn("escrow transfer rejected",
			"invoice_id", inv.ID,
			"kind", kind,
			"amount", inv.Amount,
			"error", err,
		)
		err = fmt.Errorf("%w: %w", ErrTransferFailed, err)
		e.plugins.EmitTransferFailed(ctx, inv.Clone(), err)
		return nil, nil, err
	}

	settledAt := now()
	next := inv.Clone()
	next.State = target
	next.DisputeReason = ""
	next.SettledAt = &settledAt
	next.Touch()

	st := &settlement.Settlement{
		ID:            id.NewSettlementID(),
		InvoiceID:     inv.ID,
		Kind:          kind,
		From:          from,
		To:            to,
		Amount:        inv.Amount,
		TokenContract: inv.TokenContract,
		CreatedAt:     settledAt,
	}

	t := &store.Transition{
		Invoice:        next,
		From:           inv.State,
		Settlement:     st,
		ResolveDispute: resolved,
	}
	if err := e.store.ApplyTransition(ctx, t); err != nil {
		return nil, nil, e.compensate(ctx, inv, ledger, to, err)
	}

	return next, st, nil
}

// compensate returns funds to escrow after a failed commit. It returns
// commitErr, combined with the compensation failure when there is one.
func (e *Escrow) compensate(
	ctx context.Context,
	inv *invoice.Invoice,
	ledger token.Ledger,
	paidTo types.Address,
	commitErr error,
) error {
	ctx = context.WithoutCancel(ctx)
	escrowAccount := e.EscrowAccount(inv.ID)

	if err := ledger.Transfer(ctx, inv.Amount, string(paidTo), escrowAccount); err != nil {
		combined := multierr.Combine(
			commitErr,
			fmt.Errorf("compensate %s -> %s: %w", paidTo, escrowAccount, err),
		)
		e.logger.Error("escrow compensation failed",
			"invoice_id", inv.ID,
			"amount", inv.Amount,
			"paid_to", paidTo,
			"error", combined,
		)
		return combined
	}

	e.logger.Warn("escrow commit failed, transfer compensated",
		"invoice_id", inv.ID,
		"amount", inv.Amount,
		"error", commitErr,
	)
	return commitErr
}

// returnExcess sends the part of held above the invoice amount back to the
// payer. A failed transfer leaves the deposit untouched.
func (e *Escrow) returnExcess(
	ctx context.Context,
	inv *invoice.Invoice,
	ledger token.Ledger,
	held types.Amount,
) error {
	if held <= inv.Amount {
		return nil
	}
	excess := held - inv.Amount
	if err := ledger.Transfer(ctx, excess, e.EscrowAccount(inv.ID), string(inv.Payer)); err != nil {
		e.logger.Warn("escrow excess return rejected",
			"invoice_id", inv.ID,
			"amount", excess,
			"error", err,
		)
		err = fmt.Errorf("%w: return excess: %w", ErrTransferFailed, err)
		e.plugins.EmitTransferFailed(ctx, inv.Clone(), err)
		return err
	}

	e.logger.Info("escrow excess deposit returned",
		"invoice_id", inv.ID,
		"amount", excess,
		"to", inv.Payer,
	)
	return nil
}
