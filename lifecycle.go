package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/types"
)

// CreateParams describes a new invoice. The caller of CreateInvoice is the
// payer.
type CreateParams struct {
	ID            invoice.ID        `validate:"required"`
	Payee         types.Address     `validate:"required"`
	Arbiter       types.Address     `validate:"required"`
	TokenContract string            `validate:"required"`
	Amount        types.Amount      `validate:"gt=0"`
	Expiration    types.Height      `validate:"gt=0"`
	Metadata      map[string]string `validate:"-"`
}

// ──────────────────────────────────────────────────
// Invoice lifecycle
// ──────────────────────────────────────────────────

// CreateInvoice records a new invoice in created state. No funds move.
func (e *Escrow) CreateInvoice(ctx context.Context, payer types.Address, p CreateParams) (*invoice.Invoice, error) {
	unlock := e.lock(p.ID)
	defer unlock()

	inv, err := e.createInvoice(ctx, payer, p)
	if err != nil {
		return nil, e.reject(ctx, OpCreate, p.ID, err)
	}

	e.logger.Debug("invoice created",
		"invoice_id", inv.ID,
		"caller", payer,
		"amount", inv.Amount,
	)
	e.plugins.EmitInvoiceCreated(ctx, inv.Clone())
	return inv, nil
}

func (e *Escrow) createInvoice(ctx context.Context, payer types.Address, p CreateParams) (*invoice.Invoice, error) {
	if err := e.validateParams(payer, p); err != nil {
		return nil, err
	}
	if _, err := e.tokens.Resolve(p.TokenContract); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTokenContract, p.TokenContract)
	}

	height, err := e.clock.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read clock: %w", ErrInternal, err)
	}
	if p.Expiration <= height {
		return nil, ValidationError{Field: "expiration", Message: fmt.Sprintf("must be after current height %d", height)}
	}

	inv := &invoice.Invoice{
		Entity:        types.NewEntity(),
		ID:            p.ID,
		Payer:         payer,
		Payee:         p.Payee,
		Arbiter:       p.Arbiter,
		TokenContract: p.TokenContract,
		Amount:        p.Amount,
		Expiration:    p.Expiration,
		CreatedHeight: height,
		State:         invoice.StateCreated,
	}
	if len(p.Metadata) > 0 {
		inv.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			inv.Metadata[k] = v
		}
	}

	if err := e.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (e *Escrow) validateParams(payer types.Address, p CreateParams) error {
	if err := e.validate.Struct(p); err != nil {
		return validationError(err)
	}
	switch {
	case payer.IsZero():
		return ValidationError{Field: "payer", Message: "required"}
	case p.Payee.IsZero():
		return ValidationError{Field: "payee", Message: "required"}
	case p.Arbiter.IsZero():
		return ValidationError{Field: "arbiter", Message: "required"}
	case payer == p.Payee:
		return ValidationError{Field: "payee", Message: "must differ from payer"}
	case !e.selfArbitrate && (p.Arbiter == payer || p.Arbiter == p.Payee):
		return ErrSelfArbitration
	}
	return nil
}

// AckDeposit moves a created invoice to funded once the escrow account holds
// at least the invoice amount. Anything above the amount goes back to the
// payer first, so a funded escrow holds exactly the amount. Only the payer
// may acknowledge.
func (e *Escrow) AckDeposit(ctx context.Context, caller types.Address, invID invoice.ID) (*invoice.Invoice, error) {
	return e.mutate(ctx, OpAck, caller, invID, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if err := authorize(OpAck, caller, inv, 0); err != nil {
			return nil, err
		}
		if err := requireState(inv, invoice.StateCreated); err != nil {
			return nil, err
		}

		ledger, err := e.tokens.Resolve(inv.TokenContract)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		held, err := ledger.BalanceOf(ctx, e.EscrowAccount(inv.ID))
		if err != nil {
			return nil, fmt.Errorf("%w: balance of escrow: %w", ErrTransferFailed, err)
		}
		if held < inv.Amount {
			return nil, fmt.Errorf("%w: holds %d, need %d", ErrInsufficientDeposit, held, inv.Amount)
		}
		if err := e.returnExcess(ctx, inv, ledger, held); err != nil {
			return nil, err
		}

		next := inv.Clone()
		next.State = invoice.StateFunded
		fundedAt := now()
		next.FundedAt = &fundedAt
		next.Touch()

		if err := e.store.ApplyTransition(ctx, &store.Transition{Invoice: next, From: inv.State}); err != nil {
			return nil, err
		}

		e.plugins.EmitInvoiceFunded(ctx, next.Clone())
		return next, nil
	})
}

// ReleaseFunds pays the invoice amount from escrow to the payee. The payer
// or the arbiter may release a funded invoice.
func (e *Escrow) ReleaseFunds(ctx context.Context, caller types.Address, invID invoice.ID) (*invoice.Invoice, error) {
	return e.mutate(ctx, OpRelease, caller, invID, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if err := authorize(OpRelease, caller, inv, 0); err != nil {
			return nil, err
		}
		if err := requireState(inv, invoice.StateFunded); err != nil {
			return nil, err
		}

		next, st, err := e.settle(ctx, inv, settlement.KindRelease, nil)
		if err != nil {
			return nil, err
		}
		e.plugins.EmitInvoiceReleased(ctx, next.Clone(), st)
		return next, nil
	})
}

// Refund returns the invoice amount from escrow to the payer. The payer may
// refund at any time while funded; anyone may once the invoice has expired.
func (e *Escrow) Refund(ctx context.Context, caller types.Address, invID invoice.ID) (*invoice.Invoice, error) {
	return e.mutate(ctx, OpRefund, caller, invID, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		height, err := e.clock.Height(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: read clock: %w", ErrInternal, err)
		}
		if err := authorize(OpRefund, caller, inv, height); err != nil {
			return nil, err
		}
		if err := requireState(inv, invoice.StateFunded); err != nil {
			return nil, err
		}

		next, st, err := e.settle(ctx, inv, settlement.KindRefund, nil)
		if err != nil {
			return nil, err
		}
		e.plugins.EmitInvoiceRefunded(ctx, next.Clone(), st)
		return next, nil
	})
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetInvoice returns the stored invoice.
func (e *Escrow) GetInvoice(ctx context.Context, invID invoice.ID) (*invoice.Invoice, error) {
	return e.store.GetInvoice(ctx, invID)
}

// ListInvoices returns invoices matching opts in creation order.
func (e *Escrow) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return e.store.ListInvoices(ctx, opts)
}

// ListSettlements returns the funds movements recorded for invID.
func (e *Escrow) ListSettlements(ctx context.Context, invID invoice.ID) ([]*settlement.Settlement, error) {
	if _, err := e.store.GetInvoice(ctx, invID); err != nil {
		return nil, err
	}
	return e.store.ListSettlements(ctx, invID)
}

// ListDisputes returns every dispute raised on invID, oldest first.
func (e *Escrow) ListDisputes(ctx context.Context, invID invoice.ID) ([]*dispute.Dispute, error) {
	if _, err := e.store.GetInvoice(ctx, invID); err != nil {
		return nil, err
	}
	return e.store.ListDisputes(ctx, invID)
}

// EscrowBalance reads the custody account balance for invID from its token
// ledger.
func (e *Escrow) EscrowBalance(ctx context.Context, invID invoice.ID) (types.Amount, error) {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return 0, err
	}
	ledger, err := e.tokens.Resolve(inv.TokenContract)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnknownTokenContract, err)
	}
	return ledger.BalanceOf(ctx, e.EscrowAccount(invID))
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// mutate runs fn on a freshly read invoice while holding its lock.
func (e *Escrow) mutate(
	ctx context.Context,
	op Operation,
	caller types.Address,
	invID invoice.ID,
	fn func(inv *invoice.Invoice) (*invoice.Invoice, error),
) (*invoice.Invoice, error) {
	unlock := e.lock(invID)
	defer unlock()

	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, e.reject(ctx, op, invID, err)
	}

	from := inv.State
	next, err := fn(inv)
	if err != nil {
		return nil, e.reject(ctx, op, invID, err)
	}

	e.logger.Debug("invoice transition committed",
		"invoice_id", invID,
		"op", op,
		"caller", caller,
		"from", from,
		"to", next.State,
	)
	return next, nil
}

// reject wraps err with operation context and reports it to plugins.
func (e *Escrow) reject(ctx context.Context, op Operation, invID invoice.ID, err error) error {
	wrapped := fmt.Errorf("escrow: %s %d: %w", op, invID, err)
	e.logger.Debug("invoice operation rejected",
		"invoice_id", invID,
		"op", op,
		"code", CodeOf(err),
		"error", err,
	)
	e.plugins.EmitTransitionRejected(ctx, string(op), invID, wrapped)
	return wrapped
}

// validationError converts validator output into a ValidationError.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed %q rule", fe.Tag())}
	}
	return ValidationError{Field: "params", Message: err.Error()}
}
