package escrow

import (
	"fmt"

	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/types"
)

// Operation names a lifecycle call. The values appear in logs, errors and
// plugin events.
type Operation string

const (
	OpCreate  Operation = "create"
	OpAck     Operation = "ack-deposit"
	OpRelease Operation = "release"
	OpRefund  Operation = "refund"
	OpRaise   Operation = "raise-dispute"
	OpResolve Operation = "resolve-dispute"
)

// guardRule decides whether caller may run an operation on inv at height now.
type guardRule struct {
	allow func(caller types.Address, inv *invoice.Invoice, now types.Height) bool
	deny  error
}

var guards = map[Operation]guardRule{
	OpAck: {
		allow: func(c types.Address, inv *invoice.Invoice, _ types.Height) bool {
			return c == inv.Payer
		},
		deny: ErrNotPayer,
	},
	OpRelease: {
		allow: func(c types.Address, inv *invoice.Invoice, _ types.Height) bool {
			return c == inv.Payer || c == inv.Arbiter
		},
		deny: ErrNotArbiterOrPayer,
	},
	OpRefund: {
		allow: func(c types.Address, inv *invoice.Invoice, now types.Height) bool {
			return c == inv.Payer || inv.IsExpired(now)
		},
		deny: ErrNotExpired,
	},
	OpRaise: {
		allow: func(c types.Address, inv *invoice.Invoice, _ types.Height) bool {
			return c == inv.Payer || c == inv.Payee
		},
		deny: ErrNotPayerOrPayee,
	},
	OpResolve: {
		allow: func(c types.Address, inv *invoice.Invoice, _ types.Height) bool {
			return c == inv.Arbiter
		},
		deny: ErrNotArbiter,
	},
}

// authorize evaluates the guard row for op. It has no side effects.
func authorize(op Operation, caller types.Address, inv *invoice.Invoice, now types.Height) error {
	rule, ok := guards[op]
	if !ok {
		return fmt.Errorf("%w: no guard for %s", ErrInternal, op)
	}
	if caller.IsZero() || !rule.allow(caller, inv, now) {
		return rule.deny
	}
	return nil
}

// requireState fails with ErrInvalidState unless inv is in want.
func requireState(inv *invoice.Invoice, want invoice.State) error {
	if inv.State != want {
		return fmt.Errorf("%w: invoice is %s, want %s", ErrInvalidState, inv.State, want)
	}
	return nil
}
