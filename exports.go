package escrow

import (
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/types"
)

// Re-export common types for convenience so users don't have to import the
// model packages for everyday calls.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Height is re-exported from types package.
type Height = types.Height

// Entity is re-exported from types package.
type Entity = types.Entity

// InvoiceID is re-exported from invoice package.
type InvoiceID = invoice.ID

// Invoice is re-exported from invoice package.
type Invoice = invoice.Invoice

// State is re-exported from invoice package.
type State = invoice.State

// Outcome is re-exported from dispute package.
type Outcome = dispute.Outcome

// Re-export invoice states and dispute outcomes.
const (
	StateCreated  = invoice.StateCreated
	StateFunded   = invoice.StateFunded
	StateReleased = invoice.StateReleased
	StateRefunded = invoice.StateRefunded
	StateDisputed = invoice.StateDisputed

	OutcomeRelease = dispute.OutcomeRelease
	OutcomeRefund  = dispute.OutcomeRefund
)

// Re-export constructors.
var (
	NewEntity   = types.NewEntity
	ParseAmount = types.ParseAmount
)
