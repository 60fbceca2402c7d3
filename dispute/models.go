// Package dispute defines the record kept for each dispute raised on an
// invoice.
package dispute

import (
	"time"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/types"
)

// MaxReasonLength bounds the free-text reason, counted in characters.
const MaxReasonLength = 512

// Outcome is the arbiter's final decision.
type Outcome string

const (
	OutcomeRelease Outcome = "release"
	OutcomeRefund  Outcome = "refund"
)

// Valid reports whether o is release or refund.
func (o Outcome) Valid() bool {
	return o == OutcomeRelease || o == OutcomeRefund
}

// TargetState returns the invoice state an outcome settles into.
func (o Outcome) TargetState() invoice.State {
	if o == OutcomeRefund {
		return invoice.StateRefunded
	}
	return invoice.StateReleased
}

// Dispute records one raise/resolve cycle. Outcome is empty while open.
type Dispute struct {
	ID         id.DisputeID  `json:"id"`
	InvoiceID  invoice.ID    `json:"invoice_id"`
	RaisedBy   types.Address `json:"raised_by"`
	Reason     string        `json:"reason"`
	RaisedAt   time.Time     `json:"raised_at"`
	Outcome    Outcome       `json:"outcome,omitempty"`
	ResolvedBy types.Address `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// IsOpen reports whether the dispute is still awaiting the arbiter.
func (d *Dispute) IsOpen() bool {
	return d.ResolvedAt == nil
}
