// Package settlement records every movement of funds out of escrow.
package settlement

import (
	"time"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/types"
)

// Kind distinguishes payouts to the payee from returns to the payer.
type Kind string

const (
	KindRelease Kind = "release"
	KindRefund  Kind = "refund"
)

// Settlement is written in the same unit as the terminal transition it
// accompanies. An invoice has at most one.
type Settlement struct {
	ID            id.SettlementID `json:"id"`
	InvoiceID     invoice.ID      `json:"invoice_id"`
	Kind          Kind            `json:"kind"`
	From          string          `json:"from"`
	To            types.Address   `json:"to"`
	Amount        types.Amount    `json:"amount"`
	TokenContract string          `json:"token_contract"`
	CreatedAt     time.Time       `json:"created_at"`
}
