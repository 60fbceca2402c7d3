package invoice

import (
	"context"

	"github.com/xraph/escrow/types"
)

// Store persists invoices.
type Store interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, invID ID) (*Invoice, error)
	ListInvoices(ctx context.Context, opts ListOpts) ([]*Invoice, error)
}

// ListOpts filters ListInvoices. Zero-valued fields are ignored.
type ListOpts struct {
	Payer   types.Address
	Payee   types.Address
	Arbiter types.Address
	State   State
	Limit   int
	Offset  int
}
