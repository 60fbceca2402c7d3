package dispute

import (
	"context"

	"github.com/xraph/escrow/invoice"
)

// Store reads dispute records. Writes happen as part of an invoice
// transition.
type Store interface {
	ListDisputes(ctx context.Context, invID invoice.ID) ([]*Dispute, error)
	GetOpenDispute(ctx context.Context, invID invoice.ID) (*Dispute, error)
}
