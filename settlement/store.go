package settlement

import (
	"context"

	"github.com/xraph/escrow/invoice"
)

// Store reads settlement records.
type Store interface {
	ListSettlements(ctx context.Context, invID invoice.ID) ([]*Settlement, error)
}
