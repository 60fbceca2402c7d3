// Package store defines the aggregate persistence contract for the escrow
// engine and the atomic unit every state change is committed through.
package store

import (
	"context"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
)

// Store is the unified storage interface for all escrow records.
type Store interface {
	invoice.Store
	dispute.Store
	settlement.Store

	// ApplyTransition commits t as a single unit. It fails with
	// escrow.ErrStateConflict when the stored invoice state no longer
	// equals t.From, and escrow.ErrInvoiceNotFound when the invoice is gone.
	ApplyTransition(ctx context.Context, t *Transition) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Transition is one invoice state change together with the records that
// must be written alongside it.
type Transition struct {
	// Invoice holds the new field values. Its ID selects the row.
	Invoice *invoice.Invoice

	// From is the state the stored invoice must still be in.
	From invoice.State

	// Settlement is inserted when funds left escrow.
	Settlement *settlement.Settlement

	// OpenDispute is inserted when a dispute is raised.
	OpenDispute *dispute.Dispute

	// ResolveDispute replaces the open dispute record when resolved.
	ResolveDispute *dispute.Dispute
}
