// Package plugin provides an extensible plugin system for the escrow engine.
// Plugins hook into invoice lifecycle events. A hook failure is logged and
// never undoes a committed transition.
package plugin

import (
	"context"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called after an invoice is stored in created state.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceFunded is called after a deposit is acknowledged.
type OnInvoiceFunded interface {
	Plugin
	OnInvoiceFunded(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceReleased is called after funds reach the payee.
type OnInvoiceReleased interface {
	Plugin
	OnInvoiceReleased(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) error
}

// OnInvoiceRefunded is called after funds return to the payer.
type OnInvoiceRefunded interface {
	Plugin
	OnInvoiceRefunded(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) error
}

// ──────────────────────────────────────────────────
// Dispute hooks
// ──────────────────────────────────────────────────

// OnDisputeRaised is called after an invoice enters disputed state.
type OnDisputeRaised interface {
	Plugin
	OnDisputeRaised(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) error
}

// OnDisputeResolved is called after the arbiter settles a dispute.
type OnDisputeResolved interface {
	Plugin
	OnDisputeResolved(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnTransitionRejected is called for every operation that returned an error.
type OnTransitionRejected interface {
	Plugin
	OnTransitionRejected(ctx context.Context, op string, invID invoice.ID, err error) error
}

// OnTransferFailed is called when the token ledger refuses a settlement
// transfer.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, inv *invoice.Invoice, err error) error
}
