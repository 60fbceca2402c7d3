// Package escrow provides a three-party escrow settlement engine for Go
// applications.
//
// A payer locks a fixed token amount against an invoice. The funds are later
// released to the payee or refunded to the payer, and an arbiter settles
// disputes. Escrow is a library, not a service: import it, hand it a store
// and one or more token ledgers, and call its operations directly.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/escrow"
//	    "github.com/xraph/escrow/store/memory"
//	    tokenmem "github.com/xraph/escrow/token/memory"
//	)
//
//	ledger := tokenmem.New()
//	e := escrow.New(memory.New(), escrow.WithToken("usdc", ledger))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	inv, err := e.CreateInvoice(ctx, "alice", escrow.CreateParams{
//	    ID:            1,
//	    Payee:         "bob",
//	    Arbiter:       "carol",
//	    TokenContract: "usdc",
//	    Amount:        5_000_000,
//	    Expiration:    deadline,
//	})
//
// The payer then transfers the amount into e.EscrowAccount(inv.ID) on the
// token ledger and acknowledges the deposit:
//
//	inv, err = e.AckDeposit(ctx, "alice", inv.ID)
//	inv, err = e.ReleaseFunds(ctx, "alice", inv.ID)
//
// # Lifecycle
//
//	created ──ack──▶ funded ──release──▶ released
//	                   │  └────refund───▶ refunded
//	                   └──raise──▶ disputed ──resolve──▶ released | refunded
//
// Every call names its caller explicitly. Each operation checks, in order:
// the invoice exists, the caller holds the required role, and the invoice is
// in the required state. A rejected call changes nothing.
//
// # Settlement
//
// Release, refund and resolve move funds and commit the state change as one
// unit. A failed transfer commits nothing and returns ErrTransferFailed. A
// failed commit after a successful transfer is undone with a compensating
// transfer back into escrow.
//
// # Errors
//
// Every error maps to a stable numeric Code via CodeOf, for example
// CodeNotArbiterOrPayer (104) for an unauthorized release.
//
// # Identifiers
//
// Invoices carry caller-assigned numeric ids. Dispute and settlement records
// use TypeIDs:
//
//	dsp_01h2xcejqtf2nbrexx3vqjhp41  // Dispute
//	stl_01h455vb4pex5vsknk084sn02q  // Settlement
package escrow
