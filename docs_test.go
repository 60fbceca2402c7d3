package escrow_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/store/memory"
	tokenmem "github.com/xraph/escrow/token/memory"
	"github.com/xraph/escrow/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation run as written.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		// Token ledger and store (memory for demo, use PostgreSQL in production)
		ledger := tokenmem.New()
		e := escrow.New(memory.New(),
			escrow.WithLogger(slog.New(slog.DiscardHandler)),
			escrow.WithToken("usdc", ledger),
		)

		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		height, err := escrow.WallClock().Height(ctx)
		if err != nil {
			t.Fatal(err)
		}

		inv, err := e.CreateInvoice(ctx, "alice", escrow.CreateParams{
			ID:            1,
			Payee:         "bob",
			Arbiter:       "carol",
			TokenContract: "usdc",
			Amount:        5_000_000,
			Expiration:    height + 86_400,
		})
		if err != nil {
			t.Fatal(err)
		}

		// The payer deposits out of band, then acknowledges.
		if err := ledger.Mint("alice", inv.Amount); err != nil {
			t.Fatal(err)
		}
		if err := ledger.Transfer(ctx, inv.Amount, "alice", e.EscrowAccount(inv.ID)); err != nil {
			t.Fatal(err)
		}
		if _, err := e.AckDeposit(ctx, "alice", inv.ID); err != nil {
			t.Fatal(err)
		}

		inv, err = e.ReleaseFunds(ctx, "alice", inv.ID)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("invoice %s is %s", inv.ID, inv.State)

		paid, _ := ledger.BalanceOf(ctx, "bob")
		if paid != 5_000_000 {
			t.Errorf("payee balance = %d, want 5000000", paid)
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a, err := types.ParseAmount("12.50", 6)
		if err != nil {
			t.Fatal(err)
		}
		if a != 12_500_000 {
			t.Errorf("ParseAmount = %d", a)
		}
		if got := a.Format(6); got != "12.500000" {
			t.Errorf("Format = %q", got)
		}
	})

	t.Run("ErrorCodes", func(t *testing.T) {
		if escrow.CodeOf(escrow.ErrNotArbiterOrPayer) != 104 {
			t.Error("unauthorized release must be code 104")
		}
	})
}
