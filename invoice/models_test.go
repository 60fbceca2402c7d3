package invoice_test

import (
	"testing"
	"time"

	"github.com/xraph/escrow/invoice"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to invoice.State
		want     bool
	}{
		{invoice.StateCreated, invoice.StateFunded, true},
		{invoice.StateCreated, invoice.StateReleased, false},
		{invoice.StateFunded, invoice.StateReleased, true},
		{invoice.StateFunded, invoice.StateRefunded, true},
		{invoice.StateFunded, invoice.StateDisputed, true},
		{invoice.StateFunded, invoice.StateCreated, false},
		{invoice.StateDisputed, invoice.StateReleased, true},
		{invoice.StateDisputed, invoice.StateRefunded, true},
		{invoice.StateDisputed, invoice.StateFunded, false},
		{invoice.StateReleased, invoice.StateRefunded, false},
		{invoice.StateRefunded, invoice.StateReleased, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := invoice.CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNoTransitionReentersCreated(t *testing.T) {
	states := []invoice.State{
		invoice.StateCreated, invoice.StateFunded, invoice.StateReleased,
		invoice.StateRefunded, invoice.StateDisputed,
	}
	for _, from := range states {
		if invoice.CanTransition(from, invoice.StateCreated) {
			t.Errorf("%s may re-enter created", from)
		}
	}
}

func TestStatePredicates(t *testing.T) {
	if !invoice.StateReleased.IsTerminal() || !invoice.StateRefunded.IsTerminal() {
		t.Error("released and refunded must be terminal")
	}
	if invoice.StateDisputed.IsTerminal() {
		t.Error("disputed must not be terminal")
	}
	if !invoice.StateFunded.HoldsFunds() || !invoice.StateDisputed.HoldsFunds() {
		t.Error("funded and disputed hold funds")
	}
	if invoice.StateCreated.HoldsFunds() {
		t.Error("created holds no funds")
	}
	if invoice.State("bogus").Valid() {
		t.Error("unknown state reported valid")
	}
}

func TestCloneIsDeep(t *testing.T) {
	funded := time.Now()
	inv := &invoice.Invoice{
		ID:       7,
		FundedAt: &funded,
		Metadata: map[string]string{"order": "A-1"},
	}

	c := inv.Clone()
	c.Metadata["order"] = "B-2"
	*c.FundedAt = funded.Add(time.Hour)

	if inv.Metadata["order"] != "A-1" {
		t.Error("clone shares metadata map")
	}
	if !inv.FundedAt.Equal(funded) {
		t.Error("clone shares funded timestamp")
	}
}

func TestParseID(t *testing.T) {
	got, err := invoice.ParseID("42")
	if err != nil || got != 42 {
		t.Fatalf("ParseID: got %d, %v", got, err)
	}
	if got.String() != "42" {
		t.Errorf("String: got %q", got.String())
	}
	if _, err := invoice.ParseID("-1"); err == nil {
		t.Error("expected error for negative id")
	}
}
