package escrow

import (
	"errors"
	"testing"

	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/types"
)

func TestAuthorize(t *testing.T) {
	inv := &invoice.Invoice{
		Payer:      "payer",
		Payee:      "payee",
		Arbiter:    "arbiter",
		Expiration: 100,
	}

	tests := []struct {
		op     Operation
		caller types.Address
		now    types.Height
		want   error
	}{
		{OpAck, "payer", 0, nil},
		{OpAck, "payee", 0, ErrNotPayer},
		{OpAck, "arbiter", 0, ErrNotPayer},
		{OpRelease, "payer", 0, nil},
		{OpRelease, "arbiter", 0, nil},
		{OpRelease, "payee", 0, ErrNotArbiterOrPayer},
		{OpRelease, "mallory", 0, ErrNotArbiterOrPayer},
		{OpRefund, "payer", 0, nil},
		{OpRefund, "mallory", 99, ErrNotExpired},
		{OpRefund, "mallory", 100, nil},
		{OpRefund, "payee", 150, nil},
		{OpRaise, "payer", 0, nil},
		{OpRaise, "payee", 0, nil},
		{OpRaise, "arbiter", 0, ErrNotPayerOrPayee},
		{OpResolve, "arbiter", 0, nil},
		{OpResolve, "payer", 0, ErrNotArbiter},
		{OpResolve, "", 0, ErrNotArbiter},
	}

	for _, tt := range tests {
		t.Run(string(tt.op)+"/"+string(tt.caller), func(t *testing.T) {
			err := authorize(tt.op, tt.caller, inv, tt.now)
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("authorize(%s, %q) = %v, want %v", tt.op, tt.caller, err, tt.want)
			}
		})
	}
}

func TestAuthorizeUnknownOperation(t *testing.T) {
	err := authorize(OpCreate, "payer", &invoice.Invoice{Payer: "payer"}, 0)
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected internal error for unguarded op, got %v", err)
	}
}

func TestRequireState(t *testing.T) {
	inv := &invoice.Invoice{State: invoice.StateDisputed}
	if err := requireState(inv, invoice.StateFunded); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if err := requireState(inv, invoice.StateDisputed); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
