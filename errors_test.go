package escrow_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/escrow"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want escrow.Code
	}{
		{nil, 0},
		{errors.New("boom"), escrow.CodeInternal},
		{escrow.ErrInvoiceNotFound, escrow.CodeNotFound},
		{escrow.ErrAlreadyExists, escrow.CodeAlreadyExists},
		{escrow.ErrInvalidState, escrow.CodeInvalidState},
		{escrow.ErrStateConflict, escrow.CodeInvalidState},
		{escrow.ErrNotArbiterOrPayer, escrow.CodeNotArbiterOrPayer},
		{escrow.ErrNotExpired, escrow.CodeNotExpired},
		{escrow.ErrTransferFailed, escrow.CodeTransferFailed},
		{escrow.ErrInvalidInput, escrow.CodeInvalidInput},
		{escrow.ErrSelfArbitration, escrow.CodeInvalidInput},
		{escrow.ErrInsufficientDeposit, escrow.CodeInsufficientDeposit},
		{escrow.ErrNotPayer, escrow.CodeNotPayer},
		{escrow.ErrNotArbiter, escrow.CodeNotArbiter},
		{escrow.ErrNotPayerOrPayee, escrow.CodeNotPayerOrPayee},
		{escrow.ValidationError{Field: "amount", Message: "must be positive"}, escrow.CodeInvalidInput},
		{fmt.Errorf("escrow: release 3: %w", escrow.ErrNotArbiterOrPayer), escrow.CodeNotArbiterOrPayer},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			if got := escrow.CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifiers(t *testing.T) {
	wrapped := fmt.Errorf("escrow: resolve 9: %w", escrow.ErrNotArbiter)

	if !escrow.IsNotAuthorized(wrapped) {
		t.Error("wrapped ErrNotArbiter should be an authorization error")
	}
	if escrow.IsNotAuthorized(escrow.ErrNotExpired) {
		t.Error("ErrNotExpired is reported separately from authorization")
	}
	if !escrow.IsInvalidState(escrow.ErrStateConflict) {
		t.Error("state conflicts are invalid-state errors")
	}
	if !escrow.IsInvalidInput(escrow.ValidationError{Field: "reason"}) {
		t.Error("validation errors are invalid input")
	}
	if !escrow.IsNotFound(fmt.Errorf("get: %w", escrow.ErrInvoiceNotFound)) {
		t.Error("wrapped not-found not detected")
	}
	if !escrow.IsTransferFailed(fmt.Errorf("%w: %w", escrow.ErrTransferFailed, errors.New("ledger down"))) {
		t.Error("wrapped transfer failure not detected")
	}
}
