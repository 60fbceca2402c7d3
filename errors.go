package escrow

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInternal      = errors.New("escrow: internal error")
	ErrAlreadyExists = errors.New("escrow: already exists")
	ErrInvalidInput  = errors.New("escrow: invalid input")

	// Invoice errors
	ErrInvoiceNotFound      = errors.New("escrow: invoice not found")
	ErrInvalidState         = errors.New("escrow: invalid state for operation")
	ErrStateConflict        = errors.New("escrow: invoice state changed concurrently")
	ErrInsufficientDeposit  = errors.New("escrow: escrow balance below invoice amount")
	ErrSelfArbitration      = errors.New("escrow: arbiter must differ from payer and payee")
	ErrUnknownTokenContract = errors.New("escrow: unknown token contract")

	// Authorization errors
	ErrNotArbiterOrPayer = errors.New("escrow: caller is not the arbiter or payer")
	ErrNotExpired        = errors.New("escrow: invoice has not expired")
	ErrNotPayer          = errors.New("escrow: caller is not the payer")
	ErrNotArbiter        = errors.New("escrow: caller is not the arbiter")
	ErrNotPayerOrPayee   = errors.New("escrow: caller is not the payer or payee")

	// Dispute errors
	ErrDisputeNotFound = errors.New("escrow: no open dispute")

	// Settlement errors
	ErrTransferFailed = errors.New("escrow: token transfer failed")

	// Store errors
	ErrStoreClosed = errors.New("escrow: store is closed")
)

// Code is the stable numeric identifier of an error kind.
type Code int

// Error codes. These values are part of the public contract.
const (
	CodeInternal            Code = 100
	CodeNotFound            Code = 101
	CodeAlreadyExists       Code = 102
	CodeInvalidState        Code = 103
	CodeNotArbiterOrPayer   Code = 104
	CodeNotExpired          Code = 105
	CodeTransferFailed      Code = 106
	CodeInvalidInput        Code = 107
	CodeInsufficientDeposit Code = 108
	CodeNotPayer            Code = 109
	CodeNotArbiter          Code = 110
	CodeNotPayerOrPayee     Code = 111
)

// codeTable is searched in order; the first match wins.
var codeTable = []struct {
	err  error
	code Code
}{
	{ErrInvoiceNotFound, CodeNotFound},
	{ErrDisputeNotFound, CodeNotFound},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrInvalidState, CodeInvalidState},
	{ErrStateConflict, CodeInvalidState},
	{ErrNotArbiterOrPayer, CodeNotArbiterOrPayer},
	{ErrNotExpired, CodeNotExpired},
	{ErrTransferFailed, CodeTransferFailed},
	{ErrInsufficientDeposit, CodeInsufficientDeposit},
	{ErrNotPayer, CodeNotPayer},
	{ErrNotArbiter, CodeNotArbiter},
	{ErrNotPayerOrPayee, CodeNotPayerOrPayee},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrSelfArbitration, CodeInvalidInput},
	{ErrUnknownTokenContract, CodeInvalidInput},
}

// CodeOf returns the code for err. It returns 0 for nil and CodeInternal for
// errors outside the taxonomy.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	for _, c := range codeTable {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("escrow: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrDisputeNotFound)
}

// IsNotAuthorized returns true if the caller lacked the role for the
// operation.
func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotArbiterOrPayer) ||
		errors.Is(err, ErrNotPayer) ||
		errors.Is(err, ErrNotArbiter) ||
		errors.Is(err, ErrNotPayerOrPayee)
}

// IsInvalidState returns true if the invoice state forbade the operation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateConflict)
}

// IsInvalidInput returns true if the request itself was malformed.
func IsInvalidInput(err error) bool {
	return CodeOf(err) == CodeInvalidInput
}

// IsTransferFailed returns true if the token ledger rejected a transfer.
func IsTransferFailed(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}
