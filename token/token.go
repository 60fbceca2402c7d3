// Package token defines the token ledger the escrow engine moves funds
// through. The engine never touches balances directly.
package token

import (
	"context"
	"errors"
	"sync"

	"github.com/xraph/escrow/types"
)

var (
	// ErrInsufficientBalance is returned by Transfer when the source account
	// cannot cover the amount.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrUnknownContract is returned by Registry.Resolve.
	ErrUnknownContract = errors.New("token: unknown contract")
)

// Ledger is a fungible token balance sheet.
//
// Transfer must be atomic: on error no balance has changed.
type Ledger interface {
	Transfer(ctx context.Context, amount types.Amount, from, to string) error
	BalanceOf(ctx context.Context, account string) (types.Amount, error)
}

// Registry maps token contract references to ledgers. Safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	ledgers map[string]Ledger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[string]Ledger)}
}

// Register binds contract to l, replacing any previous binding.
func (r *Registry) Register(contract string, l Ledger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[contract] = l
}

// Resolve returns the ledger bound to contract.
func (r *Registry) Resolve(contract string) (Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[contract]
	if !ok {
		return nil, ErrUnknownContract
	}
	return l, nil
}

// Contracts returns the registered contract references.
func (r *Registry) Contracts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ledgers))
	for c := range r.ledgers {
		out = append(out, c)
	}
	return out
}
