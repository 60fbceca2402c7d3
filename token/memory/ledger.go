// Package memory provides an in-process token ledger.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/escrow/token"
	"github.com/xraph/escrow/types"
)

var _ token.Ledger = (*Ledger)(nil)

// Ledger holds balances in a map guarded by a mutex.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]types.Amount
	supply   types.Amount
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[string]types.Amount)}
}

// Mint credits account with amount out of thin air. Used to seed balances.
func (l *Ledger) Mint(account string, amount types.Amount) error {
	if !amount.IsPositive() {
		return fmt.Errorf("token/memory: mint non-positive amount %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, err := l.balances[account].Add(amount)
	if err != nil {
		return err
	}
	supply, err := l.supply.Add(amount)
	if err != nil {
		return err
	}
	l.balances[account] = bal
	l.supply = supply
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(ctx context.Context, amount types.Amount, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("token/memory: transfer non-positive amount %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return token.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	credited, err := l.balances[to].Add(amount)
	if err != nil {
		return err
	}
	l.balances[from] -= amount
	l.balances[to] = credited
	return nil
}

// BalanceOf returns the balance of account. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(ctx context.Context, account string) (types.Amount, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}

// TotalSupply returns the sum of all minted amounts.
func (l *Ledger) TotalSupply() types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply
}
