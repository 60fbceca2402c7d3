// Package memory provides an in-memory store. Records are copied on the way
// in and out so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	invoices    map[invoice.ID]*invoice.Invoice
	disputes    map[invoice.ID][]*dispute.Dispute
	settlements map[invoice.ID][]*settlement.Settlement

	// seq preserves creation order for ListInvoices.
	seq   map[invoice.ID]uint64
	next  uint64
	close bool
}

func New() *Store {
	return &Store{
		invoices:    make(map[invoice.ID]*invoice.Invoice),
		disputes:    make(map[invoice.ID][]*dispute.Dispute),
		settlements: make(map[invoice.ID][]*settlement.Settlement),
		seq:         make(map[invoice.ID]uint64),
	}
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return escrow.ErrAlreadyExists
	}
	s.invoices[inv.ID] = inv.Clone()
	s.next++
	s.seq[inv.ID] = s.next
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID invoice.ID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID]; ok {
		return inv.Clone(), nil
	}
	return nil, escrow.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*invoice.Invoice
	for _, inv := range s.invoices {
		if opts.Payer != "" && inv.Payer != opts.Payer {
			continue
		}
		if opts.Payee != "" && inv.Payee != opts.Payee {
			continue
		}
		if opts.Arbiter != "" && inv.Arbiter != opts.Arbiter {
			continue
		}
		if opts.State != "" && inv.State != opts.State {
			continue
		}
		result = append(result, inv.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Transition ====================

func (s *Store) ApplyTransition(_ context.Context, t *store.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.invoices[t.Invoice.ID]
	if !ok {
		return escrow.ErrInvoiceNotFound
	}
	if current.State != t.From {
		return escrow.ErrStateConflict
	}

	if t.ResolveDispute != nil {
		list := s.disputes[t.Invoice.ID]
		found := false
		for i, d := range list {
			if d.ID.String() != t.ResolveDispute.ID.String() {
				continue
			}
			if !d.IsOpen() {
				return escrow.ErrStateConflict
			}
			cp := *t.ResolveDispute
			list[i] = &cp
			found = true
			break
		}
		if !found {
			return escrow.ErrDisputeNotFound
		}
	}
	if t.OpenDispute != nil {
		for _, d := range s.disputes[t.Invoice.ID] {
			if d.IsOpen() {
				return escrow.ErrStateConflict
			}
		}
		cp := *t.OpenDispute
		s.disputes[t.Invoice.ID] = append(s.disputes[t.Invoice.ID], &cp)
	}
	if t.Settlement != nil {
		cp := *t.Settlement
		s.settlements[t.Invoice.ID] = append(s.settlements[t.Invoice.ID], &cp)
	}

	s.invoices[t.Invoice.ID] = t.Invoice.Clone()
	return nil
}

// ==================== Dispute Store ====================

func (s *Store) ListDisputes(_ context.Context, invID invoice.ID) ([]*dispute.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*dispute.Dispute, 0, len(s.disputes[invID]))
	for _, d := range s.disputes[invID] {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) GetOpenDispute(_ context.Context, invID invoice.ID) (*dispute.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.disputes[invID] {
		if d.IsOpen() {
			cp := *d
			return &cp, nil
		}
	}
	return nil, escrow.ErrDisputeNotFound
}

// ==================== Settlement Store ====================

func (s *Store) ListSettlements(_ context.Context, invID invoice.ID) ([]*settlement.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*settlement.Settlement, 0, len(s.settlements[invID]))
	for _, st := range s.settlements[invID] {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.close {
		return escrow.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
