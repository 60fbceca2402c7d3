// Package invoice defines the escrow agreement record, its lifecycle states
// and the legal transitions between them.
package invoice

import (
	"strconv"
	"time"

	"github.com/xraph/escrow/types"
)

// ID is the caller-assigned invoice identifier. It is never reused.
type ID uint64

// String implements fmt.Stringer.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// ParseID parses a decimal invoice identifier.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// State is the lifecycle position of an invoice.
type State string

const (
	StateCreated  State = "created"
	StateFunded   State = "funded"
	StateReleased State = "released"
	StateRefunded State = "refunded"
	StateDisputed State = "disputed"
)

// IsTerminal reports whether no further transition can leave this state.
func (s State) IsTerminal() bool {
	return s == StateReleased || s == StateRefunded
}

// HoldsFunds reports whether the escrow account is expected to hold the
// invoice amount while in this state.
func (s State) HoldsFunds() bool {
	return s == StateFunded || s == StateDisputed
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists, for each state, the states it may move to.
var transitions = map[State][]State{
	StateCreated:  {StateFunded},
	StateFunded:   {StateReleased, StateRefunded, StateDisputed},
	StateDisputed: {StateReleased, StateRefunded},
	StateReleased: nil,
	StateRefunded: nil,
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice is a single escrow agreement between payer, payee and arbiter for
// a fixed token amount.
type Invoice struct {
	types.Entity
	ID            ID                `json:"id"`
	Payer         types.Address     `json:"payer"`
	Payee         types.Address     `json:"payee"`
	Arbiter       types.Address     `json:"arbiter"`
	TokenContract string            `json:"token_contract"`
	Amount        types.Amount      `json:"amount"`
	Expiration    types.Height      `json:"expiration"`
	CreatedHeight types.Height      `json:"created_height"`
	State         State             `json:"state"`
	DisputeReason string            `json:"dispute_reason,omitempty"`
	FundedAt      *time.Time        `json:"funded_at,omitempty"`
	SettledAt     *time.Time        `json:"settled_at,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the invoice expiration has been reached at now.
func (inv *Invoice) IsExpired(now types.Height) bool {
	return now >= inv.Expiration
}

// Clone returns a deep copy so callers can mutate it without affecting the
// stored record.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	if inv.FundedAt != nil {
		t := *inv.FundedAt
		c.FundedAt = &t
	}
	if inv.SettledAt != nil {
		t := *inv.SettledAt
		c.SettledAt = &t
	}
	if inv.Metadata != nil {
		c.Metadata = make(map[string]string, len(inv.Metadata))
		for k, v := range inv.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
