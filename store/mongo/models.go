package mongo

import (
	"time"

	"github.com/xraph/grove"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/types"
)

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:escrow_invoices"`

	ID            int64             `grove:"id,pk"          bson:"_id"`
	Payer         string            `grove:"payer"          bson:"payer"`
	Payee         string            `grove:"payee"          bson:"payee"`
	Arbiter       string            `grove:"arbiter"        bson:"arbiter"`
	TokenContract string            `grove:"token_contract" bson:"token_contract"`
	Amount        int64             `grove:"amount"         bson:"amount"`
	Expiration    int64             `grove:"expiration"     bson:"expiration"`
	CreatedHeight int64             `grove:"created_height" bson:"created_height"`
	State         string            `grove:"state"          bson:"state"`
	DisputeReason string            `grove:"dispute_reason" bson:"dispute_reason"`
	FundedAt      *time.Time        `grove:"funded_at"      bson:"funded_at,omitempty"`
	SettledAt     *time.Time        `grove:"settled_at"     bson:"settled_at,omitempty"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:            int64(inv.ID), //nolint:gosec // ids round-trip through int64 bit-for-bit
		Payer:         string(inv.Payer),
		Payee:         string(inv.Payee),
		Arbiter:       string(inv.Arbiter),
		TokenContract: inv.TokenContract,
		Amount:        int64(inv.Amount),
		Expiration:    int64(inv.Expiration),
		CreatedHeight: int64(inv.CreatedHeight),
		State:         string(inv.State),
		DisputeReason: inv.DisputeReason,
		FundedAt:      inv.FundedAt,
		SettledAt:     inv.SettledAt,
		Metadata:      inv.Metadata,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// mutableFields is the $set document for a transition. Parties, amount and
// expiration never change after creation.
func (m *invoiceModel) mutableFields() bson.M {
	return bson.M{
		"state":          m.State,
		"dispute_reason": m.DisputeReason,
		"funded_at":      m.FundedAt,
		"settled_at":     m.SettledAt,
		"updated_at":     m.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) *invoice.Invoice {
	meta := m.Metadata
	if len(meta) == 0 {
		meta = nil
	}
	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            invoice.ID(m.ID), //nolint:gosec // see toInvoiceModel
		Payer:         types.Address(m.Payer),
		Payee:         types.Address(m.Payee),
		Arbiter:       types.Address(m.Arbiter),
		TokenContract: m.TokenContract,
		Amount:        types.Amount(m.Amount),
		Expiration:    types.Height(m.Expiration),
		CreatedHeight: types.Height(m.CreatedHeight),
		State:         invoice.State(m.State),
		DisputeReason: m.DisputeReason,
		FundedAt:      m.FundedAt,
		SettledAt:     m.SettledAt,
		Metadata:      meta,
	}
}

// ==================== Dispute models ====================

// disputeModel carries an explicit open flag because partial indexes cannot
// filter on a missing field.
type disputeModel struct {
	grove.BaseModel `grove:"table:escrow_disputes"`

	ID         string     `grove:"id,pk"       bson:"_id"`
	InvoiceID  int64      `grove:"invoice_id"  bson:"invoice_id"`
	RaisedBy   string     `grove:"raised_by"   bson:"raised_by"`
	Reason     string     `grove:"reason"      bson:"reason"`
	RaisedAt   time.Time  `grove:"raised_at"   bson:"raised_at"`
	Open       bool       `grove:"open"        bson:"open"`
	Outcome    string     `grove:"outcome"     bson:"outcome"`
	ResolvedBy string     `grove:"resolved_by" bson:"resolved_by"`
	ResolvedAt *time.Time `grove:"resolved_at" bson:"resolved_at,omitempty"`
}

func toDisputeModel(d *dispute.Dispute) *disputeModel {
	return &disputeModel{
		ID:         d.ID.String(),
		InvoiceID:  int64(d.InvoiceID), //nolint:gosec // see toInvoiceModel
		RaisedBy:   string(d.RaisedBy),
		Reason:     d.Reason,
		RaisedAt:   d.RaisedAt,
		Open:       d.IsOpen(),
		Outcome:    string(d.Outcome),
		ResolvedBy: string(d.ResolvedBy),
		ResolvedAt: d.ResolvedAt,
	}
}

func fromDisputeModel(m *disputeModel) (*dispute.Dispute, error) {
	dspID, err := id.ParseDisputeID(m.ID)
	if err != nil {
		return nil, err
	}
	return &dispute.Dispute{
		ID:         dspID,
		InvoiceID:  invoice.ID(m.InvoiceID), //nolint:gosec // see toInvoiceModel
		RaisedBy:   types.Address(m.RaisedBy),
		Reason:     m.Reason,
		RaisedAt:   m.RaisedAt,
		Outcome:    dispute.Outcome(m.Outcome),
		ResolvedBy: types.Address(m.ResolvedBy),
		ResolvedAt: m.ResolvedAt,
	}, nil
}

// ==================== Settlement models ====================

type settlementModel struct {
	grove.BaseModel `grove:"table:escrow_settlements"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	InvoiceID     int64     `grove:"invoice_id"     bson:"invoice_id"`
	Kind          string    `grove:"kind"           bson:"kind"`
	FromAccount   string    `grove:"from_account"   bson:"from_account"`
	ToAddress     string    `grove:"to_address"     bson:"to_address"`
	Amount        int64     `grove:"amount"         bson:"amount"`
	TokenContract string    `grove:"token_contract" bson:"token_contract"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
}

func toSettlementModel(s *settlement.Settlement) *settlementModel {
	return &settlementModel{
		ID:            s.ID.String(),
		InvoiceID:     int64(s.InvoiceID), //nolint:gosec // see toInvoiceModel
		Kind:          string(s.Kind),
		FromAccount:   s.From,
		ToAddress:     string(s.To),
		Amount:        int64(s.Amount),
		TokenContract: s.TokenContract,
		CreatedAt:     s.CreatedAt,
	}
}

func fromSettlementModel(m *settlementModel) (*settlement.Settlement, error) {
	stlID, err := id.ParseSettlementID(m.ID)
	if err != nil {
		return nil, err
	}
	return &settlement.Settlement{
		ID:            stlID,
		InvoiceID:     invoice.ID(m.InvoiceID), //nolint:gosec // see toInvoiceModel
		Kind:          settlement.Kind(m.Kind),
		From:          m.FromAccount,
		To:            types.Address(m.ToAddress),
		Amount:        types.Amount(m.Amount),
		TokenContract: m.TokenContract,
		CreatedAt:     m.CreatedAt,
	}, nil
}
