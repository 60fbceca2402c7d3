package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	"github.com/xraph/escrow/types"
)

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:escrow_invoices"`

	ID            int64           `grove:"id,pk"`
	Payer         string          `grove:"payer"`
	Payee         string          `grove:"payee"`
	Arbiter       string          `grove:"arbiter"`
	TokenContract string          `grove:"token_contract"`
	Amount        int64           `grove:"amount"`
	Expiration    int64           `grove:"expiration"`
	CreatedHeight int64           `grove:"created_height"`
	State         string          `grove:"state"`
	DisputeReason string          `grove:"dispute_reason"`
	FundedAt      *time.Time      `grove:"funded_at"`
	SettledAt     *time.Time      `grove:"settled_at"`
	Metadata      json.RawMessage `grove:"metadata,type:jsonb"`
	CreatedAt     time.Time       `grove:"created_at"`
	UpdatedAt     time.Time       `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	meta, _ := json.Marshal(inv.Metadata) //nolint:errcheck // map[string]string always marshals
	if inv.Metadata == nil {
		meta = json.RawMessage(`{}`)
	}

	return &invoiceModel{
		ID:            int64(inv.ID), //nolint:gosec // ids round-trip through BIGINT bit-for-bit
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
		Metadata:      meta,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &meta); err != nil {
			return nil, err
		}
	}
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
	}, nil
}

// ==================== Dispute models ====================

type disputeModel struct {
	grove.BaseModel `grove:"table:escrow_disputes"`

	ID         string     `grove:"id,pk"`
	InvoiceID  int64      `grove:"invoice_id"`
	RaisedBy   string     `grove:"raised_by"`
	Reason     string     `grove:"reason"`
	RaisedAt   time.Time  `grove:"raised_at"`
	Outcome    string     `grove:"outcome"`
	ResolvedBy string     `grove:"resolved_by"`
	ResolvedAt *time.Time `grove:"resolved_at"`
}

func toDisputeModel(d *dispute.Dispute) *disputeModel {
	return &disputeModel{
		ID:         d.ID.String(),
		InvoiceID:  int64(d.InvoiceID), //nolint:gosec // see toInvoiceModel
		RaisedBy:   string(d.RaisedBy),
		Reason:     d.Reason,
		RaisedAt:   d.RaisedAt,
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

	ID            string    `grove:"id,pk"`
	InvoiceID     int64     `grove:"invoice_id"`
	Kind          string    `grove:"kind"`
	FromAccount   string    `grove:"from_account"`
	ToAddress     string    `grove:"to_address"`
	Amount        int64     `grove:"amount"`
	TokenContract string    `grove:"token_contract"`
	CreatedAt     time.Time `grove:"created_at"`
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
