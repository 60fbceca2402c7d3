// Package mongo implements the escrow store on MongoDB through grove.
//
// Transitions run inside a multi-document transaction, so the target
// deployment must be a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	escrowstore "github.com/xraph/escrow/store"
)

// Collection name constants.
const (
	colInvoices    = "escrow_invoices"
	colDisputes    = "escrow_disputes"
	colSettlements = "escrow_settlements"
)

// compile-time interface check
var _ escrowstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all escrow collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("escrow/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := s.mdb.NewInsert(toInvoiceModel(inv)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return escrow.ErrAlreadyExists
		}
		return fmt.Errorf("escrow/mongo: create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID invoice.ID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(invID)}). //nolint:gosec // int64 round-trip
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, escrow.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("escrow/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m), nil
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	filter := bson.M{}
	if opts.Payer != "" {
		filter["payer"] = string(opts.Payer)
	}
	if opts.Payee != "" {
		filter["payee"] = string(opts.Payee)
	}
	if opts.Arbiter != "" {
		filter["arbiter"] = string(opts.Arbiter)
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("escrow/mongo: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		result[i] = fromInvoiceModel(&models[i])
	}
	return result, nil
}

// ==================== Transition ====================

// ApplyTransition writes the invoice and its records in one transaction. The
// invoice update only matches while the stored state is still t.From.
func (s *Store) ApplyTransition(ctx context.Context, t *escrowstore.Transition) (err error) {
	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("escrow/mongo: begin transition: %w", err)
	}
	tx, ok := gtx.Raw().(*mongodriver.MongoTx)
	if !ok {
		_ = gtx.Rollback() //nolint:errcheck // nothing was written
		return fmt.Errorf("escrow/mongo: unexpected transaction type %T", gtx.Raw())
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // err already describes the failure
		}
	}()

	m := toInvoiceModel(t.Invoice)
	res, err := tx.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "state": string(t.From)}).
		SetUpdate(bson.M{"$set": m.mutableFields()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/mongo: update invoice: %w", err)
	}
	if res.MatchedCount() == 0 {
		return conflict(ctx, tx, t.Invoice.ID)
	}

	if t.OpenDispute != nil {
		if _, err = tx.NewInsert(toDisputeModel(t.OpenDispute)).Exec(ctx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return escrow.ErrStateConflict
			}
			return fmt.Errorf("escrow/mongo: insert dispute: %w", err)
		}
	}

	if t.ResolveDispute != nil {
		dm := toDisputeModel(t.ResolveDispute)
		res, err = tx.NewUpdate(dm).
			Filter(bson.M{"_id": dm.ID, "open": true}).
			SetUpdate(bson.M{"$set": bson.M{
				"open":        false,
				"outcome":     dm.Outcome,
				"resolved_by": dm.ResolvedBy,
				"resolved_at": dm.ResolvedAt,
			}}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("escrow/mongo: resolve dispute: %w", err)
		}
		if res.MatchedCount() == 0 {
			return escrow.ErrStateConflict
		}
	}

	if t.Settlement != nil {
		if _, err = tx.NewInsert(toSettlementModel(t.Settlement)).Exec(ctx); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return escrow.ErrStateConflict
			}
			return fmt.Errorf("escrow/mongo: insert settlement: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("escrow/mongo: commit transition: %w", err)
	}
	return nil
}

// conflict distinguishes a missing invoice from a lost compare-and-swap.
// The lookup runs in the transaction's session.
func conflict(ctx context.Context, tx *mongodriver.MongoTx, invID invoice.ID) error {
	var m invoiceModel
	err := tx.NewFind(&m).
		Filter(bson.M{"_id": int64(invID)}). //nolint:gosec // int64 round-trip
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return escrow.ErrInvoiceNotFound
		}
		return fmt.Errorf("escrow/mongo: check invoice: %w", err)
	}
	return escrow.ErrStateConflict
}

// ==================== Dispute Store ====================

func (s *Store) ListDisputes(ctx context.Context, invID invoice.ID) ([]*dispute.Dispute, error) {
	var models []disputeModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"invoice_id": int64(invID)}). //nolint:gosec // int64 round-trip
		Sort(bson.D{{Key: "raised_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/mongo: list disputes: %w", err)
	}

	result := make([]*dispute.Dispute, len(models))
	for i := range models {
		d, err := fromDisputeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = d
	}
	return result, nil
}

func (s *Store) GetOpenDispute(ctx context.Context, invID invoice.ID) (*dispute.Dispute, error) {
	var m disputeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"invoice_id": int64(invID), "open": true}). //nolint:gosec // int64 round-trip
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, escrow.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("escrow/mongo: get open dispute: %w", err)
	}
	return fromDisputeModel(&m)
}

// ==================== Settlement Store ====================

func (s *Store) ListSettlements(ctx context.Context, invID invoice.ID) ([]*settlement.Settlement, error) {
	var models []settlementModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"invoice_id": int64(invID)}). //nolint:gosec // int64 round-trip
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/mongo: list settlements: %w", err)
	}

	result := make([]*settlement.Settlement, len(models))
	for i := range models {
		st, err := fromSettlementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all escrow collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colInvoices: {
			{Keys: bson.D{{Key: "payer", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "payee", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "arbiter", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colDisputes: {
			{Keys: bson.D{{Key: "invoice_id", Value: 1}, {Key: "raised_at", Value: 1}}},
			{
				Keys: bson.D{{Key: "invoice_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"open": true}),
			},
		},
		colSettlements: {
			{
				Keys:    bson.D{{Key: "invoice_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
