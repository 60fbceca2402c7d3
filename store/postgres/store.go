// Package postgres implements the escrow store on PostgreSQL through grove.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate" // registers the migration executor
	"github.com/xraph/grove/migrate"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
	escrowstore "github.com/xraph/escrow/store"
)

// compile-time interface check
var _ escrowstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("escrow/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("escrow/postgres: migration failed: %w", err)
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
	m := toInvoiceModel(inv)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return escrow.ErrAlreadyExists
		}
		return fmt.Errorf("escrow/postgres: create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID invoice.ID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", int64(invID)). //nolint:gosec // BIGINT round-trip
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, escrow.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("escrow/postgres: get invoice: %w", err)
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.pg.NewSelect(&models)

	if opts.Payer != "" {
		q = q.Where("payer = ?", string(opts.Payer))
	}
	if opts.Payee != "" {
		q = q.Where("payee = ?", string(opts.Payee))
	}
	if opts.Arbiter != "" {
		q = q.Where("arbiter = ?", string(opts.Arbiter))
	}
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("escrow/postgres: list invoices: %w", err)
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

// ==================== Transition ====================

// ApplyTransition writes the invoice and its records in one transaction. The
// invoice update is conditional on the stored state still being t.From.
func (s *Store) ApplyTransition(ctx context.Context, t *escrowstore.Transition) (err error) {
	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("escrow/postgres: begin transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // err already describes the failure
		}
	}()

	m := toInvoiceModel(t.Invoice)
	res, err := tx.NewUpdate(m).
		WherePK().
		Where("state = ?", string(t.From)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/postgres: update invoice: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("escrow/postgres: update invoice: %w", err)
	}
	if rows == 0 {
		return conflict(ctx, tx, t.Invoice.ID)
	}

	if t.OpenDispute != nil {
		if _, err = tx.NewInsert(toDisputeModel(t.OpenDispute)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return escrow.ErrStateConflict
			}
			return fmt.Errorf("escrow/postgres: insert dispute: %w", err)
		}
	}

	if t.ResolveDispute != nil {
		dm := toDisputeModel(t.ResolveDispute)
		res, err = tx.NewUpdate(dm).
			Column("outcome", "resolved_by", "resolved_at").
			WherePK().
			Where("resolved_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("escrow/postgres: resolve dispute: %w", err)
		}
		if rows, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("escrow/postgres: resolve dispute: %w", err)
		}
		if rows == 0 {
			return escrow.ErrStateConflict
		}
	}

	if t.Settlement != nil {
		if _, err = tx.NewInsert(toSettlementModel(t.Settlement)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return escrow.ErrStateConflict
			}
			return fmt.Errorf("escrow/postgres: insert settlement: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("escrow/postgres: commit transition: %w", err)
	}
	return nil
}

// conflict distinguishes a missing invoice from a lost compare-and-swap.
// The lookup runs on tx, which already holds the only connection this
// transition may use.
func conflict(ctx context.Context, tx *pgdriver.PgTx, invID invoice.ID) error {
	err := tx.NewSelect(new(invoiceModel)).
		Where("id = ?", int64(invID)). //nolint:gosec // BIGINT round-trip
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return escrow.ErrInvoiceNotFound
		}
		return fmt.Errorf("escrow/postgres: check invoice: %w", err)
	}
	return escrow.ErrStateConflict
}

// ==================== Dispute Store ====================

func (s *Store) ListDisputes(ctx context.Context, invID invoice.ID) ([]*dispute.Dispute, error) {
	var models []disputeModel
	err := s.pg.NewSelect(&models).
		Where("invoice_id = ?", int64(invID)). //nolint:gosec // BIGINT round-trip
		OrderExpr("raised_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/postgres: list disputes: %w", err)
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
	m := new(disputeModel)
	err := s.pg.NewSelect(m).
		Where("invoice_id = ?", int64(invID)). //nolint:gosec // BIGINT round-trip
		Where("resolved_at IS NULL").
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, escrow.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("escrow/postgres: get open dispute: %w", err)
	}
	return fromDisputeModel(m)
}

// ==================== Settlement Store ====================

func (s *Store) ListSettlements(ctx context.Context, invID invoice.ID) ([]*settlement.Settlement, error) {
	var models []settlementModel
	err := s.pg.NewSelect(&models).
		Where("invoice_id = ?", int64(invID)). //nolint:gosec // BIGINT round-trip
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/postgres: list settlements: %w", err)
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

// isNoRows checks for the no-rows sentinels pgx and database/sql return.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, grove.ErrNoRows)
}

// isUniqueViolation reports a PostgreSQL unique_violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
