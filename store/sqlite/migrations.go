package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the escrow store (SQLite).
//
// Time columns are declared TIMESTAMP so the driver scans them back into
// time.Time.
var Migrations = migrate.NewGroup("escrow")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_escrow_invoices",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_invoices (
    id             INTEGER PRIMARY KEY,
    payer          TEXT NOT NULL,
    payee          TEXT NOT NULL,
    arbiter        TEXT NOT NULL,
    token_contract TEXT NOT NULL,
    amount         INTEGER NOT NULL CHECK (amount > 0),
    expiration     INTEGER NOT NULL,
    created_height INTEGER NOT NULL DEFAULT 0,
    state          TEXT NOT NULL DEFAULT 'created',
    dispute_reason TEXT NOT NULL DEFAULT '',
    funded_at      TIMESTAMP,
    settled_at     TIMESTAMP,
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_escrow_invoices_payer ON escrow_invoices (payer, state);
CREATE INDEX IF NOT EXISTS idx_escrow_invoices_payee ON escrow_invoices (payee, state);
CREATE INDEX IF NOT EXISTS idx_escrow_invoices_arbiter ON escrow_invoices (arbiter, state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_escrow_disputes",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_disputes (
    id          TEXT PRIMARY KEY,
    invoice_id  INTEGER NOT NULL REFERENCES escrow_invoices (id),
    raised_by   TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    raised_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    outcome     TEXT NOT NULL DEFAULT '',
    resolved_by TEXT NOT NULL DEFAULT '',
    resolved_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_escrow_disputes_invoice ON escrow_disputes (invoice_id, raised_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_escrow_disputes_open ON escrow_disputes (invoice_id) WHERE resolved_at IS NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_disputes`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_escrow_settlements",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_settlements (
    id             TEXT PRIMARY KEY,
    invoice_id     INTEGER NOT NULL UNIQUE REFERENCES escrow_invoices (id),
    kind           TEXT NOT NULL,
    from_account   TEXT NOT NULL,
    to_address     TEXT NOT NULL,
    amount         INTEGER NOT NULL,
    token_contract TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_settlements`)
				return err
			},
		},
	)
}
