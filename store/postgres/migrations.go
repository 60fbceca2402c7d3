package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the escrow store.
var Migrations = migrate.NewGroup("escrow")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_escrow_invoices",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_invoices (
    id             BIGINT PRIMARY KEY,
    payer          TEXT NOT NULL,
    payee          TEXT NOT NULL,
    arbiter        TEXT NOT NULL,
    token_contract TEXT NOT NULL,
    amount         BIGINT NOT NULL CHECK (amount > 0),
    expiration     BIGINT NOT NULL,
    created_height BIGINT NOT NULL DEFAULT 0,
    state          TEXT NOT NULL DEFAULT 'created',
    dispute_reason TEXT NOT NULL DEFAULT '',
    funded_at      TIMESTAMPTZ,
    settled_at     TIMESTAMPTZ,
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    invoice_id  BIGINT NOT NULL REFERENCES escrow_invoices (id),
    raised_by   TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    raised_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    outcome     TEXT NOT NULL DEFAULT '',
    resolved_by TEXT NOT NULL DEFAULT '',
    resolved_at TIMESTAMPTZ
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
    invoice_id     BIGINT NOT NULL REFERENCES escrow_invoices (id),
    kind           TEXT NOT NULL,
    from_account   TEXT NOT NULL,
    to_address     TEXT NOT NULL,
    amount         BIGINT NOT NULL,
    token_contract TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_escrow_settlements_invoice ON escrow_settlements (invoice_id);
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
