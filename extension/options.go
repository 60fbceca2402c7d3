package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/token"
)

// Option configures the escrow Forge extension.
type Option func(*Extension)

// WithStore sets the store for the escrow engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from a grove database. The backend is picked
// from the driver: pg, sqlite or mongo.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithEscrowOption passes an escrow.Option through to the underlying engine.
func WithEscrowOption(opt escrow.Option) Option {
	return func(e *Extension) {
		e.escrowOpts = append(e.escrowOpts, opt)
	}
}

// WithPlugin registers an escrow plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.escrowOpts = append(e.escrowOpts, escrow.WithPlugin(p))
	}
}

// WithToken registers the ledger for a token contract.
func WithToken(contract string, l token.Ledger) Option {
	return func(e *Extension) {
		e.escrowOpts = append(e.escrowOpts, escrow.WithToken(contract, l))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithSelfArbitration allows the arbiter to also be a party.
func WithSelfArbitration() Option {
	return func(e *Extension) { e.config.AllowSelfArbitration = true }
}

// WithEscrowAccountPrefix sets the custody account prefix.
func WithEscrowAccountPrefix(prefix string) Option {
	return func(e *Extension) { e.config.EscrowAccountPrefix = prefix }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
