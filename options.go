package escrow

import (
	"log/slog"
	"time"

	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/token"
)

// Option configures an Escrow instance.
type Option func(*Escrow)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Escrow) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Escrow) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Escrow) {
		e.plugins.WithTimeout(d)
	}
}

// WithToken binds a token contract reference to the ledger that settles it.
func WithToken(contract string, l token.Ledger) Option {
	return func(e *Escrow) {
		e.tokens.Register(contract, l)
	}
}

// WithTokenRegistry replaces the token registry wholesale.
func WithTokenRegistry(r *token.Registry) Option {
	return func(e *Escrow) {
		if r != nil {
			e.tokens = r
		}
	}
}

// WithClock sets the height source used for expiration checks.
func WithClock(c Clock) Option {
	return func(e *Escrow) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithEscrowAccount overrides the custody account derivation.
func WithEscrowAccount(fn func(invoice.ID) string) Option {
	return func(e *Escrow) {
		if fn != nil {
			e.escrowAccount = fn
		}
	}
}

// WithEscrowAccountPrefix derives custody accounts as prefix + invoice id.
func WithEscrowAccountPrefix(prefix string) Option {
	return func(e *Escrow) {
		if prefix != "" {
			e.escrowAccount = prefixedAccount(prefix)
		}
	}
}

// WithSelfArbitration allows the arbiter to also be the payer or payee.
func WithSelfArbitration(allow bool) Option {
	return func(e *Escrow) {
		e.selfArbitrate = allow
	}
}

// WithoutMigrate makes Start skip store migrations.
func WithoutMigrate() Option {
	return func(e *Escrow) {
		e.skipMigrate = true
	}
}
