package escrow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/puzpuzpuz/xsync/v2"

	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/token"
)

// DefaultEscrowAccountPrefix is prepended to the invoice id to form the
// custody account unless WithEscrowAccount overrides it.
const DefaultEscrowAccountPrefix = "escrow:"

// Escrow is the invoice settlement engine.
type Escrow struct {
	store   store.Store
	tokens  *token.Registry
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   Clock

	validate      *validator.Validate
	escrowAccount func(invoice.ID) string
	selfArbitrate bool
	skipMigrate   bool

	// One mutex per invoice serializes every mutating operation on it.
	// Entries live only while a call holds or waits on them.
	locks *xsync.MapOf[invoice.ID, *invoiceLock]
}

// invoiceLock is a per-invoice mutex with a count of the calls holding or
// waiting on it. refs is only touched inside locks.Compute.
type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a new Escrow engine backed by s.
func New(s store.Store, opts ...Option) *Escrow {
	e := &Escrow{
		store:    s,
		tokens:   token.NewRegistry(),
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		clock:    WallClock(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		locks:    xsync.NewIntegerMapOf[invoice.ID, *invoiceLock](),
	}
	e.escrowAccount = prefixedAccount(DefaultEscrowAccountPrefix)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start migrates the store and initializes plugins.
func (e *Escrow) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("escrow started",
		"plugins", e.plugins.Count(),
		"token_contracts", len(e.tokens.Contracts()),
		"self_arbitration", e.selfArbitrate,
	)

	return nil
}

// Stop notifies plugins and closes the store.
func (e *Escrow) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	e.logger.Info("escrow stopped")
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Escrow) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Escrow) Plugins() *plugin.Registry { return e.plugins }

// Tokens returns the token contract registry.
func (e *Escrow) Tokens() *token.Registry { return e.tokens }

// EscrowAccount returns the ledger account that holds funds for invID.
func (e *Escrow) EscrowAccount(invID invoice.ID) string {
	return e.escrowAccount(invID)
}

// lock acquires the per-invoice mutex and returns its release func. The
// last release removes the entry, so the table never outgrows the set of
// invoices with calls in flight.
func (e *Escrow) lock(invID invoice.ID) func() {
	l, _ := e.locks.Compute(invID, func(l *invoiceLock, loaded bool) (*invoiceLock, bool) {
		if !loaded {
			l = new(invoiceLock)
		}
		l.refs++
		return l, false
	})
	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		e.locks.Compute(invID, func(l *invoiceLock, _ bool) (*invoiceLock, bool) {
			l.refs--
			return l, l.refs == 0
		})
	}
}

func prefixedAccount(prefix string) func(invoice.ID) string {
	return func(invID invoice.ID) string {
		return prefix + invID.String()
	}
}

// now returns the current time in UTC.
func now() time.Time { return time.Now().UTC() }
