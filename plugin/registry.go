package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/settlement"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It caches each plugin's hook interfaces at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onInvoiceCreated     []OnInvoiceCreated
	onInvoiceFunded      []OnInvoiceFunded
	onInvoiceReleased    []OnInvoiceReleased
	onInvoiceRefunded    []OnInvoiceRefunded
	onDisputeRaised      []OnDisputeRaised
	onDisputeResolved    []OnDisputeResolved
	onTransitionRejected []OnTransitionRejected
	onTransferFailed     []OnTransferFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
	}
	if v, ok := p.(OnInvoiceFunded); ok {
		r.onInvoiceFunded = append(r.onInvoiceFunded, v)
	}
	if v, ok := p.(OnInvoiceReleased); ok {
		r.onInvoiceReleased = append(r.onInvoiceReleased, v)
	}
	if v, ok := p.(OnInvoiceRefunded); ok {
		r.onInvoiceRefunded = append(r.onInvoiceRefunded, v)
	}
	if v, ok := p.(OnDisputeRaised); ok {
		r.onDisputeRaised = append(r.onDisputeRaised, v)
	}
	if v, ok := p.(OnDisputeResolved); ok {
		r.onDisputeResolved = append(r.onDisputeResolved, v)
	}
	if v, ok := p.(OnTransitionRejected); ok {
		r.onTransitionRejected = append(r.onTransitionRejected, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnInvoiceCreated", reflect.TypeOf((*OnInvoiceCreated)(nil)).Elem()},
	{"OnInvoiceFunded", reflect.TypeOf((*OnInvoiceFunded)(nil)).Elem()},
	{"OnInvoiceReleased", reflect.TypeOf((*OnInvoiceReleased)(nil)).Elem()},
	{"OnInvoiceRefunded", reflect.TypeOf((*OnInvoiceRefunded)(nil)).Elem()},
	{"OnDisputeRaised", reflect.TypeOf((*OnDisputeRaised)(nil)).Elem()},
	{"OnDisputeResolved", reflect.TypeOf((*OnDisputeResolved)(nil)).Elem()},
	{"OnTransitionRejected", reflect.TypeOf((*OnTransitionRejected)(nil)).Elem()},
	{"OnTransferFailed", reflect.TypeOf((*OnTransferFailed)(nil)).Elem()},
}

// implementedInterfaces returns the hook names p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitInvoiceCreated emits an invoice created event.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceCreated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInvoiceCreated", plugins, func(p OnInvoiceCreated) error {
		return p.OnInvoiceCreated(ctx, inv)
	})
}

// EmitInvoiceFunded emits an invoice funded event.
func (r *Registry) EmitInvoiceFunded(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceFunded
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInvoiceFunded", plugins, func(p OnInvoiceFunded) error {
		return p.OnInvoiceFunded(ctx, inv)
	})
}

// EmitInvoiceReleased emits an invoice released event.
func (r *Registry) EmitInvoiceReleased(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) {
	r.mu.RLock()
	plugins := r.onInvoiceReleased
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInvoiceReleased", plugins, func(p OnInvoiceReleased) error {
		return p.OnInvoiceReleased(ctx, inv, s)
	})
}

// EmitInvoiceRefunded emits an invoice refunded event.
func (r *Registry) EmitInvoiceRefunded(ctx context.Context, inv *invoice.Invoice, s *settlement.Settlement) {
	r.mu.RLock()
	plugins := r.onInvoiceRefunded
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInvoiceRefunded", plugins, func(p OnInvoiceRefunded) error {
		return p.OnInvoiceRefunded(ctx, inv, s)
	})
}

// EmitDisputeRaised emits a dispute raised event.
func (r *Registry) EmitDisputeRaised(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) {
	r.mu.RLock()
	plugins := r.onDisputeRaised
	r.mu.RUnlock()

	dispatch(ctx, r, "OnDisputeRaised", plugins, func(p OnDisputeRaised) error {
		return p.OnDisputeRaised(ctx, inv, d)
	})
}

// EmitDisputeResolved emits a dispute resolved event.
func (r *Registry) EmitDisputeResolved(ctx context.Context, inv *invoice.Invoice, d *dispute.Dispute) {
	r.mu.RLock()
	plugins := r.onDisputeResolved
	r.mu.RUnlock()

	dispatch(ctx, r, "OnDisputeResolved", plugins, func(p OnDisputeResolved) error {
		return p.OnDisputeResolved(ctx, inv, d)
	})
}

// EmitTransitionRejected emits a rejected operation event.
func (r *Registry) EmitTransitionRejected(ctx context.Context, op string, invID invoice.ID, cause error) {
	r.mu.RLock()
	plugins := r.onTransitionRejected
	r.mu.RUnlock()

	dispatch(ctx, r, "OnTransitionRejected", plugins, func(p OnTransitionRejected) error {
		return p.OnTransitionRejected(ctx, op, invID, cause)
	})
}

// EmitTransferFailed emits a transfer failure event.
func (r *Registry) EmitTransferFailed(ctx context.Context, inv *invoice.Invoice, cause error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnTransferFailed", plugins, func(p OnTransferFailed) error {
		return p.OnTransferFailed(ctx, inv, cause)
	})
}

// dispatch calls fn for each plugin in order, logging failures.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block the settlement pipeline past the timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
