package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/settlement"
)

type recorder struct {
	name     string
	created  atomic.Int32
	released atomic.Int32
	rejected atomic.Int32
	lastOp   atomic.Value
	fail     bool
	block    time.Duration
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnInvoiceCreated(context.Context, *invoice.Invoice) error {
	r.created.Add(1)
	if r.block > 0 {
		time.Sleep(r.block)
	}
	if r.fail {
		return errors.New("hook failed")
	}
	return nil
}

func (r *recorder) OnInvoiceReleased(context.Context, *invoice.Invoice, *settlement.Settlement) error {
	r.released.Add(1)
	return nil
}

func (r *recorder) OnTransitionRejected(_ context.Context, op string, _ invoice.ID, _ error) error {
	r.rejected.Add(1)
	r.lastOp.Store(op)
	return nil
}

type nameOnly struct{}

func (nameOnly) Name() string { return "bare" }

func quietRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterDuplicate(t *testing.T) {
	r := quietRegistry()
	if err := r.Register(&recorder{name: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&recorder{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestDispatchOnlyToImplementers(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	if err := r.Register(rec); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(nameOnly{}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	inv := &invoice.Invoice{ID: 1}
	r.EmitInvoiceCreated(ctx, inv)
	r.EmitInvoiceReleased(ctx, inv, &settlement.Settlement{})
	r.EmitInvoiceFunded(ctx, inv)
	r.EmitTransitionRejected(ctx, "release", 1, errors.New("nope"))

	if rec.created.Load() != 1 || rec.released.Load() != 1 || rec.rejected.Load() != 1 {
		t.Errorf("unexpected call counts: created=%d released=%d rejected=%d",
			rec.created.Load(), rec.released.Load(), rec.rejected.Load())
	}
	if op, _ := rec.lastOp.Load().(string); op != "release" {
		t.Errorf("op = %q, want release", op)
	}
	if got := r.Get("bare"); got == nil {
		t.Error("Get(bare) returned nil")
	}
	if len(r.List()) != 2 {
		t.Errorf("List() len = %d, want 2", len(r.List()))
	}
}

func TestHookFailureDoesNotStopDispatch(t *testing.T) {
	r := quietRegistry()
	failing := &recorder{name: "failing", fail: true}
	healthy := &recorder{name: "healthy"}
	_ = r.Register(failing)
	_ = r.Register(healthy)

	r.EmitInvoiceCreated(context.Background(), &invoice.Invoice{ID: 2})

	if healthy.created.Load() != 1 {
		t.Error("healthy plugin was skipped after a failing one")
	}
}

func TestHookTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(20 * time.Millisecond)
	slow := &recorder{name: "slow", block: time.Second}
	_ = r.Register(slow)

	start := time.Now()
	r.EmitInvoiceCreated(context.Background(), &invoice.Invoice{ID: 3})

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("dispatch waited %v for a slow plugin", elapsed)
	}
}
