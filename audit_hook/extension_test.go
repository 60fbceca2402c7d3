package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/escrow"
	audithook "github.com/xraph/escrow/audit_hook"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/store/memory"
	tokenmem "github.com/xraph/escrow/token/memory"
	"github.com/xraph/escrow/types"
)

type trail struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (tr *trail) Record(_ context.Context, evt *audithook.AuditEvent) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = append(tr.events, evt)
	return nil
}

func (tr *trail) actions() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]string, len(tr.events))
	for i, evt := range tr.events {
		out[i] = evt.Action
	}
	return out
}

func (tr *trail) last() *audithook.AuditEvent {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.events) == 0 {
		return nil
	}
	return tr.events[len(tr.events)-1]
}

func newEngine(t *testing.T, ext *audithook.Extension) (*escrow.Escrow, *tokenmem.Ledger) {
	t.Helper()
	ledger := tokenmem.New()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := escrow.New(memory.New(),
		escrow.WithLogger(quiet),
		escrow.WithToken("usdc", ledger),
		escrow.WithClock(escrow.FixedClock(10)),
		escrow.WithPlugin(ext),
	)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })
	return e, ledger
}

func fundInvoice(t *testing.T, e *escrow.Escrow, ledger *tokenmem.Ledger, amount types.Amount) {
	t.Helper()
	ctx := context.Background()
	_, err := e.CreateInvoice(ctx, "alice", escrow.CreateParams{
		ID:            1,
		Payee:         "bob",
		Arbiter:       "carol",
		TokenContract: "usdc",
		Amount:        amount,
		Expiration:    1_000,
	})
	require.NoError(t, err)
	require.NoError(t, ledger.Mint("alice", amount))
	require.NoError(t, ledger.Transfer(ctx, amount, "alice", e.EscrowAccount(1)))
	_, err = e.AckDeposit(ctx, "alice", 1)
	require.NoError(t, err)
}

func TestDisputeTrail(t *testing.T) {
	tr := &trail{}
	e, ledger := newEngine(t, audithook.New(tr))
	fundInvoice(t, e, ledger, 500)

	ctx := context.Background()
	_, err := e.RaiseDispute(ctx, "bob", 1, "item never arrived")
	require.NoError(t, err)
	_, err = e.ResolveDispute(ctx, "carol", 1, dispute.OutcomeRefund)
	require.NoError(t, err)

	assert.Equal(t, []string{
		audithook.ActionInvoiceCreated,
		audithook.ActionInvoiceFunded,
		audithook.ActionDisputeRaised,
		audithook.ActionDisputeResolved,
		audithook.ActionInvoiceRefunded,
	}, tr.actions())

	refund := tr.last()
	assert.Equal(t, audithook.CategorySettlement, refund.Category)
	assert.Equal(t, "1", refund.ResourceID)
	assert.Equal(t, "alice", refund.Metadata["to"])
	assert.Equal(t, int64(500), refund.Metadata["amount"])
}

func TestRejectionSeverity(t *testing.T) {
	tr := &trail{}
	e, ledger := newEngine(t, audithook.New(tr,
		audithook.WithEnabledActions(audithook.ActionTransitionRejected),
	))
	fundInvoice(t, e, ledger, 500)
	assert.Empty(t, tr.actions(), "only rejections are enabled")

	ctx := context.Background()
	_, err := e.ReleaseFunds(ctx, "mallory", 1)
	require.Error(t, err)

	denied := tr.last()
	require.NotNil(t, denied)
	assert.Equal(t, audithook.SeverityWarning, denied.Severity)
	assert.Equal(t, audithook.CategoryAccess, denied.Category)
	assert.Equal(t, audithook.OutcomeFailure, denied.Outcome)
	assert.Equal(t, int(escrow.CodeNotArbiterOrPayer), denied.Metadata["code"])
	assert.Equal(t, string(escrow.OpRelease), denied.Metadata["operation"])

	_, err = e.ResolveDispute(ctx, "carol", 1, dispute.OutcomeRelease)
	require.Error(t, err)

	stateErr := tr.last()
	assert.Equal(t, audithook.SeverityInfo, stateErr.Severity)
	assert.Equal(t, audithook.CategoryEscrow, stateErr.Category)
	assert.Equal(t, int(escrow.CodeInvalidState), stateErr.Metadata["code"])
}

func TestDisabledActions(t *testing.T) {
	tr := &trail{}
	e, ledger := newEngine(t, audithook.New(tr,
		audithook.WithDisabledActions(audithook.ActionInvoiceCreated),
	))
	fundInvoice(t, e, ledger, 500)

	assert.Equal(t, []string{audithook.ActionInvoiceFunded}, tr.actions())
}

func TestCategoryFilter(t *testing.T) {
	tr := &trail{}
	e, ledger := newEngine(t, audithook.New(tr,
		audithook.WithCategories(audithook.CategoryAccess),
	))
	fundInvoice(t, e, ledger, 500)

	ctx := context.Background()
	_, err := e.ReleaseFunds(ctx, "mallory", 1)
	require.Error(t, err)
	_, err = e.ReleaseFunds(ctx, "alice", 1)
	require.NoError(t, err)
	_, err = e.ReleaseFunds(ctx, "alice", 1)
	require.Error(t, err)

	assert.Equal(t, []string{audithook.ActionTransitionRejected}, tr.actions())
	assert.Equal(t, audithook.CategoryAccess, tr.last().Category)
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	var calls int
	rec := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		calls++
		return errors.New("trail unavailable")
	})
	ext := audithook.New(rec, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	err := ext.OnTransitionRejected(context.Background(), "release", 7, escrow.ErrNotPayer)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
