package observability_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/observability"
	"github.com/xraph/escrow/store/memory"
	tokenmem "github.com/xraph/escrow/token/memory"
	"github.com/xraph/escrow/types"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.Metric, len(families))
	for _, mf := range families {
		if len(mf.GetMetric()) > 0 {
			out[mf.GetName()] = mf.GetMetric()[0]
		}
	}
	return out
}

func runScenario(t *testing.T, ext *observability.MetricsExtension) {
	t.Helper()
	ctx := context.Background()
	ledger := tokenmem.New()
	e := escrow.New(memory.New(),
		escrow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		escrow.WithToken("usdc", ledger),
		escrow.WithClock(escrow.FixedClock(1)),
		escrow.WithPlugin(ext),
	)
	require.NoError(t, e.Start(ctx))
	t.Cleanup(func() { _ = e.Stop() })

	for _, invID := range []escrow.InvoiceID{1, 2} {
		_, err := e.CreateInvoice(ctx, "alice", escrow.CreateParams{
			ID:            invID,
			Payee:         "bob",
			Arbiter:       "carol",
			TokenContract: "usdc",
			Amount:        types.Amount(250),
			Expiration:    100,
		})
		require.NoError(t, err)
		require.NoError(t, ledger.Mint("alice", 250))
		require.NoError(t, ledger.Transfer(ctx, 250, "alice", e.EscrowAccount(invID)))
		_, err = e.AckDeposit(ctx, "alice", invID)
		require.NoError(t, err)
	}

	_, err := e.ReleaseFunds(ctx, "mallory", 1)
	require.Error(t, err)
	_, err = e.ReleaseFunds(ctx, "alice", 1)
	require.NoError(t, err)

	_, err = e.RaiseDispute(ctx, "bob", 2, "wrong size")
	require.NoError(t, err)
	_, err = e.ResolveDispute(ctx, "carol", 2, dispute.OutcomeRefund)
	require.NoError(t, err)
}

func TestPrometheusFactory(t *testing.T) {
	reg := prometheus.NewRegistry()
	runScenario(t, observability.NewMetricsExtension(observability.NewPrometheusFactory(reg, "test")))

	got := gather(t, reg)
	counter := func(name string) float64 {
		m, ok := got[name]
		require.True(t, ok, "missing metric %s", name)
		return m.GetCounter().GetValue()
	}

	assert.Equal(t, 2.0, counter("test_escrow_invoice_created"))
	assert.Equal(t, 2.0, counter("test_escrow_invoice_funded"))
	assert.Equal(t, 1.0, counter("test_escrow_invoice_released"))
	assert.Equal(t, 1.0, counter("test_escrow_invoice_refunded"))
	assert.Equal(t, 1.0, counter("test_escrow_dispute_raised"))
	assert.Equal(t, 1.0, counter("test_escrow_dispute_resolved_refund"))
	assert.Equal(t, 1.0, counter("test_escrow_transition_rejected"))
	assert.Equal(t, 1.0, counter("test_escrow_transition_denied"))

	settled := got["test_escrow_settlement_amount"]
	require.NotNil(t, settled)
	assert.Equal(t, uint64(2), settled.GetHistogram().GetSampleCount())
	assert.Equal(t, 500.0, settled.GetHistogram().GetSampleSum())
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg, "test")

	a := f.Counter("escrow.invoice.created")
	b := f.Counter("escrow.invoice.created")
	a.Inc()
	b.Inc()

	assert.Equal(t, 2.0, gather(t, reg)["test_escrow_invoice_created"].GetCounter().GetValue())
}

func TestPrometheusFactoryPanicsOnNameClash(t *testing.T) {
	f := observability.NewPrometheusFactory(prometheus.NewRegistry(), "test")
	f.Counter("escrow.settlement.amount")

	assert.Panics(t, func() { f.Histogram("escrow.settlement.amount") })
}

func TestGoUtilsAdapter(t *testing.T) {
	collector := metrics.NewMetricsCollector("escrow-test")
	ext := observability.NewMetricsExtension(observability.FromGoUtils(collector))
	runScenario(t, ext)

	created, ok := ext.InvoiceCreated.(metrics.Counter)
	require.True(t, ok)
	assert.Equal(t, 2.0, created.Value())
}
