// Package observability provides a metrics extension for the escrow engine
// that records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/go-utils/metrics"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/dispute"
	"github.com/xraph/escrow/invoice"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/settlement"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated     = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceFunded      = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceReleased    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceRefunded    = (*MetricsExtension)(nil)
	_ plugin.OnDisputeRaised      = (*MetricsExtension)(nil)
	_ plugin.OnDisputeResolved    = (*MetricsExtension)(nil)
	_ plugin.OnTransitionRejected = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// FromGoUtils adapts a go-utils MetricFactory, such as the one a forge app
// exposes through app.Metrics().
func FromGoUtils(f metrics.MetricFactory) MetricFactory {
	return goUtilsFactory{f}
}

type goUtilsFactory struct {
	f metrics.MetricFactory
}

func (g goUtilsFactory) Counter(name string) Counter     { return g.f.Counter(name) }
func (g goUtilsFactory) Histogram(name string) Histogram { return g.f.Histogram(name) }

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an escrow plugin to track invoice throughput.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoiceCreated  Counter
	InvoiceFunded   Counter
	InvoiceReleased Counter
	InvoiceRefunded Counter

	// Dispute metrics
	DisputeRaised          Counter
	DisputeResolvedRelease Counter
	DisputeResolvedRefund  Counter

	// Settlement metrics
	SettledAmount Histogram

	// Error metrics
	TransitionRejected Counter
	TransitionDenied   Counter
	TransferFailed     Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		InvoiceCreated:  factory.Counter("escrow.invoice.created"),
		InvoiceFunded:   factory.Counter("escrow.invoice.funded"),
		InvoiceReleased: factory.Counter("escrow.invoice.released"),
		InvoiceRefunded: factory.Counter("escrow.invoice.refunded"),

		DisputeRaised:          factory.Counter("escrow.dispute.raised"),
		DisputeResolvedRelease: factory.Counter("escrow.dispute.resolved.release"),
		DisputeResolvedRefund:  factory.Counter("escrow.dispute.resolved.refund"),

		SettledAmount: factory.Histogram("escrow.settlement.amount"),

		TransitionRejected: factory.Counter("escrow.transition.rejected"),
		TransitionDenied:   factory.Counter("escrow.transition.denied"),
		TransferFailed:     factory.Counter("escrow.transfer.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	return nil
}

// OnInvoiceFunded implements plugin.OnInvoiceFunded.
func (m *MetricsExtension) OnInvoiceFunded(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceFunded.Inc()
	return nil
}

// OnInvoiceReleased implements plugin.OnInvoiceReleased.
func (m *MetricsExtension) OnInvoiceReleased(_ context.Context, _ *invoice.Invoice, s *settlement.Settlement) error {
	m.InvoiceReleased.Inc()
	m.SettledAmount.Observe(float64(s.Amount))
	return nil
}

// OnInvoiceRefunded implements plugin.OnInvoiceRefunded.
func (m *MetricsExtension) OnInvoiceRefunded(_ context.Context, _ *invoice.Invoice, s *settlement.Settlement) error {
	m.InvoiceRefunded.Inc()
	m.SettledAmount.Observe(float64(s.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Dispute hooks
// ──────────────────────────────────────────────────

// OnDisputeRaised implements plugin.OnDisputeRaised.
func (m *MetricsExtension) OnDisputeRaised(_ context.Context, _ *invoice.Invoice, _ *dispute.Dispute) error {
	m.DisputeRaised.Inc()
	return nil
}

// OnDisputeResolved implements plugin.OnDisputeResolved.
func (m *MetricsExtension) OnDisputeResolved(_ context.Context, _ *invoice.Invoice, d *dispute.Dispute) error {
	if d.Outcome == dispute.OutcomeRefund {
		m.DisputeResolvedRefund.Inc()
	} else {
		m.DisputeResolvedRelease.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnTransitionRejected implements plugin.OnTransitionRejected.
func (m *MetricsExtension) OnTransitionRejected(_ context.Context, _ string, _ invoice.ID, err error) error {
	m.TransitionRejected.Inc()
	if escrow.IsNotAuthorized(err) {
		m.TransitionDenied.Inc()
	}
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ *invoice.Invoice, _ error) error {
	m.TransferFailed.Inc()
	return nil
}
