package observability

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// NewPrometheusFactory returns a MetricFactory that registers plain
// Prometheus collectors on reg. Dots in metric names become underscores, so
// "escrow.invoice.created" is exported as "<namespace>_escrow_invoice_created".
//
// Asking twice for the same metric returns the collector already registered.
// Like prometheus.MustRegister, the factory panics when reg rejects a
// collector for any other reason, such as a name clash with a metric of a
// different type or help text.
func NewPrometheusFactory(reg prometheus.Registerer, namespace string) MetricFactory {
	return &promFactory{reg: reg, namespace: namespace}
}

type promFactory struct {
	reg       prometheus.Registerer
	namespace string
}

func (p *promFactory) Counter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      promName(name),
		Help:      "Escrow event count for " + name + ".",
	})
	return register(p.reg, c)
}

func (p *promFactory) Histogram(name string) Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      promName(name),
		Help:      "Escrow observations for " + name + ".",
		Buckets:   prometheus.ExponentialBuckets(1, 10, 12),
	})
	return register(p.reg, h)
}

// register adds c to reg, reusing the collector already registered under the
// same name. Any other registration error panics.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
