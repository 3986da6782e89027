// Package metrics holds the prometheus collectors for the engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LinesAdded          *prometheus.CounterVec
	Checkouts           prometheus.Counter
	SaleRecords         *prometheus.CounterVec
	BatchesFinished     prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	MirrorFailures      prometheus.Counter
	OpenTabs            prometheus.Gauge
}

// New registers every collector on a private registry so tests can build as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LinesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "lines_added_total",
			Help:      "Order lines added to open tabs, by line type.",
		}, []string{"type"}),
		Checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "checkouts_total",
			Help:      "Tabs settled by checkout.",
		}),
		SaleRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "sale_records_total",
			Help:      "Ledger records appended, by record type.",
		}, []string{"type"}),
		BatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "batches_finished_total",
			Help:      "Kegs and food batches settled.",
		}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "persistence_failures_total",
			Help:      "Failed collection writes, by collection.",
		}, []string{"collection"}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tabbook",
			Name:      "mirror_failures_total",
			Help:      "Failed inventory mirror writes.",
		}),
		OpenTabs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tabbook",
			Name:      "open_tabs",
			Help:      "Tabs currently open.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LinesAdded,
		m.Checkouts,
		m.SaleRecords,
		m.BatchesFinished,
		m.PersistenceFailures,
		m.MirrorFailures,
		m.OpenTabs,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
