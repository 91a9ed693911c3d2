package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine's Prometheus collectors. Construct one per
// process and register it on a registry of your choice; the HTTP
// adapter exposes the default registry on /metrics.
type Metrics struct {
	NodeVisits    *prometheus.CounterVec
	TurnsTotal    prometheus.Counter
	ModelRetries  prometheus.Counter
	ModelFallback prometheus.Counter
	SavesTotal    *prometheus.CounterVec
}

// NewMetrics creates the collectors. Names are stable; dashboards and
// alerts depend on them.
func NewMetrics() *Metrics {
	return &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node_id"},
		),
		TurnsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_turns_total",
				Help: "Total number of completed conversation turns",
			},
		),
		ModelRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_model_retries_total",
				Help: "Total number of model call retries triggered by reply validation",
			},
		),
		ModelFallback: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_model_fallbacks_total",
				Help: "Total number of turns answered with the fixed fallback reply",
			},
		),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_document_saves_total",
				Help: "Total number of conversation document saves",
			},
			[]string{"outcome"},
		),
	}
}

// Register registers every collector on the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.NodeVisits, m.TurnsTotal, m.ModelRetries, m.ModelFallback, m.SavesTotal)
}
