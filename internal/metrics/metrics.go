// Package metrics holds the Prometheus collectors exported by the relay.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// Dispatches counts dispatch invocations by terminal outcome.
	Dispatches *prometheus.CounterVec
	// Deliveries counts per-token provider results.
	Deliveries *prometheus.CounterVec
	// TokensPruned counts tokens removed after a failed delivery.
	TokensPruned prometheus.Counter
	// RecordsDeleted counts records removed by the retention workflow.
	RecordsDeleted prometheus.Counter
	// RetentionRuns counts retention runs by status.
	RetentionRuns *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_dispatches_total",
				Help: "Notification dispatch invocations by outcome",
			},
			[]string{"outcome"},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_deliveries_total",
				Help: "Per-token push deliveries by result",
			},
			[]string{"result"},
		),
		TokensPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_tokens_pruned_total",
				Help: "Device tokens deleted after a failed delivery",
			},
		),
		RecordsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_retention_records_deleted_total",
				Help: "Notification records deleted by retention",
			},
		),
		RetentionRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_retention_runs_total",
				Help: "Retention runs by status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.Dispatches, m.Deliveries, m.TokensPruned, m.RecordsDeleted, m.RetentionRuns)
	return m
}
