// Package metrics exposes prometheus collectors for play sessions and validation runs.
//
// Collectors live in a private registry rather than prometheus.DefaultRegisterer.
// The CLI has no HTTP endpoint, so the registry is written to a node_exporter
// textfile when a session or validation run finishes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one process.
type Metrics struct {
	registry *prometheus.Registry

	Transitions     prometheus.Counter
	InvalidChoices  prometheus.Counter
	Endings         prometheus.Counter
	Blocked         prometheus.Counter
	SessionsStarted *prometheus.CounterVec
	Diagnostics     *prometheus.CounterVec
}

// New creates the collectors in a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Transitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_transitions_total",
			Help: "Total number of successful choice transitions.",
		}),
		InvalidChoices: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_invalid_choices_total",
			Help: "Total number of reader inputs that matched no choice.",
		}),
		Endings: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_endings_reached_total",
			Help: "Total number of sessions that reached an ending.",
		}),
		Blocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "gamebook_blocked_total",
			Help: "Total number of steps that hit an unresolvable section.",
		}),
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamebook_sessions_started_total",
			Help: "Total number of play sessions, partitioned by how they started.",
		}, []string{"mode"}),
		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamebook_validation_diagnostics_total",
			Help: "Total number of validation diagnostics, partitioned by kind and severity.",
		}, []string{"kind", "severity"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}

// ObserveDiagnostic counts one validation diagnostic.
func (m *Metrics) ObserveDiagnostic(kind, severity string) {
	m.Diagnostics.WithLabelValues(kind, severity).Inc()
}
