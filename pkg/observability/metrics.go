// Package observability wires engine lifecycle events into Prometheus
// metrics. It is optional: engines without hooks carry no metrics cost.
package observability

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by engine lifecycle hooks.
type Metrics struct {
	attaches  *prometheus.CounterVec
	destroys  prometheus.Counter
	instances prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on the given
// registerer. Pass prometheus.DefaultRegisterer for the process-global
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attaches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_attaches_total",
				Help: "Total number of instances attached, by type and capability",
			},
			[]string{"type", "capability"},
		),
		destroys: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_destroys_total",
				Help: "Total number of nodes destroyed by the teardown pipeline",
			},
		),
		instances: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "espalier_live_instances",
				Help: "Number of currently attached instances",
			},
		),
	}
	reg.MustRegister(m.attaches, m.destroys, m.instances)
	return m
}

// Hooks returns the lifecycle hooks feeding the collectors. Register them on
// the engine at construction time.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAttach: func(_ context.Context, e *domain.AttachEvent) {
			m.attaches.WithLabelValues(e.TypeName, string(e.Capability)).Inc()
			m.instances.Inc()
		},
		OnDetach: func(_ context.Context, e *domain.DetachEvent) {
			m.instances.Sub(float64(e.Instances))
		},
		OnDestroy: func(_ context.Context, e *domain.DestroyEvent) {
			m.destroys.Inc()
		},
	}
}
