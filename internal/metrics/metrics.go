package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"keksly-go/internal/keksly"
)

// Metrics holds Prometheus collectors for the consent lifecycle.
type Metrics struct {
	DecisionsRecorded *prometheus.CounterVec
	PersistFailures   *prometheus.CounterVec
	ScriptsActivated  *prometheus.CounterVec
	ConfigFallbacks   prometheus.Counter
}

// New registers the collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keksly_decisions_recorded_total",
			Help: "Total number of consent decisions, labeled by source and action",
		}, []string{"source", "action"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keksly_persist_failures_total",
			Help: "Total number of failed writes to the consent store, labeled by key",
		}, []string{"key"}),
		ScriptsActivated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keksly_scripts_activated_total",
			Help: "Total number of gated scripts activated, labeled by service",
		}, []string{"service"}),
		ConfigFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "keksly_config_fallbacks_total",
			Help: "Total number of boots that fell back to the base configuration",
		}),
	}
}

func (m *Metrics) DecisionRecorded(source, action string) {
	m.DecisionsRecorded.WithLabelValues(source, action).Inc()
}

func (m *Metrics) PersistFailed(key string) {
	m.PersistFailures.WithLabelValues(key).Inc()
}

func (m *Metrics) ScriptActivated(serviceID string) {
	m.ScriptsActivated.WithLabelValues(serviceID).Inc()
}

func (m *Metrics) ConfigFallback(error) {
	m.ConfigFallbacks.Inc()
}

var _ keksly.Recorder = (*Metrics)(nil)
