package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.DecisionRecorded("banner", "accept_all")
	m.DecisionRecorded("banner", "accept_all")
	m.DecisionRecorded("settings", "custom_save")
	m.PersistFailed("keksly_consent")
	m.ScriptActivated("analytics")
	m.ConfigFallback(errors.New("timeout"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{name: "banner accept_all", c: m.DecisionsRecorded.WithLabelValues("banner", "accept_all"), want: 2},
		{name: "settings custom_save", c: m.DecisionsRecorded.WithLabelValues("settings", "custom_save"), want: 1},
		{name: "persist failures", c: m.PersistFailures.WithLabelValues("keksly_consent"), want: 1},
		{name: "scripts activated", c: m.ScriptsActivated.WithLabelValues("analytics"), want: 1},
		{name: "config fallbacks", c: m.ConfigFallbacks, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("counter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_SeparateRegistries(t *testing.T) {
	t.Parallel()
	// Registering twice on distinct registries must not panic.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
