package metrics

import (
	"context"
	"fmt"

	"github.com/csslayer/browser-ios/internal/filterengine"
	"github.com/prometheus/client_golang/prometheus"
)

// FilterEngine is the Prometheus-based implementation of the
// [filterengine.Metrics] interface.
type FilterEngine struct {
	// rulesTotal is a gauge with the number of network rules in the current
	// dataset.
	rulesTotal prometheus.Gauge
}

// NewFilterEngine registers the filter engine metrics in reg and returns a
// properly initialized *FilterEngine.
func NewFilterEngine(namespace string, reg prometheus.Registerer) (m *FilterEngine, err error) {
	const rulesTotal = "rules_total"

	m = &FilterEngine{
		rulesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      rulesTotal,
			Subsystem: subsystemEngine,
			Namespace: namespace,
			Help:      "The number of network rules loaded by the engine.",
		}),
	}

	err = reg.Register(m.rulesTotal)
	if err != nil {
		return nil, fmt.Errorf("registering metrics %q: %w", rulesTotal, err)
	}

	return m, nil
}

// type check
var _ filterengine.Metrics = (*FilterEngine)(nil)

// SetRulesCount implements the [filterengine.Metrics] interface for
// *FilterEngine.
func (m *FilterEngine) SetRulesCount(_ context.Context, n int) {
	m.rulesTotal.Set(float64(n))
}
