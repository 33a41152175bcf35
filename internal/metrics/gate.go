package metrics

import (
	"context"

	"github.com/AdguardTeam/golibs/container"
	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/prometheus/client_golang/prometheus"
)

// Gate is the Prometheus-based implementation of the [adblock.Metrics]
// interface.
type Gate struct {
	// lookups maps each lookup result to its counter.
	lookups map[string]prometheus.Counter

	// blocked is a counter of the blocking verdicts.
	blocked prometheus.Counter

	// allowed is a counter of the allowing verdicts.
	allowed prometheus.Counter

	// cacheChunks is a gauge with the number of chunks in the cache.
	cacheChunks prometheus.Gauge

	// cacheEntries is a gauge with the number of entries in the cache.
	cacheEntries prometheus.Gauge
}

// NewGate registers the request gate metrics in reg and returns a properly
// initialized *Gate.
func NewGate(namespace string, reg prometheus.Registerer) (m *Gate, err error) {
	const (
		lookups      = "lookups_total"
		verdicts     = "verdicts_total"
		cacheChunks  = "cache_chunks"
		cacheEntries = "cache_entries"
	)

	lookupsCV := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      lookups,
		Subsystem: subsystemGate,
		Namespace: namespace,
		Help:      "The number of requests checked by the gate by result.",
	}, []string{"result"})

	verdictsCV := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      verdicts,
		Subsystem: subsystemGate,
		Namespace: namespace,
		Help: "The number of verdicts from the cache or the engine. " +
			"Label blocked is 1 for the blocked requests.",
	}, []string{"blocked"})

	m = &Gate{
		lookups: map[string]prometheus.Counter{
			adblock.LookupResultBypass:   lookupsCV.WithLabelValues(adblock.LookupResultBypass),
			adblock.LookupResultDisabled: lookupsCV.WithLabelValues(adblock.LookupResultDisabled),
			adblock.LookupResultHit:      lookupsCV.WithLabelValues(adblock.LookupResultHit),
			adblock.LookupResultInvalid:  lookupsCV.WithLabelValues(adblock.LookupResultInvalid),
			adblock.LookupResultMiss:     lookupsCV.WithLabelValues(adblock.LookupResultMiss),
		},
		blocked: verdictsCV.WithLabelValues(BoolString(true)),
		allowed: verdictsCV.WithLabelValues(BoolString(false)),
		cacheChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      cacheChunks,
			Subsystem: subsystemGate,
			Namespace: namespace,
			Help:      "The number of chunks in the decision cache.",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      cacheEntries,
			Subsystem: subsystemGate,
			Namespace: namespace,
			Help:      "The number of entries in the decision cache.",
		}),
	}

	err = registerAll(reg, container.KeyValues[string, prometheus.Collector]{{
		Key:   lookups,
		Value: lookupsCV,
	}, {
		Key:   verdicts,
		Value: verdictsCV,
	}, {
		Key:   cacheChunks,
		Value: m.cacheChunks,
	}, {
		Key:   cacheEntries,
		Value: m.cacheEntries,
	}})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// type check
var _ adblock.Metrics = (*Gate)(nil)

// IncrementLookups implements the [adblock.Metrics] interface for *Gate.
// result must be one of the adblock.LookupResult constants.
func (m *Gate) IncrementLookups(_ context.Context, result string) {
	m.lookups[result].Inc()
}

// ObserveVerdict implements the [adblock.Metrics] interface for *Gate.
func (m *Gate) ObserveVerdict(_ context.Context, blocked bool) {
	if blocked {
		m.blocked.Inc()
	} else {
		m.allowed.Inc()
	}
}

// SetCacheSize implements the [adblock.Metrics] interface for *Gate.
func (m *Gate) SetCacheSize(_ context.Context, chunks, entries int) {
	m.cacheChunks.Set(float64(chunks))
	m.cacheEntries.Set(float64(entries))
}
