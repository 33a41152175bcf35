package metrics

import (
	"context"
	"fmt"

	"github.com/csslayer/browser-ios/internal/websvc"
	"github.com/prometheus/client_golang/prometheus"
)

// WebSvc is the Prometheus-based implementation of the [websvc.Metrics]
// interface.
type WebSvc struct {
	// reqCounters maps each web service request type to its corresponding
	// Prometheus counter.
	reqCounters map[websvc.RequestType]prometheus.Counter
}

// NewWebSvc registers the web service metrics in reg and returns a properly
// initialized *WebSvc.
func NewWebSvc(namespace string, reg prometheus.Registerer) (m *WebSvc, err error) {
	const reqTotal = "requests_total"

	reqCV := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      reqTotal,
		Namespace: namespace,
		Subsystem: subsystemWebSvc,
		Help:      "The number of HTTP requests for the local API.",
	}, []string{"kind"})

	reqCounters := map[websvc.RequestType]prometheus.Counter{}
	for _, rt := range []websvc.RequestType{
		websvc.RequestTypeCheck,
		websvc.RequestTypeControl,
		websvc.RequestTypeHealthCheck,
		websvc.RequestTypeMetrics,
		websvc.RequestTypeRefresh,
	} {
		reqCounters[rt] = reqCV.WithLabelValues(rt)
	}

	err = reg.Register(reqCV)
	if err != nil {
		return nil, fmt.Errorf("registering metrics %q: %w", reqTotal, err)
	}

	return &WebSvc{reqCounters: reqCounters}, nil
}

// type check
var _ websvc.Metrics = (*WebSvc)(nil)

// IncrementReqCount implements the [websvc.Metrics] interface for *WebSvc.
func (m *WebSvc) IncrementReqCount(_ context.Context, reqType websvc.RequestType) {
	ctr, ok := m.reqCounters[reqType]
	if !ok {
		panic(fmt.Errorf("incrementing req counter: bad type %q", reqType))
	}

	ctr.Inc()
}
