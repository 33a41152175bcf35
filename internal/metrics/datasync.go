package metrics

import (
	"context"

	"github.com/AdguardTeam/golibs/container"
	"github.com/csslayer/browser-ios/internal/datasync"
	"github.com/prometheus/client_golang/prometheus"
)

// DatasetSync is the Prometheus-based implementation of the
// [datasync.Metrics] interface.
type DatasetSync struct {
	// updateStatus is a gauge with the status of the last download.  1 means
	// success.
	updateStatus prometheus.Gauge

	// updatedTime is a gauge with the time of the last successful download.
	updatedTime prometheus.Gauge

	// size is a gauge with the size of the current dataset in bytes.
	size prometheus.Gauge

	// retries is a counter of the scheduled download retries.
	retries prometheus.Counter

	// revalidations is a counter of the revalidations by outcome.
	revalidations *prometheus.CounterVec
}

// NewDatasetSync registers the dataset synchronization metrics in reg and
// returns a properly initialized *DatasetSync.
func NewDatasetSync(namespace string, reg prometheus.Registerer) (m *DatasetSync, err error) {
	const (
		updateStatus  = "update_status"
		updatedTime   = "updated_time"
		size          = "size_bytes"
		retries       = "download_retries_total"
		revalidations = "revalidations_total"
	)

	m = &DatasetSync{
		updateStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      updateStatus,
			Subsystem: subsystemDataset,
			Namespace: namespace,
			Help:      "Status of the last dataset download. 1 means success.",
		}),
		updatedTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      updatedTime,
			Subsystem: subsystemDataset,
			Namespace: namespace,
			Help:      "Time when the dataset was last updated.",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      size,
			Subsystem: subsystemDataset,
			Namespace: namespace,
			Help:      "The size of the current dataset in bytes.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      retries,
			Subsystem: subsystemDataset,
			Namespace: namespace,
			Help:      "The number of scheduled dataset download retries.",
		}),
		revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      revalidations,
			Subsystem: subsystemDataset,
			Namespace: namespace,
			Help:      "The number of dataset revalidations by outcome.",
		}, []string{"outcome"}),
	}

	err = registerAll(reg, container.KeyValues[string, prometheus.Collector]{{
		Key:   updateStatus,
		Value: m.updateStatus,
	}, {
		Key:   updatedTime,
		Value: m.updatedTime,
	}, {
		Key:   size,
		Value: m.size,
	}, {
		Key:   retries,
		Value: m.retries,
	}, {
		Key:   revalidations,
		Value: m.revalidations,
	}})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// type check
var _ datasync.Metrics = (*DatasetSync)(nil)

// SetDownloadStatus implements the [datasync.Metrics] interface for
// *DatasetSync.
func (m *DatasetSync) SetDownloadStatus(_ context.Context, size int, err error) {
	SetStatusGauge(m.updateStatus, err)
	if err != nil {
		return
	}

	m.updatedTime.SetToCurrentTime()
	m.size.Set(float64(size))
}

// IncrementRetries implements the [datasync.Metrics] interface for
// *DatasetSync.
func (m *DatasetSync) IncrementRetries(_ context.Context) {
	m.retries.Inc()
}

// IncrementRevalidations implements the [datasync.Metrics] interface for
// *DatasetSync.
func (m *DatasetSync) IncrementRevalidations(_ context.Context, outcome string) {
	m.revalidations.WithLabelValues(outcome).Inc()
}

