// Package filterengine contains the filter engine that classifies requests
// using the currently loaded dataset.
package filterengine

import (
	"context"

	"github.com/AdguardTeam/golibs/errors"
)

// Interface is the filter engine consumed by the request gate and the dataset
// synchronization manager.  All methods must be safe for concurrent use,
// including calling Classify while SetDataset replaces the dataset.
type Interface interface {
	// HasDataset returns true if a dataset has been loaded.
	HasDataset() (ok bool)

	// SetDataset replaces the current dataset with data.  If err is not nil,
	// the previous dataset, if any, stays active.
	SetDataset(ctx context.Context, data []byte) (err error)

	// Classify returns true if a request for rawURL made by a document with
	// the host documentHost should be blocked.  accept is the value of the
	// Accept header of the request and may be empty.  Any failure, including
	// the absence of a dataset, results in false.
	Classify(ctx context.Context, rawURL, documentHost, accept string) (blocked bool)
}

const (
	// ErrNoDataset is logged when a classification is requested before any
	// dataset has been loaded.
	ErrNoDataset errors.Error = "no dataset loaded"

	// ErrEmptyDataset is returned by SetDataset when the data is empty.
	ErrEmptyDataset errors.Error = "empty dataset"
)

// Metrics is an interface for collection of the filter engine statistics.
type Metrics interface {
	// SetRulesCount sets the number of rules in the active dataset.
	SetRulesCount(ctx context.Context, n int)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// SetRulesCount implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) SetRulesCount(_ context.Context, _ int) {}
