// Package datasync contains the manager that keeps the filter dataset current
// by loading it from the storage, revalidating it, and downloading it.
package datasync

import (
	"context"
	"fmt"
	"net"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/csslayer/browser-ios/internal/dataset"
	"github.com/csslayer/browser-ios/internal/errcoll"
)

// Fetcher retrieves the dataset from its remote location.
type Fetcher interface {
	// Fetch downloads the full dataset.  d must not be nil and must contain a
	// non-empty blob if err is nil.
	Fetch(ctx context.Context) (d *dataset.Dataset, err error)

	// Probe requests only the current revalidation tag of the dataset.  tag is
	// empty if the server didn't supply one.
	Probe(ctx context.Context) (tag string, err error)
}

// Storage persists the dataset.  [*dataset.Store] is the main implementation.
type Storage interface {
	// Read returns the persisted dataset.  d and err are nil if there is none.
	Read(ctx context.Context) (d *dataset.Dataset, err error)

	// Write persists d, replacing the previous dataset.
	Write(ctx context.Context, d *dataset.Dataset) (err error)
}

// type check
var _ Storage = (*dataset.Store)(nil)

// Network operation names for [NetworkError].
const (
	OpFetch = "fetching"
	OpProbe = "probing"
)

// NetworkError is returned when a fetch or a probe of the dataset fails.
type NetworkError struct {
	// Err is the underlying error.
	Err error

	// Op is the operation that failed, either [OpFetch] or [OpProbe].
	Op string
}

// type check
var _ error = (*NetworkError)(nil)

// Error implements the error interface for *NetworkError.
func (err *NetworkError) Error() (msg string) {
	return fmt.Sprintf("dataset sync: %s: %s", err.Op, err.Err)
}

// type check
var _ errors.Wrapper = (*NetworkError)(nil)

// Unwrap implements the [errors.Wrapper] interface for *NetworkError.
func (err *NetworkError) Unwrap() (unwrapped error) {
	return err.Err
}

// type check
var _ errcoll.SentryReportableError = (*NetworkError)(nil)

// IsSentryReportable implements the [errcoll.SentryReportableError] interface
// for *NetworkError.  Timeouts are not reported.
func (err *NetworkError) IsSentryReportable() (ok bool) {
	if errors.Is(err.Err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error

	return !errors.As(err.Err, &netErr) || !netErr.Timeout()
}

// Revalidation outcomes for [Metrics.IncrementRevalidations].
const (
	RevalidationChanged   = "changed"
	RevalidationUnchanged = "unchanged"
	RevalidationFailed    = "failed"
)

// Metrics is an interface that is used for the collection of the dataset
// synchronization statistics.
type Metrics interface {
	// SetDownloadStatus sets the status of the last download.  size is the
	// size of the downloaded dataset and is only meaningful if err is nil.
	SetDownloadStatus(ctx context.Context, size int, err error)

	// IncrementRetries increments the number of scheduled download retries.
	IncrementRetries(ctx context.Context)

	// IncrementRevalidations increments the number of revalidations with the
	// given outcome.
	IncrementRevalidations(ctx context.Context, outcome string)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// SetDownloadStatus implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) SetDownloadStatus(_ context.Context, _ int, _ error) {}

// IncrementRetries implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncrementRetries(_ context.Context) {}

// IncrementRevalidations implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncrementRevalidations(_ context.Context, _ string) {}
