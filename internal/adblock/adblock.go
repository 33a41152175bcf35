// Package adblock contains the request gate that decides whether a request
// should be blocked, along with its decision cache.
package adblock

import (
	"context"
	"net/url"
)

// Request is a request that is checked by the [Gate].
type Request struct {
	// URL is the target URL of the request.  If it is nil, the request is
	// never blocked.
	URL *url.URL

	// MainDocumentURL is the URL of the main document that made the request.
	// If it is nil or has no host, the request is never blocked.
	MainDocumentURL *url.URL

	// Accept is the value of the Accept header of the request.  It may be
	// empty.
	Accept string
}

// Lookup results for [Metrics.IncrementLookups].
const (
	LookupResultBypass   = "bypass"
	LookupResultDisabled = "disabled"
	LookupResultHit      = "hit"
	LookupResultInvalid  = "invalid"
	LookupResultMiss     = "miss"
)

// Metrics is an interface that is used for the collection of the request gate
// statistics.
type Metrics interface {
	// IncrementLookups increments the number of requests checked by the gate
	// with the given result, which is one of the LookupResult constants.
	IncrementLookups(ctx context.Context, result string)

	// ObserveVerdict records the verdict returned from the cache or the
	// engine.
	ObserveVerdict(ctx context.Context, blocked bool)

	// SetCacheSize sets the current number of chunks and entries in the cache.
	SetCacheSize(ctx context.Context, chunks, entries int)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// IncrementLookups implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncrementLookups(_ context.Context, _ string) {}

// ObserveVerdict implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) ObserveVerdict(_ context.Context, _ bool) {}

// SetCacheSize implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) SetCacheSize(_ context.Context, _, _ int) {}
