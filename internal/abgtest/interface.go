package abgtest

import (
	"context"
	"time"

	"github.com/csslayer/browser-ios/internal/abgservice"
	"github.com/csslayer/browser-ios/internal/abgtime"
	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/csslayer/browser-ios/internal/dataset"
	"github.com/csslayer/browser-ios/internal/datasync"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/csslayer/browser-ios/internal/filterengine"
)

// Interface Mocks
//
// Keep entities within a module/package in alphabetic order.

// Package abgservice

// type check
var _ abgservice.Refresher = (*Refresher)(nil)

// Refresher is an [abgservice.Refresher] for tests.
type Refresher struct {
	OnRefresh func(ctx context.Context) (err error)
}

// Refresh implements the [abgservice.Refresher] interface for *Refresher.
func (r *Refresher) Refresh(ctx context.Context) (err error) {
	return r.OnRefresh(ctx)
}

// Package abgtime

// type check
var _ abgtime.Scheduler = (*Scheduler)(nil)

// Scheduler is an [abgtime.Scheduler] for tests.
type Scheduler struct {
	OnAfterFunc func(d time.Duration, f func()) (t abgtime.Task)
}

// AfterFunc implements the [abgtime.Scheduler] interface for *Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) (t abgtime.Task) {
	return s.OnAfterFunc(d, f)
}

// type check
var _ abgtime.Task = (*Task)(nil)

// Task is an [abgtime.Task] for tests.
type Task struct {
	OnStop func() (ok bool)
}

// Stop implements the [abgtime.Task] interface for *Task.
func (t *Task) Stop() (ok bool) {
	return t.OnStop()
}

// Package adblock

// type check
var _ adblock.Metrics = (*GateMetrics)(nil)

// GateMetrics is an [adblock.Metrics] for tests.
type GateMetrics struct {
	OnIncrementLookups func(ctx context.Context, result string)
	OnObserveVerdict   func(ctx context.Context, blocked bool)
	OnSetCacheSize     func(ctx context.Context, chunks, entries int)
}

// IncrementLookups implements the [adblock.Metrics] interface for
// *GateMetrics.
func (m *GateMetrics) IncrementLookups(ctx context.Context, result string) {
	m.OnIncrementLookups(ctx, result)
}

// ObserveVerdict implements the [adblock.Metrics] interface for *GateMetrics.
func (m *GateMetrics) ObserveVerdict(ctx context.Context, blocked bool) {
	m.OnObserveVerdict(ctx, blocked)
}

// SetCacheSize implements the [adblock.Metrics] interface for *GateMetrics.
func (m *GateMetrics) SetCacheSize(ctx context.Context, chunks, entries int) {
	m.OnSetCacheSize(ctx, chunks, entries)
}

// Package datasync

// type check
var _ datasync.Fetcher = (*DatasetFetcher)(nil)

// DatasetFetcher is a [datasync.Fetcher] for tests.
type DatasetFetcher struct {
	OnFetch func(ctx context.Context) (d *dataset.Dataset, err error)
	OnProbe func(ctx context.Context) (tag string, err error)
}

// Fetch implements the [datasync.Fetcher] interface for *DatasetFetcher.
func (f *DatasetFetcher) Fetch(ctx context.Context) (d *dataset.Dataset, err error) {
	return f.OnFetch(ctx)
}

// Probe implements the [datasync.Fetcher] interface for *DatasetFetcher.
func (f *DatasetFetcher) Probe(ctx context.Context) (tag string, err error) {
	return f.OnProbe(ctx)
}

// type check
var _ datasync.Metrics = (*DatasetSyncMetrics)(nil)

// DatasetSyncMetrics is a [datasync.Metrics] for tests.
type DatasetSyncMetrics struct {
	OnSetDownloadStatus      func(ctx context.Context, size int, err error)
	OnIncrementRetries       func(ctx context.Context)
	OnIncrementRevalidations func(ctx context.Context, outcome string)
}

// SetDownloadStatus implements the [datasync.Metrics] interface for
// *DatasetSyncMetrics.
func (m *DatasetSyncMetrics) SetDownloadStatus(ctx context.Context, size int, err error) {
	m.OnSetDownloadStatus(ctx, size, err)
}

// IncrementRetries implements the [datasync.Metrics] interface for
// *DatasetSyncMetrics.
func (m *DatasetSyncMetrics) IncrementRetries(ctx context.Context) {
	m.OnIncrementRetries(ctx)
}

// IncrementRevalidations implements the [datasync.Metrics] interface for
// *DatasetSyncMetrics.
func (m *DatasetSyncMetrics) IncrementRevalidations(ctx context.Context, outcome string) {
	m.OnIncrementRevalidations(ctx, outcome)
}

// type check
var _ datasync.Storage = (*DatasetStorage)(nil)

// DatasetStorage is a [datasync.Storage] for tests.
type DatasetStorage struct {
	OnRead  func(ctx context.Context) (d *dataset.Dataset, err error)
	OnWrite func(ctx context.Context, d *dataset.Dataset) (err error)
}

// Read implements the [datasync.Storage] interface for *DatasetStorage.
func (s *DatasetStorage) Read(ctx context.Context) (d *dataset.Dataset, err error) {
	return s.OnRead(ctx)
}

// Write implements the [datasync.Storage] interface for *DatasetStorage.
func (s *DatasetStorage) Write(ctx context.Context, d *dataset.Dataset) (err error) {
	return s.OnWrite(ctx, d)
}

// Package errcoll

// type check
var _ errcoll.Interface = (*ErrorCollector)(nil)

// ErrorCollector is an [errcoll.Interface] for tests.
type ErrorCollector struct {
	OnCollect func(ctx context.Context, err error)
}

// Collect implements the [errcoll.Interface] interface for *ErrorCollector.
func (c *ErrorCollector) Collect(ctx context.Context, err error) {
	c.OnCollect(ctx, err)
}

// Package filterengine

// type check
var _ filterengine.Interface = (*FilterEngine)(nil)

// FilterEngine is a [filterengine.Interface] for tests.
type FilterEngine struct {
	OnHasDataset func() (ok bool)
	OnSetDataset func(ctx context.Context, data []byte) (err error)
	OnClassify   func(ctx context.Context, rawURL, documentHost, accept string) (blocked bool)
}

// HasDataset implements the [filterengine.Interface] interface for
// *FilterEngine.
func (e *FilterEngine) HasDataset() (ok bool) {
	return e.OnHasDataset()
}

// SetDataset implements the [filterengine.Interface] interface for
// *FilterEngine.
func (e *FilterEngine) SetDataset(ctx context.Context, data []byte) (err error) {
	return e.OnSetDataset(ctx, data)
}

// Classify implements the [filterengine.Interface] interface for
// *FilterEngine.
func (e *FilterEngine) Classify(
	ctx context.Context,
	rawURL string,
	documentHost string,
	accept string,
) (blocked bool) {
	return e.OnClassify(ctx, rawURL, documentHost, accept)
}
