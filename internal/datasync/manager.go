package datasync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/csslayer/browser-ios/internal/abgtime"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/csslayer/browser-ios/internal/filterengine"
	"golang.org/x/sync/singleflight"
)

// Config is the configuration structure for a *Manager.
type Config struct {
	// Logger is used to log the operation of the manager.  It must not be nil.
	Logger *slog.Logger

	// ErrColl is used to report store failures and failed downloads.  It must
	// not be nil.
	ErrColl errcoll.Interface

	// Engine is the filter engine that receives the datasets.  It must not be
	// nil.
	Engine filterengine.Interface

	// Store persists the datasets.  It must not be nil.
	Store Storage

	// Fetcher downloads and probes the datasets.  It must not be nil.
	Fetcher Fetcher

	// Scheduler is used to schedule revalidations and retries.  It must not be
	// nil.
	Scheduler abgtime.Scheduler

	// Metrics is used to collect the statistics.  It must not be nil.
	Metrics Metrics

	// RevalidateDelay is the delay between loading the persisted dataset and
	// revalidating it.  It must be positive.
	RevalidateDelay time.Duration

	// RetryDelay is the delay before retrying a failed download.  It must be
	// positive.
	RetryDelay time.Duration

	// MaxRetries is the maximum number of retries of a failed download.  Zero
	// means that the retries never stop.
	MaxRetries uint
}

// Manager keeps the dataset of the filter engine current.  It loads the
// persisted dataset on start, revalidates it using the revalidation tag, and
// downloads a new one when necessary, retrying failed downloads.
type Manager struct {
	logger    *slog.Logger
	errColl   errcoll.Interface
	engine    filterengine.Interface
	store     Storage
	fetcher   Fetcher
	scheduler abgtime.Scheduler
	metrics   Metrics

	// group coalesces concurrent downloads.
	group *singleflight.Group

	// ctx is the base context of the asynchronous operations.  It is canceled
	// on shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// mu protects the fields below.
	mu *sync.Mutex

	// tasks are the scheduled tasks that have not run yet.
	tasks map[uint64]abgtime.Task

	// retry is the scheduled retry of a failed download, if any.  There is
	// never more than one.
	retry *pendingRetry

	// tag is the revalidation tag of the current dataset.
	tag string

	nextTaskID uint64

	revalidateDelay time.Duration
	retryDelay      time.Duration
	maxRetries      uint

	isShutdown bool
}

// pendingRetry is a retry of a failed download that has been scheduled but
// hasn't run yet.
type pendingRetry struct {
	// taskID is the ID of the scheduled task in Manager.tasks.
	taskID uint64

	// attempt is the number of the retries that have already been performed.
	attempt uint

	// force is true if any of the failed downloads merged into this retry was
	// forced.
	force bool
}

// downloadKey is the singleflight key for all downloads.
const downloadKey = "download"

// New returns a new properly initialized *Manager.  c must not be nil and must
// be valid.
func New(c *Config) (m *Manager) {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		logger:          c.Logger,
		errColl:         c.ErrColl,
		engine:          c.Engine,
		store:           c.Store,
		fetcher:         c.Fetcher,
		scheduler:       c.Scheduler,
		metrics:         c.Metrics,
		group:           &singleflight.Group{},
		ctx:             slogutil.ContextWithLogger(ctx, c.Logger),
		cancel:          cancel,
		mu:              &sync.Mutex{},
		tasks:           map[uint64]abgtime.Task{},
		revalidateDelay: c.RevalidateDelay,
		retryDelay:      c.RetryDelay,
		maxRetries:      c.MaxRetries,
	}
}

// type check
var _ service.Interface = (*Manager)(nil)

// Start implements the [service.Interface] interface for *Manager.  It loads
// the dataset; see [Manager.Load].  err is always nil.
func (m *Manager) Start(ctx context.Context) (err error) {
	m.Load(ctx)

	return nil
}

// Shutdown implements the [service.Interface] interface for *Manager.  It
// stops all scheduled revalidations and retries and cancels the in-flight
// downloads.  err is always nil.
func (m *Manager) Shutdown(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isShutdown {
		return nil
	}

	m.isShutdown = true
	m.retry = nil
	for id, t := range m.tasks {
		t.Stop()
		delete(m.tasks, id)
	}

	m.cancel()

	m.logger.InfoContext(ctx, "shut down successfully")

	return nil
}

// Load pushes the persisted dataset into the engine and schedules its
// revalidation.  If there is no persisted dataset, Load starts a download.
// Load must only be called once.
func (m *Manager) Load(ctx context.Context) {
	d, err := m.store.Read(ctx)
	if err != nil {
		errcoll.Collect(ctx, m.errColl, m.logger, "reading persisted dataset", err)
	} else if d != nil {
		err = m.engine.SetDataset(ctx, d.Data)
		if err != nil {
			errcoll.Collect(ctx, m.errColl, m.logger, "loading persisted dataset", err)
		} else {
			m.setTag(d.Tag)
			m.logger.InfoContext(ctx, "loaded persisted dataset", "size", len(d.Data))
			m.schedule(ctx, m.revalidateDelay, "revalidation", m.revalidateScheduled)

			return
		}
	}

	m.logger.InfoContext(ctx, "no usable persisted dataset, downloading")

	m.Download(ctx, false)
}

// Download starts an asynchronous download of the dataset.  If force is false
// and the engine already has a dataset, the download is skipped.  A failed
// download is retried with the same force flag.
func (m *Manager) Download(ctx context.Context, force bool) {
	m.logger.DebugContext(ctx, "starting download", "force", force)

	go func() {
		defer slogutil.RecoverAndLog(m.ctx, m.logger)

		_ = m.download(m.ctx, force, 0)
	}()
}

// Revalidate probes the revalidation tag of the remote dataset and downloads
// it if the tag differs from the one of the current dataset.  A failed probe
// is not retried.  Any network error returned has the type *NetworkError.
func (m *Manager) Revalidate(ctx context.Context) (err error) {
	tag, err := m.fetcher.Probe(ctx)
	if err != nil {
		m.metrics.IncrementRevalidations(ctx, RevalidationFailed)

		return &NetworkError{Err: err, Op: OpProbe}
	}

	cur := m.currentTag()
	if tag == cur {
		m.metrics.IncrementRevalidations(ctx, RevalidationUnchanged)
		m.logger.DebugContext(ctx, "dataset is up to date", "tag", tag)

		return nil
	}

	m.metrics.IncrementRevalidations(ctx, RevalidationChanged)
	m.logger.InfoContext(ctx, "dataset changed", "old_tag", cur, "new_tag", tag)

	return m.download(ctx, true, 0)
}

// revalidateScheduled is the scheduled revalidation.  Its errors are only
// logged, since the cycle is simply skipped.
func (m *Manager) revalidateScheduled(ctx context.Context) {
	err := m.Revalidate(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "revalidation failed", slogutil.KeyError, err)
	}
}

// download performs a single download attempt.  attempt is the number of the
// retries that have already been performed.  If the attempt fails, a retry is
// scheduled.  A forced download that has joined an unforced one, which has
// skipped fetching, is performed again.
func (m *Manager) download(ctx context.Context, force bool, attempt uint) (err error) {
	for {
		var v any
		var shared bool
		v, err, shared = m.group.Do(downloadKey, func() (fetched any, dlErr error) {
			fetched, dlErr = m.fetchAndApply(ctx, force)
			if dlErr != nil {
				// Make sure that the retry doesn't join this call.
				m.group.Forget(downloadKey)
				m.handleDownloadError(ctx, dlErr, force, attempt)
			}

			return fetched, dlErr
		})

		if err != nil || !force || !shared {
			return err
		}

		if fetched, _ := v.(bool); fetched {
			return nil
		}

		m.logger.DebugContext(ctx, "joined skipped download, downloading again")
	}
}

// fetchAndApply downloads the dataset, persists it, and pushes it into the
// engine.  Store failures are reported but don't fail the download.  fetched
// is false if the download has been skipped.
func (m *Manager) fetchAndApply(ctx context.Context, force bool) (fetched bool, err error) {
	if !force && m.engine.HasDataset() {
		m.logger.DebugContext(ctx, "download skipped, engine already has a dataset")

		return false, nil
	}

	d, err := m.fetcher.Fetch(ctx)
	if err != nil {
		err = &NetworkError{Err: err, Op: OpFetch}
		m.metrics.SetDownloadStatus(ctx, 0, err)

		return false, err
	}

	storeErr := m.store.Write(ctx, d)
	if storeErr != nil {
		errcoll.Collect(ctx, m.errColl, m.logger, "persisting dataset", storeErr)
	}

	err = m.engine.SetDataset(ctx, d.Data)
	if err != nil {
		err = fmt.Errorf("applying dataset: %w", err)
		m.metrics.SetDownloadStatus(ctx, 0, err)

		return false, err
	}

	m.setTag(d.Tag)
	m.cancelRetry(ctx)
	m.metrics.SetDownloadStatus(ctx, len(d.Data), nil)
	m.logger.InfoContext(ctx, "dataset updated", "size", len(d.Data), "tag", d.Tag)

	return true, nil
}

// handleDownloadError reports err and schedules a retry, unless the manager
// is shutting down or the retries are exhausted.  If a retry is already
// scheduled, the failure is merged into it.
func (m *Manager) handleDownloadError(ctx context.Context, err error, force bool, attempt uint) {
	if errors.Is(err, context.Canceled) && m.ctx.Err() != nil {
		m.logger.DebugContext(ctx, "download canceled")

		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r := m.retry; r != nil {
		r.force = r.force || force
		m.logger.DebugContext(
			ctx,
			"download failed, retry already scheduled",
			"force", r.force,
			slogutil.KeyError, err,
		)

		return
	}

	if m.maxRetries > 0 && attempt >= m.maxRetries {
		errcoll.Collect(ctx, m.errColl, m.logger, "downloading dataset, giving up", err)

		return
	}

	id, ok := m.scheduleLocked(ctx, m.retryDelay, "retry", m.runRetry)
	if !ok {
		return
	}

	m.retry = &pendingRetry{
		taskID:  id,
		attempt: attempt,
		force:   force,
	}

	m.logger.WarnContext(
		ctx,
		"download failed, retrying",
		"attempt", attempt+1,
		"delay", timeutil.Duration{Duration: m.retryDelay},
		slogutil.KeyError, err,
	)

	m.metrics.IncrementRetries(ctx)
}

// runRetry is the scheduled retry of a failed download.
func (m *Manager) runRetry(ctx context.Context) {
	m.mu.Lock()
	r := m.retry
	m.retry = nil
	m.mu.Unlock()

	if r == nil {
		return
	}

	_ = m.download(ctx, r.force, r.attempt+1)
}

// cancelRetry stops the scheduled retry, if any, since the dataset is already
// current.
func (m *Manager) cancelRetry(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.retry
	if r == nil {
		return
	}

	m.retry = nil
	if t, ok := m.tasks[r.taskID]; ok {
		t.Stop()
		delete(m.tasks, r.taskID)
	}

	m.logger.DebugContext(ctx, "canceled scheduled retry", "attempt", r.attempt+1)
}

// schedule runs f after d with the base context of the manager, unless the
// manager is shut down.
func (m *Manager) schedule(ctx context.Context, d time.Duration, name string, f func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, _ = m.scheduleLocked(ctx, d, name, f)
}

// scheduleLocked is like [Manager.schedule] but m.mu must be locked.  ok is
// false if the manager is shut down.
func (m *Manager) scheduleLocked(
	ctx context.Context,
	d time.Duration,
	name string,
	f func(ctx context.Context),
) (id uint64, ok bool) {
	if m.isShutdown {
		m.logger.DebugContext(ctx, "not scheduling after shutdown", "task", name)

		return 0, false
	}

	id = m.nextTaskID
	m.nextTaskID++

	m.tasks[id] = m.scheduler.AfterFunc(d, func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()

		defer slogutil.RecoverAndLog(m.ctx, m.logger)

		f(m.ctx)
	})

	m.logger.DebugContext(ctx, "scheduled task", "task", name, "delay", timeutil.Duration{Duration: d})

	return id, true
}

// setTag sets the revalidation tag of the current dataset.
func (m *Manager) setTag(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tag = tag
}

// currentTag returns the revalidation tag of the current dataset.
func (m *Manager) currentTag() (tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tag
}

// PendingTasks returns the number of scheduled tasks that have not run yet.
func (m *Manager) PendingTasks() (n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tasks)
}
