package abgservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/csslayer/browser-ios/internal/errcoll"
)

// Refresher is the interface for entities that can update themselves, for
// example by revalidating a remote resource.
type Refresher interface {
	// Refresh is called by a [RefreshWorker] and by the local API.  The
	// worker ignores the error, so refreshers that are run by a worker must
	// report their errors themselves; see [RefresherWithErrColl].
	Refresh(ctx context.Context) (err error)
}

// RefresherFunc is an adapter to allow the use of ordinary functions as
// [Refresher].
type RefresherFunc func(ctx context.Context) (err error)

// type check
var _ Refresher = RefresherFunc(nil)

// Refresh implements the [Refresher] interface for RefresherFunc.
func (f RefresherFunc) Refresh(ctx context.Context) (err error) {
	return f(ctx)
}

// RefreshWorkerConfig is the configuration structure for a *RefreshWorker.
type RefreshWorkerConfig struct {
	// Logger is used for logging the operation of the worker.  It must not be
	// nil.
	Logger *slog.Logger

	// Refresher is the entity being refreshed.  It must not be nil.
	Refresher Refresher

	// Interval is the refresh interval.  It must be positive.
	Interval time.Duration

	// Timeout is the timeout of a single refresh.  It must be positive.
	Timeout time.Duration
}

// RefreshWorker is a [service.Interface] implementation that calls its
// [Refresher] every Interval.
type RefreshWorker struct {
	logger   *slog.Logger
	refr     Refresher
	done     chan unit
	finished chan unit
	interval time.Duration
	timeout  time.Duration
}

// NewRefreshWorker returns a new valid *RefreshWorker.  c must not be nil and
// must be valid.
func NewRefreshWorker(c *RefreshWorkerConfig) (w *RefreshWorker) {
	return &RefreshWorker{
		logger:   c.Logger,
		refr:     c.Refresher,
		done:     make(chan unit),
		finished: make(chan unit),
		interval: c.Interval,
		timeout:  c.Timeout,
	}
}

// type check
var _ service.Interface = (*RefreshWorker)(nil)

// Start implements the [service.Interface] interface for *RefreshWorker.  err
// is always nil.
func (w *RefreshWorker) Start(ctx context.Context) (err error) {
	w.logger.InfoContext(ctx, "starting refresh loop", "interval", timeutil.Duration{
		Duration: w.interval,
	})

	go w.refreshInALoop()

	return nil
}

// Shutdown implements the [service.Interface] interface for *RefreshWorker.  It
// waits for the current refresh to finish or for ctx to be canceled.
func (w *RefreshWorker) Shutdown(ctx context.Context) (err error) {
	close(w.done)

	select {
	case <-w.finished:
		w.logger.InfoContext(ctx, "shut down successfully")

		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// refreshInALoop refreshes the entity every interval until Shutdown is called.
func (w *RefreshWorker) refreshInALoop() {
	defer close(w.finished)

	ctx := slogutil.ContextWithLogger(context.Background(), w.logger)
	defer slogutil.RecoverAndLog(ctx, w.logger)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			w.logger.InfoContext(ctx, "finished refresh loop")

			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh calls the refresher with a timeout.
func (w *RefreshWorker) refresh(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	start := time.Now()
	_ = w.refr.Refresh(ctx)

	w.logger.DebugContext(ctx, "refresh finished", "elapsed", timeutil.Duration{
		Duration: time.Since(start),
	})
}

// RefresherWithErrColl reports all refresh errors to errColl and logs them.
type RefresherWithErrColl struct {
	logger  *slog.Logger
	refr    Refresher
	errColl errcoll.Interface
	msg     string
}

// NewRefresherWithErrColl wraps refr into a refresher that collects errors and
// logs them.  msg describes the refresh in the collected errors.
func NewRefresherWithErrColl(
	refr Refresher,
	logger *slog.Logger,
	errColl errcoll.Interface,
	msg string,
) (wrapped *RefresherWithErrColl) {
	return &RefresherWithErrColl{
		logger:  logger,
		refr:    refr,
		errColl: errColl,
		msg:     msg,
	}
}

// type check
var _ Refresher = (*RefresherWithErrColl)(nil)

// Refresh implements the [Refresher] interface for *RefresherWithErrColl.
func (r *RefresherWithErrColl) Refresh(ctx context.Context) (err error) {
	err = r.refr.Refresh(ctx)
	if err != nil {
		errcoll.Collect(ctx, r.errColl, r.logger, r.msg, err)
	}

	return err
}
