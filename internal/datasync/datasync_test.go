package datasync_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/csslayer/browser-ios/internal/abgtest"
	"github.com/csslayer/browser-ios/internal/abgtime"
	"github.com/csslayer/browser-ios/internal/dataset"
	"github.com/csslayer/browser-ios/internal/datasync"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// Common delays for tests.
const (
	testRevalidateDelay = 5 * time.Second
	testRetryDelay      = 60 * time.Second
)

// testError is the common error for tests.
const testError errors.Error = "test error"

// Common tags for tests.
const (
	testTagOld = "abc"
	testTagNew = "xyz"
)

// testLogger is the common logger for tests.
var testLogger = slogutil.NewDiscardLogger()

// testData is the common dataset blob for tests.
var testData = []byte("||example.com^\n")

// scheduledTask is a task captured by the scheduler returned from
// newTestScheduler.
type scheduledTask struct {
	f     func()
	delay time.Duration
}

// newTestScheduler returns a scheduler that doesn't run the tasks but sends
// them to the returned channel instead.  Tests run them synchronously.
func newTestScheduler() (s *abgtest.Scheduler, taskCh chan scheduledTask) {
	taskCh = make(chan scheduledTask, 16)
	s = &abgtest.Scheduler{
		OnAfterFunc: func(d time.Duration, f func()) (t abgtime.Task) {
			taskCh <- scheduledTask{f: f, delay: d}

			return abgtime.NopTask{}
		},
	}

	return s, taskCh
}

// testEngine is a filter engine that records the datasets it receives.
type testEngine struct {
	*abgtest.FilterEngine

	setCh      chan []byte
	hasDataset *atomic.Bool
}

// newTestEngine returns a new *testEngine.  If hasDataset is true, the engine
// reports that it already has a dataset.
func newTestEngine(hasDataset bool) (e *testEngine) {
	e = &testEngine{
		setCh:      make(chan []byte, 16),
		hasDataset: &atomic.Bool{},
	}
	e.hasDataset.Store(hasDataset)

	e.FilterEngine = &abgtest.FilterEngine{
		OnHasDataset: e.hasDataset.Load,
		OnSetDataset: func(_ context.Context, data []byte) (err error) {
			e.hasDataset.Store(true)
			e.setCh <- data

			return nil
		},
		OnClassify: func(_ context.Context, _, _, _ string) (blocked bool) {
			panic(testutil.UnexpectedCall())
		},
	}

	return e
}

// newTestStorage returns a storage that contains persisted, which may be nil,
// and sends the written datasets to the returned channel.
func newTestStorage(persisted *dataset.Dataset) (s *abgtest.DatasetStorage, writeCh chan *dataset.Dataset) {
	writeCh = make(chan *dataset.Dataset, 16)
	s = &abgtest.DatasetStorage{
		OnRead: func(_ context.Context) (d *dataset.Dataset, err error) {
			return persisted, nil
		},
		OnWrite: func(_ context.Context, d *dataset.Dataset) (err error) {
			writeCh <- d

			return nil
		},
	}

	return s, writeCh
}

// testFetcher is a fetcher that counts the calls.
type testFetcher struct {
	*abgtest.DatasetFetcher

	fetches *atomic.Int64
	probes  *atomic.Int64
}

// newTestFetcher returns a new *testFetcher.  fetchErrs are returned from the
// first fetches, after which the fetches succeed with testData and tagNew.
func newTestFetcher(probeTag string, tagNew string, fetchErrs ...error) (f *testFetcher) {
	f = &testFetcher{
		fetches: &atomic.Int64{},
		probes:  &atomic.Int64{},
	}

	f.DatasetFetcher = &abgtest.DatasetFetcher{
		OnFetch: func(_ context.Context) (d *dataset.Dataset, err error) {
			n := f.fetches.Add(1)
			if int(n) <= len(fetchErrs) {
				return nil, fetchErrs[n-1]
			}

			return &dataset.Dataset{Data: testData, Tag: tagNew}, nil
		},
		OnProbe: func(_ context.Context) (tag string, err error) {
			f.probes.Add(1)

			return probeTag, nil
		},
	}

	return f
}

// newTestManager returns a new *datasync.Manager for tests with the given
// dependencies.  errColl may be nil.
func newTestManager(
	tb testing.TB,
	engine *testEngine,
	store datasync.Storage,
	fetcher datasync.Fetcher,
	sched *abgtest.Scheduler,
	errColl errcoll.Interface,
	maxRetries uint,
) (m *datasync.Manager) {
	tb.Helper()

	if errColl == nil {
		errColl = abgtest.NewErrorCollector(tb)
	}

	m = datasync.New(&datasync.Config{
		Logger:          testLogger,
		ErrColl:         errColl,
		Engine:          engine,
		Store:           store,
		Fetcher:         fetcher,
		Scheduler:       sched,
		Metrics:         datasync.EmptyMetrics{},
		RevalidateDelay: testRevalidateDelay,
		RetryDelay:      testRetryDelay,
		MaxRetries:      maxRetries,
	})

	testutil.CleanupAndRequireSuccess(tb, func() (err error) {
		return m.Shutdown(context.Background())
	})

	return m
}

// repeat returns a slice of n copies of err.
func repeat(err error, n int) (errs []error) {
	for range n {
		errs = append(errs, err)
	}

	return errs
}

// requireNoTasks checks that no more tasks have been scheduled.
func requireNoTasks(tb testing.TB, taskCh chan scheduledTask) {
	tb.Helper()

	require.Empty(tb, taskCh)
}
