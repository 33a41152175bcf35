package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/csslayer/browser-ios/internal/abgservice"
	"github.com/csslayer/browser-ios/internal/abgtime"
	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/csslayer/browser-ios/internal/dataset"
	"github.com/csslayer/browser-ios/internal/datasync"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/csslayer/browser-ios/internal/filterengine"
	"github.com/csslayer/browser-ios/internal/metrics"
	"github.com/csslayer/browser-ios/internal/websvc"
	"github.com/prometheus/client_golang/prometheus"
)

// builder contains the logic of configuring and combining together the
// entities of the ad-block service.
type builder struct {
	baseLogger     *slog.Logger
	conf           *configuration
	env            *environment
	errColl        errcoll.Interface
	logger         *slog.Logger
	mtrcNamespace  string
	promRegisterer prometheus.Registerer
	sigHdlr        *service.SignalHandler

	// The fields below are initialized later by calling the builder's methods.
	// Keep them sorted.

	engine  *filterengine.Default
	gate    *adblock.Gate
	manager *datasync.Manager
	store   *dataset.Store
}

// builderConfig contains the initial configuration for the builder.
type builderConfig struct {
	// envs contains the environment variables for the builder.  It must be
	// valid and must not be nil.
	envs *environment

	// conf contains the configuration from the configuration file for the
	// builder.  It must be valid and must not be nil.
	conf *configuration

	// baseLogger is used to create loggers for other entities.  It should not
	// have a prefix and must not be nil.
	baseLogger *slog.Logger

	// errColl is used to collect errors in the entities.  It must not be nil.
	errColl errcoll.Interface
}

// shutdownTimeout is the default shutdown timeout for all services.
const shutdownTimeout = 5 * time.Second

// newBuilder returns a new properly initialized builder.  c must not be nil.
func newBuilder(c *builderConfig) (b *builder) {
	return &builder{
		baseLogger:     c.baseLogger,
		conf:           c.conf,
		env:            c.envs,
		errColl:        c.errColl,
		logger:         c.baseLogger.With(slogutil.KeyPrefix, "builder"),
		mtrcNamespace:  metrics.Namespace,
		promRegisterer: prometheus.DefaultRegisterer,
		sigHdlr: service.NewSignalHandler(&service.SignalHandlerConfig{
			Logger:          c.baseLogger.With(slogutil.KeyPrefix, service.SignalHandlerPrefix),
			ShutdownTimeout: shutdownTimeout,
		}),
	}
}

// initFilterEngine initializes the filter engine without a dataset.
func (b *builder) initFilterEngine(ctx context.Context) (err error) {
	mtrc, err := metrics.NewFilterEngine(b.mtrcNamespace, b.promRegisterer)
	if err != nil {
		return fmt.Errorf("registering filter engine metrics: %w", err)
	}

	b.engine = filterengine.New(&filterengine.Config{
		Logger:  b.baseLogger.With(slogutil.KeyPrefix, "filterengine"),
		Metrics: mtrc,
	})

	b.logger.DebugContext(ctx, "initialized filter engine")

	return nil
}

// initGate initializes the request gate.  [builder.initFilterEngine] must be
// called before this method.
func (b *builder) initGate(ctx context.Context) (err error) {
	mtrc, err := metrics.NewGate(b.mtrcNamespace, b.promRegisterer)
	if err != nil {
		return fmt.Errorf("registering gate metrics: %w", err)
	}

	c := b.conf.Cache
	b.gate = adblock.New(&adblock.Config{
		Logger:    b.baseLogger.With(slogutil.KeyPrefix, "adblock"),
		Engine:    b.engine,
		Metrics:   mtrc,
		ChunkSize: c.ChunkSize,
		MaxChunks: c.MaxChunks,
		Enabled:   b.conf.Blocking.Enabled,
	})

	b.logger.DebugContext(
		ctx,
		"initialized gate",
		"enabled", b.conf.Blocking.Enabled,
		"chunk_size", c.ChunkSize,
		"max_chunks", c.MaxChunks,
	)

	return nil
}

// initDatasetSync initializes and starts the dataset store and the dataset
// sync manager.  [builder.initFilterEngine] must be called before this method.
func (b *builder) initDatasetSync(ctx context.Context) (err error) {
	c := b.conf.Dataset

	b.store = dataset.NewStore(&dataset.StoreConfig{
		Logger:  b.baseLogger.With(slogutil.KeyPrefix, "dataset_store"),
		Dir:     b.env.DatasetDir,
		Name:    c.Name,
		Version: c.Version,
	})

	mtrc, err := metrics.NewDatasetSync(b.mtrcNamespace, b.promRegisterer)
	if err != nil {
		return fmt.Errorf("registering dataset sync metrics: %w", err)
	}

	syncLogger := b.baseLogger.With(slogutil.KeyPrefix, "datasync")
	fetcher := datasync.NewHTTPFetcher(&datasync.HTTPFetcherConfig{
		Logger:  syncLogger,
		URL:     &c.URL.URL,
		Timeout: c.Timeout.Duration,
		MaxSize: c.MaxSize,
	})

	b.manager = datasync.New(&datasync.Config{
		Logger:          syncLogger,
		ErrColl:         b.errColl,
		Engine:          b.engine,
		Store:           b.store,
		Fetcher:         fetcher,
		Scheduler:       abgtime.TimerScheduler{},
		Metrics:         mtrc,
		RevalidateDelay: c.RevalidateDelay.Duration,
		RetryDelay:      c.RetryDelay.Duration,
		MaxRetries:      c.MaxRetries,
	})

	err = b.manager.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting dataset sync: %w", err)
	}

	b.sigHdlr.AddService(b.manager)

	b.logger.DebugContext(ctx, "initialized dataset sync", "data_path", b.store.DataPath())

	return nil
}

// revalidationRefresher returns a refresher that revalidates the dataset and
// reports errors to the error collector.  [builder.initDatasetSync] must be
// called before this method.
func (b *builder) revalidationRefresher() (refr abgservice.Refresher) {
	return abgservice.NewRefresherWithErrColl(
		abgservice.RefresherFunc(b.manager.Revalidate),
		b.baseLogger.With(slogutil.KeyPrefix, "dataset_refresh"),
		b.errColl,
		"revalidating dataset",
	)
}

// initRefreshWorker starts the periodic revalidation of the dataset, if it is
// enabled.  [builder.initDatasetSync] must be called before this method.
func (b *builder) initRefreshWorker(ctx context.Context) (err error) {
	c := b.conf.Dataset
	if c.RefreshInterval.Duration == 0 {
		b.logger.DebugContext(ctx, "periodic revalidation disabled")

		return nil
	}

	refrWorker := abgservice.NewRefreshWorker(&abgservice.RefreshWorkerConfig{
		Logger:    b.baseLogger.With(slogutil.KeyPrefix, "dataset_refresh_worker"),
		Refresher: b.revalidationRefresher(),
		Interval:  c.RefreshInterval.Duration,
		Timeout:   2 * c.Timeout.Duration,
	})

	err = refrWorker.Start(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("starting dataset refresh worker: %w", err)
	}

	b.sigHdlr.AddService(refrWorker)

	b.logger.DebugContext(
		ctx,
		"initialized dataset refresh worker",
		"interval", c.RefreshInterval,
	)

	return nil
}

// initConfigReloader starts the SIGHUP handler.  [builder.initGate] must be
// called before this method.
func (b *builder) initConfigReloader(ctx context.Context) (err error) {
	r := newConfigReloader(
		b.baseLogger.With(slogutil.KeyPrefix, "config_reloader"),
		b.gate,
		b.env.ConfPath,
	)

	err = r.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting config reloader: %w", err)
	}

	b.sigHdlr.AddService(r)

	b.logger.DebugContext(ctx, "initialized config reloader")

	return nil
}

// initWeb initializes and starts the local HTTP API.  [builder.initGate] and
// [builder.initDatasetSync] must be called before this method.
func (b *builder) initWeb(ctx context.Context) (err error) {
	mtrc, err := metrics.NewWebSvc(b.mtrcNamespace, b.promRegisterer)
	if err != nil {
		return fmt.Errorf("registering web service metrics: %w", err)
	}

	webSvc := websvc.New(&websvc.Config{
		Logger:    b.baseLogger.With(slogutil.KeyPrefix, "websvc"),
		Gate:      b.gate,
		Refresher: b.revalidationRefresher(),
		Metrics:   mtrc,
		Addr:      b.env.listenAddrPort(),
		// A refresh request performs both a probe and a download.
		Timeout: 2 * b.conf.Dataset.Timeout.Duration,
	})

	// The local API is considered critical, so its Start method exits the
	// program instead of returning an error.
	_ = webSvc.Start(context.WithoutCancel(ctx))

	b.sigHdlr.AddService(webSvc)

	b.logger.DebugContext(ctx, "initialized web service", "addr", b.env.listenAddrPort())

	return nil
}

// handleSignals blocks and processes signals from the OS.  status is
// [osutil.ExitCodeSuccess] on success and [osutil.ExitCodeFailure] on error.
//
// handleSignals must not be called concurrently with any other methods.
func (b *builder) handleSignals(ctx context.Context) (code osutil.ExitCode) {
	return b.sigHdlr.Handle(ctx)
}
