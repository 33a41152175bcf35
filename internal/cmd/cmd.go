// Package cmd is the ad-block service entry point.  It contains the on-disk
// configuration file utilities, signal processing logic, and so on.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/csslayer/browser-ios/internal/errcoll"
	"github.com/csslayer/browser-ios/internal/metrics"
	"github.com/csslayer/browser-ios/internal/version"
	"golang.org/x/sys/unix"
)

// Main is the entry point of the application.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)

	envs := errors.Must(parseEnvironment())
	errors.Check(envs.Validate())

	lvl := errors.Must(slogutil.VerbosityToLevel(envs.Verbosity))
	baseLogger := slogutil.New(&slogutil.Config{
		// Don't use [slogutil.NewFormat] here, because the value is validated.
		Format:       slogutil.Format(envs.LogFormat),
		AddTimestamp: bool(envs.LogTimestamp),
		Level:        lvl,
	})

	mainLogger := baseLogger.With(slogutil.KeyPrefix, "main")

	// Signal service startup now that we have the logs set up.
	branch := version.Branch()
	commitTime := version.CommitTime()
	buildVersion := version.Version()
	revision := version.Revision()
	mainLogger.InfoContext(
		ctx,
		"adblockd starting",
		"version", buildVersion,
		"revision", revision,
		"branch", branch,
		"commit_time", commitTime,
	)

	errColl := errors.Must(envs.buildErrColl(baseLogger))

	defer reportPanics(ctx, errColl, mainLogger)

	c := errors.Must(parseConfig(envs.ConfPath))
	errors.Check(c.Validate())

	// Building and running the service

	b := newBuilder(&builderConfig{
		envs:       envs,
		conf:       c,
		baseLogger: baseLogger,
		errColl:    errColl,
	})

	errors.Check(b.initFilterEngine(ctx))

	errors.Check(b.initGate(ctx))

	errors.Check(b.initDatasetSync(ctx))

	errors.Check(b.initRefreshWorker(ctx))

	errors.Check(b.initConfigReloader(ctx))

	errors.Check(b.initWeb(ctx))

	// Signal that the service is started.
	errors.Check(metrics.SetUpGauge(
		b.mtrcNamespace,
		b.promRegisterer,
		buildVersion,
		commitTime,
		branch,
		revision,
		runtime.Version(),
	))

	// Unregister the signal behavior for ctx.
	stop()
	ctx = context.WithoutCancel(ctx)

	code := b.handleSignals(ctx)
	flushErrColl(errColl)

	os.Exit(code)
}

// flushErrColl sends the buffered errors of errColl, if it buffers them.
func flushErrColl(errColl errcoll.Interface) {
	if sentryColl, ok := errColl.(*errcoll.SentryErrorCollector); ok {
		sentryColl.Flush()
	}
}

// reportPanics reports the panic, if any, to the error collector and exits
// the program.  It must be called in a deferred call.
func reportPanics(ctx context.Context, errColl errcoll.Interface, l *slog.Logger) {
	err := errors.FromRecovered(recover())
	if err == nil {
		return
	}

	errcoll.Collect(ctx, errColl, l, "recovered panic", err)
	slogutil.PrintStack(ctx, l, slog.LevelError)
	flushErrColl(errColl)

	os.Exit(osutil.ExitCodeFailure)
}
