package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/csslayer/browser-ios/internal/adblock"
	"golang.org/x/sys/unix"
)

// configReloader re-reads the configuration file on SIGHUP and pushes the
// reloadable values into the running services.
type configReloader struct {
	logger   *slog.Logger
	gate     *adblock.Gate
	signals  chan os.Signal
	done     chan struct{}
	confPath string
}

// newConfigReloader returns a new properly initialized *configReloader.  All
// arguments must not be empty.
func newConfigReloader(
	logger *slog.Logger,
	gate *adblock.Gate,
	confPath string,
) (r *configReloader) {
	return &configReloader{
		logger:   logger,
		gate:     gate,
		signals:  make(chan os.Signal, 1),
		done:     make(chan struct{}),
		confPath: confPath,
	}
}

// type check
var _ service.Interface = (*configReloader)(nil)

// Start implements the [service.Interface] interface for *configReloader.
func (r *configReloader) Start(ctx context.Context) (err error) {
	signal.Notify(r.signals, unix.SIGHUP)

	go r.handleSignals(context.WithoutCancel(ctx))

	return nil
}

// handleSignals reloads the configuration on every SIGHUP until r is shut
// down.
func (r *configReloader) handleSignals(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, r.logger)

	for {
		select {
		case <-r.done:
			return
		case sig := <-r.signals:
			r.logger.InfoContext(ctx, "received signal", "signal", sig)

			err := r.reload(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "reloading config", slogutil.KeyError, err)
			}
		}
	}
}

// reload re-reads and validates the configuration file and applies the
// blocking flag.  The running configuration is left intact on error.
func (r *configReloader) reload(ctx context.Context) (err error) {
	c, err := parseConfig(r.confPath)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	err = c.Validate()
	if err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	enabled := c.Blocking.Enabled
	r.gate.SetEnabled(enabled)

	r.logger.InfoContext(ctx, "config reloaded", "blocking_enabled", enabled)

	return nil
}

// Shutdown implements the [service.Interface] interface for *configReloader.
func (r *configReloader) Shutdown(_ context.Context) (err error) {
	signal.Stop(r.signals)
	close(r.done)

	return nil
}
