// Package websvc contains the local HTTP API of adblockd: request checks,
// blocking control, dataset refreshes, health checks, and metrics.
package websvc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/csslayer/browser-ios/internal/abgservice"
	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate is the request gate controlled and queried by the service.
// [*adblock.Gate] is the main implementation.
type Gate interface {
	// ShouldBlock returns true if req should be blocked.
	ShouldBlock(ctx context.Context, req *adblock.Request) (blocked bool)

	// SetEnabled sets the state of blocking.
	SetEnabled(enabled bool)

	// Enabled returns the current state of blocking.
	Enabled() (enabled bool)
}

// type check
var _ Gate = (*adblock.Gate)(nil)

// Config is the configuration structure for the local HTTP API.
type Config struct {
	// Logger is used to log the requests.  It must not be nil.
	Logger *slog.Logger

	// Gate is the request gate.  It must not be nil.
	Gate Gate

	// Refresher revalidates the dataset.  It must not be nil.
	Refresher abgservice.Refresher

	// Metrics is used to collect the request statistics.  It must not be nil.
	Metrics Metrics

	// Addr is the address the service listens on.  If it is not valid, the
	// service doesn't listen, but its handler can still be used.
	Addr netip.AddrPort

	// Timeout is the read and write timeout of the server.  It must be
	// positive.
	Timeout time.Duration
}

// Service is the local HTTP API of adblockd.
type Service struct {
	logger    *slog.Logger
	gate      Gate
	refresher abgservice.Refresher
	metrics   Metrics
	handler   http.Handler
	srv       *http.Server
}

// New returns a new properly initialized *Service.  c must not be nil and must
// be valid.
func New(c *Config) (svc *Service) {
	svc = &Service{
		logger:    c.Logger,
		gate:      c.Gate,
		refresher: c.Refresher,
		metrics:   c.Metrics,
	}

	mux := http.NewServeMux()
	svc.route(mux)
	svc.handler = mux

	if c.Addr.IsValid() {
		svc.srv = &http.Server{
			Addr:              c.Addr.String(),
			Handler:           mux,
			ReadTimeout:       c.Timeout,
			ReadHeaderTimeout: c.Timeout,
			WriteTimeout:      c.Timeout,
			ErrorLog:          slog.NewLogLogger(c.Logger.Handler(), slog.LevelDebug),
		}
	}

	return svc
}

// route adds the handlers of the API to mux.
func (svc *Service) route(mux *http.ServeMux) {
	mux.Handle("GET /check", svc.middleware(
		http.HandlerFunc(svc.serveCheck),
		RequestTypeCheck,
		slogutil.LevelTrace,
	))
	mux.Handle("GET /control/enabled", svc.middleware(
		http.HandlerFunc(svc.serveGetEnabled),
		RequestTypeControl,
		slog.LevelDebug,
	))
	mux.Handle("PUT /control/enabled", svc.middleware(
		http.HandlerFunc(svc.servePutEnabled),
		RequestTypeControl,
		slog.LevelInfo,
	))
	mux.Handle("POST /control/refresh", svc.middleware(
		http.HandlerFunc(svc.serveRefresh),
		RequestTypeRefresh,
		slog.LevelInfo,
	))
	mux.Handle("GET /health-check", svc.middleware(
		http.HandlerFunc(serveHealthCheck),
		RequestTypeHealthCheck,
		slog.LevelDebug,
	))
	mux.Handle("GET /metrics", svc.middleware(
		promhttp.Handler(),
		RequestTypeMetrics,
		slog.LevelDebug,
	))
}

// Handler returns the HTTP handler of the API.
func (svc *Service) Handler() (h http.Handler) {
	return svc.handler
}

// type check
var _ service.Interface = (*Service)(nil)

// Start implements the [service.Interface] interface for *Service.  It starts
// serving but does not wait for the server to actually go online.  err is
// always nil; if the server fails to start, it exits the program.
func (svc *Service) Start(ctx context.Context) (err error) {
	if svc.srv == nil {
		return nil
	}

	go svc.serve(ctx)

	return nil
}

// serve runs the server and exits the program if there is an unexpected error.
func (svc *Service) serve(ctx context.Context) {
	defer slogutil.RecoverAndExit(ctx, svc.logger, osutil.ExitCodeFailure)

	svc.logger.InfoContext(ctx, "listening", "addr", svc.srv.Addr)

	err := svc.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		panic(fmt.Errorf("websvc: listening on %s: %w", svc.srv.Addr, err))
	}
}

// Shutdown implements the [service.Interface] interface for *Service.
func (svc *Service) Shutdown(ctx context.Context) (err error) {
	if svc.srv == nil {
		return nil
	}

	err = svc.srv.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	svc.logger.InfoContext(ctx, "shut down successfully")

	return nil
}
