package adblock

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/csslayer/browser-ios/internal/filterengine"
)

// Config is the configuration structure for a *Gate.
type Config struct {
	// Logger is used to log the decisions.  It must not be nil.
	Logger *slog.Logger

	// Engine classifies the requests that are not in the cache.  It must not
	// be nil.
	Engine filterengine.Interface

	// Metrics is used to collect the statistics.  It must not be nil.
	Metrics Metrics

	// ChunkSize is the maximum number of entries in a cache chunk.  It must be
	// positive.
	ChunkSize int

	// MaxChunks is the maximum number of cache chunks.  It must be positive.
	MaxChunks int

	// Enabled is the initial state of blocking.
	Enabled bool
}

// Gate decides whether requests should be blocked.  It never fails: requests
// that cannot be classified are not blocked.
type Gate struct {
	logger  *slog.Logger
	engine  filterengine.Interface
	metrics Metrics

	// mu protects cache and serializes the decisions, including the calls to
	// the engine.
	mu    *sync.Mutex
	cache *Cache

	enabled *atomic.Bool
}

// New returns a new properly initialized *Gate.  c must not be nil and must be
// valid.
func New(c *Config) (g *Gate) {
	g = &Gate{
		logger:  c.Logger,
		engine:  c.Engine,
		metrics: c.Metrics,
		mu:      &sync.Mutex{},
		cache:   NewCache(c.ChunkSize, c.MaxChunks),
		enabled: &atomic.Bool{},
	}

	g.enabled.Store(c.Enabled)

	return g
}

// SetEnabled sets the state of blocking.  It is safe for concurrent use.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

// Enabled returns the current state of blocking.  It is safe for concurrent
// use.
func (g *Gate) Enabled() (enabled bool) {
	return g.enabled.Load()
}

// ShouldBlock returns true if req should be blocked.  It is safe for
// concurrent use.  req must not be nil.
func (g *Gate) ShouldBlock(ctx context.Context, req *Request) (blocked bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.enabled.Load() {
		g.metrics.IncrementLookups(ctx, LookupResultDisabled)

		return false
	}

	if req.URL == nil || req.MainDocumentURL == nil {
		g.metrics.IncrementLookups(ctx, LookupResultInvalid)

		return false
	}

	docHost := req.MainDocumentURL.Hostname()
	if docHost == "" {
		g.metrics.IncrementLookups(ctx, LookupResultInvalid)

		return false
	}

	// A first-party request is never blocked nor cached.  The check is a plain
	// substring one.
	if host := req.URL.Hostname(); host != "" && strings.Contains(host, docHost) {
		g.metrics.IncrementLookups(ctx, LookupResultBypass)

		return false
	}

	rawURL := req.URL.String()
	key := docHost + "_" + rawURL
	if blocked, ok := g.cache.Get(key); ok {
		g.metrics.IncrementLookups(ctx, LookupResultHit)
		g.metrics.ObserveVerdict(ctx, blocked)

		return blocked
	}

	g.metrics.IncrementLookups(ctx, LookupResultMiss)

	blocked = g.engine.Classify(ctx, rawURL, docHost, req.Accept)
	g.cache.Set(key, blocked)

	g.metrics.ObserveVerdict(ctx, blocked)
	g.metrics.SetCacheSize(ctx, g.cache.ChunksLen(), g.cache.Len())

	if blocked {
		g.logger.DebugContext(ctx, "blocked", "url", rawURL, "document_host", docHost)
	}

	return blocked
}
