package filterengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/urlfilter"
	"github.com/AdguardTeam/urlfilter/filterlist"
	"github.com/AdguardTeam/urlfilter/rules"
)

// Config is the configuration structure for the default filter engine.
type Config struct {
	// Logger is used to log dataset swaps and classification failures.  It
	// must not be nil.
	Logger *slog.Logger

	// Metrics is used to report the number of loaded rules.  It must not be
	// nil.
	Metrics Metrics
}

// Default is the [Interface] implementation that interprets a dataset as the
// text of an AdGuard-syntax filter list and matches requests against it using
// the urlfilter network engine.
type Default struct {
	logger  *slog.Logger
	metrics Metrics

	// engine is the current network engine.  It is nil until the first
	// successful call to SetDataset.  A swap never blocks readers.
	engine atomic.Pointer[urlfilter.NetworkEngine]
}

// New returns a new properly initialized *Default without a dataset.  c must
// not be nil.
func New(c *Config) (e *Default) {
	return &Default{
		logger:  c.Logger,
		metrics: c.Metrics,
	}
}

// type check
var _ Interface = (*Default)(nil)

// HasDataset implements the [Interface] interface for *Default.
func (e *Default) HasDataset() (ok bool) {
	return e.engine.Load() != nil
}

// SetDataset implements the [Interface] interface for *Default.
func (e *Default) SetDataset(ctx context.Context, data []byte) (err error) {
	defer func() { err = errors.Annotate(err, "setting dataset: %w") }()

	if len(data) == 0 {
		return ErrEmptyDataset
	}

	// NOTE:  The storage is never closed, since [filterlist.BytesRuleList]
	// doesn't require closing.
	lists := []filterlist.Interface{
		filterlist.NewBytes(&filterlist.BytesConfig{
			RulesText:      data,
			IgnoreCosmetic: true,
		}),
	}

	s, err := filterlist.NewRuleStorage(lists)
	if err != nil {
		return fmt.Errorf("compiling rule storage: %w", err)
	}

	eng := urlfilter.NewNetworkEngine(s)
	e.engine.Store(eng)

	e.metrics.SetRulesCount(ctx, eng.RulesCount)
	e.logger.InfoContext(ctx, "dataset loaded", "rules", eng.RulesCount, "size", len(data))

	return nil
}

// Classify implements the [Interface] interface for *Default.
func (e *Default) Classify(
	ctx context.Context,
	rawURL string,
	documentHost string,
	accept string,
) (blocked bool) {
	eng := e.engine.Load()
	if eng == nil {
		e.logger.Log(ctx, slogutil.LevelTrace, "classifying", slogutil.KeyError, ErrNoDataset)

		return false
	}

	defer func() {
		if v := recover(); v != nil {
			e.logger.ErrorContext(ctx, "recovered from panic", "url", rawURL, "value", v)

			blocked = false
		}
	}()

	req := rules.NewRequest(rawURL, sourceURL(documentHost), requestType(accept))
	rule, ok := eng.Match(req)
	if !ok || rule == nil {
		return false
	}

	// Exception rules, those starting with "@@", unblock the request.
	return !rule.Whitelist
}

// sourceURL returns the URL of the document with the given host, as required
// by [rules.NewRequest].  documentHost may be empty.
func sourceURL(documentHost string) (u string) {
	if documentHost == "" {
		return ""
	}

	return "http://" + documentHost + "/"
}

// requestType infers the type of the request from the value of its Accept
// header.
func requestType(accept string) (t rules.RequestType) {
	a := strings.ToLower(accept)

	switch {
	case strings.Contains(a, "text/css"):
		return rules.TypeStylesheet
	case strings.HasPrefix(a, "image/"):
		return rules.TypeImage
	case strings.Contains(a, "javascript"):
		return rules.TypeScript
	case strings.Contains(a, "text/html"):
		return rules.TypeSubdocument
	case strings.HasPrefix(a, "font/"):
		return rules.TypeFont
	case strings.HasPrefix(a, "audio/"), strings.HasPrefix(a, "video/"):
		return rules.TypeMedia
	default:
		return rules.TypeOther
	}
}
