package errcoll

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/csslayer/browser-ios/internal/version"
	"github.com/getsentry/sentry-go"
)

// SentryReportableError is implemented by errors that decide on their own
// whether they are sent to Sentry.  Errors that don't implement it are always
// sent, unless they are caused by a canceled context.
type SentryReportableError interface {
	error

	// IsSentryReportable returns false if the error must not be sent.
	IsSentryReportable() (ok bool)
}

// SentryErrorCollector is an [Interface] implementation that sends errors to
// Sentry.  Each event is tagged with the name and the revision of the program.
type SentryErrorCollector struct {
	sentry *sentry.Client
	tags   map[string]string
}

// NewSentryErrorCollector returns a new properly initialized
// *SentryErrorCollector.  cli must not be nil.
func NewSentryErrorCollector(cli *sentry.Client) (c *SentryErrorCollector) {
	return &SentryErrorCollector{
		sentry: cli,
		tags: map[string]string{
			"app_name":     version.Name(),
			"git_revision": version.Revision(),
		},
	}
}

// type check
var _ Interface = (*SentryErrorCollector)(nil)

// Collect implements the [Interface] interface for *SentryErrorCollector.
func (c *SentryErrorCollector) Collect(ctx context.Context, err error) {
	if !shouldReport(err) {
		return
	}

	scope := sentry.NewScope()
	scope.SetTags(c.tags)

	_ = c.sentry.CaptureException(err, &sentry.EventHint{Context: ctx}, scope)
}

// sentryFlushTimeout is the maximum duration of [SentryErrorCollector.Flush].
const sentryFlushTimeout = 1 * time.Second

// Flush blocks until the buffered events are sent or the flush times out.
func (c *SentryErrorCollector) Flush() {
	_ = c.sentry.Flush(sentryFlushTimeout)
}

// shouldReport returns false for errors caused by a canceled context, which
// happen during shutdown, and for errors that declare themselves unreportable.
func shouldReport(err error) (ok bool) {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var repErr SentryReportableError
	if errors.As(err, &repErr) {
		return repErr.IsSentryReportable()
	}

	return true
}
