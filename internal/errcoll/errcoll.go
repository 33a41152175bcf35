// Package errcoll contains implementations of error collectors, most notably
// Sentry.
package errcoll

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Interface is the interface for error collectors that process information
// about errors, possibly sending them to a remote location.
type Interface interface {
	Collect(ctx context.Context, err error)
}

// Collect is a helper for reporting non-critical errors.  It writes the
// resulting error into the log and also into errColl.  msg is the message for
// the log entry; the error reported to errColl is annotated with it.
func Collect(ctx context.Context, errColl Interface, l *slog.Logger, msg string, err error) {
	l.ErrorContext(ctx, msg, slogutil.KeyError, err)
	errColl.Collect(ctx, fmt.Errorf("%s: %w", msg, err))
}

// caller returns the file and line of the caller of the function depth levels
// above the caller of caller.
func caller(depth int) (fileLine string) {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "(unknown)"
	}

	return fmt.Sprintf("%s/%s:%d", filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
}

// type check
var _ Interface = Empty{}

// Empty is an [Interface] implementation that does nothing.
type Empty struct{}

// Collect implements the [Interface] interface for Empty.
func (Empty) Collect(_ context.Context, _ error) {}
