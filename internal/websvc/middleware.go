package websvc

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/csslayer/browser-ios/internal/abghttp"
)

// middleware wraps h so that every request of kind reqType is counted and
// gets a logger in its context.  The start and the end of the request are
// logged at lvl.
func (svc *Service) middleware(
	h http.Handler,
	reqType RequestType,
	lvl slog.Level,
) (wrapped http.Handler) {
	f := func(w http.ResponseWriter, r *http.Request) {
		respHdr := w.Header()
		respHdr.Add(httphdr.Server, abghttp.UserAgent())

		l := svc.logger.With(
			"kind", reqType,
			"method", r.Method,
			"raddr", r.RemoteAddr,
			"request_uri", r.RequestURI,
		)

		ctx := slogutil.ContextWithLogger(r.Context(), l)
		r = r.WithContext(ctx)

		svc.metrics.IncrementReqCount(ctx, reqType)

		rw := &codeRecorderResponseWriter{
			ResponseWriter: w,
			code:           http.StatusOK,
		}

		start := time.Now()
		l.Log(ctx, lvl, "started")
		defer func() {
			l.Log(
				ctx,
				lvl,
				"finished",
				"code", rw.code,
				"elapsed", timeutil.Duration{Duration: time.Since(start)},
			)
		}()

		h.ServeHTTP(rw, r)
	}

	return http.HandlerFunc(f)
}

// codeRecorderResponseWriter remembers the status code written through it.
type codeRecorderResponseWriter struct {
	http.ResponseWriter

	code int
}

// type check
var _ http.ResponseWriter = (*codeRecorderResponseWriter)(nil)

// WriteHeader implements [http.ResponseWriter] for *codeRecorderResponseWriter.
func (w *codeRecorderResponseWriter) WriteHeader(code int) {
	w.code = code

	w.ResponseWriter.WriteHeader(code)
}
