package websvc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/csslayer/browser-ios/internal/abghttp"
	"github.com/csslayer/browser-ios/internal/adblock"
)

// Query parameters of the GET /check API.
const (
	queryParamAccept   = "accept"
	queryParamDocument = "document"
	queryParamURL      = "url"
)

// maxReqBodySize is the maximum size of the request bodies of the API.
const maxReqBodySize = 1024

// checkResponse describes the response to the GET /check HTTP API.
type checkResponse struct {
	Blocked bool `json:"blocked"`
}

// enabledMessage describes the request to and the response from the
// /control/enabled HTTP API.
type enabledMessage struct {
	Enabled *bool `json:"enabled"`
}

// refreshResponse describes the response to the POST /control/refresh HTTP
// API.
type refreshResponse struct {
	Result string `json:"result"`
}

// serveCheck handles the GET /check endpoint.  Missing URLs are passed to the
// gate as is, since it never blocks such requests.
func (svc *Service) serveCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &adblock.Request{
		Accept: q.Get(queryParamAccept),
	}

	var err error
	req.URL, err = parseOptionalURL(q, queryParamURL)
	if err == nil {
		req.MainDocumentURL, err = parseOptionalURL(q, queryParamDocument)
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if req.Accept == "" {
		req.Accept = r.Header.Get(httphdr.Accept)
	}

	writeJSON(w, r, &checkResponse{
		Blocked: svc.gate.ShouldBlock(r.Context(), req),
	})
}

// parseOptionalURL parses the URL from the query parameter name.  u is nil if
// the parameter is empty.
func parseOptionalURL(q url.Values, name string) (u *url.URL, err error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}

	u, err = url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("query parameter %q: %w", name, err)
	}

	return u, nil
}

// serveGetEnabled handles the GET /control/enabled endpoint.
func (svc *Service) serveGetEnabled(w http.ResponseWriter, r *http.Request) {
	enabled := svc.gate.Enabled()
	writeJSON(w, r, &enabledMessage{Enabled: &enabled})
}

// servePutEnabled handles the PUT /control/enabled endpoint.
func (svc *Service) servePutEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogutil.MustLoggerFromContext(ctx)

	req := &enabledMessage{}
	err := json.NewDecoder(ioutil.LimitReader(r.Body, maxReqBodySize)).Decode(req)
	if err != nil {
		l.DebugContext(ctx, "decoding request", slogutil.KeyError, err)
		http.Error(w, fmt.Sprintf("decoding request: %s", err), http.StatusBadRequest)

		return
	} else if req.Enabled == nil {
		http.Error(w, "no enabled field", http.StatusBadRequest)

		return
	}

	svc.gate.SetEnabled(*req.Enabled)
	l.InfoContext(ctx, "blocking state changed", "enabled", *req.Enabled)

	enabled := svc.gate.Enabled()
	writeJSON(w, r, &enabledMessage{Enabled: &enabled})
}

// serveRefresh handles the POST /control/refresh endpoint.
func (svc *Service) serveRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogutil.MustLoggerFromContext(ctx)

	err := svc.refresher.Refresh(ctx)
	if err != nil {
		l.ErrorContext(ctx, "refreshing dataset", slogutil.KeyError, err)
		http.Error(w, fmt.Sprintf("refreshing dataset: %s", err), http.StatusInternalServerError)

		return
	}

	writeJSON(w, r, &refreshResponse{Result: "ok"})
}

// serveHealthCheck handles the GET /health-check endpoint.
func serveHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(httphdr.ContentType, abghttp.HdrValTextPlain)
	w.WriteHeader(http.StatusOK)

	_, err := io.WriteString(w, "OK\n")
	if err != nil {
		ctx := r.Context()
		l := slogutil.MustLoggerFromContext(ctx)
		l.DebugContext(ctx, "writing health-check response", slogutil.KeyError, err)
	}
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set(httphdr.ContentType, abghttp.HdrValApplicationJSON)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		ctx := r.Context()
		l := slogutil.MustLoggerFromContext(ctx)
		l.DebugContext(ctx, "writing response", slogutil.KeyError, err)
	}
}
