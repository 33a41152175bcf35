package datasync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/c2h5oh/datasize"
	"github.com/csslayer/browser-ios/internal/abghttp"
	"github.com/csslayer/browser-ios/internal/dataset"
)

// HTTPFetcherConfig is the configuration structure for a *HTTPFetcher.
type HTTPFetcherConfig struct {
	// Logger is used to log the requests.  It must not be nil.
	Logger *slog.Logger

	// URL is the versioned URL of the dataset.  It must be a valid HTTP(S)
	// URL.
	URL *url.URL

	// Timeout is the timeout for each request.  It must be positive.
	Timeout time.Duration

	// MaxSize is the maximum size of the dataset.  It must be positive.
	MaxSize datasize.ByteSize
}

// HTTPFetcher is a [Fetcher] that downloads the dataset with GET requests and
// probes it with HEAD requests.
type HTTPFetcher struct {
	logger  *slog.Logger
	http    *abghttp.Client
	url     *url.URL
	maxSize datasize.ByteSize
}

// NewHTTPFetcher returns a new properly initialized *HTTPFetcher.  c must not
// be nil and must be valid.
func NewHTTPFetcher(c *HTTPFetcherConfig) (f *HTTPFetcher) {
	return &HTTPFetcher{
		logger: c.Logger,
		http: abghttp.NewClient(&abghttp.ClientConfig{
			Timeout: c.Timeout,
		}),
		url:     c.URL,
		maxSize: c.MaxSize,
	}
}

// type check
var _ Fetcher = (*HTTPFetcher)(nil)

// Fetch implements the [Fetcher] interface for *HTTPFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (d *dataset.Dataset, err error) {
	resp, err := f.http.Get(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("requesting dataset: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	f.logResponse(ctx, "got dataset", resp)

	err = abghttp.CheckStatus(resp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	data, err := io.ReadAll(ioutil.LimitReader(resp.Body, f.maxSize.Bytes()))
	if err != nil {
		return nil, abghttp.NewResponseError(fmt.Errorf("reading dataset: %w", err), resp)
	}

	if len(data) == 0 {
		return nil, abghttp.NewResponseError(errors.Error("empty dataset"), resp)
	}

	return &dataset.Dataset{
		Data: data,
		Tag:  resp.Header.Get(httphdr.ETag),
	}, nil
}

// Probe implements the [Fetcher] interface for *HTTPFetcher.
func (f *HTTPFetcher) Probe(ctx context.Context) (tag string, err error) {
	resp, err := f.http.Head(ctx, f.url)
	if err != nil {
		return "", fmt.Errorf("probing dataset: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, resp.Body.Close()) }()

	f.logResponse(ctx, "probed dataset", resp)

	err = abghttp.CheckStatus(resp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return "", err
	}

	return resp.Header.Get(httphdr.ETag), nil
}

// logResponse logs the common properties of resp.
func (f *HTTPFetcher) logResponse(ctx context.Context, msg string, resp *http.Response) {
	f.logger.DebugContext(
		ctx,
		msg,
		"code", resp.StatusCode,
		"content-length", resp.ContentLength,
		"server", resp.Header.Get(httphdr.Server),
		"url", urlutil.RedactUserinfo(f.url),
	)
}
