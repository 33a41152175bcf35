package abghttp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/AdguardTeam/golibs/httphdr"
)

// DefaultMaxRedirects is the number of redirects a [Client] follows when
// [ClientConfig.MaxRedirects] is not set.
const DefaultMaxRedirects = 5

// ClientConfig is the configuration structure for [Client].
type ClientConfig struct {
	// Timeout is the timeout of a single request including reading the body.
	Timeout time.Duration

	// MaxRedirects is the maximum number of redirects to follow.  If it is
	// zero, [DefaultMaxRedirects] is used.
	MaxRedirects int
}

// Client performs the requests of the dataset sync against a single server.
// It sets the User-Agent header and limits the number of redirects.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a new properly initialized *Client.  c must not be nil.
func NewClient(c *ClientConfig) (cli *Client) {
	maxRedirects := c.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &Client{
		http: &http.Client{
			Timeout: c.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) (err error) {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}

				return nil
			},
		},
		userAgent: UserAgent(),
	}
}

// Get sends a GET request to u.  If err is nil, the caller must close
// resp.Body.
func (c *Client) Get(ctx context.Context, u *url.URL) (resp *http.Response, err error) {
	return c.do(ctx, http.MethodGet, u)
}

// Head sends a HEAD request to u.  If err is nil, the caller must close
// resp.Body, even though it is empty.
func (c *Client) Head(ctx context.Context, u *url.URL) (resp *http.Response, err error) {
	return c.do(ctx, http.MethodHead, u)
}

// do sends a body-less request with the given method to u.
func (c *Client) do(
	ctx context.Context,
	method string,
	u *url.URL,
) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", method, err)
	}

	req.Header.Set(httphdr.UserAgent, c.userAgent)

	resp, err = c.http.Do(req)
	if err == nil {
		return resp, nil
	}

	if resp != nil {
		// The response is only returned along with an error when the redirect
		// policy fails, and its body is already closed.
		return nil, NewResponseError(err, resp)
	}

	// Don't wrap the error, because it's informative enough as is.
	return nil, err
}
