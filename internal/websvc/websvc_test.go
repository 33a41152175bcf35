package websvc_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/csslayer/browser-ios/internal/abghttp"
	"github.com/csslayer/browser-ios/internal/abgservice"
	"github.com/csslayer/browser-ios/internal/abgtest"
	"github.com/csslayer/browser-ios/internal/adblock"
	"github.com/csslayer/browser-ios/internal/websvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is a common timeout for tests.
const testTimeout = 1 * time.Second

// testError is the common error for tests.
const testError errors.Error = "test error"

// testAdURL is the URL blocked by the engine returned from newTestGate.
const testAdURL = "https://ads.example.net/banner.png"

// newTestGate returns an enabled gate with an engine that only blocks
// [testAdURL].
func newTestGate() (g *adblock.Gate) {
	return adblock.New(&adblock.Config{
		Logger: slogutil.NewDiscardLogger(),
		Engine: &abgtest.FilterEngine{
			OnHasDataset: func() (ok bool) { return true },
			OnSetDataset: func(_ context.Context, _ []byte) (err error) {
				panic(testutil.UnexpectedCall())
			},
			OnClassify: func(_ context.Context, rawURL, _, _ string) (blocked bool) {
				return rawURL == testAdURL
			},
		},
		Metrics:   adblock.EmptyMetrics{},
		ChunkSize: adblock.DefaultChunkSize,
		MaxChunks: adblock.DefaultMaxChunks,
		Enabled:   true,
	})
}

// newTestService returns a service without a listener.
func newTestService(g websvc.Gate, refr abgservice.Refresher) (svc *websvc.Service) {
	return websvc.New(&websvc.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Gate:      g,
		Refresher: refr,
		Metrics:   websvc.EmptyMetrics{},
		Timeout:   testTimeout,
	})
}

// serve performs a request to h and returns the recorded response.
func serve(
	tb testing.TB,
	h http.Handler,
	method string,
	target string,
	body string,
) (rw *httptest.ResponseRecorder) {
	tb.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	req = req.WithContext(testutil.ContextWithTimeout(tb, testTimeout))

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(tb, abghttp.UserAgent(), rw.Header().Get(httphdr.Server))

	return rw
}

// unexpectedRefresher returns a refresher that panics.
func unexpectedRefresher() (r *abgtest.Refresher) {
	return &abgtest.Refresher{
		OnRefresh: func(_ context.Context) (err error) {
			panic(testutil.UnexpectedCall())
		},
	}
}

func TestService_serveCheck(t *testing.T) {
	t.Parallel()

	h := newTestService(newTestGate(), unexpectedRefresher()).Handler()

	testCases := []struct {
		name     string
		target   string
		wantBody string
		wantCode int
	}{{
		name:     "blocked",
		target:   "/check?url=https%3A%2F%2Fads.example.net%2Fbanner.png&document=https%3A%2F%2Fexample.com%2F&accept=image%2Fpng",
		wantBody: `{"blocked":true}` + "\n",
		wantCode: http.StatusOK,
	}, {
		name:     "allowed",
		target:   "/check?url=https%3A%2F%2Fcdn.example.org%2Flib.js&document=https%3A%2F%2Fexample.com%2F",
		wantBody: `{"blocked":false}` + "\n",
		wantCode: http.StatusOK,
	}, {
		name:     "first_party",
		target:   "/check?url=https%3A%2F%2Fads.example.net%2Fbanner.png&document=https%3A%2F%2Fexample.net%2F",
		wantBody: `{"blocked":false}` + "\n",
		wantCode: http.StatusOK,
	}, {
		name:     "no_document",
		target:   "/check?url=https%3A%2F%2Fads.example.net%2Fbanner.png",
		wantBody: `{"blocked":false}` + "\n",
		wantCode: http.StatusOK,
	}, {
		name:     "bad_url",
		target:   "/check?url=%3A%2F%2Fbad&document=https%3A%2F%2Fexample.com%2F",
		wantBody: "",
		wantCode: http.StatusBadRequest,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rw := serve(t, h, http.MethodGet, tc.target, "")
			require.Equal(t, tc.wantCode, rw.Code)

			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rw.Body.String())
				assert.Equal(t, abghttp.HdrValApplicationJSON, rw.Header().Get(httphdr.ContentType))
			}
		})
	}
}

func TestService_serveCheck_acceptHeader(t *testing.T) {
	t.Parallel()

	acceptCh := make(chan string, 1)
	g := adblock.New(&adblock.Config{
		Logger: slogutil.NewDiscardLogger(),
		Engine: &abgtest.FilterEngine{
			OnHasDataset: func() (ok bool) { return true },
			OnSetDataset: func(_ context.Context, _ []byte) (err error) {
				panic(testutil.UnexpectedCall())
			},
			OnClassify: func(_ context.Context, _, _, accept string) (blocked bool) {
				acceptCh <- accept

				return false
			},
		},
		Metrics:   adblock.EmptyMetrics{},
		ChunkSize: adblock.DefaultChunkSize,
		MaxChunks: adblock.DefaultMaxChunks,
		Enabled:   true,
	})

	h := newTestService(g, unexpectedRefresher()).Handler()

	req := httptest.NewRequest(
		http.MethodGet,
		"/check?url=https%3A%2F%2Fads.example.net%2Fbanner.png&document=https%3A%2F%2Fexample.com%2F",
		nil,
	)
	req = req.WithContext(testutil.ContextWithTimeout(t, testTimeout))
	req.Header.Set(httphdr.Accept, "image/png")

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)

	accept, _ := testutil.RequireReceive(t, acceptCh, testTimeout)
	assert.Equal(t, "image/png", accept)
}

func TestService_enabled(t *testing.T) {
	t.Parallel()

	g := newTestGate()
	h := newTestService(g, unexpectedRefresher()).Handler()

	rw := serve(t, h, http.MethodGet, "/control/enabled", "")
	require.Equal(t, http.StatusOK, rw.Code)

	assert.Equal(t, `{"enabled":true}`+"\n", rw.Body.String())

	rw = serve(t, h, http.MethodPut, "/control/enabled", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rw.Code)

	assert.Equal(t, `{"enabled":false}`+"\n", rw.Body.String())
	assert.False(t, g.Enabled())

	rw = serve(
		t,
		h,
		http.MethodGet,
		"/check?url=https%3A%2F%2Fads.example.net%2Fbanner.png&document=https%3A%2F%2Fexample.com%2F",
		"",
	)
	require.Equal(t, http.StatusOK, rw.Code)

	assert.Equal(t, `{"blocked":false}`+"\n", rw.Body.String())

	rw = serve(t, h, http.MethodPut, "/control/enabled", `{}`)
	assert.Equal(t, http.StatusBadRequest, rw.Code)

	rw = serve(t, h, http.MethodPut, "/control/enabled", `not json`)
	assert.Equal(t, http.StatusBadRequest, rw.Code)

	assert.False(t, g.Enabled())
}

func TestService_serveRefresh(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		refreshed := false
		refr := &abgtest.Refresher{
			OnRefresh: func(_ context.Context) (err error) {
				refreshed = true

				return nil
			},
		}

		h := newTestService(newTestGate(), refr).Handler()
		rw := serve(t, h, http.MethodPost, "/control/refresh", "")
		require.Equal(t, http.StatusOK, rw.Code)

		assert.True(t, refreshed)
		assert.Equal(t, `{"result":"ok"}`+"\n", rw.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		refr := &abgtest.Refresher{
			OnRefresh: func(_ context.Context) (err error) {
				return testError
			},
		}

		h := newTestService(newTestGate(), refr).Handler()
		rw := serve(t, h, http.MethodPost, "/control/refresh", "")
		require.Equal(t, http.StatusInternalServerError, rw.Code)

		assert.Equal(t, "refreshing dataset: test error\n", rw.Body.String())
	})
}

func TestService_health(t *testing.T) {
	t.Parallel()

	h := newTestService(newTestGate(), unexpectedRefresher()).Handler()

	rw := serve(t, h, http.MethodGet, "/health-check", "")
	require.Equal(t, http.StatusOK, rw.Code)

	assert.Equal(t, "OK\n", rw.Body.String())

	rw = serve(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rw.Code)

	assert.NotEmpty(t, rw.Body.String())
}

func TestService_Start(t *testing.T) {
	t.Parallel()

	addr := netip.MustParseAddrPort("127.0.0.1:8183")
	svc := websvc.New(&websvc.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Gate:      newTestGate(),
		Refresher: unexpectedRefresher(),
		Metrics:   websvc.EmptyMetrics{},
		Addr:      addr,
		Timeout:   testTimeout,
	})

	err := svc.Start(testutil.ContextWithTimeout(t, testTimeout))
	require.NoError(t, err)

	testutil.CleanupAndRequireSuccess(t, func() (err error) {
		return svc.Shutdown(testutil.ContextWithTimeout(t, testTimeout))
	})

	client := &http.Client{
		Timeout: testTimeout,
	}

	var resp *http.Response
	require.Eventually(t, func() (ok bool) {
		resp, err = client.Get("http://" + addr.String() + "/health-check")

		return err == nil
	}, testTimeout, testTimeout/10)

	testutil.CleanupAndRequireSuccess(t, resp.Body.Close)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
