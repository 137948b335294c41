package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(site http.Handler) (*Server, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewServer(site, zap.New(core)), logs
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(http.NotFoundHandler())
	rec := serve(s.AdminHandler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok\n", rec.Body.String())
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(http.NotFoundHandler())
	rec := serve(s.AdminHandler(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = serve(s.AdminHandler(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(http.NotFoundHandler())
	serve(s.Handler(), httptest.NewRequest(http.MethodGet, "/about", nil))
	rec := serve(s.AdminHandler(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_SiteHandlerReceivesEveryPublicPath(t *testing.T) {
	t.Parallel()

	var gotPath, gotInboundID, gotCtxID string
	site := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInboundID = r.Header.Get(RequestIDHeader)
		gotCtxID = RequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	s, logs := newTestServer(site)

	paths := []string{"/poetry/hilton/karmas-sequel", "/", "/healthz", "/readyz", "/metrics"}
	for _, path := range paths {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			rec := serve(s.Handler(), httptest.NewRequest(method, path, nil))
			require.Equal(t, http.StatusAccepted, rec.Code, path)
			require.Equal(t, path, gotPath)
			require.Empty(t, gotInboundID, "inbound headers are not modified")
			require.NotEmpty(t, gotCtxID)
			require.Equal(t, gotCtxID, rec.Header().Get(RequestIDHeader))
		}
	}

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, len(paths)*2)
	require.EqualValues(t, http.StatusAccepted, entries[0].ContextMap()["status"])
}

func TestServer_KeepsIncomingRequestID(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, RequestID(r.Context()))
	}))
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := serve(s.Handler(), req)
	require.Equal(t, "abc-123", rec.Body.String())
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestServer_RecoversPanics(t *testing.T) {
	t.Parallel()

	s, logs := newTestServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(s.Handler(), httptest.NewRequest(http.MethodGet, "/poetry/x", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestServer_RepanicsAbortHandler(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(s.Handler(), httptest.NewRequest(http.MethodGet, "/poetry/x", nil))
	})
}
