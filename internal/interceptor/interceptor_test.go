package interceptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/poetry-prerender/internal/bot"
	"github.com/JakeFAU/poetry-prerender/internal/poetry"
	"github.com/JakeFAU/poetry-prerender/internal/render"
)

const googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func testBook() poetry.Book {
	return poetry.Book{
		BookTitle: "Frith Hilton: Selected Works",
		Image:     "/images/selected/cover.jpg",
		Poems: []poetry.Poem{
			{Number: 1, Title: "Karma's Sequel"},
			{Number: 2, Title: "Unwritten"},
		},
		Content: []map[string]string{{"1": "<p>karma</p>"}},
	}
}

type stubResolver struct {
	mu       sync.Mutex
	books    map[string]poetry.Book
	err      error
	segments []string
}

func (s *stubResolver) ResolveBook(_ context.Context, segment string) (poetry.Collection, poetry.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, segment)
	if s.err != nil {
		return poetry.Collection{}, poetry.Book{}, s.err
	}
	if b, ok := poetry.MatchBook([]poetry.Book{s.books["frith-hilton"]}, segment); ok {
		return poetry.Collection{Key: "frith-hilton"}, b, nil
	}
	return poetry.Collection{}, poetry.Book{}, poetry.ErrNotFound
}

func (s *stubResolver) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

type failingRenderer struct{}

func (failingRenderer) BookIndex(poetry.Collection, poetry.Book) (string, error) {
	return "", errors.New("template broke")
}

func (failingRenderer) PoemDetail(poetry.Collection, poetry.Book, poetry.Poem, string) (string, error) {
	return "", errors.New("template broke")
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeRecorder) ObserveOutcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *outcomeRecorder) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[len(o.outcomes)-1]
}

type harness struct {
	handler  http.Handler
	resolver *stubResolver
	outcomes *outcomeRecorder
}

func newHarness(t *testing.T, renderer Renderer) *harness {
	t.Helper()
	classifier, err := bot.NewClassifier(nil)
	require.NoError(t, err)
	if renderer == nil {
		r, err := render.New(render.Site{BaseURL: "https://example.com", CardPrefix: "cards", CardPages: 5})
		require.NoError(t, err)
		renderer = r
	}
	resolver := &stubResolver{books: map[string]poetry.Book{"frith-hilton": testBook()}}
	outcomes := &outcomeRecorder{}
	origin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Origin", "true")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "origin:%s", r.URL.Path)
	})
	ic := New(classifier, resolver, renderer, zap.NewNop(), outcomes)
	return &harness{handler: ic.Middleware(origin), resolver: resolver, outcomes: outcomes}
}

func (h *harness) do(method, path, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func requireOrigin(t *testing.T, rec *httptest.ResponseRecorder, path string) {
	t.Helper()
	require.Equal(t, "true", rec.Header().Get("X-Origin"))
	require.Empty(t, rec.Header().Get("X-Prerendered"))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Equal(t, "origin:"+path, string(body))
}

func TestInterceptor_HumansPassThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	for _, ua := range []string{"", "Mozilla/5.0 (Macintosh) Safari/605.1.15"} {
		rec := h.do(http.MethodGet, "/poetry/hilton", ua)
		requireOrigin(t, rec, "/poetry/hilton")
		require.Equal(t, string(OutcomeHuman), h.outcomes.last())
	}
	require.Zero(t, h.resolver.calls(), "no lookups for human visitors")
}

func TestInterceptor_NonPoetryPathsPassThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	for _, path := range []string{"/", "/about", "/poetry", "/poetry/", "/blog/poetry/hilton"} {
		rec := h.do(http.MethodGet, path, googlebot)
		requireOrigin(t, rec, path)
		require.Equal(t, string(OutcomeRoute), h.outcomes.last())
	}
	require.Zero(t, h.resolver.calls())
}

func TestInterceptor_NonGetPassesThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		rec := h.do(method, "/poetry/hilton", googlebot)
		requireOrigin(t, rec, "/poetry/hilton")
		require.Equal(t, string(OutcomeMethod), h.outcomes.last())
	}
	require.Zero(t, h.resolver.calls())
}

func TestInterceptor_RendersBookIndex(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/poetry/Hilton", "facebookexternalhit/1.1")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "true", rec.Header().Get("X-Prerendered"))
	require.Contains(t, rec.Body.String(), `"@type":"Book"`)
	require.Contains(t, rec.Body.String(), "https://example.com/poetry/frith-hilton-selected-works/karmas-sequel")
	require.Equal(t, string(OutcomeRenderedIndex), h.outcomes.last())
	require.Equal(t, []string{"hilton"}, h.resolver.segments)
}

func TestInterceptor_RendersPoem(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/poetry/frith-hilton-selected-works/karmas-sequel", googlebot)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"@type":"CreativeWork"`)
	require.Contains(t, rec.Body.String(), "<p>karma</p>")
	require.Equal(t, string(OutcomeRenderedPoem), h.outcomes.last())
}

func TestInterceptor_PoemWithoutContentRendersPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/poetry/hilton/unwritten", googlebot)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), poetry.PlaceholderText)
}

func TestInterceptor_HeadHasNoBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodHead, "/poetry/hilton", googlebot)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get("X-Prerendered"))
	require.Zero(t, rec.Body.Len())
}

func TestInterceptor_UnknownBookPassesThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/poetry/unknown-book", googlebot)
	requireOrigin(t, rec, "/poetry/unknown-book")
	require.Equal(t, string(OutcomeBookNotFound), h.outcomes.last())
}

func TestInterceptor_ResolverErrorPassesThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.resolver.err = errors.New("all collections down")
	rec := h.do(http.MethodGet, "/poetry/hilton", googlebot)
	requireOrigin(t, rec, "/poetry/hilton")
	require.Equal(t, string(OutcomeBookNotFound), h.outcomes.last())
}

func TestInterceptor_UnknownPoemPassesThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/poetry/hilton/karma-sequel", googlebot)
	requireOrigin(t, rec, "/poetry/hilton/karma-sequel")
	require.Equal(t, string(OutcomePoemNotFound), h.outcomes.last())
}

func TestInterceptor_RenderFailurePassesThrough(t *testing.T) {
	t.Parallel()

	h := newHarness(t, failingRenderer{})
	rec := h.do(http.MethodGet, "/poetry/hilton", googlebot)
	requireOrigin(t, rec, "/poetry/hilton")
	require.Equal(t, string(OutcomeRenderFailed), h.outcomes.last())

	rec = h.do(http.MethodGet, "/poetry/hilton/karmas-sequel", googlebot)
	requireOrigin(t, rec, "/poetry/hilton/karmas-sequel")
}

func TestInterceptor_NilObserverAndLogger(t *testing.T) {
	t.Parallel()

	classifier, err := bot.NewClassifier(nil)
	require.NoError(t, err)
	ic := New(classifier, &stubResolver{err: poetry.ErrNotFound}, failingRenderer{}, nil, nil)
	called := false
	ic.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/poetry/x", nil))
	require.True(t, called)
}
