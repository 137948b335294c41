// Package interceptor serves prerendered poetry pages to crawlers and hands
// every other request to the next handler untouched.
//
// A request moves through: classify (bot and /poetry/ path), resolve the
// book, resolve the poem, render. Failing any step passes the request
// through; the interceptor never writes an error response of its own.
package interceptor

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/poetry-prerender/internal/poetry"
)

// Outcome labels how a request left the interceptor.
type Outcome string

// Interceptor outcomes.
const (
	OutcomeMethod        Outcome = "passthrough_method"
	OutcomeHuman         Outcome = "passthrough_human"
	OutcomeRoute         Outcome = "passthrough_route"
	OutcomeBookNotFound  Outcome = "passthrough_book"
	OutcomePoemNotFound  Outcome = "passthrough_poem"
	OutcomeRenderFailed  Outcome = "passthrough_render"
	OutcomeRenderedIndex Outcome = "rendered_index"
	OutcomeRenderedPoem  Outcome = "rendered_poem"
)

// Classifier recognizes crawler user agents.
type Classifier interface {
	IsBot(userAgent string) bool
}

// BookResolver locates a book by path segment.
type BookResolver interface {
	ResolveBook(ctx context.Context, segment string) (poetry.Collection, poetry.Book, error)
}

// Renderer produces the prerendered pages.
type Renderer interface {
	BookIndex(c poetry.Collection, book poetry.Book) (string, error)
	PoemDetail(c poetry.Collection, book poetry.Book, poem poetry.Poem, text string) (string, error)
}

// OutcomeObserver records interceptor outcomes.
type OutcomeObserver interface {
	ObserveOutcome(outcome string)
}

// Interceptor is the crawler-facing request handler.
type Interceptor struct {
	classifier Classifier
	resolver   BookResolver
	renderer   Renderer
	logger     *zap.Logger
	observer   OutcomeObserver
}

// New builds an Interceptor. logger and observer may be nil.
func New(classifier Classifier, resolver BookResolver, renderer Renderer, logger *zap.Logger, observer OutcomeObserver) *Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		classifier: classifier,
		resolver:   resolver,
		renderer:   renderer,
		logger:     logger,
		observer:   observer,
	}
}

// Middleware wraps next, which receives every request that is not answered
// with a prerendered page.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html, outcome := i.Intercept(r)
		i.observe(outcome)
		if html == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Prerendered", "true")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write([]byte(html)); err != nil {
			i.logger.Warn("write prerendered page failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
	})
}

// Intercept runs the classification and lookup steps for r. It returns the
// rendered page, or an empty string when the request must pass through.
func (i *Interceptor) Intercept(r *http.Request) (string, Outcome) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return "", OutcomeMethod
	}
	if !i.classifier.IsBot(r.UserAgent()) {
		return "", OutcomeHuman
	}
	route, ok := ParsePoetryPath(r.URL.Path)
	if !ok {
		return "", OutcomeRoute
	}
	logger := i.logger.With(
		zap.String("path", r.URL.Path),
		zap.String("user_agent", r.UserAgent()),
	)

	collection, book, err := i.resolver.ResolveBook(r.Context(), route.Book)
	if err != nil {
		if !errors.Is(err, poetry.ErrNotFound) {
			logger.Warn("book lookup failed", zap.Error(err))
		}
		logger.Debug("book not found; passing through", zap.String("book_segment", route.Book))
		return "", OutcomeBookNotFound
	}
	logger = logger.With(zap.String("collection", collection.Key), zap.String("book", book.BookTitle))

	poem, text, err := poetry.ResolvePoem(book, route.Poem)
	if err != nil {
		logger.Debug("poem not found; passing through", zap.String("poem_segment", route.Poem))
		return "", OutcomePoemNotFound
	}

	if poem == nil {
		html, err := i.renderer.BookIndex(collection, book)
		if err != nil {
			logger.Error("render book index failed", zap.Error(err))
			return "", OutcomeRenderFailed
		}
		logger.Info("served prerendered book index")
		return html, OutcomeRenderedIndex
	}

	html, err := i.renderer.PoemDetail(collection, book, *poem, text)
	if err != nil {
		logger.Error("render poem failed", zap.Error(err), zap.Int("poem", poem.Number))
		return "", OutcomeRenderFailed
	}
	logger.Info("served prerendered poem", zap.Int("poem", poem.Number))
	return html, OutcomeRenderedPoem
}

func (i *Interceptor) observe(outcome Outcome) {
	if i.observer != nil {
		i.observer.ObserveOutcome(string(outcome))
	}
}
