package poetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source fetches and decodes the book list behind a collection source URL.
type Source interface {
	Fetch(ctx context.Context, source string) ([]Book, error)
}

// FetchObserver records the outcome of each collection fetch.
type FetchObserver interface {
	ObserveCollectionFetch(collection, result string, duration time.Duration)
}

// Fetch results reported to the FetchObserver.
const (
	FetchOK      = "ok"
	FetchFailed  = "failed"
	FetchSkipped = "skipped"
)

// Resolver finds books across an ordered list of collections.
type Resolver struct {
	collections []Collection
	source      Source
	logger      *zap.Logger
	observer    FetchObserver
}

// NewResolver builds a Resolver. Collections are searched in slice order.
func NewResolver(collections []Collection, source Source, logger *zap.Logger, observer FetchObserver) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	cp := make([]Collection, len(collections))
	copy(cp, collections)
	return &Resolver{
		collections: cp,
		source:      source,
		logger:      logger,
		observer:    observer,
	}
}

// Collections returns a copy of the configured collections in search order.
func (r *Resolver) Collections() []Collection {
	cp := make([]Collection, len(r.collections))
	copy(cp, r.collections)
	return cp
}

// ResolveBook returns the first book whose canonical slug matches segment.
// Collections are fetched one at a time; a collection that cannot be fetched
// is logged and skipped. ErrNotFound is returned when nothing matches.
func (r *Resolver) ResolveBook(ctx context.Context, segment string) (Collection, Book, error) {
	segment = strings.ToLower(segment)
	if segment == "" {
		return Collection{}, Book{}, ErrNotFound
	}
	for _, c := range r.collections {
		if strings.TrimSpace(c.Source) == "" {
			r.observe(c.Key, FetchSkipped, 0)
			continue
		}
		start := time.Now()
		books, err := r.source.Fetch(ctx, c.Source)
		if err != nil {
			r.observe(c.Key, FetchFailed, time.Since(start))
			r.logger.Warn("collection unavailable",
				zap.String("collection", c.Key),
				zap.String("source", c.Source),
				zap.Error(err),
			)
			continue
		}
		r.observe(c.Key, FetchOK, time.Since(start))
		if book, ok := MatchBook(books, segment); ok {
			r.logger.Debug("book resolved",
				zap.String("collection", c.Key),
				zap.String("segment", segment),
				zap.String("book", book.BookTitle),
			)
			return c, book, nil
		}
	}
	return Collection{}, Book{}, fmt.Errorf("book %q: %w", segment, ErrNotFound)
}

func (r *Resolver) observe(collection, result string, d time.Duration) {
	if r.observer != nil {
		r.observer.ObserveCollectionFetch(collection, result, d)
	}
}

// MatchBook returns the first book whose canonical slug contains segment or
// is contained in it. Books whose title has no slug are never matched.
func MatchBook(books []Book, segment string) (Book, bool) {
	for _, b := range books {
		slug := b.Slug()
		if slug == "" {
			continue
		}
		if strings.Contains(slug, segment) || strings.Contains(segment, slug) {
			return b, true
		}
	}
	return Book{}, false
}

// ResolvePoem finds the poem addressed by segment. An empty segment is a
// request for the book index and yields a nil poem with no error. A poem
// without content resolves with PlaceholderText.
func ResolvePoem(book Book, segment string) (*Poem, string, error) {
	if segment == "" {
		return nil, "", nil
	}
	want := SegmentMatchKey(segment)
	if want == "" {
		return nil, "", fmt.Errorf("poem %q: %w", segment, ErrNotFound)
	}
	for i := range book.Poems {
		if MatchKey(book.Poems[i].Title) == want {
			poem := book.Poems[i]
			return &poem, book.PoemText(poem.Number), nil
		}
	}
	return nil, "", fmt.Errorf("poem %q in %q: %w", segment, book.BookTitle, ErrNotFound)
}
