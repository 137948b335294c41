package poetry

import (
	"context"
	"errors"
	"sync"
	"time"
)

func fixtureBook() Book {
	return Book{
		BookTitle:   "Frith Hilton: Selected Works",
		Dedicatee:   "Margaret",
		ReleaseDate: "2023-05-01",
		Image:       "/images/frith-hilton/selected/cover.jpg",
		PoemCount:   3,
		Poems: []Poem{
			{Number: 1, Title: "Karma's Sequel"},
			{Number: 2, Title: "Crème Brûlée"},
			{Number: 3, Title: "The Sea—and the Sky"},
		},
		Content: []map[string]string{{
			"1": "<p>Line one<br>Line two</p>",
			"2": "<p>Sweet</p>",
		}},
	}
}

type fakeSource struct {
	mu      sync.Mutex
	books   map[string][]Book
	errs    map[string]error
	fetched []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		books: map[string][]Book{},
		errs:  map[string]error{},
	}
}

func (f *fakeSource) Fetch(_ context.Context, source string) ([]Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, source)
	if err, ok := f.errs[source]; ok {
		return nil, err
	}
	books, ok := f.books[source]
	if !ok {
		return nil, errors.New("unknown source")
	}
	return books, nil
}

func (f *fakeSource) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

type fetchRecord struct {
	collection string
	result     string
}

type recordingObserver struct {
	mu      sync.Mutex
	records []fetchRecord
}

func (o *recordingObserver) ObserveCollectionFetch(collection, result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, fetchRecord{collection: collection, result: result})
}
