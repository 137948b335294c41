// Package source loads collection documents for the resolver. A collection's
// source is a URL; the scheme picks the reader (http/https via colly, gs via
// Cloud Storage, file for local documents) and the body must be a JSON array
// of books.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/JakeFAU/poetry-prerender/internal/poetry"
)

var (
	// ErrUnavailable reports a source that answered but has no usable document
	// (non-200 status, missing object or file).
	ErrUnavailable = errors.New("source unavailable")
	// ErrUnsupportedScheme reports a source URL no reader is registered for.
	ErrUnsupportedScheme = errors.New("unsupported source scheme")
)

// Reader returns the raw document stored at u.
type Reader interface {
	Read(ctx context.Context, u *url.URL) ([]byte, error)
}

// Mux dispatches source URLs to readers by scheme and decodes the result.
// It implements poetry.Source.
type Mux struct {
	readers map[string]Reader
}

// NewMux returns an empty Mux. Register readers before serving traffic.
func NewMux() *Mux {
	return &Mux{readers: make(map[string]Reader)}
}

// Register binds a reader to one or more URL schemes.
func (m *Mux) Register(r Reader, schemes ...string) {
	for _, s := range schemes {
		m.readers[strings.ToLower(s)] = r
	}
}

// Supports reports whether a reader is registered for scheme.
func (m *Mux) Supports(scheme string) bool {
	_, ok := m.readers[strings.ToLower(scheme)]
	return ok
}

// Fetch reads and decodes the collection at rawURL.
func (m *Mux) Fetch(ctx context.Context, rawURL string) ([]poetry.Book, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	reader, ok := m.readers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	data, err := reader.Read(ctx, u)
	if err != nil {
		return nil, err
	}
	return decodeBooks(data)
}

func decodeBooks(data []byte) ([]poetry.Book, error) {
	var books []poetry.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return books, nil
}
