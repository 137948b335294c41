package poetry

import (
	"errors"
	"strconv"
)

// PlaceholderText is served as the poem body when a book has no content
// entry for a resolved poem number.
const PlaceholderText = "Full poem available in the book."

// ErrNotFound reports that no book or poem matched the requested segment.
var ErrNotFound = errors.New("poetry: not found")

// Collection is a named, externally configured source of books.
// An empty Source disables the collection.
type Collection struct {
	Key    string `mapstructure:"key"`
	Source string `mapstructure:"source"`
}

// Book mirrors one record of a collection's JSON array.
type Book struct {
	BookTitle   string              `json:"bookTitle"`
	Dedicatee   string              `json:"dedicatee"`
	ReleaseDate string              `json:"releaseDate"`
	Image       string              `json:"image"`
	PoemCount   int                 `json:"poemCount"`
	Poems       []Poem              `json:"poems"`
	Content     []map[string]string `json:"content"`
}

// Poem identifies a poem within a book. Number is 1-based and keys Book.Content.
type Poem struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// Slug returns the book's canonical slug.
func (b Book) Slug() string {
	return CanonicalSlug(b.BookTitle)
}

// Slug returns the poem's canonical slug.
func (p Poem) Slug() string {
	return CanonicalSlug(p.Title)
}

// PoemText looks up the body of poem number in the first content mapping.
func (b Book) PoemText(number int) string {
	if len(b.Content) == 0 {
		return PlaceholderText
	}
	text, ok := b.Content[0][strconv.Itoa(number)]
	if !ok {
		return PlaceholderText
	}
	return text
}

// FirstTitles returns up to n poem titles in list order.
func (b Book) FirstTitles(n int) []string {
	if n > len(b.Poems) {
		n = len(b.Poems)
	}
	titles := make([]string, 0, n)
	for _, p := range b.Poems[:n] {
		titles = append(titles, p.Title)
	}
	return titles
}
