// Package render produces the crawler-facing HTML for books and poems: SEO
// meta tags, Open Graph and Twitter cards, a single JSON-LD object, and a
// readable body. Rendering is a pure function of its inputs.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/JakeFAU/poetry-prerender/internal/poetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultCardPages is how many speculative image cards a poem page links.
const DefaultCardPages = 5

// Site describes the public site pages are rendered for.
type Site struct {
	// BaseURL is the public origin, e.g. https://example.com. No trailing slash needed.
	BaseURL string
	Name    string
	Author  string
	// CardPrefix is the static path holding per-poem image cards.
	CardPrefix string
	// CardPages is the number of card images probed per poem. Cards that do
	// not exist are hidden client-side.
	CardPages int
}

// Renderer renders book index and poem detail pages.
type Renderer struct {
	site Site
	book *template.Template
	poem *template.Template
}

type pageMeta struct {
	Title       string
	Description string
	Keywords    string
	Author      string
	Canonical   string
	Image       string
	OGType      string
	SiteName    string
}

type tocEntry struct {
	Number int
	Title  string
	URL    string
}

type bookPage struct {
	Meta      pageMeta
	JSONLD    template.JS
	PoetryURL string
	CoverURL  string
	Book      poetry.Book
	Entries   []tocEntry
}

type card struct {
	Src  string
	Page int
}

type poemPage struct {
	Meta      pageMeta
	JSONLD    template.JS
	PoetryURL string
	BookURL   string
	BookTitle string
	PoemTitle string
	Body      template.HTML
	Cards     []card
}

// New parses the embedded templates.
func New(site Site) (*Renderer, error) {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	site.CardPrefix = strings.Trim(site.CardPrefix, "/")
	if site.CardPages < 0 {
		site.CardPages = 0
	}
	book, err := template.ParseFS(templateFS, "templates/layout.html", "templates/book.html")
	if err != nil {
		return nil, fmt.Errorf("parse book template: %w", err)
	}
	poem, err := template.ParseFS(templateFS, "templates/layout.html", "templates/poem.html")
	if err != nil {
		return nil, fmt.Errorf("parse poem template: %w", err)
	}
	return &Renderer{site: site, book: book, poem: poem}, nil
}

// BookIndex renders the table-of-contents page for book.
func (r *Renderer) BookIndex(c poetry.Collection, book poetry.Book) (string, error) {
	bookURL := r.BookURL(book)
	entries := make([]tocEntry, 0, len(book.Poems))
	for _, p := range book.Poems {
		entries = append(entries, tocEntry{Number: p.Number, Title: p.Title, URL: r.PoemURL(book, p)})
	}
	ld, err := marshalJSONLD(r.bookJSONLD(book))
	if err != nil {
		return "", err
	}
	page := bookPage{
		Meta: pageMeta{
			Title:       r.title(book.BookTitle),
			Description: bookDescription(book),
			Keywords:    r.keywords(book.BookTitle),
			Author:      r.site.Author,
			Canonical:   bookURL,
			Image:       r.absURL(book.Image),
			OGType:      "book",
			SiteName:    r.site.Name,
		},
		JSONLD:    ld,
		PoetryURL: r.absURL("/poetry"),
		CoverURL:  r.absURL(book.Image),
		Book:      book,
		Entries:   entries,
	}
	return execute(r.book, page, c.Key, book.BookTitle)
}

// PoemDetail renders the page for a single poem. text is the poem body as
// stored in the collection and is emitted verbatim.
func (r *Renderer) PoemDetail(c poetry.Collection, book poetry.Book, poem poetry.Poem, text string) (string, error) {
	plain := StripHTML(text)
	ld, err := marshalJSONLD(r.poemJSONLD(book, poem, plain))
	if err != nil {
		return "", err
	}
	page := poemPage{
		Meta: pageMeta{
			Title:       r.title(poem.Title + " | " + book.BookTitle),
			Description: poemDescription(book, poem, plain),
			Keywords:    r.keywords(poem.Title, book.BookTitle),
			Author:      r.site.Author,
			Canonical:   r.PoemURL(book, poem),
			Image:       r.PoemImage(book, poem.Number),
			OGType:      "article",
			SiteName:    r.site.Name,
		},
		JSONLD:    ld,
		PoetryURL: r.absURL("/poetry"),
		BookURL:   r.BookURL(book),
		BookTitle: book.BookTitle,
		PoemTitle: poem.Title,
		Body:      template.HTML(text), // #nosec G203 -- collection content is authored HTML.
		Cards:     r.cards(c, book, poem),
	}
	return execute(r.poem, page, c.Key, poem.Title)
}

// BookURL is the canonical URL of a book index page.
func (r *Renderer) BookURL(book poetry.Book) string {
	return r.absURL("/poetry/" + book.Slug())
}

// PoemURL is the canonical URL of a poem page.
func (r *Renderer) PoemURL(book poetry.Book, poem poetry.Poem) string {
	return r.absURL("/poetry/" + book.Slug() + "/" + poem.Slug())
}

// PoemImage derives a poem's image from the book cover by replacing the
// first "cover.jpg" with "{number}.jpg". Covers without that name are reused
// as is.
func (r *Renderer) PoemImage(book poetry.Book, number int) string {
	return r.absURL(strings.Replace(book.Image, "cover.jpg", fmt.Sprintf("%d.jpg", number), 1))
}

func (r *Renderer) cards(c poetry.Collection, book poetry.Book, poem poetry.Poem) []card {
	cards := make([]card, 0, r.site.CardPages)
	for page := 1; page <= r.site.CardPages; page++ {
		path := fmt.Sprintf("/%s/%s/%s/poem-%d-page-%d.png",
			r.site.CardPrefix, c.Key, book.Slug(), poem.Number, page)
		cards = append(cards, card{Src: r.absURL(path), Page: page})
	}
	return cards
}

func (r *Renderer) title(s string) string {
	if r.site.Name == "" {
		return s
	}
	return s + " | " + r.site.Name
}

func (r *Renderer) keywords(terms ...string) string {
	all := append([]string{"poetry", "poems"}, terms...)
	if r.site.Author != "" {
		all = append(all, r.site.Author)
	}
	return strings.Join(all, ", ")
}

// absURL resolves site-relative paths against the base URL. Absolute and
// protocol-relative URLs pass through.
func (r *Renderer) absURL(p string) string {
	switch {
	case p == "":
		return ""
	case strings.Contains(p, "://"), strings.HasPrefix(p, "//"):
		return p
	default:
		return r.site.BaseURL + "/" + strings.TrimLeft(p, "/")
	}
}

func bookDescription(book poetry.Book) string {
	var b strings.Builder
	b.WriteString(book.BookTitle)
	b.WriteString(", a poetry collection")
	if titles := book.FirstTitles(3); len(titles) > 0 {
		b.WriteString(" featuring ")
		b.WriteString(strings.Join(titles, ", "))
		if len(book.Poems) > len(titles) {
			b.WriteString(" and more")
		}
	}
	b.WriteString(".")
	if book.Dedicatee != "" {
		b.WriteString(" Dedicated to ")
		b.WriteString(book.Dedicatee)
		b.WriteString(".")
	}
	return b.String()
}

func poemDescription(book poetry.Book, poem poetry.Poem, plain string) string {
	desc := fmt.Sprintf("%s, a poem from %s.", poem.Title, book.BookTitle)
	if excerpt := Excerpt(plain, 150); excerpt != "" {
		desc += " " + excerpt
	}
	return desc
}

func execute(t *template.Template, data any, collection, name string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s/%q: %w", collection, name, err)
	}
	return buf.String(), nil
}
