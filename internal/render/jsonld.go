package render

import (
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/JakeFAU/poetry-prerender/internal/poetry"
)

const schemaContext = "https://schema.org"

type personLD struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type chapterLD struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
	Text     string `json:"text"`
}

type bookLD struct {
	Context       string      `json:"@context"`
	Type          string      `json:"@type"`
	Name          string      `json:"name"`
	URL           string      `json:"url"`
	Description   string      `json:"description"`
	Image         string      `json:"image,omitempty"`
	DatePublished string      `json:"datePublished,omitempty"`
	Author        *personLD   `json:"author,omitempty"`
	Genre         string      `json:"genre"`
	HasPart       []chapterLD `json:"hasPart"`
}

type bookRefLD struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type creativeWorkLD struct {
	Context     string    `json:"@context"`
	Type        string    `json:"@type"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Position    int       `json:"position"`
	Genre       string    `json:"genre"`
	Text        string    `json:"text"`
	Author      *personLD `json:"author,omitempty"`
	IsPartOf    bookRefLD `json:"isPartOf"`
}

func (r *Renderer) author() *personLD {
	if r.site.Author == "" {
		return nil
	}
	return &personLD{Type: "Person", Name: r.site.Author}
}

func (r *Renderer) bookJSONLD(book poetry.Book) bookLD {
	parts := make([]chapterLD, 0, len(book.Poems))
	for _, p := range book.Poems {
		parts = append(parts, chapterLD{
			Type:     "Chapter",
			Position: p.Number,
			Name:     p.Title,
			URL:      r.PoemURL(book, p),
			Image:    r.PoemImage(book, p.Number),
			Text:     StripHTML(book.PoemText(p.Number)),
		})
	}
	return bookLD{
		Context:       schemaContext,
		Type:          "Book",
		Name:          book.BookTitle,
		URL:           r.BookURL(book),
		Description:   bookDescription(book),
		Image:         r.absURL(book.Image),
		DatePublished: book.ReleaseDate,
		Author:        r.author(),
		Genre:         "Poetry",
		HasPart:       parts,
	}
}

func (r *Renderer) poemJSONLD(book poetry.Book, poem poetry.Poem, plain string) creativeWorkLD {
	return creativeWorkLD{
		Context:     schemaContext,
		Type:        "CreativeWork",
		Name:        poem.Title,
		URL:         r.PoemURL(book, poem),
		Description: poemDescription(book, poem, plain),
		Image:       r.PoemImage(book, poem.Number),
		Position:    poem.Number,
		Genre:       "Poetry",
		Text:        plain,
		Author:      r.author(),
		IsPartOf: bookRefLD{
			Type: "Book",
			Name: book.BookTitle,
			URL:  r.BookURL(book),
		},
	}
}

// marshalJSONLD encodes v for a <script type="application/ld+json"> block.
// encoding/json escapes <, > and & so the payload cannot close the script.
func marshalJSONLD(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return template.JS(b), nil // #nosec G203 -- escaped JSON.
}
