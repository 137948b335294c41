// Package poetry holds the book/poem model served to crawlers and the
// lookup logic that maps URL path segments onto collection records.
//
// Book segments are matched loosely: a book matches when its canonical slug
// contains the segment or the segment contains the slug. Poem segments are
// matched strictly: the segment's match key must equal the title's match key.
// The two rules are intentionally different and must not be unified.
package poetry
