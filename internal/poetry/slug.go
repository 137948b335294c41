package poetry

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	quoteStripper = strings.NewReplacer("'", "", "‘", "", "’", "", "`", "")
	nonAlnumRE    = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
	hyphenRunRE   = regexp.MustCompile(`-+`)
)

// CanonicalSlug turns a title into the hyphen-joined form used in URLs,
// e.g. "Karma's Sequel" -> "karmas-sequel". It is idempotent.
func CanonicalSlug(title string) string {
	s := whitespaceRE.ReplaceAllString(fold(title), "-")
	s = hyphenRunRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// MatchKey turns a title into the space-joined phrase used for poem lookup,
// e.g. "Karma's Sequel" -> "karmas sequel". Never use it to build URLs.
func MatchKey(title string) string {
	s := whitespaceRE.ReplaceAllString(fold(title), " ")
	return strings.TrimSpace(s)
}

// SegmentMatchKey converts a poem path segment into match-key form.
func SegmentMatchKey(segment string) string {
	return MatchKey(strings.ReplaceAll(segment, "-", " "))
}

// fold lowercases s, strips diacritics and quote marks, and blanks out every
// remaining character that is not a letter, digit or whitespace.
func fold(s string) string {
	s = stripDiacritics(strings.ToLower(s))
	s = quoteStripper.Replace(s)
	return nonAlnumRE.ReplaceAllString(s, " ")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
