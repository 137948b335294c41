package interceptor

import "strings"

const poetryPrefix = "/poetry/"

// Route is the part of a /poetry/... path used for lookup.
type Route struct {
	// Book is the lowercased first segment.
	Book string
	// Poem is the second segment; empty for a book index request.
	Poem string
}

// ParsePoetryPath splits /poetry/<book>[/<poem>] into its segments. Empty
// segments are dropped and anything past the second segment is ignored.
func ParsePoetryPath(path string) (Route, bool) {
	rest, ok := strings.CutPrefix(path, poetryPrefix)
	if !ok {
		return Route{}, false
	}
	segments := make([]string, 0, 2)
	for _, seg := range strings.Split(rest, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == 2 {
			break
		}
	}
	if len(segments) == 0 {
		return Route{}, false
	}
	route := Route{Book: strings.ToLower(segments[0])}
	if len(segments) > 1 {
		route.Poem = segments[1]
	}
	return route, true
}
