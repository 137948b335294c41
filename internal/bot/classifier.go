// Package bot recognizes search-engine and link-preview crawlers by user agent.
package bot

import (
	"fmt"
	"regexp"
	"strings"
)

// Signatures lists the user-agent fragments treated as crawlers. Matching is
// case-insensitive and a fragment anywhere in the user agent is enough.
var Signatures = []string{
	// search engines
	"googlebot",
	"google-inspectiontool",
	"bingbot",
	"yandex",
	"baiduspider",
	"duckduckbot",
	"slurp",
	"applebot",
	"petalbot",
	"sogou",
	"exabot",
	// link previews
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"discordbot",
	"telegrambot",
	"whatsapp",
	"pinterest",
	"embedly",
	"quora link preview",
	"showyoubot",
	"outbrain",
	"vkshare",
	"redditbot",
	"skypeuripreview",
	"w3c_validator",
}

// Classifier decides whether a request comes from a known crawler.
type Classifier struct {
	pattern *regexp.Regexp
}

// NewClassifier compiles Signatures plus any extra fragments into a single
// case-insensitive pattern. Extra fragments are matched literally.
func NewClassifier(extra []string) (*Classifier, error) {
	parts := make([]string, 0, len(Signatures)+len(extra))
	for _, sig := range Signatures {
		parts = append(parts, regexp.QuoteMeta(sig))
	}
	for _, sig := range extra {
		sig = strings.TrimSpace(sig)
		if sig == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(sig))
	}
	re, err := regexp.Compile("(?i)" + strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile bot signatures: %w", err)
	}
	return &Classifier{pattern: re}, nil
}

// IsBot reports whether userAgent contains a crawler signature.
func (c *Classifier) IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return c.pattern.MatchString(userAgent)
}
