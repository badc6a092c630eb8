package enrich

import (
	"net/url"
	"strings"

	"aidigest/internal/database"
)

// Platform tags which discussion platform an item's link points to.
type Platform string

const (
	PlatformReddit     Platform = "reddit"
	PlatformHackerNews Platform = "hackernews"
	PlatformNone       Platform = "none"
)

// Classify resolves an item to a discussion platform. The source-id map
// is consulted first ("r-" ids are Reddit, "hn-" ids are Hacker News);
// items absent from the map fall back to host sniffing. Only Reddit can
// be host-sniffed: Hacker News items link to the original article, not
// an HN URL, so unmapped items default to none.
func Classify(item database.Item, sourceIDs map[string]string) Platform {
	if id, ok := sourceIDs[item.URL]; ok {
		switch {
		case strings.HasPrefix(id, "r-"):
			return PlatformReddit
		case strings.HasPrefix(id, "hn-"):
			return PlatformHackerNews
		}
		return PlatformNone
	}

	u, err := url.Parse(item.URL)
	if err != nil {
		return PlatformNone
	}
	host := strings.ToLower(u.Hostname())
	if host == "reddit.com" || strings.HasSuffix(host, ".reddit.com") {
		return PlatformReddit
	}
	return PlatformNone
}
