package helper

import (
	"fmt"
	"net/url"
)

// ValidateFeedURL rejects values that cannot possibly reach a feed.
// Reachability is the fetcher's problem, not validation's.
func ValidateFeedURL(feedURL string) error {
	u, err := url.ParseRequestURI(feedURL)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL has no host")
	}
	return nil
}
