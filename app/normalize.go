package app

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"coinfeed/domain"
)

const (
	fallbackTitle       = "Untitled"
	fallbackCreator     = "Unknown"
	fallbackDescription = "No description available"
	fallbackImageURL    = "/default.png?height=200&width=400&text=News"
	unknownSourceID     = "unknown_source"

	minSourcePriority = 1000
	maxSourcePriority = 1000000
)

// Classification tags are constant for this deployment's vertical, not
// derived from content.
var (
	tagLanguage = "english"
	tagCountry  = []string{"global"}
	tagCategory = []string{"cryptocurrency"}
	tagAI       = []string{"crypto news"}
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// Source date strings vary wildly; these are the layouts seen across
// RSS feeds and news APIs in the wild.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	domain.PubDateLayout,
}

// Normalizer maps generic parsed items to canonical articles. Now is a
// field so tests can pin the fallback timestamp.
type Normalizer struct {
	Now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize applies the canonical fallback chain. It never fails: every
// generic item with a link becomes an article.
func (n *Normalizer) Normalize(item domain.GenericItem, feed domain.FeedContext) domain.Article {
	a := domain.Article{
		ArticleID:      ArticleID(item.Link),
		Title:          item.Title,
		Link:           item.Link,
		Keywords:       item.Keywords,
		Creator:        []string{fallbackCreator},
		Description:    fallbackDescription,
		PubDate:        n.normalizePubDate(item.PubDate),
		PubDateTZ:      "UTC",
		ImageURL:       extractImageURL(item),
		SourceID:       SourceID(feed.FeedURL),
		SourcePriority: rand.IntN(maxSourcePriority-minSourcePriority+1) + minSourcePriority,
		SourceName:     feed.SourceName,
		SourceURL:      feed.SourceURL,
		Language:       tagLanguage,
		Country:        tagCountry,
		Category:       tagCategory,
		AITag:          tagAI,
	}
	if a.Title == "" {
		a.Title = fallbackTitle
	}
	if item.Creator != "" {
		a.Creator = []string{item.Creator}
	}
	if item.Description != "" {
		a.Description = StripMarkup(item.Description)
	}
	// Content stays nil when absent, even if description is present.
	if item.Content != "" {
		content := StripMarkup(item.Content)
		a.Content = &content
	}
	return a
}

// ArticleID derives the stable identifier from the source link alone,
// so recomputing it for the same link always agrees with the stored id.
func ArticleID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// StripMarkup removes tag markup, decodes the five common HTML
// entities, and trims surrounding whitespace.
func StripMarkup(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// SourceID turns the feed URL's host into a storage-friendly token:
// leading www and .com/.org tokens stripped, dots to underscores,
// lowercased. Unparsable URLs map to a fixed sentinel.
func SourceID(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return unknownSourceID
	}
	host := u.Hostname()
	host = strings.Replace(host, "www.", "", 1)
	host = strings.Replace(host, ".com", "", 1)
	host = strings.Replace(host, ".org", "", 1)
	host = strings.ReplaceAll(host, ".", "_")
	return strings.ToLower(host)
}

func (n *Normalizer) normalizePubDate(raw string) string {
	if raw != "" {
		for _, layout := range pubDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC().Format(domain.PubDateLayout)
			}
		}
	}
	return n.Now().UTC().Format(domain.PubDateLayout)
}

// extractImageURL tries, in order: the media enclosure attribute, the
// generic enclosure attribute, a pre-resolved thumbnail, the first img
// tag inside embedded HTML content, then the placeholder.
func extractImageURL(item domain.GenericItem) string {
	if item.MediaURL != "" {
		return item.MediaURL
	}
	if item.EnclosureURL != "" {
		return item.EnclosureURL
	}
	if item.ImageURL != "" {
		return item.ImageURL
	}
	if src := firstImageSrc(item.Content); src != "" {
		return src
	}
	return fallbackImageURL
}

func firstImageSrc(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}
