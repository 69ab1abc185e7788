package domain

// PubDateLayout is the canonical representation for article publication
// times: UTC, second precision, space-separated date and time.
const PubDateLayout = "2006-01-02 15:04:05"

// FeedFormat selects how raw feed bytes are requested and decoded.
type FeedFormat int

const (
	FormatRSS FeedFormat = iota
	FormatJSON
)

func (f FeedFormat) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "rss"
}

// Article is the canonical persisted record. Link is the identity key:
// within one collection no two stored articles share the same link.
// ArticleID is a stable hash of Link alone.
type Article struct {
	ArticleID      string   `bson:"article_id" json:"article_id"`
	Title          string   `bson:"title" json:"title"`
	Link           string   `bson:"link" json:"link"`
	Keywords       []string `bson:"keywords" json:"keywords"`
	Creator        []string `bson:"creator" json:"creator"`
	VideoURL       *string  `bson:"video_url" json:"video_url"`
	Description    string   `bson:"description" json:"description"`
	Content        *string  `bson:"content" json:"content"`
	PubDate        string   `bson:"pubDate" json:"pubDate"`
	PubDateTZ      string   `bson:"pubDateTZ" json:"pubDateTZ"`
	ImageURL       string   `bson:"image_url" json:"image_url"`
	SourceID       string   `bson:"source_id" json:"source_id"`
	SourcePriority int      `bson:"source_priority" json:"source_priority"`
	SourceName     string   `bson:"source_name" json:"source_name"`
	SourceURL      string   `bson:"source_url" json:"source_url"`
	SourceIcon     *string  `bson:"source_icon" json:"source_icon"`
	Language       string   `bson:"language" json:"language"`
	Country        []string `bson:"country" json:"country"`
	Category       []string `bson:"category" json:"category"`
	AITag          []string `bson:"ai_tag" json:"ai_tag"`
	AIRegion       *string  `bson:"ai_region" json:"ai_region"`
	AIOrg          *string  `bson:"ai_org" json:"ai_org"`
}

// GenericItem is a parsed feed entry before normalization. Every field
// is optional except Link; parsers drop linkless items and count the
// skip. An empty string means the field was absent from the source.
type GenericItem struct {
	Title        string
	Link         string
	Creator      string
	Description  string
	Content      string
	PubDate      string
	MediaURL     string
	EnclosureURL string
	ImageURL     string
	Keywords     []string
}

// FeedContext carries feed-level metadata into normalization.
type FeedContext struct {
	// FeedURL is the URL the feed was fetched from; the source id is
	// derived from its host.
	FeedURL    string
	SourceName string
	SourceURL  string
}

// ParsedFeed is the parser output: channel metadata plus the item list.
// A feed with zero items is a valid parse, not an error.
type ParsedFeed struct {
	SourceName string
	SourceURL  string
	Items      []GenericItem
	// Skipped counts items dropped for lacking a link.
	Skipped int
}

// TrendingItem is a non-persisted projection served by the trending
// view. Collections may hold heterogeneous shapes, so the projection
// applies the same fallbacks as normalization.
type TrendingItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Creator     []string `json:"creator"`
	PubDate     string   `json:"pubDate"`
	ImageURL    string   `json:"image_url"`
}

// FeedRef names a feed the background refresher re-ingests.
type FeedRef struct {
	Name       string
	URL        string
	Collection string
	Format     FeedFormat
}
