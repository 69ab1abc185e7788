package feed

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"coinfeed/domain"
)

// Parser decodes RSS 2.0 XML and JSON news payloads into a generic
// item list. Items without a link are dropped and counted, never a
// hard failure for the batch.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(raw []byte, format domain.FeedFormat) (*domain.ParsedFeed, error) {
	if format == domain.FormatJSON {
		return parseJSON(raw)
	}
	return parseRSS(raw)
}

type rssDocument struct {
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Link  string    `xml:"link"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Creator     string        `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Description string        `xml:"description"`
	Encoded     string        `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	PubDate     string        `xml:"pubDate"`
	Media       []rssMedia    `xml:"http://search.yahoo.com/mrss/ content"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
	Categories  []string      `xml:"category"`
}

type rssMedia struct {
	URL string `xml:"url,attr"`
}

type rssEnclosure struct {
	URL string `xml:"url,attr"`
}

// parseRSS decodes an RSS 2.0 document. Only an unparsable document is
// malformed; any well-formed XML whose channel/item path is absent,
// including a non-RSS root element, is a valid feed with zero items.
func parseRSS(raw []byte) (*domain.ParsedFeed, error) {
	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}

	parsed := &domain.ParsedFeed{}
	if doc.Channel == nil {
		return parsed, nil
	}
	parsed.SourceName = doc.Channel.Title
	parsed.SourceURL = doc.Channel.Link
	if len(doc.Channel.Items) == 0 {
		return parsed, nil
	}

	parsed.Items = make([]domain.GenericItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		if it.Link == "" {
			parsed.Skipped++
			continue
		}
		g := domain.GenericItem{
			Title:       it.Title,
			Link:        it.Link,
			Creator:     it.Creator,
			Description: it.Description,
			Content:     it.Encoded,
			PubDate:     it.PubDate,
			Keywords:    it.Categories,
		}
		if len(it.Media) > 0 {
			g.MediaURL = it.Media[0].URL
		}
		if it.Enclosure != nil {
			g.EnclosureURL = it.Enclosure.URL
		}
		parsed.Items = append(parsed.Items, g)
	}
	return parsed, nil
}

// jsonFeed covers the two JSON shapes the pipeline ingests: news-API
// responses ({"results": [...]}) and rss2json-style proxies
// ({"items": [...], "feed": {...}}).
type jsonFeed struct {
	Results []jsonItem `json:"results"`
	Items   []jsonItem `json:"items"`
	Feed    *jsonMeta  `json:"feed"`
}

type jsonMeta struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type jsonItem struct {
	Title       string         `json:"title"`
	Link        string         `json:"link"`
	Author      string         `json:"author"`
	Creator     []string       `json:"creator"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	PubDate     string         `json:"pubDate"`
	Thumbnail   string         `json:"thumbnail"`
	ImageURL    string         `json:"image_url"`
	Categories  []string       `json:"categories"`
	Keywords    []string       `json:"keywords"`
	Enclosure   *jsonEnclosure `json:"enclosure"`
}

type jsonEnclosure struct {
	Link string `json:"link"`
}

func parseJSON(raw []byte) (*domain.ParsedFeed, error) {
	var doc jsonFeed
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}

	parsed := &domain.ParsedFeed{}
	if doc.Feed != nil {
		parsed.SourceName = doc.Feed.Title
		parsed.SourceURL = doc.Feed.Link
	}

	items := doc.Results
	if len(items) == 0 {
		items = doc.Items
	}
	if len(items) == 0 {
		return parsed, nil
	}

	parsed.Items = make([]domain.GenericItem, 0, len(items))
	for _, it := range items {
		if it.Link == "" {
			parsed.Skipped++
			continue
		}
		g := domain.GenericItem{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Content:     it.Content,
			PubDate:     it.PubDate,
			Keywords:    it.Keywords,
		}
		if len(g.Keywords) == 0 {
			g.Keywords = it.Categories
		}
		if len(it.Creator) > 0 {
			g.Creator = it.Creator[0]
		} else {
			g.Creator = it.Author
		}
		g.ImageURL = it.ImageURL
		if g.ImageURL == "" {
			g.ImageURL = it.Thumbnail
		}
		if it.Enclosure != nil {
			g.EnclosureURL = it.Enclosure.Link
		}
		parsed.Items = append(parsed.Items, g)
	}
	return parsed, nil
}
