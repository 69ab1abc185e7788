package domain

import (
	"context"
	"time"
)

// ArticleStore is the persistence port for article collections. The
// storage layer owns the uniqueness constraint on link; concurrent
// pipeline runs rely on it to resolve duplicate-insert races.
type ArticleStore interface {
	// ExistingLinks answers which of the given links are already stored
	// in the collection, as a single batched lookup.
	ExistingLinks(ctx context.Context, collection string, links []string) (map[string]struct{}, error)
	// InsertMany persists articles. With partialOK set it keeps
	// inserting past individual failures and reports a best-effort
	// count instead of aborting the batch.
	InsertMany(ctx context.Context, collection string, articles []Article, partialOK bool) (int, error)
	// FindRecent returns up to limit articles sorted by pubDate descending.
	FindRecent(ctx context.Context, collection string, limit int) ([]Article, error)
	// Search matches query as a case-insensitive substring of title or
	// description. No relevance ranking.
	Search(ctx context.Context, collection, query string, limit int) ([]Article, error)
	// DeleteOlderThan removes articles published before cutoff and
	// reports how many were deleted.
	DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error)
	// ScanAll returns every article in the collection.
	ScanAll(ctx context.Context, collection string) ([]Article, error)
	Close(ctx context.Context) error
}

// FeedFetcher retrieves raw feed bytes. No retries at this layer.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string, format FeedFormat) ([]byte, error)
}

// FeedParser decodes raw bytes into a generic item list.
type FeedParser interface {
	Parse(raw []byte, format FeedFormat) (*ParsedFeed, error)
}

// Refresher exposes runtime controls for background re-ingestion.
type Refresher interface {
	Start(ctx context.Context) error
	Stop() error

	SetInterval(d time.Duration)
	Resize(workers int) error
	CurrentInterval() time.Duration
	CurrentWorkers() int
}
