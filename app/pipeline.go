package app

import (
	"context"
	"fmt"
	"log/slog"

	"coinfeed/domain"
)

// IngestRequest describes one fetch-and-store cycle.
type IngestRequest struct {
	URL        string
	Collection string
	Format     domain.FeedFormat
	Page       int
	Limit      int
}

// IngestResult is what one pipeline run produced. Articles is the
// requested page window over the full normalized set; Inserted and
// Duplicates describe the whole run, not just the page.
type IngestResult struct {
	Articles   []domain.Article
	TotalItems int
	TotalPages int
	Page       int
	Inserted   int
	Duplicates int
	Skipped    int
	SourceName string
}

// IngestService runs the core pipeline: fetch, parse, normalize,
// deduplicate against the store, paginate, persist.
type IngestService struct {
	fetcher domain.FeedFetcher
	parser  domain.FeedParser
	store   domain.ArticleStore
	norm    *Normalizer
	log     *slog.Logger
}

func NewIngestService(fetcher domain.FeedFetcher, parser domain.FeedParser, store domain.ArticleStore, log *slog.Logger) *IngestService {
	return &IngestService{
		fetcher: fetcher,
		parser:  parser,
		store:   store,
		norm:    NewNormalizer(),
		log:     log,
	}
}

func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("%w: feed url", domain.ErrMissingField)
	}
	if req.Collection == "" {
		return nil, fmt.Errorf("%w: collection", domain.ErrMissingField)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 10
	}

	raw, err := s.fetcher.Fetch(ctx, req.URL, req.Format)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}

	parsed, err := s.parser.Parse(raw, req.Format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.URL, err)
	}

	feedCtx := domain.FeedContext{
		FeedURL:    req.URL,
		SourceName: parsed.SourceName,
		SourceURL:  parsed.SourceURL,
	}
	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		articles = append(articles, s.norm.Normalize(item, feedCtx))
	}

	result := &IngestResult{
		Page:       req.Page,
		Skipped:    parsed.Skipped,
		SourceName: parsed.SourceName,
	}

	// An empty item list is a success: nothing to dedupe or persist.
	if len(articles) == 0 {
		result.Articles = []domain.Article{}
		s.log.Info("feed had no items", "url", req.URL, "collection", req.Collection)
		return result, nil
	}

	existing, err := s.store.ExistingLinks(ctx, req.Collection, Links(articles))
	if err != nil {
		return nil, fmt.Errorf("existing links in %s: %w", req.Collection, err)
	}
	fresh, dupes := PartitionNew(articles, existing)
	result.Duplicates = len(dupes)

	if len(fresh) > 0 {
		inserted, err := s.store.InsertMany(ctx, req.Collection, fresh, true)
		if err != nil {
			return nil, fmt.Errorf("insert into %s: %w", req.Collection, err)
		}
		result.Inserted = inserted
	}

	page, info := Paginate(articles, req.Page, req.Limit)
	result.Articles = page
	result.TotalItems = info.TotalItems
	result.TotalPages = info.TotalPages

	s.log.Info("feed ingested",
		"url", req.URL,
		"collection", req.Collection,
		"items", len(articles),
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped)
	return result, nil
}

// Sweep deletes articles older than the cutoff from each collection.
func (s *IngestService) Sweep(ctx context.Context, collections []string, cutoffDays int) (int64, error) {
	cutoff := s.norm.Now().AddDate(0, 0, -cutoffDays)
	var total int64
	for _, coll := range collections {
		deleted, err := s.store.DeleteOlderThan(ctx, coll, cutoff)
		if err != nil {
			return total, fmt.Errorf("sweep %s: %w", coll, err)
		}
		s.log.Info("swept old articles", "collection", coll, "deleted", deleted)
		total += deleted
	}
	return total, nil
}

// Backup scans every named collection in full.
func (s *IngestService) Backup(ctx context.Context, collections []string) (map[string][]domain.Article, error) {
	out := make(map[string][]domain.Article, len(collections))
	for _, coll := range collections {
		articles, err := s.store.ScanAll(ctx, coll)
		if err != nil {
			return nil, fmt.Errorf("backup %s: %w", coll, err)
		}
		out[coll] = articles
	}
	return out, nil
}
