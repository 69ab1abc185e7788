package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"coinfeed/domain"
)

const (
	perCollectionLimit = 5
	trendingLimit      = 5
)

// TrendingService merges the most recent articles across collections
// into one recency-sorted view. It only reads from the store.
type TrendingService struct {
	store       domain.ArticleStore
	collections []string
	norm        *Normalizer
	log         *slog.Logger
}

func NewTrendingService(store domain.ArticleStore, collections []string, log *slog.Logger) *TrendingService {
	return &TrendingService{
		store:       store,
		collections: collections,
		norm:        NewNormalizer(),
		log:         log,
	}
}

func (s *TrendingService) Trending(ctx context.Context) ([]domain.TrendingItem, error) {
	var combined []domain.Article
	for _, coll := range s.collections {
		articles, err := s.store.FindRecent(ctx, coll, perCollectionLimit)
		if err != nil {
			return nil, fmt.Errorf("recent articles in %s: %w", coll, err)
		}
		combined = append(combined, articles...)
	}

	items := make([]domain.TrendingItem, 0, len(combined))
	for _, a := range combined {
		items = append(items, s.project(a))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return parsePubDate(items[i].PubDate).After(parsePubDate(items[j].PubDate))
	})
	if len(items) > trendingLimit {
		items = items[:trendingLimit]
	}
	s.log.Info("trending view built", "collections", len(s.collections), "items", len(items))
	return items, nil
}

// project mirrors the normalizer fallbacks, since collections may hold
// heterogeneous shapes.
func (s *TrendingService) project(a domain.Article) domain.TrendingItem {
	item := domain.TrendingItem{
		Title:       a.Title,
		Description: a.Description,
		Creator:     a.Creator,
		PubDate:     a.PubDate,
		ImageURL:    a.ImageURL,
	}
	if item.Title == "" {
		item.Title = fallbackTitle
	}
	if item.Description == "" && a.Content != nil {
		item.Description = *a.Content
	}
	if item.Description == "" {
		item.Description = fallbackDescription
	}
	if len(item.Creator) == 0 || item.Creator[0] == "" {
		item.Creator = []string{fallbackCreator}
	}
	if item.PubDate == "" {
		item.PubDate = s.norm.Now().UTC().Format(domain.PubDateLayout)
	}
	if item.ImageURL == "" {
		item.ImageURL = fallbackImageURL
	}
	return item
}

func parsePubDate(s string) time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
