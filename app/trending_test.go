package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinfeed/domain"
)

func trendingArticle(link, pubDate string) domain.Article {
	return domain.Article{
		Title:       "Story " + link,
		Link:        link,
		Description: "desc " + link,
		Creator:     []string{"Author"},
		PubDate:     pubDate,
		ImageURL:    "https://img/" + link,
	}
}

func TestTrending(t *testing.T) {
	ctx := context.Background()

	t.Run("merges collections newest first and truncates", func(t *testing.T) {
		store := &fakeStore{recent: map[string][]domain.Article{
			"coinscap": {
				trendingArticle("c1", "2026-02-10 10:00:00"),
				trendingArticle("c2", "2026-02-08 10:00:00"),
			},
			"rssfeeds": {
				trendingArticle("r1", "2026-02-11 10:00:00"),
				trendingArticle("r2", "2026-02-07 10:00:00"),
			},
			"rssfeeds1": {
				trendingArticle("s1", "2026-02-09 10:00:00"),
				trendingArticle("s2", "2026-02-06 10:00:00"),
			},
		}}
		svc := NewTrendingService(store, []string{"coinscap", "rssfeeds", "rssfeeds1"}, discardLogger())

		items, err := svc.Trending(ctx)
		require.NoError(t, err)
		require.Len(t, items, 5)

		var dates []string
		for _, it := range items {
			dates = append(dates, it.PubDate)
		}
		assert.Equal(t, []string{
			"2026-02-11 10:00:00",
			"2026-02-10 10:00:00",
			"2026-02-09 10:00:00",
			"2026-02-08 10:00:00",
			"2026-02-07 10:00:00",
		}, dates)
	})

	t.Run("respects the per-collection limit", func(t *testing.T) {
		var many []domain.Article
		for i := 0; i < 20; i++ {
			many = append(many, trendingArticle(fmt.Sprintf("m%d", i), "2026-02-01 10:00:00"))
		}
		store := &fakeStore{recent: map[string][]domain.Article{"coinscap": many}}
		svc := NewTrendingService(store, []string{"coinscap"}, discardLogger())

		items, err := svc.Trending(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 5)
	})

	t.Run("applies normalizer fallbacks to sparse records", func(t *testing.T) {
		content := "stored content"
		store := &fakeStore{recent: map[string][]domain.Article{
			"coinscap": {{Link: "sparse", Content: &content}},
		}}
		svc := NewTrendingService(store, []string{"coinscap"}, discardLogger())

		items, err := svc.Trending(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		it := items[0]
		assert.Equal(t, "Untitled", it.Title)
		assert.Equal(t, "stored content", it.Description, "content backs an empty description")
		assert.Equal(t, []string{"Unknown"}, it.Creator)
		assert.NotEmpty(t, it.PubDate)
		assert.Equal(t, "/default.png?height=200&width=400&text=News", it.ImageURL)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		store := &fakeStore{recentErr: fmt.Errorf("%w: down", domain.ErrStoreUnavailable)}
		svc := NewTrendingService(store, []string{"coinscap"}, discardLogger())
		_, err := svc.Trending(ctx)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}
