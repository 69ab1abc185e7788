package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinfeed/adapter/feed"
	"coinfeed/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	body    []byte
	err     error
	gotURL  string
	gotFmt  domain.FeedFormat
	fetches int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, format domain.FeedFormat) ([]byte, error) {
	f.gotURL = url
	f.gotFmt = format
	f.fetches++
	return f.body, f.err
}

type fakeStore struct {
	existing   map[string]struct{}
	existsErr  error
	insertErr  error
	inserted   []domain.Article
	insertCall int
	recent     map[string][]domain.Article
	recentErr  error
	deleted    int64
	scanned    map[string][]domain.Article
}

func (s *fakeStore) ExistingLinks(ctx context.Context, collection string, links []string) (map[string]struct{}, error) {
	if s.existsErr != nil {
		return nil, s.existsErr
	}
	out := make(map[string]struct{})
	for _, l := range links {
		if _, ok := s.existing[l]; ok {
			out[l] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) InsertMany(ctx context.Context, collection string, articles []domain.Article, partialOK bool) (int, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.insertCall++
	s.inserted = append(s.inserted, articles...)
	return len(articles), nil
}

func (s *fakeStore) FindRecent(ctx context.Context, collection string, limit int) ([]domain.Article, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	articles := s.recent[collection]
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (s *fakeStore) Search(ctx context.Context, collection, query string, limit int) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range s.scanned[collection] {
		if strings.Contains(strings.ToLower(a.Title), strings.ToLower(query)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	return s.deleted, nil
}

func (s *fakeStore) ScanAll(ctx context.Context, collection string) ([]domain.Article, error) {
	return s.scanned[collection], nil
}

func (s *fakeStore) Close(ctx context.Context) error { return nil }

func rssFixture(n int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Test Feed</title><link>https://feed.example.com</link>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item><title>Story %d</title><link>https://feed.example.com/story-%d</link><pubDate>Mon, 02 Jan 2006 15:04:%02d +0000</pubDate></item>`, i, i, i%60)
	}
	b.WriteString(`</channel></rss>`)
	return []byte(b.String())
}

func newTestIngest(fetcher *fakeFetcher, store *fakeStore) *IngestService {
	return NewIngestService(fetcher, feed.NewParser(), store, discardLogger())
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts only the new partition", func(t *testing.T) {
		store := &fakeStore{existing: map[string]struct{}{
			"https://feed.example.com/story-1": {},
			"https://feed.example.com/story-4": {},
			"https://feed.example.com/story-7": {},
		}}
		svc := newTestIngest(&fakeFetcher{body: rssFixture(10)}, store)

		result, err := svc.Ingest(ctx, IngestRequest{
			URL: "https://feed.example.com/rss", Collection: "rssfeeds", Page: 1, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 7, result.Inserted)
		assert.Equal(t, 3, result.Duplicates)
		assert.Len(t, store.inserted, 7)
		assert.Equal(t, 1, store.insertCall, "existence lookup and insert are single batched calls")
		for _, a := range store.inserted {
			assert.NotContains(t, store.existing, a.Link)
		}
	})

	t.Run("paginates the full normalized set", func(t *testing.T) {
		svc := newTestIngest(&fakeFetcher{body: rssFixture(12)}, &fakeStore{})

		result, err := svc.Ingest(ctx, IngestRequest{
			URL: "https://feed.example.com/rss", Collection: "rssfeeds", Page: 2, Limit: 5,
		})
		require.NoError(t, err)
		require.Len(t, result.Articles, 5)
		assert.Equal(t, "https://feed.example.com/story-5", result.Articles[0].Link)
		assert.Equal(t, "https://feed.example.com/story-9", result.Articles[4].Link)
		assert.Equal(t, 12, result.TotalItems)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, 12, result.Inserted, "persistence covers the whole run, not the page")
	})

	t.Run("empty feed is a success", func(t *testing.T) {
		body := []byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`)
		store := &fakeStore{}
		svc := newTestIngest(&fakeFetcher{body: body}, store)

		result, err := svc.Ingest(ctx, IngestRequest{
			URL: "https://feed.example.com/rss", Collection: "rssfeeds",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Articles)
		assert.Equal(t, 0, result.TotalItems)
		assert.Equal(t, 0, store.insertCall)
	})

	t.Run("missing url is a validation error", func(t *testing.T) {
		svc := newTestIngest(&fakeFetcher{}, &fakeStore{})
		_, err := svc.Ingest(ctx, IngestRequest{Collection: "rssfeeds"})
		assert.ErrorIs(t, err, domain.ErrMissingField)
	})

	t.Run("fetch failure aborts the run", func(t *testing.T) {
		svc := newTestIngest(&fakeFetcher{err: fmt.Errorf("%w: connection refused", domain.ErrFetchTransport)}, &fakeStore{})
		_, err := svc.Ingest(ctx, IngestRequest{URL: "https://down.example.com/rss", Collection: "rssfeeds"})
		assert.ErrorIs(t, err, domain.ErrFetchTransport)
	})

	t.Run("malformed document aborts the run", func(t *testing.T) {
		svc := newTestIngest(&fakeFetcher{body: []byte("<rss><channel>")}, &fakeStore{})
		_, err := svc.Ingest(ctx, IngestRequest{URL: "https://feed.example.com/rss", Collection: "rssfeeds"})
		assert.ErrorIs(t, err, domain.ErrMalformedFeed)
	})

	t.Run("store unavailability aborts the run", func(t *testing.T) {
		svc := newTestIngest(&fakeFetcher{body: rssFixture(2)},
			&fakeStore{existsErr: fmt.Errorf("%w: no reachable servers", domain.ErrStoreUnavailable)})
		_, err := svc.Ingest(ctx, IngestRequest{URL: "https://feed.example.com/rss", Collection: "rssfeeds"})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("json news payload flows through the same pipeline", func(t *testing.T) {
		body := []byte(`{"results":[{"title":"API story","link":"https://api.example.com/1","creator":["Wire"],"image_url":"https://img/1.jpg","pubDate":"2026-02-01 10:00:00"}]}`)
		store := &fakeStore{}
		svc := newTestIngest(&fakeFetcher{body: body}, store)

		result, err := svc.Ingest(ctx, IngestRequest{
			URL: "https://api.example.com/news?apikey=k&q=crypto", Collection: "coinscap", Format: domain.FormatJSON,
		})
		require.NoError(t, err)
		require.Len(t, result.Articles, 1)
		assert.Equal(t, "API story", result.Articles[0].Title)
		assert.Equal(t, []string{"Wire"}, result.Articles[0].Creator)
		assert.Equal(t, "https://img/1.jpg", result.Articles[0].ImageURL)
		assert.Equal(t, 1, result.Inserted)
	})
}

func TestSweepAndBackup(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		deleted: 4,
		scanned: map[string][]domain.Article{
			"rssfeeds":  articlesWithLinks("a", "b"),
			"rssfeeds1": articlesWithLinks("c"),
		},
	}
	svc := newTestIngest(&fakeFetcher{}, store)

	deleted, err := svc.Sweep(ctx, []string{"rssfeeds", "rssfeeds1"}, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(8), deleted)

	backup, err := svc.Backup(ctx, []string{"rssfeeds", "rssfeeds1"})
	require.NoError(t, err)
	assert.Len(t, backup["rssfeeds"], 2)
	assert.Len(t, backup["rssfeeds1"], 1)
}

func TestIngestDoesNotRetry(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	svc := newTestIngest(fetcher, &fakeStore{})
	_, err := svc.Ingest(context.Background(), IngestRequest{URL: "https://feed.example.com/rss", Collection: "rssfeeds"})
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.fetches)
}
