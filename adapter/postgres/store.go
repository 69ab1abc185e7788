// Package postgres implements the article store on PostgreSQL. One
// articles table holds every logical collection; UNIQUE (collection,
// link) enforces the identity invariant the pipeline depends on.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"coinfeed/domain"
)

type Store struct{ db *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ensure(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS articles (
    collection TEXT NOT NULL,
    article_id TEXT NOT NULL,
    title TEXT NOT NULL,
    link TEXT NOT NULL,
    keywords TEXT[],
    creator TEXT[] NOT NULL,
    video_url TEXT,
    description TEXT NOT NULL,
    content TEXT,
    pub_date TEXT NOT NULL,
    pub_date_tz TEXT NOT NULL,
    image_url TEXT NOT NULL,
    source_id TEXT NOT NULL,
    source_priority INTEGER NOT NULL,
    source_name TEXT NOT NULL,
    source_url TEXT NOT NULL,
    source_icon TEXT,
    language TEXT NOT NULL,
    country TEXT[] NOT NULL,
    category TEXT[] NOT NULL,
    ai_tag TEXT[] NOT NULL,
    ai_region TEXT,
    ai_org TEXT,
    UNIQUE (collection, link)
);
CREATE INDEX IF NOT EXISTS articles_pub_date_idx ON articles (collection, pub_date DESC);
`)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) ExistingLinks(ctx context.Context, collection string, links []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(links))
	if len(links) == 0 {
		return existing, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT link FROM articles WHERE collection = $1 AND link = ANY($2)`,
		collection, pq.Array(links))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, err
		}
		existing[link] = struct{}{}
	}
	return existing, rows.Err()
}

func (s *Store) InsertMany(ctx context.Context, collection string, articles []domain.Article, partialOK bool) (int, error) {
	inserted := 0
	for _, a := range articles {
		res, err := s.db.ExecContext(ctx, `
INSERT INTO articles (
    collection, article_id, title, link, keywords, creator, video_url,
    description, content, pub_date, pub_date_tz, image_url, source_id,
    source_priority, source_name, source_url, source_icon, language,
    country, category, ai_tag, ai_region, ai_org
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
ON CONFLICT (collection, link) DO NOTHING`,
			collection, a.ArticleID, a.Title, a.Link, pq.Array(a.Keywords), pq.Array(a.Creator),
			a.VideoURL, a.Description, a.Content, a.PubDate, a.PubDateTZ, a.ImageURL,
			a.SourceID, a.SourcePriority, a.SourceName, a.SourceURL, a.SourceIcon,
			a.Language, pq.Array(a.Country), pq.Array(a.Category), pq.Array(a.AITag),
			a.AIRegion, a.AIOrg)
		if err != nil {
			// ON CONFLICT already absorbs the expected per-row failure,
			// so an error here is likely the connection, not the row.
			if partialOK && !connectionFailure(err) {
				continue
			}
			return inserted, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (s *Store) FindRecent(ctx context.Context, collection string, limit int) ([]domain.Article, error) {
	return s.scan(s.db.QueryContext(ctx,
		selectColumns+` WHERE collection = $1 ORDER BY pub_date DESC LIMIT $2`,
		collection, limit))
}

func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]domain.Article, error) {
	pattern := "%" + query + "%"
	return s.scan(s.db.QueryContext(ctx,
		selectColumns+` WHERE collection = $1 AND (title ILIKE $2 OR description ILIKE $2) ORDER BY pub_date DESC LIMIT $3`,
		collection, pattern, limit))
}

func (s *Store) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM articles WHERE collection = $1 AND pub_date < $2`,
		collection, cutoff.UTC().Format(domain.PubDateLayout))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return res.RowsAffected()
}

func (s *Store) ScanAll(ctx context.Context, collection string) ([]domain.Article, error) {
	return s.scan(s.db.QueryContext(ctx,
		selectColumns+` WHERE collection = $1`, collection))
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

// connectionFailure reports whether err means the store itself is gone
// rather than one row being rejected. SQLSTATE class 08 is connection
// exceptions.
func connectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08"
	}
	return false
}

const selectColumns = `
SELECT article_id, title, link, keywords, creator, video_url, description,
       content, pub_date, pub_date_tz, image_url, source_id, source_priority,
       source_name, source_url, source_icon, language, country, category,
       ai_tag, ai_region, ai_org
FROM articles`

func (s *Store) scan(rows *sql.Rows, err error) ([]domain.Article, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(
			&a.ArticleID, &a.Title, &a.Link, pq.Array(&a.Keywords), pq.Array(&a.Creator),
			&a.VideoURL, &a.Description, &a.Content, &a.PubDate, &a.PubDateTZ, &a.ImageURL,
			&a.SourceID, &a.SourcePriority, &a.SourceName, &a.SourceURL, &a.SourceIcon,
			&a.Language, pq.Array(&a.Country), pq.Array(&a.Category), pq.Array(&a.AITag),
			&a.AIRegion, &a.AIOrg,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
