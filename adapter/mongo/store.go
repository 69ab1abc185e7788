// Package mongo implements the article store on MongoDB, one logical
// collection per feed family. The unique index on link is what resolves
// duplicate-insert races between concurrent pipeline runs.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coinfeed/domain"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the unique link index on each collection the
// pipeline writes to.
func (s *Store) EnsureIndexes(ctx context.Context, collections []string) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "link", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, name := range collections {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create link index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) ExistingLinks(ctx context.Context, collection string, links []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(links))
	if len(links) == 0 {
		return existing, nil
	}

	filter := bson.M{"link": bson.M{"$in": links}}
	opts := options.Find().SetProjection(bson.M{"link": 1})
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			Link string `bson:"link"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		existing[row.Link] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return existing, nil
}

func (s *Store) InsertMany(ctx context.Context, collection string, articles []domain.Article, partialOK bool) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, a)
	}

	// Unordered inserts keep going past individual failures, e.g. a
	// racing run that already claimed a link.
	opts := options.InsertMany().SetOrdered(!partialOK)
	res, err := s.db.Collection(collection).InsertMany(ctx, docs, opts)
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if partialOK && errors.As(err, &bulkErr) {
			inserted := 0
			if res != nil {
				inserted = len(res.InsertedIDs)
			}
			return inserted, nil
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return len(res.InsertedIDs), nil
}

func (s *Store) FindRecent(ctx context.Context, collection string, limit int) ([]domain.Article, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "pubDate", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, collection, bson.M{}, opts)
}

func (s *Store) Search(ctx context.Context, collection, query string, limit int) ([]domain.Article, error) {
	pattern := primitive.Regex{Pattern: regexEscape(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"description": pattern},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "pubDate", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, collection, filter, opts)
}

func (s *Store) DeleteOlderThan(ctx context.Context, collection string, cutoff time.Time) (int64, error) {
	filter := bson.M{"pubDate": bson.M{"$lt": cutoff.UTC().Format(domain.PubDateLayout)}}
	res, err := s.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) ScanAll(ctx context.Context, collection string) ([]domain.Article, error) {
	return s.find(ctx, collection, bson.M{}, options.Find())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) find(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]domain.Article, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var out []domain.Article
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return out, nil
}

// regexEscape neutralizes regex metacharacters so search stays a plain
// substring match.
func regexEscape(s string) string {
	escaped := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(escaped)
}
