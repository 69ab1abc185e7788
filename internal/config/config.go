package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"coinfeed/domain"
)

type Config struct {
	HTTPAddr string

	// StoreDriver selects the ArticleStore adapter: "mongo" or "postgres".
	StoreDriver string

	MongoURI      string
	MongoDatabase string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string

	DefaultFeedURL    string
	DefaultCollection string
	NewsAPIURL        string
	NewsCollection    string

	TrendingCollections  []string
	RetentionCollections []string
	RetentionDays        int

	FetchTimeout time.Duration

	RefreshInterval time.Duration
	RefreshWorkers  int
	RefreshFeeds    []domain.FeedRef
}

func Load() Config {
	return Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":10000"),
		StoreDriver:       getenv("STORE_DRIVER", "mongo"),
		MongoURI:          getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getenv("MONGODB_DATABASE", "coins"),
		PGHost:            getenv("POSTGRES_HOST", "localhost"),
		PGPort:            parseIntEnv("POSTGRES_PORT", 5432),
		PGUser:            getenv("POSTGRES_USER", "postgres"),
		PGPassword:        getenv("POSTGRES_PASSWORD", "changeme"),
		PGDatabase:        getenv("POSTGRES_DBNAME", "coinfeed"),
		DefaultFeedURL:    getenv("DEFAULT_FEED_URL", "https://cryptoslate.com/feed/"),
		DefaultCollection: getenv("DEFAULT_COLLECTION", "rssfeeds"),
		NewsAPIURL:        os.Getenv("NEWS_API_URL"),
		NewsCollection:    getenv("NEWS_COLLECTION", "coinscap"),
		TrendingCollections: splitEnv("TRENDING_COLLECTIONS",
			[]string{"coinscap", "rssfeeds", "rssfeeds1"}),
		RetentionCollections: splitEnv("RETENTION_COLLECTIONS",
			[]string{"rssfeeds", "rssfeeds1"}),
		RetentionDays:   parseIntEnv("RETENTION_DAYS", 30),
		FetchTimeout:    parseDurationEnv("FETCH_TIMEOUT", 10*time.Second),
		RefreshInterval: parseDurationEnv("REFRESH_INTERVAL", 3*time.Minute),
		RefreshWorkers:  parseIntEnv("REFRESH_WORKERS", 3),
		RefreshFeeds:    parseFeedsEnv("REFRESH_FEEDS"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parseFeedsEnv reads the refresher feed list, one feed per
// semicolon-separated entry shaped name|url|collection[|json].
func parseFeedsEnv(key string) []domain.FeedRef {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var feeds []domain.FeedRef
	for _, entry := range strings.Split(v, ";") {
		fields := strings.Split(strings.TrimSpace(entry), "|")
		if len(fields) < 3 || fields[1] == "" || fields[2] == "" {
			continue
		}
		ref := domain.FeedRef{
			Name:       fields[0],
			URL:        fields[1],
			Collection: fields[2],
			Format:     domain.FormatRSS,
		}
		if len(fields) > 3 && strings.EqualFold(fields[3], "json") {
			ref.Format = domain.FormatJSON
		}
		feeds = append(feeds, ref)
	}
	return feeds
}
