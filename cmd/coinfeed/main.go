package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"coinfeed/adapter/feed"
	"coinfeed/adapter/mongo"
	"coinfeed/adapter/postgres"
	"coinfeed/app"
	"coinfeed/domain"
	"coinfeed/internal/config"
	"coinfeed/internal/control"
	"coinfeed/internal/httpapi"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "--help", "-h", "help":
		printHelp()
		return
	case "serve":
		err = cmdServe()
	case "sweep":
		err = cmdSweep(args)
	case "backup":
		err = cmdBackup()
	case "trending":
		err = cmdTrending()
	case "set-interval":
		err = cmdSetInterval(args)
	case "set-workers":
		err = cmdSetWorkers(args)
	default:
		fmt.Printf("unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`Usage:
  coinfeed COMMAND [OPTIONS]

Commands:
   serve           start the feed ingestion HTTP API
   sweep           delete feed items older than the retention window [--days N]
   backup          dump all feed collections as JSON to stdout
   trending        print the current trending view
   set-interval    set the background refresh interval (e.g. 2m)
   set-workers     set the background refresh worker count
   help            show this help
`)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); strings.EqualFold(v, "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func openStore(ctx context.Context, cfg config.Config) (domain.ArticleStore, error) {
	switch cfg.StoreDriver {
	case "mongo":
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx, storeCollections(cfg)); err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)
		store, err := postgres.Open(dsn)
		if err != nil {
			return nil, err
		}
		if err := store.Ensure(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func storeCollections(cfg config.Config) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if _, ok := seen[n]; ok || n == "" {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	add(cfg.DefaultCollection, cfg.NewsCollection)
	add(cfg.TrendingCollections...)
	add(cfg.RetentionCollections...)
	for _, f := range cfg.RefreshFeeds {
		add(f.Collection)
	}
	return out
}

func buildIngest(cfg config.Config, store domain.ArticleStore, log *slog.Logger) *app.IngestService {
	fetcher := feed.NewHTTPFetcher(cfg.FetchTimeout)
	return app.NewIngestService(fetcher, feed.NewParser(), store, log)
}

func cmdServe() error {
	cfg := config.Load()
	log := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	ingest := buildIngest(cfg, store, log)
	trending := app.NewTrendingService(store, cfg.TrendingCollections, log)

	var refresher domain.Refresher
	if len(cfg.RefreshFeeds) > 0 {
		r := app.NewRefresher(ingest, cfg.RefreshFeeds, cfg.RefreshInterval, cfg.RefreshWorkers, log)
		if err := r.Start(ctx); err != nil {
			return err
		}
		defer r.Stop()
		refresher = r
		log.Info("background refresher started",
			"feeds", len(cfg.RefreshFeeds),
			"interval", cfg.RefreshInterval.String(),
			"workers", cfg.RefreshWorkers)
	}

	api := httpapi.New(ingest, trending, store, refresher, httpapi.Options{
		DefaultFeedURL:    cfg.DefaultFeedURL,
		DefaultCollection: cfg.DefaultCollection,
		NewsAPIURL:        cfg.NewsAPIURL,
		NewsCollection:    cfg.NewsCollection,
		Collections:       cfg.RetentionCollections,
		RetentionDays:     cfg.RetentionDays,
	}, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("server listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("graceful shutdown complete")
	return nil
}

func cmdSweep(args []string) error {
	cfg := config.Load()
	log := newLogger()

	fset := flag.NewFlagSet("sweep", flag.ContinueOnError)
	days := fset.Int("days", cfg.RetentionDays, "retention window in days")
	if err := fset.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	deleted, err := buildIngest(cfg, store, log).Sweep(ctx, cfg.RetentionCollections, *days)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d feed items older than %d days\n", deleted, *days)
	return nil
}

func cmdBackup() error {
	cfg := config.Load()
	log := newLogger()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	backup, err := buildIngest(cfg, store, log).Backup(ctx, cfg.RetentionCollections)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(backup)
}

func cmdTrending() error {
	cfg := config.Load()
	log := newLogger()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	items, err := app.NewTrendingService(store, cfg.TrendingCollections, log).Trending(ctx)
	if err != nil {
		return err
	}
	for i, item := range items {
		fmt.Printf("%d. [%s] %s\n   %s\n\n", i+1, item.PubDate, item.Title, item.Description)
	}
	return nil
}

func cmdSetInterval(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: coinfeed set-interval DURATION (e.g., 2m)")
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	c := control.NewClient(controlAddr())
	old, err := c.SetInterval(d)
	if err != nil {
		return err
	}
	fmt.Printf("Refresh interval changed from %s to %s\n", old.String(), d.String())
	return nil
}

func cmdSetWorkers(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: coinfeed set-workers COUNT")
	}
	var n int
	if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil || n <= 0 {
		return fmt.Errorf("invalid workers count: %v", args[0])
	}
	c := control.NewClient(controlAddr())
	old, err := c.SetWorkers(n)
	if err != nil {
		return err
	}
	fmt.Printf("Refresh workers changed from %d to %d\n", old, n)
	return nil
}

func controlAddr() string {
	addr := config.Load().HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return addr
}
