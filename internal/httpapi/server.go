// Package httpapi is the thin HTTP surface over the ingestion core.
// Every response carries the success/message envelope; failures never
// leak a stack trace.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coinfeed/app"
	"coinfeed/domain"
	"coinfeed/internal/helper"
)

type Options struct {
	DefaultFeedURL    string
	DefaultCollection string
	// NewsAPIURL must carry both an apikey and a q query parameter.
	NewsAPIURL     string
	NewsCollection string
	// Collections names the feed collections swept and backed up.
	Collections   []string
	RetentionDays int
}

type Server struct {
	ingest    *app.IngestService
	trending  *app.TrendingService
	store     domain.ArticleStore
	refresher domain.Refresher
	opts      Options
	log       *slog.Logger
}

// New wires the API. refresher may be nil when background refresh is
// not configured; the control endpoints then answer 503.
func New(ingest *app.IngestService, trending *app.TrendingService, store domain.ArticleStore, refresher domain.Refresher, opts Options, log *slog.Logger) *Server {
	return &Server{
		ingest:    ingest,
		trending:  trending,
		store:     store,
		refresher: refresher,
		opts:      opts,
		log:       log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fetch-feed", s.handleFetchFeed)
	mux.HandleFunc("GET /fetch-news", s.handleFetchNews)
	mux.HandleFunc("GET /trending-news", s.handleTrending)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("POST /clear-old", s.handleClearOld)
	mux.HandleFunc("GET /backup", s.handleBackup)
	mux.HandleFunc("GET /blogs", s.handleBlogs)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /control/set-interval", s.handleSetInterval)
	mux.HandleFunc("POST /control/set-workers", s.handleSetWorkers)
	return withCORS(mux)
}

// feedResponse is the pipeline-run envelope.
type feedResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Data        []domain.Article `json:"data"`
	TotalItems  int              `json:"totalItems"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	Inserted    int              `json:"inserted"`
	Duplicates  int              `json:"duplicates"`
}

func (s *Server) handleFetchFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	feedURL := q.Get("url")
	if feedURL == "" {
		feedURL = s.opts.DefaultFeedURL
	}
	if feedURL == "" {
		s.fail(w, http.StatusBadRequest, "RSS feed URL is required", domain.ErrMissingField)
		return
	}
	if err := helper.ValidateFeedURL(feedURL); err != nil {
		s.fail(w, http.StatusBadRequest, "RSS feed URL is invalid", err)
		return
	}
	collection := q.Get("collection")
	if collection == "" {
		collection = s.opts.DefaultCollection
	}

	result, err := s.ingest.Ingest(r.Context(), app.IngestRequest{
		URL:        feedURL,
		Collection: collection,
		Format:     domain.FormatRSS,
		Page:       intParam(q.Get("page"), 1),
		Limit:      intParam(q.Get("limit"), 10),
	})
	if err != nil {
		s.fail(w, statusFor(err), "Failed to fetch RSS feed", err)
		return
	}
	s.writeIngestResult(w, result, fmt.Sprintf("Fetched and processed RSS feed items from %s", feedURL))
}

func (s *Server) handleFetchNews(w http.ResponseWriter, r *http.Request) {
	apiURL := s.opts.NewsAPIURL
	if !strings.Contains(apiURL, "apikey") || !strings.Contains(apiURL, "q") {
		s.fail(w, http.StatusBadRequest, "Invalid request parameters",
			fmt.Errorf("%w: API key and query parameter 'q' are required", domain.ErrMissingField))
		return
	}
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		collection = s.opts.NewsCollection
	}

	result, err := s.ingest.Ingest(r.Context(), app.IngestRequest{
		URL:        apiURL,
		Collection: collection,
		Format:     domain.FormatJSON,
		Page:       intParam(r.URL.Query().Get("page"), 1),
		Limit:      intParam(r.URL.Query().Get("limit"), 10),
	})
	if err != nil {
		s.fail(w, statusFor(err), "Failed to fetch data from the API", err)
		return
	}
	s.writeIngestResult(w, result, "Successfully fetched the data")
}

func (s *Server) writeIngestResult(w http.ResponseWriter, result *app.IngestResult, message string) {
	if result.TotalItems == 0 {
		message = "No items in feed"
	}
	writeJSON(w, http.StatusOK, feedResponse{
		Success:     true,
		Message:     message,
		Data:        result.Articles,
		TotalItems:  result.TotalItems,
		CurrentPage: result.Page,
		TotalPages:  result.TotalPages,
		Inserted:    result.Inserted,
		Duplicates:  result.Duplicates,
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	items, err := s.trending.Trending(r.Context())
	if err != nil {
		s.fail(w, statusFor(err), "Error fetching trending news", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Fetched trending news items",
		"data":    items,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.fail(w, http.StatusBadRequest, "Search query is required", domain.ErrMissingField)
		return
	}
	collection := q.Get("collection")
	if collection == "" {
		collection = s.opts.DefaultCollection
	}
	articles, err := s.store.Search(r.Context(), collection, query, intParam(q.Get("limit"), 20))
	if err != nil {
		s.fail(w, statusFor(err), "Error searching articles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("Found %d matching articles", len(articles)),
		"data":       articles,
		"totalItems": len(articles),
	})
}

func (s *Server) handleClearOld(w http.ResponseWriter, r *http.Request) {
	days := intParam(r.URL.Query().Get("days"), s.opts.RetentionDays)
	deleted, err := s.ingest.Sweep(r.Context(), s.opts.Collections, days)
	if err != nil {
		s.fail(w, statusFor(err), "Error clearing old data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Cleared %d old feed items", deleted),
	})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := s.ingest.Backup(r.Context(), s.opts.Collections)
	if err != nil {
		s.fail(w, statusFor(err), "Backup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Backup complete",
		"data":    backup,
	})
}

func (s *Server) handleBlogs(w http.ResponseWriter, r *http.Request) {
	blogs := []map[string]string{
		{
			"title":       "Comprehensive Guide To Crafting A Metaverse Avatar",
			"description": "In the fascinating realm of the metaverse, crafting a digital avatar is key to translating your virtual identity...",
			"author":      "Contributor Author",
			"date":        "April 16, 2024",
			"image":       "/web3.png?height=200&width=400&text=Metaverse",
		},
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": blogs})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "API is working!"})
}

func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.fail(w, http.StatusServiceUnavailable, "Background refresh is not configured", errors.New("no refresher"))
		return
	}
	var req struct {
		Duration string `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid duration", err)
		return
	}
	old := s.refresher.CurrentInterval()
	s.refresher.SetInterval(d)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "old": old.String(), "new": d.String()})
}

func (s *Server) handleSetWorkers(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.fail(w, http.StatusServiceUnavailable, "Background refresh is not configured", errors.New("no refresher"))
		return
	}
	var req struct {
		Workers int `json:"workers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	old := s.refresher.CurrentWorkers()
	if err := s.refresher.Resize(req.Workers); err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid worker count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "old": old, "new": req.Workers})
}

func (s *Server) fail(w http.ResponseWriter, status int, message string, err error) {
	s.log.Warn("request failed", "status", status, "message", message, "error", err)
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrMissingField) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
