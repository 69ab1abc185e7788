package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"coinfeed/domain"
)

// RefresherService periodically re-runs the ingest pipeline over a
// fixed set of feeds using a resizable worker pool. It is the external
// timer the request-scoped pipeline allows for; the pipeline itself
// stays unchanged.
type RefresherService struct {
	ingest *IngestService
	feeds  []domain.FeedRef
	log    *slog.Logger

	mu             sync.Mutex
	interval       time.Duration
	workers        int
	jobs           chan domain.FeedRef
	ctx            context.Context
	cancel         context.CancelFunc
	tickerStopChan chan struct{}
	started        bool
	workerCancels  []context.CancelFunc
}

func NewRefresher(ingest *IngestService, feeds []domain.FeedRef, interval time.Duration, workers int, log *slog.Logger) *RefresherService {
	return &RefresherService{ingest: ingest, feeds: feeds, interval: interval, workers: workers, log: log}
}

func (r *RefresherService) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("refresher already started")
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	if r.jobs == nil {
		r.jobs = make(chan domain.FeedRef)
	}
	r.tickerStopChan = make(chan struct{})
	r.workerCancels = nil
	r.startWorkers(r.workers)
	go r.loop()
	r.started = true
	return nil
}

func (r *RefresherService) Stop() error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	stopCh := r.tickerStopChan
	cancels := append([]context.CancelFunc(nil), r.workerCancels...)
	r.started = false
	r.mu.Unlock()

	close(stopCh)
	cancel()
	for _, c := range cancels {
		c()
	}
	return nil
}

func (r *RefresherService) SetInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.interval = d
		return
	}
	close(r.tickerStopChan)
	r.tickerStopChan = make(chan struct{})
	r.interval = d
}

func (r *RefresherService) Resize(workers int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Without a running pool there is nothing to grow or shrink; the
	// count takes effect on the next Start.
	if !r.started {
		r.workers = workers
		return nil
	}
	if r.workers == workers {
		return nil
	}
	if workers > r.workers {
		r.startWorkers(workers - r.workers)
	} else {
		for i := 0; i < r.workers-workers && len(r.workerCancels) > 0; i++ {
			idx := len(r.workerCancels) - 1
			c := r.workerCancels[idx]
			r.workerCancels = r.workerCancels[:idx]
			c()
		}
	}
	r.workers = workers
	return nil
}

func (r *RefresherService) CurrentInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

func (r *RefresherService) CurrentWorkers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workers
}

func (r *RefresherService) loop() {
	for {
		r.mu.Lock()
		interval := r.interval
		stopCh := r.tickerStopChan
		jobs := r.jobs
		r.mu.Unlock()

		ticker := time.NewTicker(interval)
		select {
		case <-r.ctx.Done():
			ticker.Stop()
			return
		case <-stopCh:
			ticker.Stop()
			continue
		case <-ticker.C:
			ticker.Stop()
		}

		for _, f := range r.feeds {
			select {
			case jobs <- f:
			case <-r.ctx.Done():
				return
			}
		}
	}
}

func (r *RefresherService) startWorkers(count int) {
	for i := 0; i < count; i++ {
		wctx, cancel := context.WithCancel(r.ctx)
		r.workerCancels = append(r.workerCancels, cancel)
		go r.worker(wctx)
	}
}

func (r *RefresherService) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-r.jobs:
			if !ok {
				return
			}
			_, err := r.ingest.Ingest(ctx, IngestRequest{
				URL:        f.URL,
				Collection: f.Collection,
				Format:     f.Format,
				Page:       1,
				Limit:      100,
			})
			if err != nil {
				r.log.Warn("refresh failed", "feed", f.Name, "url", f.URL, "error", err)
			}
		}
	}
}
