package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boomdev/boom-scraper/internal/models"
	"github.com/boomdev/boom-scraper/internal/queue"
	"github.com/boomdev/boom-scraper/internal/sink"
)

var ErrJobNotFound = errors.New("job not found")

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ProductScraper is the slice of the scraper API the job worker needs.
// *scraper.Scraper satisfies it.
type ProductScraper interface {
	CanHandleURL(url string) bool
	ScrapeProduct(ctx context.Context, url string) (*models.ProductRecord, error)
}

// Sink delivers finished records downstream. *sink.Poster satisfies it.
type Sink interface {
	Post(ctx context.Context, record *models.ProductRecord) (bool, *sink.PostResponse, error)
}

// URLResult is the per-URL outcome within a job.
type URLResult struct {
	URL    string                `json:"url"`
	Status string                `json:"status"`
	Error  string                `json:"error,omitempty"`
	Record *models.ProductRecord `json:"record,omitempty"`
}

// Job tracks a batch of product URLs through scraping.
type Job struct {
	ID          string      `json:"id"`
	Status      JobStatus   `json:"status"`
	URLs        []string    `json:"urls"`
	Completed   int         `json:"completed"`
	Failed      int         `json:"failed"`
	Results     []URLResult `json:"results"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Stats summarizes the manager's state for the health endpoint.
type Stats struct {
	Jobs       int `json:"jobs"`
	QueuedURLs int `json:"queued_urls"`
}

// Manager owns the job table and the task queue feeding the worker.
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	queue    queue.Queue
	scrapers []ProductScraper
	sink     Sink
	logger   *slog.Logger
}

// New creates a Manager. sink may be nil when no downstream API is
// configured.
func New(q queue.Queue, scrapers []ProductScraper, sink Sink) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		queue:    q,
		scrapers: scrapers,
		sink:     sink,
		logger:   slog.Default().With("component", "jobs"),
	}
}

// CreateJob registers a job for the given URLs and queues one task per URL.
func (m *Manager) CreateJob(urls []string) (*Job, error) {
	if len(urls) == 0 {
		return nil, errors.New("job needs at least one URL")
	}
	for _, url := range urls {
		if !m.canHandle(url) {
			return nil, fmt.Errorf("no scraper can handle %s", url)
		}
	}

	job := &Job{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		URLs:      urls,
		Results:   make([]URLResult, 0, len(urls)),
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	for _, url := range urls {
		task := &queue.Task{
			ID:        uuid.New().String(),
			JobID:     job.ID,
			URL:       url,
			CreatedAt: time.Now(),
		}
		if err := m.queue.Push(task); err != nil {
			return nil, fmt.Errorf("failed to queue %s: %w", url, err)
		}
	}

	m.logger.Info("job created", "job_id", job.ID, "urls", len(urls))
	return m.snapshot(job.ID)
}

// GetJob returns a copy of the job's current state.
func (m *Manager) GetJob(id string) (*Job, error) {
	return m.snapshot(id)
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Jobs: len(m.jobs), QueuedURLs: m.queue.Size()}
}

// Close stops accepting tasks and unblocks the worker.
func (m *Manager) Close() error {
	return m.queue.Close()
}

func (m *Manager) canHandle(url string) bool {
	for _, s := range m.scrapers {
		if s.CanHandleURL(url) {
			return true
		}
	}
	return false
}

func (m *Manager) scraperFor(url string) ProductScraper {
	for _, s := range m.scrapers {
		if s.CanHandleURL(url) {
			return s
		}
	}
	return nil
}

// snapshot copies a job under the read lock so callers never share the
// worker's mutable state.
func (m *Manager) snapshot(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	copied := *job
	copied.URLs = append([]string(nil), job.URLs...)
	copied.Results = append([]URLResult(nil), job.Results...)
	return &copied, nil
}
