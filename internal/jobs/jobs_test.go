package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomdev/boom-scraper/internal/models"
	"github.com/boomdev/boom-scraper/internal/queue"
	"github.com/boomdev/boom-scraper/internal/sink"
)

type fakeScraper struct {
	domain  string
	mu      sync.Mutex
	scraped []string
	fail    map[string]error
	empty   map[string]bool
}

func newFakeScraper(domain string) *fakeScraper {
	return &fakeScraper{domain: domain, fail: map[string]error{}, empty: map[string]bool{}}
}

func (f *fakeScraper) CanHandleURL(url string) bool {
	return strings.Contains(url, f.domain)
}

func (f *fakeScraper) ScrapeProduct(_ context.Context, url string) (*models.ProductRecord, error) {
	f.mu.Lock()
	f.scraped = append(f.scraped, url)
	f.mu.Unlock()

	if err := f.fail[url]; err != nil {
		return nil, err
	}
	if f.empty[url] {
		return models.EmptyRecord(url), nil
	}
	return &models.ProductRecord{Title: "Product", Price: "9.99", SourceURL: url, URL: url}, nil
}

type fakeSink struct {
	mu     sync.Mutex
	posted []string
	err    error
}

func (f *fakeSink) Post(_ context.Context, record *models.ProductRecord) (bool, *sink.PostResponse, error) {
	f.mu.Lock()
	f.posted = append(f.posted, record.SourceURL)
	f.mu.Unlock()
	if f.err != nil {
		return false, nil, f.err
	}
	return true, &sink.PostResponse{StatusCode: 201}, nil
}

func newManager(t *testing.T, scrapers []ProductScraper, s Sink) *Manager {
	t.Helper()
	m := New(queue.NewInMemoryQueue(), scrapers, s)
	t.Cleanup(func() { m.Close() })
	return m
}

func waitForStatus(t *testing.T, m *Manager, jobID string, want ...JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.GetJob(jobID)
		require.NoError(t, err)
		for _, status := range want {
			if job.Status == status {
				return job
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %v", jobID, want)
	return nil
}

func TestCreateJobQueuesTasks(t *testing.T) {
	m := newManager(t, []ProductScraper{newFakeScraper("temu.com")}, nil)

	job, err := m.CreateJob([]string{
		"https://www.temu.com/a.html",
		"https://www.temu.com/b.html",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 2, m.Stats().QueuedURLs)
}

func TestCreateJobRejectsUnsupportedURL(t *testing.T) {
	m := newManager(t, []ProductScraper{newFakeScraper("temu.com")}, nil)

	_, err := m.CreateJob([]string{"https://www.amazon.com/dp/B000000000"})
	assert.Error(t, err)
}

func TestCreateJobRejectsEmptyURLList(t *testing.T) {
	m := newManager(t, []ProductScraper{newFakeScraper("temu.com")}, nil)

	_, err := m.CreateJob(nil)
	assert.Error(t, err)
}

func TestGetJobUnknownID(t *testing.T) {
	m := newManager(t, []ProductScraper{newFakeScraper("temu.com")}, nil)

	_, err := m.GetJob("nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestWorkerCompletesJob(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	m := newManager(t, []ProductScraper{scraper}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{
		"https://www.temu.com/a.html",
		"https://www.temu.com/b.html",
	})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 2, done.Completed)
	assert.Zero(t, done.Failed)
	assert.Len(t, done.Results, 2)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	for _, result := range done.Results {
		assert.Equal(t, "scraped", result.Status)
		assert.NotNil(t, result.Record)
	}
}

func TestWorkerRecordsFailures(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	scraper.fail["https://www.temu.com/bad.html"] = errors.New("extraction failed")
	m := newManager(t, []ProductScraper{scraper}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{
		"https://www.temu.com/good.html",
		"https://www.temu.com/bad.html",
	})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, 1, done.Completed)
	assert.Equal(t, 1, done.Failed)
}

func TestWorkerAllFailuresMarksJobFailed(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	scraper.fail["https://www.temu.com/bad.html"] = errors.New("extraction failed")
	m := newManager(t, []ProductScraper{scraper}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{"https://www.temu.com/bad.html"})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Equal(t, 1, done.Failed)
}

func TestWorkerPostsToSink(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	downstream := &fakeSink{}
	m := newManager(t, []ProductScraper{scraper}, downstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{"https://www.temu.com/a.html"})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, "posted", done.Results[0].Status)
	assert.Equal(t, []string{"https://www.temu.com/a.html"}, downstream.posted)
}

func TestWorkerSkipsSinkForEmptyRecords(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	scraper.empty["https://www.temu.com/gone.html"] = true
	downstream := &fakeSink{}
	m := newManager(t, []ProductScraper{scraper}, downstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{"https://www.temu.com/gone.html"})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusCompleted)
	assert.Equal(t, "empty", done.Results[0].Status)
	assert.Empty(t, downstream.posted)
}

func TestWorkerRecordsSinkFailure(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	downstream := &fakeSink{err: errors.New("sink returned status 502")}
	m := newManager(t, []ProductScraper{scraper}, downstream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.StartWorker(ctx)

	job, err := m.CreateJob([]string{"https://www.temu.com/a.html"})
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusFailed)
	assert.Equal(t, "post_failed", done.Results[0].Status)
	assert.Contains(t, done.Results[0].Error, "502")
}

func TestWorkerStopsOnCancelWhileParked(t *testing.T) {
	scraper := newFakeScraper("temu.com")
	m := newManager(t, []ProductScraper{scraper}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.StartWorker(ctx)
		close(stopped)
	}()

	// Let a job run through, then cancel while the worker is parked on an
	// empty queue. This is the server's SIGTERM path.
	job, err := m.CreateJob([]string{"https://www.temu.com/a.html"})
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, StatusCompleted)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	m := newManager(t, []ProductScraper{newFakeScraper("temu.com")}, nil)

	job, err := m.CreateJob([]string{"https://www.temu.com/a.html"})
	require.NoError(t, err)

	job.URLs[0] = "mutated"
	fresh, err := m.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://www.temu.com/a.html", fresh.URLs[0])
}
