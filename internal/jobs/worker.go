package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/boomdev/boom-scraper/internal/queue"
)

// workerBatchSize bounds how many queued URLs one loop iteration claims.
// The scraper reuses its browser across fetches, so claiming a batch keeps
// one session warm for the whole group.
const workerBatchSize = 5

// StartWorker consumes tasks until the context is cancelled or the queue is
// closed. Run it in its own goroutine.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")
	batch := queue.NewBatchQueue(m.queue, workerBatchSize)
	for {
		tasks, err := batch.PopBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				m.logger.Info("job worker stopping", "reason", "context cancelled")
				return
			}
			m.logger.Info("job worker stopping", "reason", err)
			return
		}

		for _, task := range tasks {
			if ctx.Err() != nil {
				m.logger.Info("job worker stopping", "reason", "context cancelled")
				return
			}
			m.process(ctx, task.JobID, task.URL)
		}
	}
}

func (m *Manager) process(ctx context.Context, jobID, url string) {
	m.markRunning(jobID)

	s := m.scraperFor(url)
	if s == nil {
		m.recordResult(jobID, URLResult{URL: url, Status: "failed", Error: "no scraper for URL"})
		return
	}

	record, err := s.ScrapeProduct(ctx, url)
	if err != nil {
		m.logger.Warn("scrape failed", "job_id", jobID, "url", url, "error", err)
		m.recordResult(jobID, URLResult{URL: url, Status: "failed", Error: err.Error()})
		return
	}

	result := URLResult{URL: url, Status: "scraped", Record: record}
	if record.IsEmpty() {
		result.Status = "empty"
	} else if m.sink != nil {
		if ok, _, postErr := m.sink.Post(ctx, record); !ok {
			m.logger.Warn("post failed", "job_id", jobID, "url", url, "error", postErr)
			result.Status = "post_failed"
			if postErr != nil {
				result.Error = postErr.Error()
			}
		} else {
			result.Status = "posted"
		}
	}

	m.recordResult(jobID, result)
}

func (m *Manager) markRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok || job.Status != StatusPending {
		return
	}
	now := time.Now()
	job.Status = StatusRunning
	job.StartedAt = &now
}

func (m *Manager) recordResult(jobID string, result URLResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	job.Results = append(job.Results, result)
	if result.Status == "failed" || result.Status == "post_failed" {
		job.Failed++
	} else {
		job.Completed++
	}

	if len(job.Results) == len(job.URLs) {
		now := time.Now()
		job.CompletedAt = &now
		if job.Failed == len(job.URLs) {
			job.Status = StatusFailed
		} else {
			job.Status = StatusCompleted
		}
	}
}
