package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/boomdev/boom-scraper/internal/jobs"
	"github.com/boomdev/boom-scraper/internal/scraper"
	"github.com/boomdev/boom-scraper/internal/sink"
)

type Handlers struct {
	registry *scraper.Registry
	jobs     *jobs.Manager
	sink     *sink.Poster
	logger   *slog.Logger
}

// NewHandlers wires the HTTP surface. sink may be nil when no downstream
// API is configured.
func NewHandlers(registry *scraper.Registry, jobs *jobs.Manager, sink *sink.Poster, logger *slog.Logger) *Handlers {
	return &Handlers{
		registry: registry,
		jobs:     jobs,
		sink:     sink,
		logger:   logger,
	}
}

// ScrapeRequest asks for a single product to be scraped synchronously.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeProduct scrapes one URL in the request's lifetime and returns the
// extracted record.
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	s, err := h.registry.ForURL(req.URL)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.ScrapeProduct(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to scrape product", "error", err, "url", req.URL)
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// CreateJobRequest submits a batch of product URLs.
type CreateJobRequest struct {
	URLs []string `json:"urls"`
}

// CreateJobResponse acknowledges an accepted job.
type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	URLs   int    `json:"urls"`
}

// CreateJob queues a batch scraping job and returns immediately.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	job, err := h.jobs.CreateJob(req.URLs)
	if err != nil {
		h.logger.Error("failed to create job", "error", err)
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateJobResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		URLs:   len(job.URLs),
	})
}

// GetJob returns a job's current state including per-URL results.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.jobs.GetJob(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			h.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("failed to get job", "error", err, "job_id", jobID)
		h.respondError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// Health reports service liveness, queue depth, and sink reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.Stats()

	health := map[string]any{
		"status":      "ok",
		"jobs":        stats.Jobs,
		"queued_urls": stats.QueuedURLs,
	}

	status := http.StatusOK
	if h.sink != nil {
		if h.sink.HealthCheck(r.Context()) {
			health["sink"] = "ok"
		} else {
			health["sink"] = "unreachable"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
