package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/boomdev/boom-scraper/internal/models"
	"github.com/boomdev/boom-scraper/internal/validator"
)

// Poster delivers validated product records to a downstream ingestion API.
type Poster struct {
	apiURL  string
	headers map[string]string
	client  *http.Client
	logger  *slog.Logger
}

// Options configures authentication and the HTTP timeout for a Poster.
type Options struct {
	APIKey      string
	BearerToken string
	Timeout     time.Duration
}

// PostResponse carries the downstream API's reply.
type PostResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
}

func New(apiURL string, opts Options) *Poster {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if opts.APIKey != "" {
		headers["X-API-Key"] = opts.APIKey
	}
	if opts.BearerToken != "" {
		headers["Authorization"] = "Bearer " + opts.BearerToken
	}

	return &Poster{
		apiURL:  strings.TrimRight(apiURL, "/"),
		headers: headers,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "sink"),
	}
}

// Post validates a record and delivers it as JSON. A record that fails
// validation is rejected without touching the network.
func (p *Poster) Post(ctx context.Context, record *models.ProductRecord) (bool, *PostResponse, error) {
	ok, normalized, reason := validator.Validate(record)
	if !ok {
		p.logger.Warn("record rejected before posting", "reason", reason)
		return false, nil, fmt.Errorf("record failed validation: %s", reason)
	}

	body, err := json.Marshal(normalized)
	if err != nil {
		return false, nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return false, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range p.headers {
		req.Header.Set(name, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("failed to post record: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	postResp := &PostResponse{StatusCode: resp.StatusCode, Body: respBody}

	if resp.StatusCode >= 400 {
		p.logger.Warn("sink rejected record", "status", resp.StatusCode, "url", normalized.SourceURL)
		return false, postResp, fmt.Errorf("sink returned status %d", resp.StatusCode)
	}

	p.logger.Info("record posted", "status", resp.StatusCode, "url", normalized.SourceURL)
	return true, postResp, nil
}

// HealthCheck reports whether the sink's health endpoint answers 2xx.
func (p *Poster) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
