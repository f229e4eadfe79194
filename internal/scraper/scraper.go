package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/models"
	"github.com/boomdev/boom-scraper/internal/parser"
)

// ErrUnsupportedURL is returned when a scraper is asked for a URL outside
// its site's domain.
var ErrUnsupportedURL = errors.New("unsupported URL")

// Crawler fetches rendered pages. *browser.Session satisfies it.
type Crawler interface {
	FetchWithRetries(ctx context.Context, url string, maxAttempts int) *browser.FetchResult
	Cleanup() error
}

// Scraper binds one site's extractor to a crawler and turns product URLs
// into full product records.
type Scraper struct {
	crawler     Crawler
	extractor   parser.Extractor
	logger      *slog.Logger
	maxAttempts int
}

func New(crawler Crawler, extractor parser.Extractor) *Scraper {
	return &Scraper{
		crawler:     crawler,
		extractor:   extractor,
		logger:      slog.Default().With("component", "scraper", "site", extractor.Domain()),
		maxAttempts: 3,
	}
}

// WithMaxAttempts overrides how many fetch attempts each URL gets.
func (s *Scraper) WithMaxAttempts(n int) *Scraper {
	if n >= 1 {
		s.maxAttempts = n
	}
	return s
}

func (s *Scraper) Domain() string {
	return s.extractor.Domain()
}

// CanHandleURL reports whether this scraper's site serves the given URL.
func (s *Scraper) CanHandleURL(url string) bool {
	return strings.Contains(url, s.extractor.Domain())
}

// ScrapeProduct fetches a product page and extracts every field. A fetch
// that exhausts its retries yields an empty record rather than an error so
// batch runs keep a row per URL; extraction failures always propagate.
func (s *Scraper) ScrapeProduct(ctx context.Context, url string) (*models.ProductRecord, error) {
	if !s.CanHandleURL(url) {
		return nil, fmt.Errorf("%w: %s cannot handle %s", ErrUnsupportedURL, s.extractor.Domain(), url)
	}

	s.logger.Info("scraping product", "url", url)

	result := s.crawler.FetchWithRetries(ctx, url, s.maxAttempts)
	if !result.OK() {
		s.logger.Warn("fetch failed, returning empty record", "url", url, "error", result.Error)
		return models.EmptyRecord(url), nil
	}

	record, err := s.extract(result)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", url, err)
	}
	record.SourceURL = url
	record.URL = url

	s.logger.Info("product scraped", "url", url, "title", record.Title)
	return record, nil
}

func (s *Scraper) extract(content *browser.FetchResult) (*models.ProductRecord, error) {
	record := &models.ProductRecord{}
	var err error

	if record.Title, err = s.extractor.ExtractTitle(content); err != nil {
		return nil, err
	}
	if record.Price, err = s.extractor.ExtractPrice(content); err != nil {
		return nil, err
	}
	if record.Currency, err = s.extractor.ExtractCurrency(content); err != nil {
		return nil, err
	}
	if record.Images, err = s.extractor.ExtractImages(content); err != nil {
		return nil, err
	}
	if record.Category, err = s.extractor.ExtractCategory(content); err != nil {
		return nil, err
	}
	if record.Description, err = s.extractor.ExtractDescription(content); err != nil {
		return nil, err
	}
	if record.Specifications, err = s.extractor.ExtractSpecifications(content); err != nil {
		return nil, err
	}
	if record.SizeInfo, err = s.extractor.ExtractSizeInfo(content); err != nil {
		return nil, err
	}
	if record.ColorOptions, err = s.extractor.ExtractColorOptions(content); err != nil {
		return nil, err
	}
	if record.ReviewsSummary, err = s.extractor.ExtractReviewsSummary(content); err != nil {
		return nil, err
	}
	return record, nil
}

// Cleanup releases the underlying crawler's browser resources.
func (s *Scraper) Cleanup() error {
	return s.crawler.Cleanup()
}
