package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boomdev/boom-scraper/internal/botdefense"
	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/config"
	"github.com/boomdev/boom-scraper/internal/models"
	"github.com/boomdev/boom-scraper/internal/parser"
	"github.com/boomdev/boom-scraper/internal/scraper"
	"github.com/boomdev/boom-scraper/internal/sink"
)

type urlResult struct {
	URL    string                `json:"url"`
	Error  string                `json:"error,omitempty"`
	Posted bool                  `json:"posted,omitempty"`
	Record *models.ProductRecord `json:"record,omitempty"`
}

func main() {
	post := flag.Bool("post", false, "post scraped records to the configured sink API")
	pretty := flag.Bool("pretty", true, "indent JSON output")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scrape [-post] [-pretty=false] <product-url> ...")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("failed to build scrapers", "error", err)
		os.Exit(1)
	}
	defer registry.Cleanup()

	var poster *sink.Poster
	if *post {
		if cfg.Sink.APIURL == "" {
			logger.Error("-post requires SINK_API_URL")
			os.Exit(1)
		}
		poster = sink.New(cfg.Sink.APIURL, sink.Options{
			APIKey:      cfg.Sink.APIKey,
			BearerToken: cfg.Sink.BearerToken,
			Timeout:     cfg.Sink.Timeout,
		})
	}

	results := make([]urlResult, 0, len(urls))
	failed := false
	for _, url := range urls {
		result := scrapeOne(ctx, registry, poster, url)
		if result.Error != "" {
			failed = true
		}
		results = append(results, result)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		logger.Error("failed to encode output", "error", err)
		os.Exit(1)
	}

	if failed {
		os.Exit(1)
	}
}

func scrapeOne(ctx context.Context, registry *scraper.Registry, poster *sink.Poster, url string) urlResult {
	s, err := registry.ForURL(url)
	if err != nil {
		return urlResult{URL: url, Error: err.Error()}
	}

	record, err := s.ScrapeProduct(ctx, url)
	if err != nil {
		return urlResult{URL: url, Error: err.Error()}
	}

	result := urlResult{URL: url, Record: record}
	if poster != nil && !record.IsEmpty() {
		ok, _, postErr := poster.Post(ctx, record)
		result.Posted = ok
		if postErr != nil {
			result.Error = postErr.Error()
		}
	}
	return result
}

func buildRegistry(cfg *config.Config) (*scraper.Registry, error) {
	extractors := map[string]parser.Extractor{
		"shein": parser.NewShein(),
		"temu":  parser.NewTemu(),
	}

	var scrapers []*scraper.Scraper
	for _, site := range cfg.Scraper.Sites {
		extractor, ok := extractors[site]
		if !ok {
			return nil, fmt.Errorf("unknown site %q", site)
		}

		defense, err := botdefense.New(botdefense.Config{
			MinDelay:          cfg.Defense.MinDelay,
			MaxDelay:          cfg.Defense.MaxDelay,
			UserAgentType:     cfg.Defense.UserAgentType,
			Proxies:           cfg.Defense.Proxies,
			RequestsPerMinute: cfg.Defense.RequestsPerMinute,
			EnableCookies:     cfg.Defense.EnableCookies,
		})
		if err != nil {
			return nil, fmt.Errorf("bot defense for %s: %w", site, err)
		}

		session := browser.NewSession(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			WaitUntil:      cfg.Browser.WaitUntil,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			RetryBackoff:   cfg.Browser.RetryBackoff,
		}, defense)

		scrapers = append(scrapers, scraper.New(session, extractor).WithMaxAttempts(cfg.Scraper.MaxRetries))
	}

	return scraper.NewRegistry(scrapers...), nil
}
