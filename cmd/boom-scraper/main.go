package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/boomdev/boom-scraper/internal/api"
	"github.com/boomdev/boom-scraper/internal/botdefense"
	"github.com/boomdev/boom-scraper/internal/browser"
	"github.com/boomdev/boom-scraper/internal/config"
	"github.com/boomdev/boom-scraper/internal/jobs"
	"github.com/boomdev/boom-scraper/internal/parser"
	"github.com/boomdev/boom-scraper/internal/queue"
	"github.com/boomdev/boom-scraper/internal/scraper"
	"github.com/boomdev/boom-scraper/internal/sink"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("failed to build scrapers", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := registry.Cleanup(); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	var poster *sink.Poster
	if cfg.Sink.APIURL != "" {
		poster = sink.New(cfg.Sink.APIURL, sink.Options{
			APIKey:      cfg.Sink.APIKey,
			BearerToken: cfg.Sink.BearerToken,
			Timeout:     cfg.Sink.Timeout,
		})
	}

	scrapers := make([]jobs.ProductScraper, 0, len(registry.Scrapers()))
	for _, s := range registry.Scrapers() {
		scrapers = append(scrapers, s)
	}

	var jobSink jobs.Sink
	if poster != nil {
		jobSink = poster
	}
	manager := jobs.New(queue.NewInMemoryQueue(), scrapers, jobSink)
	defer manager.Close()

	go manager.StartWorker(ctx)

	handlers := api.NewHandlers(registry, manager, poster, logger)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr, "sites", cfg.Scraper.Sites)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// buildRegistry creates one browser session and scraper per configured
// site. Sessions share nothing so each site keeps its own rate budget.
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
