package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/boomdev/boom-scraper/internal/botdefense"
)

// NavigationError is the only error kind a fetch raises: navigation
// timeouts, missing responses, bad HTTP statuses and driver failures are
// all wrapped into it. Callers treat it as retryable.
type NavigationError struct {
	URL    string
	Status int
	Reason string
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	WaitUntil      string
	ViewportWidth  int
	ViewportHeight int
	RetryBackoff   time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		WaitUntil:      "networkidle",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		RetryBackoff:   1 * time.Second,
	}
}

// Session owns one browser process lifecycle and converts URLs into fetch
// results. The browser is launched lazily on first use and reused across
// fetches; each fetch gets a fresh context and page, and the page is always
// closed before the fetch returns.
type Session struct {
	driver  Driver
	browser Browser
	defense *botdefense.Defense
	opts    *Options
	logger  *slog.Logger
}

// NewSession creates a session backed by the playwright driver. A nil
// defense disables request shaping.
func NewSession(opts *Options, defense *botdefense.Defense) *Session {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Session{
		driver:  NewPlaywrightDriver(),
		defense: defense,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}
}

// Fetch navigates to url and returns the page content with its metadata.
// Every failure mode surfaces as a *NavigationError.
func (s *Session) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if err := s.ensureBrowser(); err != nil {
		return nil, err
	}

	ctxOpts := ContextOptions{
		ViewportWidth:  s.opts.ViewportWidth,
		ViewportHeight: s.opts.ViewportHeight,
	}

	if s.defense != nil {
		profile, err := s.defense.NextProfile(ctx)
		if err != nil {
			return nil, &NavigationError{URL: url, Reason: "request shaping interrupted", Err: err}
		}
		headers := make(map[string]string, len(profile.Headers)+1)
		for name, value := range profile.Headers {
			headers[name] = value
		}
		if cookie := profile.CookieHeader(); cookie != "" {
			headers["Cookie"] = cookie
		}
		ctxOpts.UserAgent = profile.Headers["User-Agent"]
		ctxOpts.ExtraHeaders = headers
		ctxOpts.Proxy = profile.Proxy
	}

	browserCtx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, &NavigationError{URL: url, Reason: "failed to create browser context", Err: err}
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, &NavigationError{URL: url, Reason: "failed to create page", Err: err}
	}
	// The page must be released exactly once per fetch, whatever fails below.
	defer page.Close()

	if s.defense != nil {
		s.defense.SuppressFingerprint(page)
	}

	resp, err := page.Goto(url, s.opts.Timeout, s.opts.WaitUntil)
	if err != nil {
		return nil, &NavigationError{URL: url, Reason: "navigation failed", Err: err}
	}
	if resp == nil {
		return nil, &NavigationError{URL: url, Reason: fmt.Sprintf("no response: %s", url)}
	}
	if !resp.Ok() {
		return nil, &NavigationError{
			URL:    url,
			Status: resp.Status(),
			Reason: fmt.Sprintf("HTTP %d: %s", resp.Status(), url),
		}
	}

	if s.defense != nil {
		s.defense.DrivePage(page, url)
		if cookies := cookiesFromHeaders(resp.Headers()); len(cookies) > 0 {
			s.defense.UpdateCookies(cookies)
		}
	}

	html, err := page.Content()
	if err != nil {
		return nil, &NavigationError{URL: url, Reason: "failed to read page content", Err: err}
	}
	title, err := page.Title()
	if err != nil {
		s.logger.Debug("failed to read page title", "url", url, "error", err)
	}

	return &FetchResult{
		URL:      url,
		FinalURL: page.URL(),
		HTML:     html,
		Status:   resp.Status(),
		Headers:  resp.Headers(),
		Title:    title,
	}, nil
}

// FetchWithRetries calls Fetch up to maxAttempts times, backing off between
// attempts. Unlike Fetch it never returns an error: after exhausting the
// attempts it returns a FetchResult carrying the last failure instead, so
// bulk callers get a non-throwing option.
func (s *Session) FetchWithRetries(ctx context.Context, url string, maxAttempts int) *FetchResult {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := s.Fetch(ctx, url)
		if err == nil {
			return res
		}
		lastErr = err
		s.logger.Warn("fetch attempt failed", "url", url, "attempt", attempt, "error", err)

		if attempt < maxAttempts {
			timer := time.NewTimer(s.opts.RetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return &FetchResult{URL: url, Error: ctx.Err().Error()}
			case <-timer.C:
			}
		}
	}

	return &FetchResult{URL: url, Error: lastErr.Error()}
}

// cookiesFromHeaders pulls name=value pairs out of a response's Set-Cookie
// header. Playwright joins repeated headers with newlines.
func cookiesFromHeaders(headers map[string]string) map[string]string {
	raw, ok := headers["set-cookie"]
	if !ok {
		raw = headers["Set-Cookie"]
	}
	if raw == "" {
		return nil
	}

	cookies := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		pair, _, _ := strings.Cut(line, ";")
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && name != "" {
			cookies[name] = value
		}
	}
	return cookies
}

// ensureBrowser launches the browser on first use. A failed launch resets
// any half-started driver state before propagating.
func (s *Session) ensureBrowser() error {
	if s.browser != nil {
		return nil
	}

	b, err := s.driver.Launch(s.opts)
	if err != nil {
		s.driver.Stop()
		return &NavigationError{Reason: "failed to initialize browser", Err: err}
	}
	s.browser = b
	return nil
}

// Cleanup closes the browser and releases the driver. Safe to call more
// than once.
func (s *Session) Cleanup() error {
	var errs []error

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}

	if s.driver != nil {
		if err := s.driver.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop driver: %w", err))
		}
	}

	return errors.Join(errs...)
}
