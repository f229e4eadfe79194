package botdefense

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/boomdev/boom-scraper/internal/ratelimit"
)

// Config controls how the defense layer shapes outgoing requests.
type Config struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	UserAgentType     string
	Proxies           []string
	RequestsPerMinute int
	EnableCookies     bool
}

func DefaultConfig() Config {
	return Config{
		MinDelay:          1 * time.Second,
		MaxDelay:          3 * time.Second,
		UserAgentType:     "random",
		RequestsPerMinute: 30,
		EnableCookies:     true,
	}
}

// ConfigError reports an invalid defense configuration. It is fatal at
// construction and never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("botdefense config: %s: %s", e.Field, e.Reason)
}

// Profile is the per-request bundle of human-looking characteristics:
// headers (always including a User-Agent and the fingerprint header set),
// an optional proxy endpoint and the currently stored cookies.
type Profile struct {
	Headers map[string]string
	Proxy   string
	Cookies map[string]string
}

// CookieHeader renders the stored cookies as a Cookie request header value.
func (p *Profile) CookieHeader() string {
	if len(p.Cookies) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(p.Cookies))
	for name, value := range p.Cookies {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, "; ")
}

var (
	screenResolutions = []string{
		"1920x1080", "1366x768", "1536x864", "1440x900", "1280x720", "2560x1440",
	}
	colorDepths = []string{"24", "32"}
	platforms   = []string{"Win32", "MacIntel", "Linux x86_64"}
)

// Defense makes successive automated requests resemble independent human
// browsing sessions: randomized inter-request delays, a sliding per-minute
// request ceiling, rotating user agents and proxies, fingerprint headers and
// carried-over cookies. All state is scoped to one instance.
type Defense struct {
	cfg     Config
	delay   *ratelimit.JitterLimiter
	window  *ratelimit.Window
	cookies map[string]string
	proxyIx int
	mu      sync.Mutex
	logger  *slog.Logger

	rnd *rand.Rand
}

func New(cfg Config) (*Defense, error) {
	if cfg.MinDelay < 0 {
		return nil, &ConfigError{Field: "min_delay", Reason: "must be >= 0"}
	}
	if cfg.MaxDelay < 0 {
		return nil, &ConfigError{Field: "max_delay", Reason: "must be >= 0"}
	}
	if cfg.MinDelay > cfg.MaxDelay {
		return nil, &ConfigError{Field: "min_delay", Reason: "must not exceed max_delay"}
	}
	if cfg.RequestsPerMinute < 1 {
		return nil, &ConfigError{Field: "requests_per_minute", Reason: "must be >= 1"}
	}
	for _, proxy := range cfg.Proxies {
		u, err := url.Parse(proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, &ConfigError{Field: "proxies", Reason: fmt.Sprintf("malformed proxy url %q", proxy)}
		}
	}

	return &Defense{
		cfg:     cfg,
		delay:   ratelimit.NewJitterLimiter(cfg.MinDelay, cfg.MaxDelay),
		window:  ratelimit.NewWindow(cfg.RequestsPerMinute, time.Minute),
		cookies: make(map[string]string),
		logger:  slog.Default().With("component", "botdefense"),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// NextProfile blocks until the inter-request delay and the per-minute
// ceiling allow another request, then returns a freshly generated profile.
// The only error it can return is a cancelled context while blocked.
func (d *Defense) NextProfile(ctx context.Context) (*Profile, error) {
	if err := d.delay.Wait(ctx); err != nil {
		return nil, err
	}
	if err := d.window.Wait(ctx); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	agent := d.pickUserAgent()
	resolution := screenResolutions[d.rnd.Intn(len(screenResolutions))]
	depth := colorDepths[d.rnd.Intn(len(colorDepths))]
	platform := platforms[d.rnd.Intn(len(platforms))]

	profile := &Profile{
		Headers: map[string]string{
			"User-Agent":                agent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Accept-Encoding":           "gzip, deflate, br",
			"DNT":                       "1",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Dest":            "document",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "none",
			"Sec-Fetch-User":            "?1",
			"Cache-Control":             "max-age=0",
			"Sec-Ch-Ua":                 fmt.Sprintf("%q", agent),
			"Sec-Ch-Ua-Mobile":          "?0",
			"Sec-Ch-Ua-Platform":        fmt.Sprintf("%q", platform),
			"Viewport-Width":            strings.SplitN(resolution, "x", 2)[0],
			"Screen-Resolution":         resolution,
			"Color-Depth":               depth,
		},
	}

	if len(d.cfg.Proxies) > 0 {
		profile.Proxy = d.cfg.Proxies[d.proxyIx]
		d.proxyIx = (d.proxyIx + 1) % len(d.cfg.Proxies)
	}

	if d.cfg.EnableCookies && len(d.cookies) > 0 {
		profile.Cookies = make(map[string]string, len(d.cookies))
		for name, value := range d.cookies {
			profile.Cookies[name] = value
		}
	}

	return profile, nil
}

// UpdateCookies merges the given cookies into the stored set. It is a no-op
// when cookie tracking is disabled.
func (d *Defense) UpdateCookies(cookies map[string]string) {
	if !d.cfg.EnableCookies {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, value := range cookies {
		d.cookies[name] = value
	}
}

// pickUserAgent resolves the configured family to a concrete agent string.
// An unknown family resolves to the empty fallback agent rather than an
// error, matching the configured-but-unsupported behavior downstream.
func (d *Defense) pickUserAgent() string {
	if d.cfg.UserAgentType == "random" || d.cfg.UserAgentType == "" {
		all := make([]string, 0, 8)
		for _, pool := range userAgents {
			all = append(all, pool...)
		}
		return all[d.rnd.Intn(len(all))]
	}
	pool, ok := userAgents[d.cfg.UserAgentType]
	if !ok {
		d.logger.Warn("unknown user agent type, using empty fallback", "type", d.cfg.UserAgentType)
		return ""
	}
	return pool[d.rnd.Intn(len(pool))]
}

var userAgents = map[string][]string{
	"chrome": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	},
	"firefox": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	},
	"safari": {
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	},
	"edge": {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
	},
}
