package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Defense DefenseConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Sink    SinkConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DefenseConfig struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	UserAgentType     string
	Proxies           []string
	RequestsPerMinute int
	EnableCookies     bool
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	WaitUntil      string
	ViewportWidth  int
	ViewportHeight int
	RetryBackoff   time.Duration
}

type ScraperConfig struct {
	MaxRetries int
	Sites      []string
}

type SinkConfig struct {
	APIURL      string
	APIKey      string
	BearerToken string
	Timeout     time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Defense: DefenseConfig{
			MinDelay:          getDurationOrDefault("DEFENSE_MIN_DELAY", 2*time.Second),
			MaxDelay:          getDurationOrDefault("DEFENSE_MAX_DELAY", 5*time.Second),
			UserAgentType:     getEnvOrDefault("DEFENSE_USER_AGENT_TYPE", "random"),
			Proxies:           getStringSliceOrDefault("DEFENSE_PROXIES", []string{}),
			RequestsPerMinute: getIntOrDefault("DEFENSE_REQUESTS_PER_MINUTE", 10),
			EnableCookies:     getBoolOrDefault("DEFENSE_ENABLE_COOKIES", true),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			WaitUntil:      getEnvOrDefault("BROWSER_WAIT_UNTIL", "networkidle"),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			RetryBackoff:   getDurationOrDefault("BROWSER_RETRY_BACKOFF", time.Second),
		},
		Scraper: ScraperConfig{
			MaxRetries: getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			Sites:      getStringSliceOrDefault("SCRAPER_SITES", []string{"shein", "temu"}),
		},
		Sink: SinkConfig{
			APIURL:      getEnvOrDefault("SINK_API_URL", ""),
			APIKey:      getEnvOrDefault("SINK_API_KEY", ""),
			BearerToken: getEnvOrDefault("SINK_BEARER_TOKEN", ""),
			Timeout:     getDurationOrDefault("SINK_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Defense.MinDelay < 0 {
		return fmt.Errorf("DEFENSE_MIN_DELAY cannot be negative")
	}

	if c.Defense.MinDelay > c.Defense.MaxDelay {
		return fmt.Errorf("DEFENSE_MIN_DELAY cannot be greater than DEFENSE_MAX_DELAY")
	}

	if c.Defense.RequestsPerMinute < 1 {
		return fmt.Errorf("DEFENSE_REQUESTS_PER_MINUTE must be at least 1")
	}

	if c.Scraper.MaxRetries < 1 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be at least 1")
	}

	for _, site := range c.Scraper.Sites {
		if site != "shein" && site != "temu" {
			return fmt.Errorf("SCRAPER_SITES contains unknown site %q", site)
		}
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i, part := range parts {
			parts[i] = strings.TrimSpace(part)
		}
		return parts
	}
	return defaultValue
}
