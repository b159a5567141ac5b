package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTargets are the booking share links watched when
// BOOKINGWATCH_TARGETS is not set.
var DefaultTargets = []string{
	"https://www.booking.com/Share-SNzpVA",
	"https://www.booking.com/Share-YEFeTW",
	"https://www.booking.com/Share-Ip64xnj",
}

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Engine    EngineConfig
	Telegram  TelegramConfig
	Webhook   WebhookConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig

	// Targets is the list of URLs visited by a run.
	Targets []string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 2

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls how a target page is rendered.
type ScraperConfig struct {
	// NavigationTimeout bounds a single browser render. Zero leaves the
	// deadline to the caller's context.
	NavigationTimeout time.Duration // default: 0

	// IdleWindow is how long the network must stay quiet before the
	// page counts as idle.
	IdleWindow time.Duration // default: 500ms

	// WaitNetworkIdle waits for network idle after navigation.
	WaitNetworkIdle bool // default: true

	// RedirectStatuses lists the redirect codes that are followed rather
	// than treated as the final response.
	RedirectStatuses []int // default: [301, 302]

	// BlockedResourceTypes lists resource types to block.
	// default: none
	BlockedResourceTypes []string

	// BlockAds blocks requests to well-known ad and tracking domains.
	BlockAds bool // default: false

	// UserAgent and the header fields below are sent with every navigation.
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Referer        string
	DNT            string
}

// EngineConfig controls which fetch engine renders targets.
type EngineConfig struct {
	// FetchMode is "browser", "http" or "auto". default: "browser"
	FetchMode string

	// EscalationDelays is the staged start delay for each engine tier in
	// auto mode.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// DomainMemoryTTL is how long a winning engine is remembered per domain.
	DomainMemoryTTL time.Duration // default: 24h
}

// TelegramConfig holds the Bot API credentials. Empty values fall back to
// TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID when the notifier is built.
type TelegramConfig struct {
	BotToken string
	ChatID   string

	// APIBase is the Bot API root. default: "https://api.telegram.org"
	APIBase string

	// Timeout bounds the sendMessage call. Zero means no timeout.
	Timeout time.Duration
}

// WebhookConfig controls the optional JSON webhook notifier.
type WebhookConfig struct {
	URL    string
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// CacheConfig controls the latest-result snapshot.
type CacheConfig struct {
	// MaxEntries is the maximum number of targets kept.
	MaxEntries int // default: 100

	// MaxAge drops snapshots older than this.
	MaxAge time.Duration // default: 24h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("BOOKINGWATCH_HOST", "0.0.0.0"),
			Port: envIntOr("BOOKINGWATCH_PORT", 8080),
			Mode: envOr("BOOKINGWATCH_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("BOOKINGWATCH_HEADLESS", true),
			MaxPages:     envIntOr("BOOKINGWATCH_MAX_PAGES", 2),
			DefaultProxy: os.Getenv("BOOKINGWATCH_PROXY"),
			NoSandbox:    envBoolOr("BOOKINGWATCH_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("BOOKINGWATCH_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:    envDurationOr("BOOKINGWATCH_NAV_TIMEOUT", 0),
			IdleWindow:           envDurationOr("BOOKINGWATCH_IDLE_WINDOW", 500*time.Millisecond),
			WaitNetworkIdle:      envBoolOr("BOOKINGWATCH_WAIT_NETWORK_IDLE", true),
			RedirectStatuses:     envIntSliceOr("BOOKINGWATCH_REDIRECT_STATUSES", []int{301, 302}),
			BlockedResourceTypes: envSliceOr("BOOKINGWATCH_BLOCKED_RESOURCES", nil),
			BlockAds:             envBoolOr("BOOKINGWATCH_BLOCK_ADS", false),
			UserAgent: envOr("BOOKINGWATCH_USER_AGENT",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"),
			Accept: envOr("BOOKINGWATCH_ACCEPT",
				"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"),
			AcceptLanguage: envOr("BOOKINGWATCH_ACCEPT_LANGUAGE", "en-US,en;q=0.5"),
			Referer:        envOr("BOOKINGWATCH_REFERER", "https://www.booking.com/"),
			DNT:            envOr("BOOKINGWATCH_DNT", "1"),
		},
		Engine: EngineConfig{
			FetchMode:        envOr("BOOKINGWATCH_FETCH_MODE", "browser"),
			EscalationDelays: envDurationSliceOr("BOOKINGWATCH_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			DomainMemoryTTL:  envDurationOr("BOOKINGWATCH_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("BOOKINGWATCH_TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("BOOKINGWATCH_TELEGRAM_CHAT_ID"),
			APIBase:  envOr("BOOKINGWATCH_TELEGRAM_API_BASE", "https://api.telegram.org"),
			Timeout:  envDurationOr("BOOKINGWATCH_TELEGRAM_TIMEOUT", 0),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("BOOKINGWATCH_WEBHOOK_URL"),
			Secret: os.Getenv("BOOKINGWATCH_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("BOOKINGWATCH_AUTH_ENABLED", true),
			APIKeys: envSliceOr("BOOKINGWATCH_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("BOOKINGWATCH_RATE_RPS", 0.2),
			Burst:             envIntOr("BOOKINGWATCH_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("BOOKINGWATCH_CACHE_MAX_ENTRIES", 100),
			MaxAge:     envDurationOr("BOOKINGWATCH_CACHE_MAX_AGE", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("BOOKINGWATCH_LOG_LEVEL", "info"),
			Format: envOr("BOOKINGWATCH_LOG_FORMAT", "json"),
		},
		Targets: envSliceOr("BOOKINGWATCH_TARGETS", DefaultTargets),
	}
}

// Headers returns the browser-like request headers sent with every fetch.
// Empty values are skipped.
func (c ScraperConfig) Headers() map[string]string {
	h := make(map[string]string, 5)
	set := func(k, v string) {
		if v != "" {
			h[k] = v
		}
	}
	set("User-Agent", c.UserAgent)
	set("Accept", c.Accept)
	set("Accept-Language", c.AcceptLanguage)
	set("Referer", c.Referer)
	set("DNT", c.DNT)
	return h
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func envIntSliceOr(key string, fallback []int) []int {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]int, 0, len(parts))
		for _, p := range parts {
			if i, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
				result = append(result, i)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
