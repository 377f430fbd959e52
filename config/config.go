package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent is a realistic desktop Chrome identity. The target site
// rejects the default HeadlessChrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Workflow  WorkflowConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"

	// StaticDir, when set, is served for any path that matches no API route.
	StaticDir string
}

// BrowserConfig controls the per-request Chromium process.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional upstream proxy URL.
	Proxy string

	// UserAgent is the client identity presented by the page.
	UserAgent string

	// AcceptLanguage is sent as an extra header on every page request.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Stealth injects go-rod/stealth evasions before the first navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks requests to well-known ad and tracking domains.
	BlockAds bool // default: true
}

// WorkflowConfig holds the target URL and every step bound of the
// navigation workflow. Settle delays are floors applied after a step
// succeeds; tests shrink them to zero.
type WorkflowConfig struct {
	TargetURL string // default: "https://blinkit.com/"

	NavigationTimeout     time.Duration // default: 60s
	AppModalTimeout       time.Duration // default: 10s
	LocationModalTimeout  time.Duration // default: 5s
	LocationInputTimeout  time.Duration // default: 10s
	SuggestionTimeout     time.Duration // default: 10s
	SearchButtonTimeout   time.Duration // default: 10s
	SearchInputTimeout    time.Duration // default: 30s
	ResultCardTimeout     time.Duration // default: 15s
	ResultsChangeTimeout  time.Duration // default: 5s
	ModalSettle           time.Duration // default: 2s
	LocationSettle        time.Duration // default: 2s
	SearchTransitionDelay time.Duration // default: 3s
	ResetSettle           time.Duration // default: 1s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting. Off by default: every
// request launches a browser, but the service applies no admission control
// unless an operator opts in.
type RateLimitConfig struct {
	// Enabled mounts the limiter on the product routes.
	Enabled bool // default: false

	// IdleTTL evicts identities not seen for this long.
	IdleTTL time.Duration // default: 1h

	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per identity.
	Burst int // default: 3
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
			Host:      envOr("PINSCOUT_HOST", "0.0.0.0"),
			Port:      envIntOr("PINSCOUT_PORT", 3000),
			Mode:      envOr("PINSCOUT_MODE", "release"),
			StaticDir: os.Getenv("PINSCOUT_STATIC_DIR"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("PINSCOUT_HEADLESS", true),
			NoSandbox:      envBoolOr("PINSCOUT_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("PINSCOUT_BROWSER_BIN"),
			Proxy:          os.Getenv("PINSCOUT_PROXY"),
			UserAgent:      envOr("PINSCOUT_USER_AGENT", DefaultUserAgent),
			AcceptLanguage: envOr("PINSCOUT_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Stealth:        envBoolOr("PINSCOUT_STEALTH", true),
			BlockedResourceTypes: envSliceOr("PINSCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("PINSCOUT_BLOCK_ADS", true),
		},
		Workflow: LoadWorkflow(),
		Auth: AuthConfig{
			Enabled: envBoolOr("PINSCOUT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PINSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("PINSCOUT_RATE_ENABLED", false),
			IdleTTL:           envDurationOr("PINSCOUT_RATE_IDLE_TTL", time.Hour),
			RequestsPerSecond: envFloatOr("PINSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("PINSCOUT_RATE_BURST", 3),
		},
		Log: LogConfig{
			Level:  envOr("PINSCOUT_LOG_LEVEL", "info"),
			Format: envOr("PINSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// LoadWorkflow reads the workflow bounds from the environment.
func LoadWorkflow() WorkflowConfig {
	return WorkflowConfig{
		TargetURL:             envOr("PINSCOUT_TARGET_URL", "https://blinkit.com/"),
		NavigationTimeout:     envDurationOr("PINSCOUT_NAV_TIMEOUT", 60*time.Second),
		AppModalTimeout:       envDurationOr("PINSCOUT_APP_MODAL_TIMEOUT", 10*time.Second),
		LocationModalTimeout:  envDurationOr("PINSCOUT_LOCATION_MODAL_TIMEOUT", 5*time.Second),
		LocationInputTimeout:  envDurationOr("PINSCOUT_LOCATION_INPUT_TIMEOUT", 10*time.Second),
		SuggestionTimeout:     envDurationOr("PINSCOUT_SUGGESTION_TIMEOUT", 10*time.Second),
		SearchButtonTimeout:   envDurationOr("PINSCOUT_SEARCH_BUTTON_TIMEOUT", 10*time.Second),
		SearchInputTimeout:    envDurationOr("PINSCOUT_SEARCH_INPUT_TIMEOUT", 30*time.Second),
		ResultCardTimeout:     envDurationOr("PINSCOUT_RESULT_CARD_TIMEOUT", 15*time.Second),
		ResultsChangeTimeout:  envDurationOr("PINSCOUT_RESULTS_CHANGE_TIMEOUT", 5*time.Second),
		ModalSettle:           envDurationOr("PINSCOUT_MODAL_SETTLE", 2*time.Second),
		LocationSettle:        envDurationOr("PINSCOUT_LOCATION_SETTLE", 2*time.Second),
		SearchTransitionDelay: envDurationOr("PINSCOUT_SEARCH_TRANSITION_DELAY", 3*time.Second),
		ResetSettle:           envDurationOr("PINSCOUT_RESET_SETTLE", 1*time.Second),
	}
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
