// ABOUTME: Configuration loader for the drive BFF service
// ABOUTME: Loads settings from environment variables (and an optional .env file) with defaults

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	AppURL             string   // public URL of this service, used for OAuth redirects
	Environment        string   // development, production
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	CSRFEnabled        bool     // double-submit CSRF check for cookie sessions (default: true)

	// Session
	SessionSecret string // HS256 key for the session cookie
	CookieSecure  bool   // derived from Environment

	// Upstream API
	APIBaseURL      string
	UpstreamTimeout time.Duration
	UpstreamProxy   string // optional ssh+socks5://user@host:port?private-key=/path
	MaxUploadMB     int

	// Google OAuth (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// Rate Limiting
	RateLimitEnabled bool
	RateLimitAuth    int // requests per minute for login/OAuth endpoints (default: 10)
	RateLimitDefault int // requests per minute for all other endpoints (default: 300)
}

// IsProduction reports whether the service runs with production cookie settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GoogleConfigured returns true if both OAuth client credentials are set
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
// LoadDotEnv copies .env from the working directory into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		slog.Warn("Failed to parse .env file", "error", err)
	}

	env := strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", "development")))

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AppURL:             strings.TrimRight(getEnv("NEXT_PUBLIC_APP_URL", getEnv("APP_URL", "http://localhost:8080")), "/"),
		Environment:        env,
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		CSRFEnabled:        getEnvBool("CSRF_ENABLED", true),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  env == "production",

		APIBaseURL:      strings.TrimRight(ensureScheme(os.Getenv("API_BASE_URL")), "/"),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT", 30)) * time.Second,
		UpstreamProxy:   os.Getenv("UPSTREAM_ALL_PROXY"),
		MaxUploadMB:     getEnvInt("MAX_UPLOAD_MB", 5),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 10),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 300),
	}

	// Validate required fields
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.SessionSecret == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("SESSION_SECRET is required in production")
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(cfg.SessionSecret))
	}
	if cfg.UpstreamTimeout <= 0 || cfg.UpstreamTimeout > 5*time.Minute {
		return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be between 1 and 300 seconds, got %s", cfg.UpstreamTimeout)
	}
	if cfg.MaxUploadMB < 1 || cfg.MaxUploadMB > 100 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be between 1 and 100, got %d", cfg.MaxUploadMB)
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
