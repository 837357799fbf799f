package lksauth

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/lkslogin/pkg/httpx"
	"github.com/aussiebroadwan/lkslogin/pkg/slogx"
)

type Config struct {
	BaseURL      string        // Portal base URL (default: https://lks.bmstu.ru)
	LoginPath    string        // Portal login page path (default: /login)
	BackPath     string        // Page the portal returns to after CAS (default: /profile)
	Timeout      time.Duration // Per request timeout (default: 10s)
	MaxRedirects int           // Redirects followed per request (default: 10)
	UserAgent    string        // User-Agent sent to the portal (default: Mozilla/5.0)
	FixedTime    time.Time     // Optional: check tokens against this instant instead of the wall clock

	RateLimit httpx.RateLimitConfig // Outbound throttle per host (default: unlimited)

	Env       string // Environment (dev, staging, prod) (default: prod)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Version   string // Reported in every log line
}

func LoadConfig() Config {
	return Config{
		BaseURL:      getEnvOrDefault("LKS_BASE_URL", DefaultBaseURL),
		LoginPath:    getEnvOrDefault("LKS_LOGIN_PATH", DefaultLoginPath),
		BackPath:     getEnvOrDefault("LKS_BACK_PATH", DefaultBackPath),
		Timeout:      getEnvDurationOrDefault("LKS_TIMEOUT", DefaultTimeout),
		MaxRedirects: getEnvIntOrDefault("LKS_MAX_REDIRECTS", DefaultMaxRedirects),
		UserAgent:    getEnvOrDefault("LKS_USER_AGENT", "Mozilla/5.0"),
		FixedTime:    getEnvTimeOrZero("LKS_FIXED_TIME"),
		RateLimit:    httpx.ParseRateLimitFromEnv("LKS_RATELIMIT", httpx.RateLimitConfig{}),
		Env:          getEnvOrDefault("ENV", "prod"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "json"),
		Version:      getEnvOrDefault("VERSION", "dev"),
	}
}

// Logger builds the logger described by the config.
func (c Config) Logger() *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "lkslogin",
		Version: c.Version,
		Env:     c.Env,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// getEnvTimeOrZero parses an RFC 3339 timestamp. Anything else is ignored.
func getEnvTimeOrZero(key string) time.Time {
	value := os.Getenv(key)
	if value == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
