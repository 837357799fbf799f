package httpx

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the outbound rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	// Zero disables limiting.
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Enabled reports whether the config actually limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: {prefix}_{field}
// For example: LKS_RATELIMIT_REQUESTS, LKS_RATELIMIT_WINDOW_SEC, LKS_RATELIMIT_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv(prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests >= 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv(prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv(prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// hostLimiter keeps one limiter per target host, so the portal and the CAS
// gateway are throttled independently.
type hostLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (hl *hostLimiter) get(host string) *rate.Limiter {
	if limiter, ok := hl.limiters.Load(host); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(hl.rate, hl.burst)
	actual, _ := hl.limiters.LoadOrStore(host, limiter)
	return actual.(*rate.Limiter)
}

// RateLimit blocks each request until its host's limiter admits it, or the
// request context is done. A disabled config yields a pass-through.
func RateLimit(config RateLimitConfig) Middleware {
	if !config.Enabled() {
		return func(next http.RoundTripper) http.RoundTripper { return next }
	}

	burst := max(config.Burst, 1)
	hl := &hostLimiter{
		rate:  rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst: burst,
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := hl.get(req.URL.Host).Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limit wait for %s: %w", req.URL.Host, err)
			}
			return next.RoundTrip(req)
		})
	}
}
