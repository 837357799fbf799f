package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/lkslogin/pkg/httpx"
	"github.com/aussiebroadwan/lkslogin/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// recorder is a terminal RoundTripper that remembers what it was handed.
type recorder struct {
	reqs []*http.Request
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.reqs = append(r.reqs, req)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       http.NoBody,
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return httpx.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	rt := httpx.Chain(&recorder{}, mark("outer"), mark("inner"))
	req := httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil)

	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestDefaultHeaders(t *testing.T) {
	t.Parallel()

	t.Run("fills missing headers on a clone", func(t *testing.T) {
		rec := &recorder{}
		rt := httpx.Chain(rec, httpx.DefaultHeaders(httpx.BrowserHeaders("")))

		req := httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)

		require.Len(t, rec.reqs, 1)
		sent := rec.reqs[0]
		require.Equal(t, "Mozilla/5.0", sent.Header.Get("User-Agent"))
		require.Contains(t, sent.Header.Get("Accept"), "text/html")
		require.NotEmpty(t, sent.Header.Get("Accept-Language"))

		// the caller's request is left alone
		require.Empty(t, req.Header.Get("Accept-Language"))
	})

	t.Run("keeps headers set by the caller", func(t *testing.T) {
		rec := &recorder{}
		rt := httpx.Chain(rec, httpx.DefaultHeaders(httpx.BrowserHeaders("custom-agent")))

		req := httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil)
		req.Header.Set("Accept", "application/json")
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)

		sent := rec.reqs[0]
		require.Equal(t, "application/json", sent.Header.Get("Accept"))
		require.Equal(t, "custom-agent", sent.Header.Get("User-Agent"))
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("disabled config passes through", func(t *testing.T) {
		rec := &recorder{}
		rt := httpx.Chain(rec, httpx.RateLimit(httpx.RateLimitConfig{}))

		for i := 0; i < 10; i++ {
			_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil))
			require.NoError(t, err)
		}
		require.Len(t, rec.reqs, 10)
	})

	t.Run("blocks over limit until context expires", func(t *testing.T) {
		rec := &recorder{}
		rt := httpx.Chain(rec, httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Hour,
			Burst:             1,
		}))

		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil).WithContext(ctx)

		_, err = rt.RoundTrip(req)
		require.Error(t, err)
		require.Contains(t, err.Error(), "rate limit")
		require.Len(t, rec.reqs, 1)
	})

	t.Run("hosts are tracked separately", func(t *testing.T) {
		rec := &recorder{}
		rt := httpx.Chain(rec, httpx.RateLimit(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Hour,
			Burst:             1,
		}))

		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://lks.example.com/", nil))
		require.NoError(t, err)
		_, err = rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://cas.example.com/", nil))
		require.NoError(t, err)
		require.Len(t, rec.reqs, 2)
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	t.Setenv("TEST_RL_REQUESTS", "7")
	t.Setenv("TEST_RL_WINDOW_SEC", "30")
	t.Setenv("TEST_RL_BURST", "bogus")

	cfg := httpx.ParseRateLimitFromEnv("TEST_RL", httpx.RateLimitConfig{Burst: 2})
	require.Equal(t, 7, cfg.RequestsPerWindow)
	require.Equal(t, 30*time.Second, cfg.Window)
	require.Equal(t, 2, cfg.Burst)
	require.True(t, cfg.Enabled())
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rt := httpx.Chain(&recorder{}, httpx.Logging())
	req := httptest.NewRequest(http.MethodGet, "https://cas.example.com/cas/login?ticket=ST-secret", nil)
	req = req.WithContext(slogx.WithContext(req.Context(), logger))

	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	require.NotContains(t, buf.String(), "ST-secret")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	require.Equal(t, "http_roundtrip", line["msg"])
	require.Equal(t, "/cas/login", line["path"])
	require.EqualValues(t, http.StatusOK, line["status"])
}
