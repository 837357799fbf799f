package httpx

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/lkslogin/pkg/slogx"
)

// Logging emits one debug line per round trip through the logger carried in
// the request context. Query strings are left out: CAS puts service tickets
// there.
func Logging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			logger := slogx.FromContext(req.Context())

			resp, err := next.RoundTrip(req)
			duration := time.Since(start).Milliseconds()
			if err != nil {
				logger.Debug("http_roundtrip_failed",
					"method", req.Method,
					"host", req.URL.Host,
					"path", req.URL.Path,
					"duration_ms", duration,
					"error", err,
				)
				return nil, err
			}

			logger.Debug("http_roundtrip",
				"method", req.Method,
				"host", req.URL.Host,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
			return resp, nil
		})
	}
}
