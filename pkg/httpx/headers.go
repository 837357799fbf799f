package httpx

import "net/http"

// BrowserHeaders returns the headers the portal expects from a browser. The
// CAS gateway rejects requests that look scripted.
func BrowserHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}

	h := make(http.Header)
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	return h
}

// DefaultHeaders sets every header in defaults that the request does not
// already carry. The outgoing request is a clone; the caller's is untouched.
func DefaultHeaders(defaults http.Header) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var missing []string
			for key := range defaults {
				if req.Header.Get(key) == "" {
					missing = append(missing, key)
				}
			}
			if len(missing) == 0 {
				return next.RoundTrip(req)
			}

			clone := req.Clone(req.Context())
			for _, key := range missing {
				clone.Header[key] = append([]string(nil), defaults[key]...)
			}
			return next.RoundTrip(clone)
		})
	}
}
